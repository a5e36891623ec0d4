package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carepay/internal/domain"
)

func denver(t *testing.T) *time.Location {
	loc, err := time.LoadLocation("America/Denver")
	require.NoError(t, err)
	return loc
}

func TestLockCutoff(t *testing.T) {
	loc := denver(t)

	// Wednesday Sep 9 2026 locks at the end of Monday Sep 7.
	wednesday := time.Date(2026, 9, 9, 0, 0, 0, 0, loc)
	cutoff := LockCutoff(wednesday, loc)
	assert.Equal(t, time.Date(2026, 9, 7, 23, 59, 59, 0, loc), cutoff)

	// A Monday locks at the end of that same day.
	monday := time.Date(2026, 9, 7, 0, 0, 0, 0, loc)
	assert.Equal(t, cutoff, LockCutoff(monday, loc))

	// A Sunday belongs to the week started six days earlier.
	sunday := time.Date(2026, 9, 13, 0, 0, 0, 0, loc)
	assert.Equal(t, cutoff, LockCutoff(sunday, loc))

	// Parsed dates arrive at UTC midnight; the calendar day is what
	// counts, not the instant shifted into the business timezone.
	parsedWednesday := time.Date(2026, 9, 9, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, cutoff, LockCutoff(parsedWednesday, loc))
}

func TestCareDayState(t *testing.T) {
	now := time.Now()
	earlier := now.Add(-time.Hour)

	d := &AllocatedCareDay{Type: domain.CareDayFull}
	assert.Equal(t, "new", CareDayState(d))

	d.LastSubmittedAt = &earlier
	d.UpdatedAt = earlier
	assert.Equal(t, "submitted", CareDayState(d))

	d.UpdatedAt = now
	assert.Equal(t, "needs_resubmission", CareDayState(d))

	d.DeletedAt = &now
	assert.Equal(t, "delete_not_submitted", CareDayState(d))

	d.LastSubmittedAt = nil
	assert.Equal(t, "deleted", CareDayState(d))
}

func TestHalfDayUnits(t *testing.T) {
	full := &AllocatedCareDay{Type: domain.CareDayFull}
	half := &AllocatedCareDay{Type: domain.CareDayHalf}
	assert.Equal(t, 2, full.HalfDayUnits())
	assert.Equal(t, 1, half.HalfDayUnits())
}

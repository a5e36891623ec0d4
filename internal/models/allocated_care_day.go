package models

import (
	"time"

	"github.com/google/uuid"

	"carepay/internal/domain"
)

// AllocatedCareDay is a single day of care a family has committed to pay a
// provider for, billed against one month allocation. Rows are soft deleted
// so the (allocation, provider, date) key can be resurrected by an
// undo-delete-recreate edit flow; the unique index spans deleted rows.
type AllocatedCareDay struct {
	ID                 uint               `gorm:"primaryKey" json:"id"`
	MonthAllocationID  uint               `gorm:"not null;uniqueIndex:uniq_alloc_provider_date;index" json:"month_allocation_id"`
	ProviderExternalID string             `gorm:"size:64;not null;uniqueIndex:uniq_alloc_provider_date;index" json:"provider_external_id"`
	Date               time.Time          `gorm:"not null;uniqueIndex:uniq_alloc_provider_date;index" json:"date"`
	Type               domain.CareDayType `gorm:"size:10;not null" json:"type"`

	// Frozen at creation from the provider+child rate table.
	AmountCents int64 `gorm:"not null" json:"amount_cents"`

	// End of the submission window; past this the row is immutable.
	LockedDate time.Time `gorm:"not null" json:"locked_date"`

	PaymentDistributionRequested bool       `gorm:"not null;default:false" json:"payment_distribution_requested"`
	LastSubmittedAt              *time.Time `json:"last_submitted_at,omitempty"`

	PaymentID *uuid.UUID `gorm:"type:char(36);index" json:"payment_id,omitempty"`

	DeletedAt *time.Time `gorm:"index" json:"deleted_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (AllocatedCareDay) TableName() string {
	return "allocated_care_day"
}

func (d *AllocatedCareDay) IsDeleted() bool {
	return d.DeletedAt != nil
}

func (d *AllocatedCareDay) IsLocked(now time.Time) bool {
	return now.After(d.LockedDate)
}

func (d *AllocatedCareDay) IsPaid() bool {
	return d.PaymentID != nil
}

// DayCount in half-day units: 2 for a full day, 1 for a half day.
func (d *AllocatedCareDay) HalfDayUnits() int {
	if d.Type == domain.CareDayFull {
		return 2
	}
	return 1
}

// MarkSubmitted records that the day was sent to the provider.
func (d *AllocatedCareDay) MarkSubmitted(now time.Time) {
	d.LastSubmittedAt = &now
}

// NeedsResubmission reports whether the day changed after it was last sent
// to the provider.
func (d *AllocatedCareDay) NeedsResubmission() bool {
	if d.LastSubmittedAt == nil {
		return true
	}
	return d.UpdatedAt.After(*d.LastSubmittedAt)
}

// CareDayState summarizes a care day for display purposes.
func CareDayState(d *AllocatedCareDay) string {
	switch {
	case d.IsDeleted() && d.LastSubmittedAt != nil && d.LastSubmittedAt.Before(*d.DeletedAt):
		return "delete_not_submitted"
	case d.IsDeleted():
		return "deleted"
	case d.LastSubmittedAt == nil:
		return "new"
	case d.NeedsResubmission():
		return "needs_resubmission"
	default:
		return "submitted"
	}
}

// LockCutoff computes when a care day on the given date becomes immutable:
// the end of the Monday of its week, in the business timezone.
func LockCutoff(careDate time.Time, loc *time.Location) time.Time {
	// careDate is a calendar date; its fields are read as given and the
	// cutoff wall clock is placed in loc. Converting zones here would
	// shift a midnight date into the previous day.
	daysSinceMonday := (int(careDate.Weekday()) + 6) % 7
	monday := careDate.AddDate(0, 0, -daysSinceMonday)
	return time.Date(monday.Year(), monday.Month(), monday.Day(), 23, 59, 59, 0, loc)
}

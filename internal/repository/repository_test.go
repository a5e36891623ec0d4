package repository

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"carepay/internal/domain"
	"carepay/internal/models"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.MonthAllocation{},
		&models.AllocatedCareDay{},
		&models.AllocatedLumpSum{},
		&models.PaymentRate{},
		&models.PaymentIntent{},
		&models.PaymentAttempt{},
		&models.Payment{},
	))
	return db
}

func TestAllocationCreate_DuplicateKeyIsSurfaced(t *testing.T) {
	db := testDB(t)
	repo := NewAllocationRepository(db)
	month := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	first := &models.MonthAllocation{ChildExternalID: "c-1", Date: month, AllocationCents: 1000}
	require.NoError(t, repo.Create(first))

	second := &models.MonthAllocation{ChildExternalID: "c-1", Date: month, AllocationCents: 1000}
	err := repo.Create(second)
	require.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	// Different month is fine.
	third := &models.MonthAllocation{ChildExternalID: "c-1", Date: month.AddDate(0, 1, 0), AllocationCents: 1000}
	require.NoError(t, repo.Create(third))
}

func TestCareDayUniqueKey_SpansSoftDeletedRows(t *testing.T) {
	db := testDB(t)
	repo := NewCareDayRepository(db)
	date := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)

	day := &models.AllocatedCareDay{
		MonthAllocationID:  1,
		ProviderExternalID: "p-1",
		Date:               date,
		Type:               domain.CareDayFull,
		AmountCents:        7500,
		LockedDate:         date,
	}
	require.NoError(t, repo.Create(day))
	require.NoError(t, repo.SoftDelete(day, time.Now().UTC()))

	// The soft-deleted row still occupies the key.
	dup := &models.AllocatedCareDay{
		MonthAllocationID:  1,
		ProviderExternalID: "p-1",
		Date:               date,
		Type:               domain.CareDayFull,
		AmountCents:        7500,
		LockedDate:         date,
	}
	require.Error(t, repo.Create(dup))

	found, err := repo.FindIncludingDeleted(1, "p-1", date)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.True(t, found.IsDeleted())

	require.NoError(t, repo.Restore(found))
	assert.False(t, found.IsDeleted())
}

func TestCreatePaymentWithItems_StampsItemsAndEnforcesOnePaymentPerIntent(t *testing.T) {
	db := testDB(t)
	payments := NewPaymentRepository(db)
	careDays := NewCareDayRepository(db)

	intent := &models.PaymentIntent{
		ProviderExternalID: "p-1",
		ChildExternalID:    "c-1",
		MonthAllocationID:  1,
		AmountCents:        7500,
	}
	require.NoError(t, payments.CreateIntent(intent))

	attempt := &models.PaymentAttempt{
		PaymentIntentID: intent.ID,
		AttemptNumber:   1,
		PaymentMethod:   domain.PaymentMethodACH,
	}
	require.NoError(t, payments.CreateAttempt(attempt))

	date := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	day := &models.AllocatedCareDay{
		MonthAllocationID:  1,
		ProviderExternalID: "p-1",
		Date:               date,
		Type:               domain.CareDayFull,
		AmountCents:        7500,
		LockedDate:         date,
	}
	require.NoError(t, careDays.Create(day))

	now := time.Now().UTC()
	payment := &models.Payment{
		PaymentIntentID:     intent.ID,
		SuccessfulAttemptID: attempt.ID,
		ProviderExternalID:  "p-1",
		ChildExternalID:     "c-1",
		AmountCents:         7500,
		PaymentMethod:       domain.PaymentMethodACH,
		MonthAllocationID:   1,
	}
	require.NoError(t, payments.CreatePaymentWithItems(payment, attempt, []models.AllocatedCareDay{*day}, nil, now))

	stamped, err := careDays.GetByIDs([]uint{day.ID})
	require.NoError(t, err)
	require.NotNil(t, stamped[0].PaymentID)
	assert.Equal(t, payment.ID, *stamped[0].PaymentID)
	assert.True(t, stamped[0].PaymentDistributionRequested)

	require.NotNil(t, attempt.PaymentID)

	// A second Payment for the same intent violates the unique index.
	dup := &models.Payment{
		PaymentIntentID:     intent.ID,
		SuccessfulAttemptID: attempt.ID,
		ProviderExternalID:  "p-1",
		ChildExternalID:     "c-1",
		AmountCents:         7500,
		PaymentMethod:       domain.PaymentMethodACH,
		MonthAllocationID:   1,
	}
	require.Error(t, payments.CreatePaymentWithItems(dup, attempt, nil, nil, now))

	var n int64
	require.NoError(t, db.Model(&models.Payment{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

package repository

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"carepay/internal/models"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) CreateIntent(intent *models.PaymentIntent) error {
	return r.db.Create(intent).Error
}

// GetIntent loads an intent with its attempts and payment, ordered so the
// attempt sequence reflects attempt_number.
func (r *PaymentRepository) GetIntent(id uuid.UUID) (*models.PaymentIntent, error) {
	var intent models.PaymentIntent
	err := r.db.
		Preload("Attempts", func(db *gorm.DB) *gorm.DB { return db.Order("attempt_number") }).
		Preload("Payment").
		First(&intent, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &intent, nil
}

func (r *PaymentRepository) CreateAttempt(attempt *models.PaymentAttempt) error {
	return r.db.Create(attempt).Error
}

// SaveAttempt persists an attempt's fact fields. Each save is its own
// transaction, which is what makes a crash between transfer legs leave the
// database correctly reflecting the completed steps.
func (r *PaymentRepository) SaveAttempt(attempt *models.PaymentAttempt) error {
	return r.db.Save(attempt).Error
}

func (r *PaymentRepository) CountAttempts(intentID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.Model(&models.PaymentAttempt{}).Where("payment_intent_id = ?", intentID).Count(&n).Error
	return n, err
}

// CreatePaymentWithItems creates the Payment row and stamps every
// referenced care day and lump sum paid, in one transaction. The unique
// index on payment_intent_id makes a second Payment for the same intent a
// constraint violation, not silent double pay.
func (r *PaymentRepository) CreatePaymentWithItems(
	payment *models.Payment,
	attempt *models.PaymentAttempt,
	careDays []models.AllocatedCareDay,
	lumpSums []models.AllocatedLumpSum,
	now time.Time,
) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(payment).Error; err != nil {
			return err
		}

		attempt.PaymentID = &payment.ID
		if err := tx.Save(attempt).Error; err != nil {
			return err
		}

		for i := range careDays {
			day := &careDays[i]
			day.PaymentID = &payment.ID
			day.MarkSubmitted(now)
			day.PaymentDistributionRequested = true
			if err := tx.Save(day).Error; err != nil {
				return err
			}
		}
		for i := range lumpSums {
			l := &lumpSums[i]
			l.PaymentID = &payment.ID
			l.SubmittedAt = &now
			l.PaidAt = &now
			if err := tx.Save(l).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *PaymentRepository) ListPaymentsForAllocation(allocationID uint) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.Where("month_allocation_id = ?", allocationID).Find(&payments).Error
	return payments, err
}

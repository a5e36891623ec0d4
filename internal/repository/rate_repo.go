package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"carepay/internal/domain"
	"carepay/internal/models"
)

type RateRepository struct {
	db *gorm.DB
}

func NewRateRepository(db *gorm.DB) *RateRepository {
	return &RateRepository{db: db}
}

func (r *RateRepository) Get(providerID, childID string) (*models.PaymentRate, error) {
	var rate models.PaymentRate
	err := r.db.
		Where("provider_external_id = ? AND child_external_id = ?", providerID, childID).
		First(&rate).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("rate for provider %s and child %s: %w", providerID, childID, domain.ErrDataNotFound)
		}
		return nil, err
	}
	return &rate, nil
}

// CareDayCost resolves the frozen cost of a care day from the rate table.
// Rates outside the sane bounds are rejected as bad reference data.
func (r *RateRepository) CareDayCost(providerID, childID string, dayType domain.CareDayType) (int64, error) {
	rate, err := r.Get(providerID, childID)
	if err != nil {
		return 0, err
	}
	cents := rate.FullDayRateCents
	if dayType == domain.CareDayHalf {
		cents = rate.HalfDayRateCents
	}
	if cents < domain.MinPaymentRateCents || cents > domain.MaxPaymentRateCents {
		return 0, fmt.Errorf("%w: rate %d cents outside allowed bounds", domain.ErrValidation, cents)
	}
	return cents, nil
}

func (r *RateRepository) Upsert(rate *models.PaymentRate) (*models.PaymentRate, error) {
	existing, err := r.Get(rate.ProviderExternalID, rate.ChildExternalID)
	if err != nil {
		if errors.Is(err, domain.ErrDataNotFound) {
			return rate, r.db.Create(rate).Error
		}
		return nil, err
	}
	existing.HalfDayRateCents = rate.HalfDayRateCents
	existing.FullDayRateCents = rate.FullDayRateCents
	return existing, r.db.Save(existing).Error
}

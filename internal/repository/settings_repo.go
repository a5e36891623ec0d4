package repository

import (
	"errors"

	"gorm.io/gorm"

	"carepay/internal/models"

	"github.com/google/uuid"
)

type SettingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

func (r *SettingsRepository) ProviderByExternalID(externalID string) (*models.ProviderPaymentSettings, error) {
	var s models.ProviderPaymentSettings
	err := r.db.Where("provider_external_id = ?", externalID).First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *SettingsRepository) ProviderByID(id uuid.UUID) (*models.ProviderPaymentSettings, error) {
	var s models.ProviderPaymentSettings
	if err := r.db.First(&s, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SettingsRepository) FamilyByExternalID(externalID string) (*models.FamilyPaymentSettings, error) {
	var s models.FamilyPaymentSettings
	err := r.db.Where("family_external_id = ?", externalID).First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *SettingsRepository) FamilyByID(id uuid.UUID) (*models.FamilyPaymentSettings, error) {
	var s models.FamilyPaymentSettings
	if err := r.db.First(&s, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SettingsRepository) CreateProvider(s *models.ProviderPaymentSettings) error {
	return r.db.Create(s).Error
}

func (r *SettingsRepository) CreateFamily(s *models.FamilyPaymentSettings) error {
	return r.db.Create(s).Error
}

func (r *SettingsRepository) SaveProvider(s *models.ProviderPaymentSettings) error {
	return r.db.Save(s).Error
}

func (r *SettingsRepository) SaveFamily(s *models.FamilyPaymentSettings) error {
	return r.db.Save(s).Error
}

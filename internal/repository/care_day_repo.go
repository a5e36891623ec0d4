package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"carepay/internal/models"
)

type CareDayRepository struct {
	db *gorm.DB
}

func NewCareDayRepository(db *gorm.DB) *CareDayRepository {
	return &CareDayRepository{db: db}
}

// FindIncludingDeleted returns the row at the (allocation, provider, date)
// key whether or not it is soft deleted; the key is unique across both.
func (r *CareDayRepository) FindIncludingDeleted(allocationID uint, providerID string, date time.Time) (*models.AllocatedCareDay, error) {
	var day models.AllocatedCareDay
	err := r.db.
		Where("month_allocation_id = ? AND provider_external_id = ? AND date = ?", allocationID, providerID, date).
		First(&day).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &day, nil
}

func (r *CareDayRepository) GetByIDs(ids []uint) ([]models.AllocatedCareDay, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var days []models.AllocatedCareDay
	err := r.db.Where("id IN ?", ids).Find(&days).Error
	return days, err
}

func (r *CareDayRepository) Create(day *models.AllocatedCareDay) error {
	return r.db.Create(day).Error
}

func (r *CareDayRepository) Save(day *models.AllocatedCareDay) error {
	return r.db.Save(day).Error
}

func (r *CareDayRepository) SoftDelete(day *models.AllocatedCareDay, now time.Time) error {
	day.DeletedAt = &now
	return r.db.Model(day).Update("deleted_at", now).Error
}

func (r *CareDayRepository) Restore(day *models.AllocatedCareDay) error {
	day.DeletedAt = nil
	return r.db.Model(day).Update("deleted_at", nil).Error
}

func (r *CareDayRepository) ListForAllocation(allocationID uint, includeDeleted bool) ([]models.AllocatedCareDay, error) {
	q := r.db.Where("month_allocation_id = ?", allocationID)
	if !includeDeleted {
		q = q.Where("deleted_at IS NULL")
	}
	var days []models.AllocatedCareDay
	err := q.Order("date").Find(&days).Error
	return days, err
}

package repository

import (
	"gorm.io/gorm"

	"carepay/internal/models"
)

type LumpSumRepository struct {
	db *gorm.DB
}

func NewLumpSumRepository(db *gorm.DB) *LumpSumRepository {
	return &LumpSumRepository{db: db}
}

func (r *LumpSumRepository) Create(l *models.AllocatedLumpSum) error {
	return r.db.Create(l).Error
}

func (r *LumpSumRepository) GetByIDs(ids []uint) ([]models.AllocatedLumpSum, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var sums []models.AllocatedLumpSum
	err := r.db.Where("id IN ?", ids).Find(&sums).Error
	return sums, err
}

func (r *LumpSumRepository) ListForAllocation(allocationID uint) ([]models.AllocatedLumpSum, error) {
	var sums []models.AllocatedLumpSum
	err := r.db.Where("month_allocation_id = ?", allocationID).Find(&sums).Error
	return sums, err
}

package repository

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"carepay/internal/models"
)

type AllocationRepository struct {
	db *gorm.DB
}

func NewAllocationRepository(db *gorm.DB) *AllocationRepository {
	return &AllocationRepository{db: db}
}

// GetByChildAndMonth loads an allocation with everything needed for budget
// math: care days (including soft deleted), lump sums and payments.
func (r *AllocationRepository) GetByChildAndMonth(childID string, month time.Time) (*models.MonthAllocation, error) {
	var alloc models.MonthAllocation
	err := r.db.
		Preload("CareDays").
		Preload("LumpSums").
		Preload("Payments").
		Where("child_external_id = ? AND date = ?", childID, month).
		First(&alloc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &alloc, nil
}

func (r *AllocationRepository) GetByID(id uint) (*models.MonthAllocation, error) {
	var alloc models.MonthAllocation
	err := r.db.
		Preload("CareDays").
		Preload("LumpSums").
		Preload("Payments").
		First(&alloc, id).Error
	if err != nil {
		return nil, err
	}
	return &alloc, nil
}

// Reload refreshes an allocation's derived collections from the database.
func (r *AllocationRepository) Reload(alloc *models.MonthAllocation) error {
	fresh, err := r.GetByID(alloc.ID)
	if err != nil {
		return err
	}
	*alloc = *fresh
	return nil
}

// ExistsForChild reports whether the child has ever had an allocation, in
// any month. Used to pick between the prorated and standard amounts.
func (r *AllocationRepository) ExistsForChild(childID string) (bool, error) {
	var n int64
	err := r.db.Model(&models.MonthAllocation{}).Where("child_external_id = ?", childID).Count(&n).Error
	return n > 0, err
}

// Create inserts the row. A duplicate-key failure is reported as
// ErrDuplicateKey so callers can refetch: concurrent creators converge on
// the same row because the amount is deterministic from reference data.
func (r *AllocationRepository) Create(alloc *models.MonthAllocation) error {
	err := r.db.Create(alloc).Error
	if err != nil && isDuplicateKey(err) {
		return gorm.ErrDuplicatedKey
	}
	return err
}

// RecordPreFund stamps the upstream wallet-funding transfer on the
// allocation. These are the only mutable fields after creation.
func (r *AllocationRepository) RecordPreFund(alloc *models.MonthAllocation, transferID string, at time.Time) error {
	alloc.ChekTransferID = &transferID
	alloc.ChekTransferAt = &at
	return r.db.Model(alloc).Updates(map[string]interface{}{
		"chek_transfer_id": transferID,
		"chek_transfer_at": at,
	}).Error
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate entry") || strings.Contains(msg, "unique constraint")
}

package models

import (
	"time"
)

// MonthAllocation is a child's fixed subsidy budget for one calendar month.
// There is exactly one row per (child, month); the amount is frozen at
// creation. Budget views are derived from care days, lump sums and payments,
// never stored.
type MonthAllocation struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	ChildExternalID string    `gorm:"size:64;not null;uniqueIndex:uniq_child_month" json:"child_external_id"`
	Date            time.Time `gorm:"not null;uniqueIndex:uniq_child_month;index" json:"date"` // first of month
	AllocationCents int64     `gorm:"not null" json:"allocation_cents"`

	// Pre-funding of the family wallet for this month, recorded best-effort.
	ChekTransferID *string    `gorm:"size:64" json:"chek_transfer_id,omitempty"`
	ChekTransferAt *time.Time `json:"chek_transfer_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CareDays []AllocatedCareDay `gorm:"foreignKey:MonthAllocationID" json:"-"`
	LumpSums []AllocatedLumpSum `gorm:"foreignKey:MonthAllocationID" json:"-"`
	Payments []Payment          `gorm:"foreignKey:MonthAllocationID" json:"-"`
}

func (MonthAllocation) TableName() string {
	return "month_allocation"
}

// SelectedCents is the total promised to providers this month: active care
// days plus lump sums. Requires CareDays and LumpSums to be loaded.
func (m *MonthAllocation) SelectedCents() int64 {
	var total int64
	for _, d := range m.CareDays {
		if d.DeletedAt == nil {
			total += d.AmountCents
		}
	}
	for _, l := range m.LumpSums {
		total += l.AmountCents
	}
	return total
}

// PaidCents is the total actually transferred: the sum over Payment rows.
// Requires Payments to be loaded.
func (m *MonthAllocation) PaidCents() int64 {
	var total int64
	for _, p := range m.Payments {
		total += p.AmountCents
	}
	return total
}

func (m *MonthAllocation) RemainingUnselectedCents() int64 {
	return m.AllocationCents - m.SelectedCents()
}

func (m *MonthAllocation) RemainingUnpaidCents() int64 {
	return m.AllocationCents - m.PaidCents()
}

// CanAbsorb reports whether an item of the given cost fits the unselected
// budget.
func (m *MonthAllocation) CanAbsorb(amountCents int64) bool {
	return m.SelectedCents()+amountCents <= m.AllocationCents
}

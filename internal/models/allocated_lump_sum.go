package models

import (
	"time"

	"github.com/google/uuid"
)

// AllocatedLumpSum is an ad-hoc amount billed against a month allocation,
// not tied to specific care days. Days/HalfDays are informational.
type AllocatedLumpSum struct {
	ID                 uint   `gorm:"primaryKey" json:"id"`
	MonthAllocationID  uint   `gorm:"not null;index" json:"month_allocation_id"`
	ProviderExternalID string `gorm:"size:64;not null;index" json:"provider_external_id"`
	AmountCents        int64  `gorm:"not null" json:"amount_cents"`
	Days               int    `gorm:"not null;default:0" json:"days"`
	HalfDays           int    `gorm:"not null;default:0" json:"half_days"`

	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
	PaymentID   *uuid.UUID `gorm:"type:char(36);index" json:"payment_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (AllocatedLumpSum) TableName() string {
	return "allocated_lump_sum"
}

func (l *AllocatedLumpSum) IsPaid() bool {
	return l.PaidAt != nil
}

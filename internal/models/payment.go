package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"carepay/internal/domain"
)

// Payment is the single record of a completed transfer. It is created
// exactly once per intent, only after an attempt fully succeeded, and its
// existence is the only thing that marks care days and lump sums paid.
type Payment struct {
	ID                  uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	PaymentIntentID     uuid.UUID `gorm:"type:char(36);not null;uniqueIndex" json:"payment_intent_id"`
	SuccessfulAttemptID uuid.UUID `gorm:"type:char(36);not null" json:"successful_attempt_id"`

	ProviderExternalID string `gorm:"size:64;not null;index" json:"provider_external_id"`
	ChildExternalID    string `gorm:"size:64;index" json:"child_external_id"`

	ProviderPaymentSettingsID uuid.UUID `gorm:"type:char(36);not null" json:"provider_payment_settings_id"`
	FamilyPaymentSettingsID   uuid.UUID `gorm:"type:char(36);not null" json:"family_payment_settings_id"`

	AmountCents       int64                `gorm:"not null" json:"amount_cents"`
	PaymentMethod     domain.PaymentMethod `gorm:"size:10;not null" json:"payment_method"`
	MonthAllocationID uint                 `gorm:"not null;index" json:"month_allocation_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Payment) TableName() string {
	return "payment"
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

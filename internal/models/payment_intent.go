package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentIntent captures WHAT is being paid for: the frozen amount and item
// snapshot. Attempts capture what happened on each try; a Payment row
// exists once and only once the transfer fully completed.
type PaymentIntent struct {
	ID                 uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	ProviderExternalID string    `gorm:"size:64;not null;index" json:"provider_external_id"`
	ChildExternalID    string    `gorm:"size:64;index" json:"child_external_id"`
	MonthAllocationID  uint      `gorm:"not null;index" json:"month_allocation_id"`

	AmountCents int64 `gorm:"not null" json:"amount_cents"`

	// Item snapshot, immutable after creation.
	CareDayIDs []uint `gorm:"serializer:json" json:"care_day_ids"`
	LumpSumIDs []uint `gorm:"serializer:json" json:"lump_sum_ids"`

	// Settings rows referenced by id, not live: settings may change
	// between attempts.
	ProviderPaymentSettingsID uuid.UUID `gorm:"type:char(36);not null" json:"provider_payment_settings_id"`
	FamilyPaymentSettingsID   uuid.UUID `gorm:"type:char(36);not null" json:"family_payment_settings_id"`

	Description string `gorm:"type:text" json:"description"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Attempts []PaymentAttempt `gorm:"foreignKey:PaymentIntentID" json:"-"`
	Payment  *Payment         `gorm:"foreignKey:PaymentIntentID" json:"-"`
}

func (PaymentIntent) TableName() string {
	return "payment_intent"
}

func (i *PaymentIntent) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// IsPaid is permanently true once a Payment exists.
func (i *PaymentIntent) IsPaid() bool {
	return i.Payment != nil
}

func (i *PaymentIntent) LatestAttempt() *PaymentAttempt {
	if len(i.Attempts) == 0 {
		return nil
	}
	latest := &i.Attempts[0]
	for idx := range i.Attempts {
		if i.Attempts[idx].AttemptNumber > latest.AttemptNumber {
			latest = &i.Attempts[idx]
		}
	}
	return latest
}

func (i *PaymentIntent) CanRetry() bool {
	return !i.IsPaid()
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FamilyPaymentSettings mirrors a family's Chek account state: the wallet
// that monthly allocations are pre-funded into and payments draw from.
type FamilyPaymentSettings struct {
	ID               uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	FamilyExternalID string    `gorm:"size:64;index" json:"family_external_id"`

	ChekUserID        string `gorm:"size:64;index" json:"chek_user_id"`
	ChekWalletBalance int64  `gorm:"not null;default:0" json:"chek_wallet_balance"`

	// Set at onboarding from the reference-data payment-enabled flag.
	CanMakePayments bool `gorm:"not null;default:false" json:"can_make_payments"`

	LastChekSyncAt *time.Time `json:"last_chek_sync_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (FamilyPaymentSettings) TableName() string {
	return "family_payment_settings"
}

func (s *FamilyPaymentSettings) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (s *FamilyPaymentSettings) IsStatusStale(ttl time.Duration, now time.Time) bool {
	return s.LastChekSyncAt == nil || now.Sub(*s.LastChekSyncAt) > ttl
}

func (s *FamilyPaymentSettings) IsOnboarded() bool {
	return s.ChekUserID != ""
}

package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"carepay/internal/domain"
)

// ProviderPaymentSettings mirrors a provider's Chek account state. Cached
// fields are a read-through cache refreshed from the Chek API; they are
// never authoritative for money movement on their own.
type ProviderPaymentSettings struct {
	ID                 uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	ProviderExternalID string    `gorm:"size:64;index" json:"provider_external_id"`

	ChekUserID          string                `gorm:"size:64;index" json:"chek_user_id"`
	ChekDirectPayID     *string               `gorm:"size:64;index" json:"chek_direct_pay_id,omitempty"`
	ChekDirectPayStatus *string               `gorm:"size:32" json:"chek_direct_pay_status,omitempty"`
	ChekCardID          *string               `gorm:"size:64;index" json:"chek_card_id,omitempty"`
	ChekCardStatus      *string               `gorm:"size:32" json:"chek_card_status,omitempty"`
	ChekWalletBalance   int64                 `gorm:"not null;default:0" json:"chek_wallet_balance"`
	PaymentMethod       *domain.PaymentMethod `gorm:"size:10" json:"payment_method,omitempty"`

	PaymentMethodUpdatedAt *time.Time `json:"payment_method_updated_at,omitempty"`
	LastChekSyncAt         *time.Time `json:"last_chek_sync_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ProviderPaymentSettings) TableName() string {
	return "provider_payment_settings"
}

func (s *ProviderPaymentSettings) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// IsStatusStale reports whether the cached Chek state is older than ttl.
func (s *ProviderPaymentSettings) IsStatusStale(ttl time.Duration, now time.Time) bool {
	return s.LastChekSyncAt == nil || now.Sub(*s.LastChekSyncAt) > ttl
}

// ValidatePaymentMethodStatus checks that the selected payment method is
// presently usable, distinguishing missing configuration from pending or
// inactive instruments.
func (s *ProviderPaymentSettings) ValidatePaymentMethodStatus() (bool, string) {
	if s.PaymentMethod == nil {
		return false, "no payment method configured"
	}

	switch *s.PaymentMethod {
	case domain.PaymentMethodACH:
		if s.ChekDirectPayID == nil {
			return false, "ach payment method selected but no direct pay account configured"
		}
		if s.ChekDirectPayStatus == nil {
			return false, "ach direct pay account has no status information"
		}
		switch *s.ChekDirectPayStatus {
		case domain.ChekStatusActive:
		case domain.ChekStatusPending:
			return false, "ach direct pay account is still pending setup"
		case domain.ChekStatusInactive:
			return false, "ach direct pay account is inactive"
		default:
			return false, fmt.Sprintf("ach direct pay account has invalid status: %s", *s.ChekDirectPayStatus)
		}
	case domain.PaymentMethodCard:
		if s.ChekCardID == nil {
			return false, "card payment method selected but no virtual card configured"
		}
		if s.ChekCardStatus == nil {
			return false, "virtual card has no status information"
		}
		switch *s.ChekCardStatus {
		case domain.ChekStatusActive:
		case domain.ChekStatusPending:
			return false, "virtual card is still pending setup"
		case domain.ChekStatusInactive:
			return false, "virtual card is inactive"
		default:
			return false, fmt.Sprintf("virtual card has invalid status: %s", *s.ChekCardStatus)
		}
	default:
		return false, fmt.Sprintf("unknown payment method: %s", *s.PaymentMethod)
	}

	return true, ""
}

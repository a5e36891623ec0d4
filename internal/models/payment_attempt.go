package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"carepay/internal/domain"
)

// PaymentAttempt is one try at executing an intent's transfer. It records
// facts about completed steps; its status is always recomputed from those
// facts, so a crash between steps cannot leave a stale stored status.
// Fact fields are append-only: once set they are never cleared.
type PaymentAttempt struct {
	ID              uuid.UUID            `gorm:"type:char(36);primaryKey" json:"id"`
	PaymentIntentID uuid.UUID            `gorm:"type:char(36);not null;index" json:"payment_intent_id"`
	AttemptNumber   int                  `gorm:"not null" json:"attempt_number"`
	PaymentMethod   domain.PaymentMethod `gorm:"size:10;not null" json:"payment_method"`

	// Instrument snapshot at the time of this attempt.
	ProviderChekUserID      string `gorm:"size:64" json:"provider_chek_user_id"`
	FamilyChekUserID        string `gorm:"size:64" json:"family_chek_user_id"`
	ProviderChekCardID      string `gorm:"size:64" json:"provider_chek_card_id,omitempty"`
	ProviderChekDirectPayID string `gorm:"size:64" json:"provider_chek_direct_pay_id,omitempty"`

	// Facts.
	WalletTransferID *string    `gorm:"size:64;index" json:"wallet_transfer_id,omitempty"`
	WalletTransferAt *time.Time `json:"wallet_transfer_at,omitempty"`
	ACHPaymentID     *string    `gorm:"size:64;index" json:"ach_payment_id,omitempty"`
	ACHPaymentAt     *time.Time `json:"ach_payment_at,omitempty"`
	CardTransferID   *string    `gorm:"size:64;index" json:"card_transfer_id,omitempty"`
	CardTransferAt   *time.Time `json:"card_transfer_at,omitempty"`
	ErrorMessage     *string    `gorm:"type:text" json:"error_message,omitempty"`

	PaymentID *uuid.UUID `gorm:"type:char(36);index" json:"payment_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (PaymentAttempt) TableName() string {
	return "payment_attempt"
}

func (a *PaymentAttempt) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// RecordWalletTransfer sets the wallet transfer fact if not already set.
func (a *PaymentAttempt) RecordWalletTransfer(transferID string, at time.Time) {
	if a.WalletTransferID != nil {
		return
	}
	a.WalletTransferID = &transferID
	a.WalletTransferAt = &at
}

// RecordACHPayment sets the ACH payment fact if not already set.
func (a *PaymentAttempt) RecordACHPayment(paymentID string, at time.Time) {
	if a.ACHPaymentID != nil {
		return
	}
	a.ACHPaymentID = &paymentID
	a.ACHPaymentAt = &at
}

// RecordCardTransfer sets the card transfer fact if not already set.
func (a *PaymentAttempt) RecordCardTransfer(transferID string, at time.Time) {
	if a.CardTransferID != nil {
		return
	}
	a.CardTransferID = &transferID
	a.CardTransferAt = &at
}

func (a *PaymentAttempt) RecordError(msg string) {
	a.ErrorMessage = &msg
}

// CopyWalletFundingFrom carries a previous attempt's wallet transfer fact
// into a new attempt so a retry resumes after the funded step instead of
// transferring twice.
func (a *PaymentAttempt) CopyWalletFundingFrom(prev *PaymentAttempt) {
	a.WalletTransferID = prev.WalletTransferID
	a.WalletTransferAt = prev.WalletTransferAt
}

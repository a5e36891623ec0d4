package models

import "time"

// PaymentRate is the negotiated per-day rate between one provider and one
// child. Care day amounts are frozen from this table at creation time.
type PaymentRate struct {
	ID                 uint   `gorm:"primaryKey" json:"id"`
	ProviderExternalID string `gorm:"size:64;not null;uniqueIndex:uniq_provider_child_rate" json:"provider_external_id"`
	ChildExternalID    string `gorm:"size:64;not null;uniqueIndex:uniq_provider_child_rate" json:"child_external_id"`

	HalfDayRateCents int64 `gorm:"not null" json:"half_day_rate_cents"`
	FullDayRateCents int64 `gorm:"not null" json:"full_day_rate_cents"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (PaymentRate) TableName() string {
	return "payment_rate"
}

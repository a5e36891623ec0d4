package domain

// PaymentMethod is how a provider receives funds.
type PaymentMethod string

const (
	PaymentMethodCard PaymentMethod = "card"
	PaymentMethodACH  PaymentMethod = "ach"
)

// AttemptStatus is derived from the fact fields recorded on a
// PaymentAttempt, never stored.
type AttemptStatus string

const (
	AttemptPending      AttemptStatus = "pending"
	AttemptWalletFunded AttemptStatus = "wallet_funded"
	AttemptSuccess      AttemptStatus = "success"
	AttemptFailed       AttemptStatus = "failed"
)

// IntentStatus is derived from an intent's attempts and payment.
type IntentStatus string

const (
	IntentPending    IntentStatus = "pending"
	IntentProcessing IntentStatus = "processing"
	IntentPaid       IntentStatus = "paid"
	IntentFailed     IntentStatus = "failed"
)

type CareDayType string

const (
	CareDayFull CareDayType = "full"
	CareDayHalf CareDayType = "half"
)

// Chek instrument statuses as reported by the API.
const (
	ChekStatusActive   = "Active"
	ChekStatusPending  = "Pending"
	ChekStatusInactive = "Inactive"
)

const (
	RoleFamily   = "FAMILY"
	RoleProvider = "PROVIDER"
	RoleAdmin    = "ADMIN"
)

const CentsPerDollar = 100

// Payment rates per care day are bounded to catch bad reference data.
const (
	MinPaymentRateCents = 1 * CentsPerDollar
	MaxPaymentRateCents = 160 * CentsPerDollar
)

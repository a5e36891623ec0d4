package domain

import "errors"

// Business errors raised by the payment core. Validation errors are raised
// before any external call or row is created; execution errors are recorded
// on the attempt they belong to.
var (
	ErrProviderNotFound           = errors.New("provider not found")
	ErrProviderNotPayable         = errors.New("provider not payable")
	ErrFamilyNotFound             = errors.New("family not found")
	ErrPaymentMethodNotConfigured = errors.New("payment method not configured")
	ErrPaymentMethodNotAvailable  = errors.New("payment method not available")
	ErrPaymentLimitExceeded       = errors.New("payment exceeds per-transaction limit")
	ErrAllocationExceeded         = errors.New("payment exceeds remaining allocation")
	ErrInvalidPaymentState        = errors.New("invalid payment state")

	ErrChekService  = errors.New("chek service error")
	ErrChekTransfer = errors.New("chek transfer failed")
	ErrChekACH      = errors.New("chek ach payment failed")

	ErrValidation   = errors.New("validation error")
	ErrDataNotFound = errors.New("data not found")
)

package models

import "carepay/internal/domain"

// ComputeAttemptStatus derives an attempt's status from its recorded facts.
//
// The flow always funds the provider wallet first; ACH attempts then need
// the ACH leg, card attempts the card leg. An attempt with only the wallet
// fact and an error is still wallet_funded, not failed: the money moved and
// a narrow retry can finish the remaining leg.
func ComputeAttemptStatus(a *PaymentAttempt) domain.AttemptStatus {
	walletFunded := a.WalletTransferID != nil

	switch a.PaymentMethod {
	case domain.PaymentMethodACH:
		if walletFunded && a.ACHPaymentID != nil {
			return domain.AttemptSuccess
		}
		if walletFunded {
			return domain.AttemptWalletFunded
		}
	case domain.PaymentMethodCard:
		if walletFunded && a.CardTransferID != nil {
			return domain.AttemptSuccess
		}
		if walletFunded {
			return domain.AttemptWalletFunded
		}
	}

	if a.ErrorMessage != nil {
		return domain.AttemptFailed
	}
	return domain.AttemptPending
}

// ComputeIntentStatus derives an intent's status from its payment and
// attempts. Requires Attempts (and Payment, if any) to be loaded.
//
// failed is terminal only when every attempt errored with no partial
// progress; an intent with a wallet_funded attempt stays processing and
// remains retryable.
func ComputeIntentStatus(i *PaymentIntent) domain.IntentStatus {
	if i.Payment != nil {
		return domain.IntentPaid
	}
	if len(i.Attempts) == 0 {
		return domain.IntentPending
	}
	allFailed := true
	for idx := range i.Attempts {
		switch ComputeAttemptStatus(&i.Attempts[idx]) {
		case domain.AttemptWalletFunded:
			return domain.IntentProcessing
		case domain.AttemptFailed:
			// keep scanning
		default:
			allFailed = false
		}
	}
	if allFailed {
		return domain.IntentFailed
	}
	return domain.IntentPending
}

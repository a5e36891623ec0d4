package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"carepay/internal/domain"
)

func strPtr(s string) *string { return &s }

func TestComputeAttemptStatus_ACH(t *testing.T) {
	now := time.Now()

	a := &PaymentAttempt{PaymentMethod: domain.PaymentMethodACH}
	assert.Equal(t, domain.AttemptPending, ComputeAttemptStatus(a))

	a.RecordWalletTransfer("t-1", now)
	assert.Equal(t, domain.AttemptWalletFunded, ComputeAttemptStatus(a))

	// An error after wallet funding does not fail the attempt: the money
	// moved and the remaining leg is retryable.
	a.RecordError("ach leg timed out")
	assert.Equal(t, domain.AttemptWalletFunded, ComputeAttemptStatus(a))

	a.RecordACHPayment("p-1", now)
	assert.Equal(t, domain.AttemptSuccess, ComputeAttemptStatus(a))
}

func TestComputeAttemptStatus_Card(t *testing.T) {
	now := time.Now()

	a := &PaymentAttempt{PaymentMethod: domain.PaymentMethodCard}
	a.RecordWalletTransfer("t-1", now)
	assert.Equal(t, domain.AttemptWalletFunded, ComputeAttemptStatus(a))

	a.RecordCardTransfer("c-1", now)
	assert.Equal(t, domain.AttemptSuccess, ComputeAttemptStatus(a))
}

func TestComputeAttemptStatus_FailedBeforeAnyTransfer(t *testing.T) {
	a := &PaymentAttempt{PaymentMethod: domain.PaymentMethodACH}
	a.RecordError("direct pay account inactive")
	assert.Equal(t, domain.AttemptFailed, ComputeAttemptStatus(a))
}

func TestFactRecording_IsMonotonic(t *testing.T) {
	first := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	a := &PaymentAttempt{PaymentMethod: domain.PaymentMethodACH}

	a.RecordWalletTransfer("t-1", first)
	a.RecordWalletTransfer("t-2", first.Add(time.Hour))
	assert.Equal(t, "t-1", *a.WalletTransferID)
	assert.Equal(t, first, *a.WalletTransferAt)

	a.RecordACHPayment("p-1", first)
	a.RecordACHPayment("p-2", first.Add(time.Hour))
	assert.Equal(t, "p-1", *a.ACHPaymentID)
}

func TestCopyWalletFundingFrom(t *testing.T) {
	now := time.Now()
	prev := &PaymentAttempt{PaymentMethod: domain.PaymentMethodACH}
	prev.RecordWalletTransfer("t-9", now)
	prev.RecordError("ach failed")

	next := &PaymentAttempt{PaymentMethod: domain.PaymentMethodACH, AttemptNumber: 2}
	next.CopyWalletFundingFrom(prev)

	assert.Equal(t, "t-9", *next.WalletTransferID)
	assert.Nil(t, next.ErrorMessage)
	assert.Equal(t, domain.AttemptWalletFunded, ComputeAttemptStatus(next))
}

func TestComputeIntentStatus(t *testing.T) {
	now := time.Now()

	intent := &PaymentIntent{}
	assert.Equal(t, domain.IntentPending, ComputeIntentStatus(intent))

	failed := PaymentAttempt{PaymentMethod: domain.PaymentMethodACH, AttemptNumber: 1, ErrorMessage: strPtr("boom")}
	intent.Attempts = []PaymentAttempt{failed}
	assert.Equal(t, domain.IntentFailed, ComputeIntentStatus(intent))

	funded := PaymentAttempt{PaymentMethod: domain.PaymentMethodACH, AttemptNumber: 2}
	funded.RecordWalletTransfer("t-1", now)
	intent.Attempts = append(intent.Attempts, funded)
	assert.Equal(t, domain.IntentProcessing, ComputeIntentStatus(intent))

	intent.Payment = &Payment{AmountCents: 100}
	assert.Equal(t, domain.IntentPaid, ComputeIntentStatus(intent))
	assert.True(t, intent.IsPaid())
}

func TestLatestAttempt(t *testing.T) {
	intent := &PaymentIntent{Attempts: []PaymentAttempt{
		{AttemptNumber: 2},
		{AttemptNumber: 1},
		{AttemptNumber: 3},
	}}
	assert.Equal(t, 3, intent.LatestAttempt().AttemptNumber)

	empty := &PaymentIntent{}
	assert.Nil(t, empty.LatestAttempt())
}

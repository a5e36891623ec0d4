package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carepay/internal/domain"
	"carepay/internal/models"
	"carepay/pkg/chek"
)

func (f *fixture) singleIntent(t *testing.T) *models.PaymentIntent {
	t.Helper()
	var intents []models.PaymentIntent
	require.NoError(t, f.db.Find(&intents).Error)
	require.Len(t, intents, 1)
	intent, err := f.payments.GetIntent(intents[0].ID)
	require.NoError(t, err)
	return intent
}

func (f *fixture) countRows(t *testing.T, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(model).Count(&n).Error)
	return n
}

func TestProcessPayment_ACHSuccess(t *testing.T) {
	f := newFixture(t)
	alloc := f.allocation(t, 100000)
	day := f.careDay(t, alloc.ID, 60000, time.Now().AddDate(0, 0, 3))
	require.NoError(t, f.allocations.Reload(alloc))

	ok := f.paymentSvc.ProcessPayment(context.Background(), testProviderID, testChildID, alloc,
		[]models.AllocatedCareDay{*day}, nil)
	require.True(t, ok)

	assert.Equal(t, 1, f.chek.transferCalls)
	assert.Equal(t, 1, f.chek.achCalls)

	require.NoError(t, f.allocations.Reload(alloc))
	assert.Equal(t, int64(60000), alloc.PaidCents())
	assert.Equal(t, int64(40000), alloc.RemainingUnpaidCents())

	intent := f.singleIntent(t)
	assert.True(t, intent.IsPaid())
	assert.Equal(t, domain.IntentPaid, models.ComputeIntentStatus(intent))

	days, err := f.careDays.GetByIDs([]uint{day.ID})
	require.NoError(t, err)
	require.Len(t, days, 1)
	require.NotNil(t, days[0].PaymentID)
	assert.True(t, days[0].PaymentDistributionRequested)
	assert.NotNil(t, days[0].LastSubmittedAt)
}

func TestProcessPayment_AllocationExceeded_CreatesNoRows(t *testing.T) {
	f := newFixture(t)
	alloc := f.allocation(t, 100000)
	day := f.careDay(t, alloc.ID, 120000, time.Now().AddDate(0, 0, 3))
	require.NoError(t, f.allocations.Reload(alloc))

	ok := f.paymentSvc.ProcessPayment(context.Background(), testProviderID, testChildID, alloc,
		[]models.AllocatedCareDay{*day}, nil)
	require.False(t, ok)

	assert.Zero(t, f.countRows(t, &models.PaymentIntent{}))
	assert.Zero(t, f.countRows(t, &models.PaymentAttempt{}))
	assert.Zero(t, f.chek.transferCalls)
}

func TestProcessPayment_PaymentLimitExceeded(t *testing.T) {
	f := newFixture(t)
	alloc := f.allocation(t, 140000)
	f.familySettings.ChekWalletBalance = 300000
	require.NoError(t, f.settings.SaveFamily(f.familySettings))
	day := f.careDay(t, alloc.ID, 150000, time.Now().AddDate(0, 0, 3))
	require.NoError(t, f.allocations.Reload(alloc))

	ok := f.paymentSvc.ProcessPayment(context.Background(), testProviderID, testChildID, alloc,
		[]models.AllocatedCareDay{*day}, nil)
	require.False(t, ok)
	assert.Zero(t, f.countRows(t, &models.PaymentIntent{}))
}

func TestProcessPayment_StaleWalletBalanceIsRefreshedBeforeAuthorizing(t *testing.T) {
	f := newFixture(t)
	alloc := f.allocation(t, 100000)
	day := f.careDay(t, alloc.ID, 60000, time.Now().AddDate(0, 0, 3))
	require.NoError(t, f.allocations.Reload(alloc))

	// The cached balance says the wallet can cover it, the live one says no.
	f.chek.usersByID[100].Balance = 10000

	ok := f.paymentSvc.ProcessPayment(context.Background(), testProviderID, testChildID, alloc,
		[]models.AllocatedCareDay{*day}, nil)
	require.False(t, ok)
	assert.Zero(t, f.chek.transferCalls)
	assert.Zero(t, f.countRows(t, &models.PaymentIntent{}))
}

func TestProcessPayment_ACHLegFails_RetrySkipsWalletTransfer(t *testing.T) {
	f := newFixture(t)
	alloc := f.allocation(t, 100000)
	day := f.careDay(t, alloc.ID, 60000, time.Now().AddDate(0, 0, 3))
	require.NoError(t, f.allocations.Reload(alloc))

	f.chek.failACH = errTransient
	ok := f.paymentSvc.ProcessPayment(context.Background(), testProviderID, testChildID, alloc,
		[]models.AllocatedCareDay{*day}, nil)
	require.False(t, ok)

	// The wallet transfer fact must survive the ACH failure.
	intent := f.singleIntent(t)
	assert.False(t, intent.IsPaid())
	first := intent.LatestAttempt()
	require.NotNil(t, first)
	require.NotNil(t, first.WalletTransferID)
	require.NotNil(t, first.ErrorMessage)
	assert.Equal(t, domain.AttemptWalletFunded, models.ComputeAttemptStatus(first))
	assert.Equal(t, domain.IntentProcessing, models.ComputeIntentStatus(intent))

	// No payment, so the budget still shows nothing paid.
	require.NoError(t, f.allocations.Reload(alloc))
	assert.Zero(t, alloc.PaidCents())

	f.chek.failACH = nil
	require.True(t, f.paymentSvc.RetryPaymentIntent(context.Background(), intent.ID))

	// Exactly one wallet transfer across both attempts.
	assert.Equal(t, 1, f.chek.transferCalls)
	assert.Equal(t, 2, f.chek.achCalls)

	intent = f.singleIntent(t)
	require.True(t, intent.IsPaid())
	require.Len(t, intent.Attempts, 2)
	second := intent.LatestAttempt()
	assert.Equal(t, 2, second.AttemptNumber)
	assert.Equal(t, *first.WalletTransferID, *second.WalletTransferID)
	assert.Equal(t, domain.AttemptSuccess, models.ComputeAttemptStatus(second))

	require.NoError(t, f.allocations.Reload(alloc))
	assert.Equal(t, int64(60000), alloc.PaidCents())
}

func TestProcessPayment_MethodNotAvailable_RecordsErrorWithoutTransfer(t *testing.T) {
	f := newFixture(t)
	alloc := f.allocation(t, 100000)
	day := f.careDay(t, alloc.ID, 60000, time.Now().AddDate(0, 0, 3))
	require.NoError(t, f.allocations.Reload(alloc))

	// The live read during processing reports the account still pending.
	f.chek.usersByID[200].DirectPay.Status = domain.ChekStatusPending

	ok := f.paymentSvc.ProcessPayment(context.Background(), testProviderID, testChildID, alloc,
		[]models.AllocatedCareDay{*day}, nil)
	require.False(t, ok)

	assert.Zero(t, f.chek.transferCalls)
	intent := f.singleIntent(t)
	attempt := intent.LatestAttempt()
	require.NotNil(t, attempt)
	require.NotNil(t, attempt.ErrorMessage)
	assert.Equal(t, domain.AttemptFailed, models.ComputeAttemptStatus(attempt))
}

func TestProcessPayment_CardSuccess(t *testing.T) {
	f := newFixture(t)
	f.chek.usersByID[200].DirectPay = nil
	f.chek.usersByID[200].Cards = []chek.CardInfo{{ID: "card-200", Status: domain.ChekStatusActive}}

	cardMethod := domain.PaymentMethodCard
	f.providerSettings.PaymentMethod = &cardMethod
	require.NoError(t, f.settings.SaveProvider(f.providerSettings))

	alloc := f.allocation(t, 100000)
	day := f.careDay(t, alloc.ID, 45000, time.Now().AddDate(0, 0, 3))
	require.NoError(t, f.allocations.Reload(alloc))

	ok := f.paymentSvc.ProcessPayment(context.Background(), testProviderID, testChildID, alloc,
		[]models.AllocatedCareDay{*day}, nil)
	require.True(t, ok)

	assert.Equal(t, 1, f.chek.transferCalls)
	assert.Equal(t, 1, f.chek.cardCalls)
	assert.Zero(t, f.chek.achCalls)

	intent := f.singleIntent(t)
	require.True(t, intent.IsPaid())
	attempt := intent.LatestAttempt()
	require.NotNil(t, attempt.CardTransferID)
	assert.Equal(t, domain.AttemptSuccess, models.ComputeAttemptStatus(attempt))
}

func TestRetryPaymentIntent_FreshProviderStateSkipsRefresh(t *testing.T) {
	f := newFixture(t)
	alloc := f.allocation(t, 100000)
	day := f.careDay(t, alloc.ID, 60000, time.Now().AddDate(0, 0, 3))
	require.NoError(t, f.allocations.Reload(alloc))

	f.chek.failTransfer = errTransient
	ok := f.paymentSvc.ProcessPayment(context.Background(), testProviderID, testChildID, alloc,
		[]models.AllocatedCareDay{*day}, nil)
	require.False(t, ok)
	f.chek.failTransfer = nil

	intent := f.singleIntent(t)
	last := intent.LatestAttempt()
	require.NotNil(t, last)
	require.Nil(t, last.WalletTransferID)

	// A provider synced moments ago is trusted as-is on retry.
	provider, err := f.settings.ProviderByExternalID(testProviderID)
	require.NoError(t, err)
	syncedAt := time.Now()
	provider.LastChekSyncAt = &syncedAt
	require.NoError(t, f.settings.SaveProvider(provider))

	before := f.chek.getUserCalls
	require.True(t, f.paymentSvc.RetryPaymentIntent(context.Background(), intent.ID))
	assert.Equal(t, before, f.chek.getUserCalls)
	assert.True(t, f.singleIntent(t).IsPaid())
}

func TestRetryPaymentIntent_StaleProviderStateIsRefreshed(t *testing.T) {
	f := newFixture(t)
	alloc := f.allocation(t, 100000)
	day := f.careDay(t, alloc.ID, 60000, time.Now().AddDate(0, 0, 3))
	require.NoError(t, f.allocations.Reload(alloc))

	f.chek.failTransfer = errTransient
	ok := f.paymentSvc.ProcessPayment(context.Background(), testProviderID, testChildID, alloc,
		[]models.AllocatedCareDay{*day}, nil)
	require.False(t, ok)
	f.chek.failTransfer = nil

	intent := f.singleIntent(t)

	// A sync timestamp past the TTL forces a re-read before money moves.
	provider, err := f.settings.ProviderByExternalID(testProviderID)
	require.NoError(t, err)
	syncedAt := time.Now().Add(-time.Hour)
	provider.LastChekSyncAt = &syncedAt
	require.NoError(t, f.settings.SaveProvider(provider))

	before := f.chek.getUserCalls
	require.True(t, f.paymentSvc.RetryPaymentIntent(context.Background(), intent.ID))
	assert.Greater(t, f.chek.getUserCalls, before)
	assert.True(t, f.singleIntent(t).IsPaid())
}

func TestRetryPaymentIntent_PaidIsIdempotent(t *testing.T) {
	f := newFixture(t)
	alloc := f.allocation(t, 100000)
	day := f.careDay(t, alloc.ID, 60000, time.Now().AddDate(0, 0, 3))
	require.NoError(t, f.allocations.Reload(alloc))

	require.True(t, f.paymentSvc.ProcessPayment(context.Background(), testProviderID, testChildID, alloc,
		[]models.AllocatedCareDay{*day}, nil))

	intent := f.singleIntent(t)
	require.True(t, f.paymentSvc.RetryPaymentIntent(context.Background(), intent.ID))

	// No extra attempt, no extra transfers.
	intent = f.singleIntent(t)
	assert.Len(t, intent.Attempts, 1)
	assert.Equal(t, 1, f.chek.transferCalls)
	assert.Equal(t, int64(1), f.countRows(t, &models.Payment{}))
}

func TestReclaimFamilyFunds(t *testing.T) {
	f := newFixture(t)

	reclaimed, err := f.paymentSvc.ReclaimFamilyFunds(context.Background(), testFamilyID)
	require.NoError(t, err)
	assert.Equal(t, int64(200000), reclaimed)
	assert.Equal(t, 1, f.chek.transferCalls)

	fresh, err := f.settings.FamilyByExternalID(testFamilyID)
	require.NoError(t, err)
	assert.Zero(t, fresh.ChekWalletBalance)

	// Nothing left to reclaim on a second call.
	f.chek.usersByID[100].Balance = 0
	again, err := f.paymentSvc.ReclaimFamilyFunds(context.Background(), testFamilyID)
	require.NoError(t, err)
	assert.Zero(t, again)
	assert.Equal(t, 1, f.chek.transferCalls)
}

func TestInitializeProviderPaymentMethod_ACHInvite(t *testing.T) {
	f := newFixture(t)
	f.chek.usersByID[200].DirectPay = nil
	f.providerSettings.ChekDirectPayID = nil
	f.providerSettings.ChekDirectPayStatus = nil
	f.providerSettings.PaymentMethod = nil
	require.NoError(t, f.settings.SaveProvider(f.providerSettings))

	settings, err := f.paymentSvc.InitializeProviderPaymentMethod(context.Background(), testProviderID, domain.PaymentMethodACH)
	require.NoError(t, err)
	require.NotNil(t, settings.ChekDirectPayID)
	assert.Equal(t, "dp-200", *settings.ChekDirectPayID)
	assert.Equal(t, domain.ChekStatusPending, *settings.ChekDirectPayStatus)
	require.NotNil(t, settings.PaymentMethod)
	assert.Equal(t, domain.PaymentMethodACH, *settings.PaymentMethod)
}

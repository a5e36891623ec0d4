package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"carepay/config"
	"carepay/internal/domain"
	"carepay/internal/models"
	"carepay/internal/refdata"
	"carepay/internal/repository"
	"carepay/pkg/chek"
)

// PaymentService orchestrates moving a family's allocated funds to a
// provider through Chek. The flow is intent -> attempt -> facts -> payment:
// validation happens before any row or external call, each completed
// transfer step is persisted as a fact on the attempt immediately, and the
// Payment row is created only once an attempt's derived status is success.
type PaymentService struct {
	cfg *config.Config

	allocations *repository.AllocationRepository
	careDays    *repository.CareDayRepository
	lumpSums    *repository.LumpSumRepository
	payments    *repository.PaymentRepository
	settings    *repository.SettingsRepository

	chek   ChekAPI
	source refdata.Source

	providerOnboarding *ProviderOnboarding
	familyOnboarding   *FamilyOnboarding
}

func NewPaymentService(
	cfg *config.Config,
	allocations *repository.AllocationRepository,
	careDays *repository.CareDayRepository,
	lumpSums *repository.LumpSumRepository,
	payments *repository.PaymentRepository,
	settings *repository.SettingsRepository,
	api ChekAPI,
	source refdata.Source,
) *PaymentService {
	return &PaymentService{
		cfg:                cfg,
		allocations:        allocations,
		careDays:           careDays,
		lumpSums:           lumpSums,
		payments:           payments,
		settings:           settings,
		chek:               api,
		source:             source,
		providerOnboarding: NewProviderOnboarding(api, settings, source),
		familyOnboarding:   NewFamilyOnboarding(api, settings, source),
	}
}

// ProcessPayment pays a provider for the given care days and/or lump sums
// against a month allocation. Returns true on success; failures are logged
// and, once an attempt exists, persisted on it as an audit trail.
func (s *PaymentService) ProcessPayment(
	ctx context.Context,
	providerExternalID string,
	childExternalID string,
	allocation *models.MonthAllocation,
	careDays []models.AllocatedCareDay,
	lumpSums []models.AllocatedLumpSum,
) bool {
	if err := s.processPayment(ctx, providerExternalID, childExternalID, allocation, careDays, lumpSums); err != nil {
		log.Printf("[Payment] payment failed for provider %s: %v", providerExternalID, err)
		return false
	}
	return true
}

func (s *PaymentService) processPayment(
	ctx context.Context,
	providerExternalID string,
	childExternalID string,
	allocation *models.MonthAllocation,
	careDays []models.AllocatedCareDay,
	lumpSums []models.AllocatedLumpSum,
) error {
	// 1. Family settings, resolved through the child.
	familySettings, err := s.familySettingsForChild(childExternalID)
	if err != nil {
		return err
	}
	if familySettings == nil || !familySettings.IsOnboarded() {
		return fmt.Errorf("%w: family for child %s has no chek account", domain.ErrProviderNotPayable, childExternalID)
	}
	if !familySettings.CanMakePayments {
		return fmt.Errorf("%w: family for child %s cannot make payments", domain.ErrProviderNotPayable, childExternalID)
	}

	// 2. Provider settings.
	providerSettings, err := s.settings.ProviderByExternalID(providerExternalID)
	if err != nil {
		return err
	}
	if providerSettings == nil {
		return fmt.Errorf("%w: provider %s has no payment settings", domain.ErrProviderNotFound, providerExternalID)
	}

	// 3. Amount from the referenced items.
	var amountCents int64
	for _, d := range careDays {
		amountCents += d.AmountCents
	}
	for _, l := range lumpSums {
		amountCents += l.AmountCents
	}
	if amountCents <= 0 {
		return fmt.Errorf("%w: no allocations provided for payment", domain.ErrInvalidPaymentState)
	}

	// 4. Caps: per-transaction limit, remaining monthly budget, family wallet.
	if amountCents > s.cfg.Payment.MaxPaymentCents {
		return fmt.Errorf("%w: %d cents exceeds maximum %d", domain.ErrPaymentLimitExceeded, amountCents, s.cfg.Payment.MaxPaymentCents)
	}
	if amountCents > allocation.RemainingUnpaidCents() {
		return fmt.Errorf("%w: %d cents exceeds remaining %d for month %s",
			domain.ErrAllocationExceeded, amountCents, allocation.RemainingUnpaidCents(), allocation.Date.Format("2006-01"))
	}
	// A cached wallet balance older than the TTL must not authorize a
	// payment on its own.
	if familySettings.IsStatusStale(s.cfg.Payment.StatusStaleAfter, time.Now()) {
		if err := s.familyOnboarding.RefreshSettings(ctx, familySettings); err != nil {
			return fmt.Errorf("refresh family for child %s before payment: %w", childExternalID, err)
		}
	}
	if amountCents > familySettings.ChekWalletBalance {
		return fmt.Errorf("%w: %d cents exceeds family wallet balance %d",
			domain.ErrAllocationExceeded, amountCents, familySettings.ChekWalletBalance)
	}

	// 5. Provider must have chosen a payment method.
	if providerSettings.PaymentMethod == nil {
		return fmt.Errorf("%w: provider %s", domain.ErrPaymentMethodNotConfigured, providerExternalID)
	}

	// 6. Force a fresh read of the provider's Chek status before any money
	// moves; a stale cached Active must not authorize a transfer.
	if err := s.providerOnboarding.RefreshSettings(ctx, providerSettings); err != nil {
		return fmt.Errorf("refresh provider %s before payment: %w", providerExternalID, err)
	}

	// 7. Freeze the intent.
	intent, err := s.createIntent(providerSettings, familySettings, amountCents, allocation, providerExternalID, childExternalID, careDays, lumpSums)
	if err != nil {
		return err
	}

	// 8. First attempt, tagged with the provider's current method.
	attempt, err := s.createAttempt(intent, *providerSettings.PaymentMethod, providerSettings, familySettings)
	if err != nil {
		return err
	}

	// 9. Detailed method validation; a failure here is recorded on the
	// attempt and stops before any transfer, so no partial state exists.
	if ok, reason := providerSettings.ValidatePaymentMethodStatus(); !ok {
		attempt.RecordError(reason)
		if err := s.payments.SaveAttempt(attempt); err != nil {
			return err
		}
		return fmt.Errorf("%w: %s", domain.ErrPaymentMethodNotAvailable, reason)
	}

	// 10. Move the money.
	if err := s.executePaymentFlow(ctx, intent, attempt, providerSettings, familySettings); err != nil {
		attempt.RecordError(err.Error())
		if saveErr := s.payments.SaveAttempt(attempt); saveErr != nil {
			log.Printf("[Payment] failed to persist attempt error for intent %s: %v", intent.ID, saveErr)
		}
		return err
	}
	return nil
}

// executePaymentFlow runs the transfer protocol for one attempt. Step (a)
// is always the family-wallet to provider-wallet transfer; its fact is
// persisted the moment it succeeds and is never re-executed afterwards.
func (s *PaymentService) executePaymentFlow(
	ctx context.Context,
	intent *models.PaymentIntent,
	attempt *models.PaymentAttempt,
	providerSettings *models.ProviderPaymentSettings,
	familySettings *models.FamilyPaymentSettings,
) error {
	if attempt.WalletTransferID == nil {
		familyUserID, err := chekUserIDToInt(familySettings.ChekUserID)
		if err != nil {
			return err
		}
		resp, err := s.chek.TransferBalance(ctx, familyUserID, chek.TransferBalanceRequest{
			FlowDirection:  chek.FlowWalletToWallet,
			ProgramID:      fmt.Sprintf("%d", s.cfg.Chek.ProgramID),
			CounterpartyID: providerSettings.ChekUserID,
			AmountCents:    intent.AmountCents,
			Description:    intent.Description,
			Metadata:       s.transferMetadata(intent, familySettings),
		})
		if err != nil {
			return err
		}
		attempt.RecordWalletTransfer(fmt.Sprintf("%d", resp.Transfer.ID), time.Now().UTC())
		if err := s.payments.SaveAttempt(attempt); err != nil {
			return err
		}
	}

	switch attempt.PaymentMethod {
	case domain.PaymentMethodACH:
		if err := s.executeACHLeg(ctx, intent, attempt, providerSettings); err != nil {
			return err
		}
	case domain.PaymentMethodCard:
		if err := s.executeCardLeg(ctx, intent, attempt, providerSettings); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: unknown payment method %s", domain.ErrPaymentMethodNotConfigured, attempt.PaymentMethod)
	}

	if models.ComputeAttemptStatus(attempt) == domain.AttemptSuccess {
		payment, err := s.createPaymentOnSuccess(intent, attempt)
		if err != nil {
			return err
		}
		log.Printf("[Payment] payment %s processed for intent %s (%d cents, %s)", payment.ID, intent.ID, payment.AmountCents, payment.PaymentMethod)
	}
	return nil
}

// executeACHLeg sends the provider's wallet balance on to their bank
// account. A failure here leaves the attempt wallet_funded, not failed,
// and eligible for a narrow retry.
func (s *PaymentService) executeACHLeg(
	ctx context.Context,
	intent *models.PaymentIntent,
	attempt *models.PaymentAttempt,
	providerSettings *models.ProviderPaymentSettings,
) error {
	if providerSettings.ChekDirectPayID == nil {
		return fmt.Errorf("%w: provider has no direct pay account for ach payment", domain.ErrPaymentMethodNotConfigured)
	}
	resp, err := s.chek.SendACHPayment(ctx, *providerSettings.ChekDirectPayID, chek.ACHPaymentRequest{
		AmountCents:   intent.AmountCents,
		Type:          chek.ACHTypeSameDay,
		FundingSource: chek.ACHSourceWallet,
		ProgramID:     s.cfg.Chek.ProgramID,
	})
	if err != nil {
		return err
	}
	attempt.RecordACHPayment(resp.PaymentID, time.Now().UTC())
	if err := s.payments.SaveAttempt(attempt); err != nil {
		return err
	}
	log.Printf("[Payment] ach payment %s (%s) initiated for provider settings %s", resp.PaymentID, resp.Status, providerSettings.ID)
	return nil
}

func (s *PaymentService) executeCardLeg(
	ctx context.Context,
	intent *models.PaymentIntent,
	attempt *models.PaymentAttempt,
	providerSettings *models.ProviderPaymentSettings,
) error {
	if providerSettings.ChekCardID == nil {
		return fmt.Errorf("%w: provider has no card for card payment", domain.ErrPaymentMethodNotConfigured)
	}
	resp, err := s.chek.TransferFundsToCard(ctx, *providerSettings.ChekCardID, chek.TransferFundsToCardRequest{
		Direction:     chek.CardDirectionAllocate,
		FundingMethod: chek.CardFundingWallet,
		AmountCents:   intent.AmountCents,
	})
	if err != nil {
		return err
	}
	attempt.RecordCardTransfer(fmt.Sprintf("%d", resp.Transfer.ID), time.Now().UTC())
	return s.payments.SaveAttempt(attempt)
}

// RetryPaymentIntent resumes a stuck intent. Paid intents return true
// immediately. When the latest attempt already funded the wallet, a new
// attempt inherits that fact and runs only the missing leg; otherwise the
// full flow runs again from scratch.
func (s *PaymentService) RetryPaymentIntent(ctx context.Context, intentID uuid.UUID) bool {
	intent, err := s.payments.GetIntent(intentID)
	if err != nil || intent == nil {
		log.Printf("[Payment] intent %s not found for retry: %v", intentID, err)
		return false
	}
	if intent.IsPaid() {
		log.Printf("[Payment] intent %s is already paid", intentID)
		return true
	}
	if !intent.CanRetry() {
		log.Printf("[Payment] intent %s cannot be retried", intentID)
		return false
	}

	providerSettings, err := s.settings.ProviderByID(intent.ProviderPaymentSettingsID)
	if err != nil {
		log.Printf("[Payment] retry %s: load provider settings: %v", intentID, err)
		return false
	}
	familySettings, err := s.settings.FamilyByID(intent.FamilyPaymentSettingsID)
	if err != nil {
		log.Printf("[Payment] retry %s: load family settings: %v", intentID, err)
		return false
	}

	last := intent.LatestAttempt()

	if last != nil && last.WalletTransferID != nil &&
		((last.PaymentMethod == domain.PaymentMethodACH && last.ACHPaymentID == nil) ||
			(last.PaymentMethod == domain.PaymentMethodCard && last.CardTransferID == nil)) {
		return s.retryFinalLeg(ctx, intent, last, providerSettings, familySettings)
	}

	return s.retryFullFlow(ctx, intent, providerSettings, familySettings)
}

// retryFinalLeg creates a new attempt that carries forward the previous
// attempt's wallet-transfer fact, then runs only the outstanding leg. The
// fact copy is the mechanism that prevents a second wallet transfer.
func (s *PaymentService) retryFinalLeg(
	ctx context.Context,
	intent *models.PaymentIntent,
	last *models.PaymentAttempt,
	providerSettings *models.ProviderPaymentSettings,
	familySettings *models.FamilyPaymentSettings,
) bool {
	log.Printf("[Payment] retrying %s leg for intent %s (wallet already funded)", last.PaymentMethod, intent.ID)

	attempt, err := s.createAttempt(intent, last.PaymentMethod, providerSettings, familySettings)
	if err != nil {
		log.Printf("[Payment] retry %s: create attempt: %v", intent.ID, err)
		return false
	}
	attempt.CopyWalletFundingFrom(last)
	if err := s.payments.SaveAttempt(attempt); err != nil {
		log.Printf("[Payment] retry %s: save attempt: %v", intent.ID, err)
		return false
	}

	var legErr error
	switch last.PaymentMethod {
	case domain.PaymentMethodACH:
		legErr = s.executeACHLeg(ctx, intent, attempt, providerSettings)
	case domain.PaymentMethodCard:
		legErr = s.executeCardLeg(ctx, intent, attempt, providerSettings)
	}
	if legErr != nil {
		attempt.RecordError(legErr.Error())
		if err := s.payments.SaveAttempt(attempt); err != nil {
			log.Printf("[Payment] retry %s: persist error fact: %v", intent.ID, err)
		}
		log.Printf("[Payment] %s retry failed for intent %s: %v", last.PaymentMethod, intent.ID, legErr)
		return false
	}

	payment, err := s.createPaymentOnSuccess(intent, attempt)
	if err != nil {
		log.Printf("[Payment] retry %s: create payment: %v", intent.ID, err)
		return false
	}
	log.Printf("[Payment] retry successful for intent %s, payment %s created", intent.ID, payment.ID)
	return true
}

func (s *PaymentService) retryFullFlow(
	ctx context.Context,
	intent *models.PaymentIntent,
	providerSettings *models.ProviderPaymentSettings,
	familySettings *models.FamilyPaymentSettings,
) bool {
	log.Printf("[Payment] retrying full payment for intent %s", intent.ID)

	if providerSettings.PaymentMethod == nil {
		log.Printf("[Payment] retry %s: provider has no payment method", intent.ID)
		return false
	}

	attempt, err := s.createAttempt(intent, *providerSettings.PaymentMethod, providerSettings, familySettings)
	if err != nil {
		log.Printf("[Payment] retry %s: create attempt: %v", intent.ID, err)
		return false
	}

	// Refresh is best-effort on retry and only when the cached provider
	// state has gone stale; the attempt proceeds on cached state if the
	// read fails.
	if providerSettings.IsStatusStale(s.cfg.Payment.StatusStaleAfter, time.Now()) {
		if err := s.providerOnboarding.RefreshSettings(ctx, providerSettings); err != nil {
			log.Printf("[Payment] retry %s: provider refresh failed, continuing: %v", intent.ID, err)
		}
	}

	if ok, reason := providerSettings.ValidatePaymentMethodStatus(); !ok {
		attempt.RecordError(reason)
		if err := s.payments.SaveAttempt(attempt); err != nil {
			log.Printf("[Payment] retry %s: persist error fact: %v", intent.ID, err)
		}
		return false
	}

	if err := s.executePaymentFlow(ctx, intent, attempt, providerSettings, familySettings); err != nil {
		attempt.RecordError(err.Error())
		if saveErr := s.payments.SaveAttempt(attempt); saveErr != nil {
			log.Printf("[Payment] retry %s: persist error fact: %v", intent.ID, saveErr)
		}
		log.Printf("[Payment] full retry failed for intent %s: %v", intent.ID, err)
		return false
	}
	return true
}

// createIntent freezes the amount and item snapshot for a payment request.
func (s *PaymentService) createIntent(
	providerSettings *models.ProviderPaymentSettings,
	familySettings *models.FamilyPaymentSettings,
	amountCents int64,
	allocation *models.MonthAllocation,
	providerExternalID string,
	childExternalID string,
	careDays []models.AllocatedCareDay,
	lumpSums []models.AllocatedLumpSum,
) (*models.PaymentIntent, error) {
	careDayIDs := make([]uint, 0, len(careDays))
	for _, d := range careDays {
		careDayIDs = append(careDayIDs, d.ID)
	}
	lumpSumIDs := make([]uint, 0, len(lumpSums))
	for _, l := range lumpSums {
		lumpSumIDs = append(lumpSumIDs, l.ID)
	}

	intent := &models.PaymentIntent{
		ProviderExternalID:        providerExternalID,
		ChildExternalID:           childExternalID,
		MonthAllocationID:         allocation.ID,
		AmountCents:               amountCents,
		CareDayIDs:                careDayIDs,
		LumpSumIDs:                lumpSumIDs,
		ProviderPaymentSettingsID: providerSettings.ID,
		FamilyPaymentSettingsID:   familySettings.ID,
		Description:               paymentDescription(providerExternalID, len(careDays) > 0, len(lumpSums) > 0),
	}
	if err := s.payments.CreateIntent(intent); err != nil {
		return nil, err
	}
	return intent, nil
}

// createAttempt starts a numbered attempt and snapshots the instrument ids
// in use at this moment; settings may change before the next attempt.
func (s *PaymentService) createAttempt(
	intent *models.PaymentIntent,
	method domain.PaymentMethod,
	providerSettings *models.ProviderPaymentSettings,
	familySettings *models.FamilyPaymentSettings,
) (*models.PaymentAttempt, error) {
	count, err := s.payments.CountAttempts(intent.ID)
	if err != nil {
		return nil, err
	}

	attempt := &models.PaymentAttempt{
		PaymentIntentID:    intent.ID,
		AttemptNumber:      int(count) + 1,
		PaymentMethod:      method,
		ProviderChekUserID: providerSettings.ChekUserID,
		FamilyChekUserID:   familySettings.ChekUserID,
	}
	switch method {
	case domain.PaymentMethodCard:
		if providerSettings.ChekCardID != nil {
			attempt.ProviderChekCardID = *providerSettings.ChekCardID
		}
	case domain.PaymentMethodACH:
		if providerSettings.ChekDirectPayID != nil {
			attempt.ProviderChekDirectPayID = *providerSettings.ChekDirectPayID
		}
	}
	if err := s.payments.CreateAttempt(attempt); err != nil {
		return nil, err
	}
	return attempt, nil
}

// createPaymentOnSuccess materializes the Payment row and stamps every
// referenced item paid, atomically. It is the only place a Payment is
// created.
func (s *PaymentService) createPaymentOnSuccess(intent *models.PaymentIntent, attempt *models.PaymentAttempt) (*models.Payment, error) {
	careDays, err := s.careDays.GetByIDs(intent.CareDayIDs)
	if err != nil {
		return nil, err
	}
	lumpSums, err := s.lumpSums.GetByIDs(intent.LumpSumIDs)
	if err != nil {
		return nil, err
	}

	payment := &models.Payment{
		PaymentIntentID:           intent.ID,
		SuccessfulAttemptID:       attempt.ID,
		ProviderExternalID:        intent.ProviderExternalID,
		ChildExternalID:           intent.ChildExternalID,
		ProviderPaymentSettingsID: intent.ProviderPaymentSettingsID,
		FamilyPaymentSettingsID:   intent.FamilyPaymentSettingsID,
		AmountCents:               intent.AmountCents,
		PaymentMethod:             attempt.PaymentMethod,
		MonthAllocationID:         intent.MonthAllocationID,
	}
	if err := s.payments.CreatePaymentWithItems(payment, attempt, careDays, lumpSums, time.Now().UTC()); err != nil {
		return nil, err
	}
	return payment, nil
}

// InitializeProviderPaymentMethod records the provider's chosen method
// and kicks off the instrument setup it needs: a virtual card is created
// immediately, a bank account goes through Chek's DirectPay invite flow.
func (s *PaymentService) InitializeProviderPaymentMethod(ctx context.Context, providerExternalID string, method domain.PaymentMethod) (*models.ProviderPaymentSettings, error) {
	settings, err := s.providerOnboarding.Onboard(ctx, providerExternalID)
	if err != nil {
		return nil, err
	}

	userID, err := chekUserIDToInt(settings.ChekUserID)
	if err != nil {
		return nil, err
	}

	switch method {
	case domain.PaymentMethodCard:
		if settings.ChekCardID == nil {
			resp, err := s.chek.CreateCard(ctx, userID, chek.CardCreateRequest{
				ProgramID:     s.cfg.Chek.ProgramID,
				FundingMethod: "program_balance",
				AmountCents:   0,
			})
			if err != nil {
				return nil, err
			}
			settings.ChekCardID = &resp.Card.ID
			settings.ChekCardStatus = &resp.Card.Status
		}
	case domain.PaymentMethodACH:
		if settings.ChekDirectPayID == nil {
			acct, err := s.chek.InviteDirectPayAccount(ctx, userID)
			if err != nil {
				return nil, err
			}
			settings.ChekDirectPayID = &acct.ID
			settings.ChekDirectPayStatus = &acct.Status
		}
	default:
		return nil, fmt.Errorf("%w: unknown payment method %s", domain.ErrValidation, method)
	}

	now := time.Now().UTC()
	settings.PaymentMethod = &method
	settings.PaymentMethodUpdatedAt = &now
	if err := s.settings.SaveProvider(settings); err != nil {
		return nil, err
	}
	log.Printf("[Payment] provider %s payment method set to %s", providerExternalID, method)
	return settings, nil
}

// AllocateFundsToFamily pre-funds a family's wallet from the program
// balance for one month's allocation, onboarding the family first if
// needed.
func (s *PaymentService) AllocateFundsToFamily(ctx context.Context, childExternalID string, amountCents int64, month time.Time) (*chek.TransferBalanceResponse, error) {
	familySettings, err := s.familySettingsForChild(childExternalID)
	if err != nil {
		return nil, err
	}
	if familySettings == nil || !familySettings.IsOnboarded() {
		child, err := s.source.Child(childExternalID)
		if err != nil {
			return nil, fmt.Errorf("%w: child %s", domain.ErrDataNotFound, childExternalID)
		}
		familySettings, err = s.familyOnboarding.Onboard(ctx, child.FamilyID)
		if err != nil {
			return nil, err
		}
	}

	familyUserID, err := chekUserIDToInt(familySettings.ChekUserID)
	if err != nil {
		return nil, err
	}
	programID := fmt.Sprintf("%d", s.cfg.Chek.ProgramID)
	return s.chek.TransferBalance(ctx, familyUserID, chek.TransferBalanceRequest{
		FlowDirection:  chek.FlowProgramToWallet,
		ProgramID:      programID,
		CounterpartyID: programID,
		AmountCents:    amountCents,
		Description:    fmt.Sprintf("Allocation for child %s for month %s", childExternalID, month.Format("2006-01")),
		Metadata: map[string]string{
			"child_id":         childExternalID,
			"family_id":        familySettings.FamilyExternalID,
			"allocation_month": month.Format("2006-01"),
		},
	})
}

// ReclaimFamilyFunds returns a family's remaining wallet balance to the
// program, so unspent subsidy does not sit in family wallets after a month
// closes. The live balance is read first; the cached one is never trusted
// for the reclaim amount.
func (s *PaymentService) ReclaimFamilyFunds(ctx context.Context, familyExternalID string) (int64, error) {
	familySettings, err := s.settings.FamilyByExternalID(familyExternalID)
	if err != nil {
		return 0, err
	}
	if familySettings == nil || !familySettings.IsOnboarded() {
		return 0, fmt.Errorf("%w: family %s is not onboarded", domain.ErrFamilyNotFound, familyExternalID)
	}
	if err := s.familyOnboarding.RefreshSettings(ctx, familySettings); err != nil {
		return 0, err
	}
	balance := familySettings.ChekWalletBalance
	if balance <= 0 {
		return 0, nil
	}

	familyUserID, err := chekUserIDToInt(familySettings.ChekUserID)
	if err != nil {
		return 0, err
	}
	programID := fmt.Sprintf("%d", s.cfg.Chek.ProgramID)
	if _, err := s.chek.TransferBalance(ctx, familyUserID, chek.TransferBalanceRequest{
		FlowDirection:  chek.FlowWalletToProgram,
		ProgramID:      programID,
		CounterpartyID: programID,
		AmountCents:    balance,
		Description:    fmt.Sprintf("Reclaim of unspent funds for family %s", familyExternalID),
	}); err != nil {
		return 0, err
	}

	familySettings.ChekWalletBalance = 0
	if err := s.settings.SaveFamily(familySettings); err != nil {
		return 0, err
	}
	log.Printf("[Payment] reclaimed %d cents from family %s", balance, familyExternalID)
	return balance, nil
}

func (s *PaymentService) OnboardProvider(ctx context.Context, externalID string) (*models.ProviderPaymentSettings, error) {
	return s.providerOnboarding.Onboard(ctx, externalID)
}

func (s *PaymentService) OnboardFamily(ctx context.Context, externalID string) (*models.FamilyPaymentSettings, error) {
	return s.familyOnboarding.Onboard(ctx, externalID)
}

func (s *PaymentService) RefreshProviderSettings(ctx context.Context, settings *models.ProviderPaymentSettings) error {
	return s.providerOnboarding.RefreshSettings(ctx, settings)
}

func (s *PaymentService) RefreshFamilySettings(ctx context.Context, settings *models.FamilyPaymentSettings) error {
	return s.familyOnboarding.RefreshSettings(ctx, settings)
}

func (s *PaymentService) familySettingsForChild(childExternalID string) (*models.FamilyPaymentSettings, error) {
	child, err := s.source.Child(childExternalID)
	if err != nil {
		return nil, fmt.Errorf("%w: child %s", domain.ErrDataNotFound, childExternalID)
	}
	return s.settings.FamilyByExternalID(child.FamilyID)
}

func (s *PaymentService) transferMetadata(intent *models.PaymentIntent, familySettings *models.FamilyPaymentSettings) map[string]string {
	return map[string]string{
		"provider_id":         intent.ProviderExternalID,
		"child_id":            intent.ChildExternalID,
		"family_id":           familySettings.FamilyExternalID,
		"family_chek_user_id": familySettings.ChekUserID,
		"intent_id":           intent.ID.String(),
	}
}

func paymentDescription(providerExternalID string, hasCareDays, hasLumpSums bool) string {
	var kinds []string
	if hasCareDays {
		kinds = append(kinds, "care days")
	}
	if hasLumpSums {
		kinds = append(kinds, "lump sum")
	}
	kind := "other"
	if len(kinds) > 0 {
		kind = strings.Join(kinds, " and ")
	}
	return fmt.Sprintf("Payment to provider %s for %s", providerExternalID, kind)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"carepay/config"
	"carepay/internal/domain"
	"carepay/internal/models"
	"carepay/internal/refdata"
	"carepay/internal/repository"
)

// AllocationService owns the month allocation lifecycle and the chargeable
// items billed against it. Allocations are created lazily on first access
// and in a monthly batch; budget checks gate every item creation.
type AllocationService struct {
	cfg *config.Config

	allocations *repository.AllocationRepository
	careDays    *repository.CareDayRepository
	lumpSums    *repository.LumpSumRepository
	rates       *repository.RateRepository

	source   refdata.Source
	payments *PaymentService

	loc *time.Location
}

func NewAllocationService(
	cfg *config.Config,
	allocations *repository.AllocationRepository,
	careDays *repository.CareDayRepository,
	lumpSums *repository.LumpSumRepository,
	rates *repository.RateRepository,
	source refdata.Source,
	payments *PaymentService,
) (*AllocationService, error) {
	loc, err := time.LoadLocation(cfg.Allocation.BusinessTimezone)
	if err != nil {
		return nil, fmt.Errorf("load business timezone %s: %w", cfg.Allocation.BusinessTimezone, err)
	}
	return &AllocationService{
		cfg:         cfg,
		allocations: allocations,
		careDays:    careDays,
		lumpSums:    lumpSums,
		rates:       rates,
		source:      source,
		payments:    payments,
		loc:         loc,
	}, nil
}

// GetOrCreateForMonth returns the allocation for (child, month), creating it
// on first access. The amount is frozen at creation: the prorated amount if
// the child has never had an allocation, the standard monthly amount
// otherwise. Concurrent creators converge on one row via the unique
// (child, month) index.
func (s *AllocationService) GetOrCreateForMonth(ctx context.Context, childExternalID string, monthDate time.Time) (*models.MonthAllocation, error) {
	month := firstOfMonth(monthDate)
	current := firstOfMonth(time.Now().In(s.loc))

	if month.Before(current) {
		return nil, fmt.Errorf("%w: cannot create allocation for past month %s", domain.ErrValidation, month.Format("2006-01"))
	}
	if month.After(current.AddDate(0, 1, 0)) {
		return nil, fmt.Errorf("%w: cannot create allocation more than one month ahead (%s)", domain.ErrValidation, month.Format("2006-01"))
	}

	if existing, err := s.allocations.GetByChildAndMonth(childExternalID, month); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	child, err := s.source.Child(childExternalID)
	if err != nil {
		return nil, fmt.Errorf("%w: child %s", domain.ErrDataNotFound, childExternalID)
	}

	amount := child.MonthlyAllocationCents
	everAllocated, err := s.allocations.ExistsForChild(childExternalID)
	if err != nil {
		return nil, err
	}
	if !everAllocated {
		amount = child.ProratedAllocationCents
	}
	if amount > s.cfg.Allocation.MaxAllocationCents {
		return nil, fmt.Errorf("%w: allocation %d cents exceeds maximum %d", domain.ErrValidation, amount, s.cfg.Allocation.MaxAllocationCents)
	}

	alloc := &models.MonthAllocation{
		ChildExternalID: childExternalID,
		Date:            month,
		AllocationCents: amount,
	}
	if err := s.allocations.Create(alloc); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost the creation race; the winner's row is equivalent
			// because the amount is deterministic from reference data.
			return s.allocations.GetByChildAndMonth(childExternalID, month)
		}
		return nil, err
	}
	log.Printf("[Allocation] created allocation %d for child %s month %s (%d cents)", alloc.ID, childExternalID, month.Format("2006-01"), amount)

	s.preFund(ctx, alloc)
	return alloc, nil
}

// preFund moves the allocation amount from the program balance into the
// family wallet. Best effort: a failure is logged and retryable later, the
// allocation row stands either way.
func (s *AllocationService) preFund(ctx context.Context, alloc *models.MonthAllocation) {
	resp, err := s.payments.AllocateFundsToFamily(ctx, alloc.ChildExternalID, alloc.AllocationCents, alloc.Date)
	if err != nil {
		log.Printf("[Allocation] pre-fund failed for allocation %d: %v", alloc.ID, err)
		return
	}
	transferID := fmt.Sprintf("%d", resp.Transfer.ID)
	if err := s.allocations.RecordPreFund(alloc, transferID, time.Now().UTC()); err != nil {
		log.Printf("[Allocation] failed to record pre-fund transfer %s on allocation %d: %v", transferID, alloc.ID, err)
	}
}

// RetryPreFund re-runs the wallet pre-funding for an allocation whose
// original transfer never got recorded.
func (s *AllocationService) RetryPreFund(ctx context.Context, allocationID uint) error {
	alloc, err := s.allocations.GetByID(allocationID)
	if err != nil {
		return err
	}
	if alloc.ChekTransferID != nil {
		return nil
	}
	s.preFund(ctx, alloc)
	alloc2, err := s.allocations.GetByID(allocationID)
	if err != nil {
		return err
	}
	if alloc2.ChekTransferID == nil {
		return fmt.Errorf("%w: pre-fund did not complete for allocation %d", domain.ErrChekTransfer, allocationID)
	}
	return nil
}

// CreateCareDay adds a day of care billed against the allocation. The cost
// is frozen from the provider+child rate table. A soft-deleted row at the
// same (allocation, provider, date) key is restored and updated instead of
// violating the unique index.
func (s *AllocationService) CreateCareDay(
	allocationID uint,
	providerExternalID string,
	date time.Time,
	dayType domain.CareDayType,
) (*models.AllocatedCareDay, error) {
	alloc, err := s.allocations.GetByID(allocationID)
	if err != nil {
		return nil, err
	}

	day := dateOnly(date)
	now := time.Now().In(s.loc)
	today := dateOnly(now)
	if day.Before(today) {
		return nil, fmt.Errorf("%w: care day %s is in the past", domain.ErrValidation, day.Format("2006-01-02"))
	}
	cutoff := models.LockCutoff(day, s.loc)
	if now.After(cutoff) {
		return nil, fmt.Errorf("%w: care day %s is past its lock cutoff", domain.ErrValidation, day.Format("2006-01-02"))
	}

	cost, err := s.rates.CareDayCost(providerExternalID, alloc.ChildExternalID, dayType)
	if err != nil {
		return nil, err
	}
	if !alloc.CanAbsorb(cost) {
		return nil, fmt.Errorf("%w: care day cost %d cents exceeds remaining %d", domain.ErrAllocationExceeded, cost, alloc.RemainingUnselectedCents())
	}

	existing, err := s.careDays.FindIncludingDeleted(allocationID, providerExternalID, day)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if !existing.IsDeleted() {
			return nil, fmt.Errorf("%w: care day already exists for %s on %s", domain.ErrValidation, providerExternalID, day.Format("2006-01-02"))
		}
		existing.DeletedAt = nil
		existing.Type = dayType
		existing.AmountCents = cost
		existing.LockedDate = cutoff
		if err := s.careDays.Save(existing); err != nil {
			return nil, err
		}
		log.Printf("[Allocation] restored care day %d for provider %s on %s", existing.ID, providerExternalID, day.Format("2006-01-02"))
		return existing, nil
	}

	careDay := &models.AllocatedCareDay{
		MonthAllocationID:  allocationID,
		ProviderExternalID: providerExternalID,
		Date:               day,
		Type:               dayType,
		AmountCents:        cost,
		LockedDate:         cutoff,
	}
	if err := s.careDays.Create(careDay); err != nil {
		return nil, err
	}
	return careDay, nil
}

// DeleteCareDay soft deletes an unlocked, unpaid care day. The row stays in
// place so the same key can be recreated later.
func (s *AllocationService) DeleteCareDay(careDayID uint) error {
	day, err := s.careDayByID(careDayID)
	if err != nil {
		return err
	}
	now := time.Now().In(s.loc)
	if day.IsLocked(now) {
		return fmt.Errorf("%w: care day %d is locked", domain.ErrValidation, careDayID)
	}
	if day.IsPaid() {
		return fmt.Errorf("%w: care day %d is already paid", domain.ErrValidation, careDayID)
	}
	if day.IsDeleted() {
		return nil
	}
	return s.careDays.SoftDelete(day, now.UTC())
}

// RestoreCareDay undoes a soft delete if the day is still within its
// submission window and the budget can absorb it again.
func (s *AllocationService) RestoreCareDay(careDayID uint) (*models.AllocatedCareDay, error) {
	day, err := s.careDayByID(careDayID)
	if err != nil {
		return nil, err
	}
	if !day.IsDeleted() {
		return day, nil
	}
	now := time.Now().In(s.loc)
	if day.IsLocked(now) {
		return nil, fmt.Errorf("%w: care day %d is locked", domain.ErrValidation, careDayID)
	}
	alloc, err := s.allocations.GetByID(day.MonthAllocationID)
	if err != nil {
		return nil, err
	}
	if !alloc.CanAbsorb(day.AmountCents) {
		return nil, fmt.Errorf("%w: restoring care day %d exceeds remaining budget", domain.ErrAllocationExceeded, careDayID)
	}
	if err := s.careDays.Restore(day); err != nil {
		return nil, err
	}
	return day, nil
}

// CreateLumpSum adds an ad-hoc amount billed against the allocation.
func (s *AllocationService) CreateLumpSum(
	allocationID uint,
	providerExternalID string,
	amountCents int64,
	days, halfDays int,
) (*models.AllocatedLumpSum, error) {
	if amountCents <= 0 {
		return nil, fmt.Errorf("%w: lump sum amount must be positive", domain.ErrValidation)
	}
	if amountCents > s.cfg.Payment.MaxPaymentCents {
		return nil, fmt.Errorf("%w: lump sum %d cents exceeds maximum %d", domain.ErrPaymentLimitExceeded, amountCents, s.cfg.Payment.MaxPaymentCents)
	}
	if days <= 0 && halfDays <= 0 {
		return nil, fmt.Errorf("%w: lump sum needs at least one day or half day", domain.ErrValidation)
	}

	alloc, err := s.allocations.GetByID(allocationID)
	if err != nil {
		return nil, err
	}
	if !alloc.CanAbsorb(amountCents) {
		return nil, fmt.Errorf("%w: lump sum %d cents exceeds remaining %d", domain.ErrAllocationExceeded, amountCents, alloc.RemainingUnselectedCents())
	}

	lumpSum := &models.AllocatedLumpSum{
		MonthAllocationID:  allocationID,
		ProviderExternalID: providerExternalID,
		AmountCents:        amountCents,
		Days:               days,
		HalfDays:           halfDays,
	}
	if err := s.lumpSums.Create(lumpSum); err != nil {
		return nil, err
	}
	return lumpSum, nil
}

// MonthResult tallies one batch allocation run.
type MonthResult struct {
	Created int
	Skipped int
	Errors  []error
}

// CreateAllocationsForMonth creates the month's allocation for every
// payment-enabled child that does not have one yet. One child's failure
// does not stop the batch. With dryRun set, rows that would be created are
// counted but nothing is written and no wallet is funded.
func (s *AllocationService) CreateAllocationsForMonth(ctx context.Context, monthDate time.Time, dryRun bool) MonthResult {
	var result MonthResult

	children, err := s.source.Children()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Errorf("list children: %w", err))
		return result
	}

	month := firstOfMonth(monthDate)
	for _, child := range children {
		if !child.PaymentEnabled {
			result.Skipped++
			continue
		}
		existing, err := s.allocations.GetByChildAndMonth(child.ID, month)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("child %s: %w", child.ID, err))
			continue
		}
		if existing != nil {
			result.Skipped++
			continue
		}
		if dryRun {
			log.Printf("[Allocation] dry run: would create allocation for child %s month %s", child.ID, month.Format("2006-01"))
			result.Created++
			continue
		}
		if _, err := s.GetOrCreateForMonth(ctx, child.ID, month); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("child %s: %w", child.ID, err))
			continue
		}
		result.Created++
	}

	log.Printf("[Allocation] batch for %s: %d created, %d skipped, %d errors (dry_run=%t)", month.Format("2006-01"), result.Created, result.Skipped, len(result.Errors), dryRun)
	return result
}

func (s *AllocationService) Allocation(id uint) (*models.MonthAllocation, error) {
	return s.allocations.GetByID(id)
}

// CareDay returns a single care day, deleted or not.
func (s *AllocationService) CareDay(careDayID uint) (*models.AllocatedCareDay, error) {
	return s.careDayByID(careDayID)
}

func (s *AllocationService) CareDays(allocationID uint, includeDeleted bool) ([]models.AllocatedCareDay, error) {
	return s.careDays.ListForAllocation(allocationID, includeDeleted)
}

func (s *AllocationService) LumpSums(allocationID uint) ([]models.AllocatedLumpSum, error) {
	return s.lumpSums.ListForAllocation(allocationID)
}

// SetRate records the negotiated per-day rate between a provider and a
// child. Existing care days keep their frozen amounts; only new ones see
// the new rate.
func (s *AllocationService) SetRate(providerExternalID, childExternalID string, halfDayCents, fullDayCents int64) (*models.PaymentRate, error) {
	for _, cents := range []int64{halfDayCents, fullDayCents} {
		if cents < domain.MinPaymentRateCents || cents > domain.MaxPaymentRateCents {
			return nil, fmt.Errorf("%w: rate %d cents outside allowed bounds", domain.ErrValidation, cents)
		}
	}
	if halfDayCents > fullDayCents {
		return nil, fmt.Errorf("%w: half day rate exceeds full day rate", domain.ErrValidation)
	}
	return s.rates.Upsert(&models.PaymentRate{
		ProviderExternalID: providerExternalID,
		ChildExternalID:    childExternalID,
		HalfDayRateCents:   halfDayCents,
		FullDayRateCents:   fullDayCents,
	})
}

func (s *AllocationService) careDayByID(id uint) (*models.AllocatedCareDay, error) {
	days, err := s.careDays.GetByIDs([]uint{id})
	if err != nil {
		return nil, err
	}
	if len(days) == 0 {
		return nil, fmt.Errorf("%w: care day %d", domain.ErrDataNotFound, id)
	}
	return &days[0], nil
}

// firstOfMonth and dateOnly read the calendar fields of t as given and
// never convert zones, so normalizing twice gives the same value. Callers
// holding a wall-clock instant convert to the business timezone first;
// parsed "2006-01" or "2006-01-02" input already carries the intended
// calendar fields and passes through unchanged.
func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

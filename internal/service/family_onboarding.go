package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"carepay/internal/domain"
	"carepay/internal/models"
	"carepay/internal/refdata"
	"carepay/internal/repository"
	"carepay/pkg/chek"
)

// FamilyOnboarding provisions a Chek identity for a family: the wallet
// that monthly allocations are pre-funded into.
type FamilyOnboarding struct {
	onboarding
	settings *repository.SettingsRepository
	source   refdata.Source
}

func NewFamilyOnboarding(api ChekAPI, settings *repository.SettingsRepository, source refdata.Source) *FamilyOnboarding {
	return &FamilyOnboarding{
		onboarding: onboarding{chek: api},
		settings:   settings,
		source:     source,
	}
}

func (o *FamilyOnboarding) Onboard(ctx context.Context, externalID string) (*models.FamilyPaymentSettings, error) {
	existing, err := o.settings.FamilyByExternalID(externalID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		log.Printf("[Onboarding] family %s already onboarded with chek user %s", externalID, existing.ChekUserID)
		return existing, nil
	}

	family, err := o.source.Family(externalID)
	if err != nil {
		return nil, fmt.Errorf("%w: family %s", domain.ErrFamilyNotFound, externalID)
	}

	chekUserID, balance, err := o.ensureChekUser(ctx, "family", externalID, contactInfo{
		Email:     family.Email,
		Phone:     family.Phone,
		FirstName: family.FirstName,
		LastName:  family.LastName,
		Address: chek.Address{
			Line1:       family.AddressLine1,
			Line2:       family.AddressLine2,
			City:        family.City,
			State:       family.State,
			PostalCode:  family.ZipCode,
			CountryCode: countryOrUS(family.CountryCode),
		},
	})
	if err != nil {
		return nil, err
	}

	s := &models.FamilyPaymentSettings{
		FamilyExternalID:  externalID,
		ChekUserID:        chekUserID,
		ChekWalletBalance: balance,
		CanMakePayments:   family.PaymentEnabled,
	}
	if err := o.settings.CreateFamily(s); err != nil {
		return nil, err
	}
	log.Printf("[Onboarding] onboarded family %s with chek user %s", externalID, chekUserID)
	return s, nil
}

// RefreshSettings re-reads the family's live wallet balance.
func (o *FamilyOnboarding) RefreshSettings(ctx context.Context, s *models.FamilyPaymentSettings) error {
	if s.ChekUserID == "" {
		log.Printf("[Onboarding] family settings %s have no chek user id, cannot refresh", s.ID)
		return nil
	}
	userID, err := chekUserIDToInt(s.ChekUserID)
	if err != nil {
		return err
	}
	user, err := o.chek.GetUser(ctx, userID)
	if err != nil {
		return err
	}

	s.ChekWalletBalance = user.Balance
	now := time.Now().UTC()
	s.LastChekSyncAt = &now

	return o.settings.SaveFamily(s)
}

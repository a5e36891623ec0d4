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

// ProviderOnboarding provisions a Chek identity for a care provider and
// keeps the cached provider settings in sync with the Chek API.
type ProviderOnboarding struct {
	onboarding
	settings *repository.SettingsRepository
	source   refdata.Source
}

func NewProviderOnboarding(api ChekAPI, settings *repository.SettingsRepository, source refdata.Source) *ProviderOnboarding {
	return &ProviderOnboarding{
		onboarding: onboarding{chek: api},
		settings:   settings,
		source:     source,
	}
}

// Onboard is idempotent: an existing settings row is returned untouched, so
// calling it twice performs no duplicate Chek user creation.
func (o *ProviderOnboarding) Onboard(ctx context.Context, externalID string) (*models.ProviderPaymentSettings, error) {
	existing, err := o.settings.ProviderByExternalID(externalID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		log.Printf("[Onboarding] provider %s already onboarded with chek user %s", externalID, existing.ChekUserID)
		return existing, nil
	}

	provider, err := o.source.Provider(externalID)
	if err != nil {
		return nil, fmt.Errorf("%w: provider %s", domain.ErrProviderNotFound, externalID)
	}

	chekUserID, balance, err := o.ensureChekUser(ctx, "provider", externalID, contactInfo{
		Email:     provider.Email,
		Phone:     provider.Phone,
		FirstName: provider.FirstName,
		LastName:  provider.LastName,
		Address: chek.Address{
			Line1:       provider.AddressLine1,
			Line2:       provider.AddressLine2,
			City:        provider.City,
			State:       provider.State,
			PostalCode:  provider.ZipCode,
			CountryCode: countryOrUS(provider.CountryCode),
		},
	})
	if err != nil {
		return nil, err
	}

	s := &models.ProviderPaymentSettings{
		ProviderExternalID: externalID,
		ChekUserID:         chekUserID,
		ChekWalletBalance:  balance,
		// Payment method is chosen by the provider later.
	}
	if err := o.settings.CreateProvider(s); err != nil {
		return nil, err
	}
	log.Printf("[Onboarding] onboarded provider %s with chek user %s", externalID, chekUserID)
	return s, nil
}

// RefreshSettings re-reads the provider's live Chek state and overwrites
// the cached card/directpay/balance fields. This is the only path that
// mutates cached payment-method status outside of attempt fact recording.
func (o *ProviderOnboarding) RefreshSettings(ctx context.Context, s *models.ProviderPaymentSettings) error {
	if s.ChekUserID == "" {
		log.Printf("[Onboarding] provider settings %s have no chek user id, cannot refresh", s.ID)
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

	if user.DirectPay != nil {
		s.ChekDirectPayID = &user.DirectPay.ID
		s.ChekDirectPayStatus = &user.DirectPay.Status
	} else {
		s.ChekDirectPayID = nil
		s.ChekDirectPayStatus = nil
	}
	if len(user.Cards) > 0 {
		first := user.Cards[0]
		s.ChekCardID = &first.ID
		s.ChekCardStatus = &first.Status
	} else {
		s.ChekCardID = nil
		s.ChekCardStatus = nil
	}
	s.ChekWalletBalance = user.Balance
	now := time.Now().UTC()
	s.LastChekSyncAt = &now

	return o.settings.SaveProvider(s)
}

func countryOrUS(code string) string {
	if code == "" {
		return "US"
	}
	return code
}

package service

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"carepay/internal/domain"
	"carepay/pkg/chek"
)

// contactInfo is the minimal contact surface required to provision a Chek
// user, extracted from reference data per entity type.
type contactInfo struct {
	Email     string
	Phone     string
	FirstName string
	LastName  string
	Address   chek.Address
}

// onboarding holds the entity-agnostic half of the provisioning flow:
// validate contact fields, then link an existing Chek user by email or
// create a new one. Provider and family onboarding embed it.
type onboarding struct {
	chek ChekAPI
}

// ensureChekUser returns the Chek user id (and current wallet balance) for
// the given contact, creating the user only when no account with that email
// exists yet. Linking by email is what makes onboarding idempotent across
// entity records.
func (o *onboarding) ensureChekUser(ctx context.Context, entityType, externalID string, c contactInfo) (string, int64, error) {
	if c.Email == "" {
		return "", 0, fmt.Errorf("%w: %s %s has no email", domain.ErrDataNotFound, entityType, externalID)
	}
	phone := FormatPhoneE164(c.Phone)
	if phone == "" {
		return "", 0, fmt.Errorf("%w: %s %s has invalid phone number %q", domain.ErrDataNotFound, entityType, externalID, c.Phone)
	}

	existing, err := o.chek.GetUserByEmail(ctx, c.Email)
	if err != nil {
		return "", 0, err
	}
	if existing != nil {
		log.Printf("[Onboarding] chek user %d already exists for %s, linking to %s %s", existing.ID, c.Email, entityType, externalID)
		return strconv.Itoa(existing.ID), existing.Balance, nil
	}

	created, err := o.chek.CreateUser(ctx, chek.UserCreateRequest{
		Email:     c.Email,
		Phone:     phone,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Address:   c.Address,
	})
	if err != nil {
		return "", 0, err
	}
	log.Printf("[Onboarding] created chek user %d for %s %s", created.ID, entityType, externalID)
	return strconv.Itoa(created.ID), created.Balance, nil
}

func chekUserIDToInt(id string) (int, error) {
	n, err := strconv.Atoi(id)
	if err != nil {
		return 0, fmt.Errorf("%w: malformed chek user id %q", domain.ErrValidation, id)
	}
	return n, nil
}

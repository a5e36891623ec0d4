package service

import (
	"context"

	"carepay/pkg/chek"
)

// ChekAPI is the slice of the Chek client the payment core consumes. The
// transport has no idempotency of its own; every at-most-once guarantee is
// enforced on this side via attempt fact recording.
type ChekAPI interface {
	GetUserByEmail(ctx context.Context, email string) (*chek.User, error)
	CreateUser(ctx context.Context, req chek.UserCreateRequest) (*chek.UserCreateResponse, error)
	GetUser(ctx context.Context, userID int) (*chek.User, error)
	TransferBalance(ctx context.Context, userID int, req chek.TransferBalanceRequest) (*chek.TransferBalanceResponse, error)
	SendACHPayment(ctx context.Context, directPayAccountID string, req chek.ACHPaymentRequest) (*chek.ACHPaymentResponse, error)
	TransferFundsToCard(ctx context.Context, cardID string, req chek.TransferFundsToCardRequest) (*chek.TransferFundsToCardResponse, error)
	CreateCard(ctx context.Context, userID int, req chek.CardCreateRequest) (*chek.CardCreateResponse, error)
	InviteDirectPayAccount(ctx context.Context, userID int) (*chek.DirectPayAccount, error)
}

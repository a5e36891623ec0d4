package chek

import "time"

type Address struct {
	Line1       string `json:"line1"`
	Line2       string `json:"line2,omitempty"`
	City        string `json:"city"`
	State       string `json:"state"`
	PostalCode  string `json:"postal_code"`
	CountryCode string `json:"country_code"`
}

type DirectPayInfo struct {
	ID       string `json:"id"`
	BankName string `json:"bank_name,omitempty"`
	Last4    string `json:"last4,omitempty"`
	Status   string `json:"status"`
}

type CardInfo struct {
	ID     string `json:"id"`
	Last4  string `json:"last4"`
	Status string `json:"status"`
	Type   string `json:"type"`
}

type User struct {
	ID        int            `json:"id"`
	FirstName string         `json:"first_name"`
	LastName  string         `json:"last_name"`
	Email     string         `json:"email"`
	DirectPay *DirectPayInfo `json:"directpay,omitempty"`
	Cards     []CardInfo     `json:"cards"`
	Balance   int64          `json:"balance"` // cents
}

type listUsersResponse struct {
	Count   int    `json:"count"`
	Results []User `json:"results"`
}

type UserCreateRequest struct {
	Email     string  `json:"email"`
	Phone     string  `json:"phone"` // E.164
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Address   Address `json:"address"`
}

type UserCreateResponse struct {
	ID        int       `json:"id"`
	Created   time.Time `json:"created"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Balance   int64     `json:"balance"`
}

// Flow directions for balance transfers.
const (
	FlowProgramToWallet = "program_to_wallet"
	FlowWalletToProgram = "wallet_to_program"
	FlowWalletToWallet  = "wallet_to_wallet"
)

type TransferBalanceRequest struct {
	FlowDirection  string            `json:"flow_direction"`
	ProgramID      string            `json:"program_id"`
	CounterpartyID string            `json:"counterparty_id"`
	AmountCents    int64             `json:"amount"`
	Description    string            `json:"description,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

type BalanceParty struct {
	ID      int    `json:"id"`
	Balance int64  `json:"balance"`
	Type    string `json:"type"`
}

type TransferDetails struct {
	ID      int       `json:"id"`
	Amount  int64     `json:"amount"`
	Created time.Time `json:"created"`
}

type TransferBalanceResponse struct {
	Source      BalanceParty    `json:"source"`
	Destination BalanceParty    `json:"destination"`
	Transfer    TransferDetails `json:"transfer"`
}

// ACH payment constants.
const (
	ACHTypeSameDay  = "same_day_ach"
	ACHSourceWallet = "wallet"
)

type ACHPaymentRequest struct {
	AmountCents   int64  `json:"amount"`
	Type          string `json:"type"`
	FundingSource string `json:"funding_source"`
	ProgramID     int    `json:"program_id"`
}

type ACHPaymentResponse struct {
	PaymentID            string    `json:"payment_id"`
	Status               string    `json:"status"`
	AmountCents          int64     `json:"amount"`
	Descriptor           string    `json:"descriptor"`
	Created              time.Time `json:"created"`
	ReceivingBankAccount string    `json:"receiving_bank_account"`
	FundingSource        string    `json:"funding_source"`
}

type DirectPayAccount struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	BankName string `json:"bank_name,omitempty"`
	Last4    string `json:"last4,omitempty"`
	Type     string `json:"type"`
}

// Card funding transfer constants.
const (
	CardDirectionAllocate = "allocate_to_card"
	CardDirectionRemit    = "remit_from_card"
	CardFundingWallet     = "wallet"
	CardFundingProgram    = "program"
)

type TransferFundsToCardRequest struct {
	Direction     string `json:"direction"`
	FundingMethod string `json:"funding_method"`
	AmountCents   int64  `json:"amount"`
}

type TransferFundsToCardResponse struct {
	Card     CardInfo        `json:"card"`
	Transfer TransferDetails `json:"transfer"`
}

type CardCreateRequest struct {
	ProgramID     int    `json:"program_id"`
	FundingMethod string `json:"funding_method"` // wallet_balance or program_balance
	AmountCents   int64  `json:"amount"`
}

type CardCreateResponse struct {
	Card     CardInfo         `json:"card"`
	Transfer *TransferDetails `json:"transfer,omitempty"`
}

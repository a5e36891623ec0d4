// Package chek wraps the Chek money-movement API: user accounts, wallets,
// virtual cards, DirectPay (ACH) accounts and balance transfers. The API
// has no transport-level idempotency; callers own retry safety.
package chek

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"carepay/internal/domain"
)

type Client struct {
	BaseURL   string
	AccountID string
	apiKey    string
	writeKey  string
	client    *http.Client
}

func NewClient(baseURL, accountID, apiKey, writeKey string) *Client {
	return &Client{
		BaseURL:   baseURL,
		AccountID: accountID,
		apiKey:    apiKey,
		writeKey:  writeKey,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

// request performs one API call. Write operations additionally carry the
// write key; the API rejects POST/PATCH without it.
func (c *Client) request(ctx context.Context, method, endpoint string, body interface{}, out interface{}) error {
	u := fmt.Sprintf("%s/api/v1/account/%s/%s", c.BaseURL, c.AccountID, endpoint)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("chek: marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return err
	}
	req.Header.Set("API-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if method == http.MethodPost || method == http.MethodPatch {
		if c.writeKey == "" {
			return fmt.Errorf("chek: write key not configured for %s %s", method, endpoint)
		}
		req.Header.Set("Write-Key", c.writeKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", domain.ErrChekService, method, endpoint, err)
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Printf("[Chek] %s %s -> %d %s", method, endpoint, resp.StatusCode, string(respBody))
		return fmt.Errorf("%w: %s %s: status %d: %s", domain.ErrChekService, method, endpoint, resp.StatusCode, string(respBody))
	}
	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("%w: decode %s response: %v", domain.ErrChekService, endpoint, err)
		}
	}
	return nil
}

// GetUserByEmail looks a user up via the list endpoint. The API's
// server-side email filter is unreliable, so only the first result is
// trusted and is verified against the requested email.
func (c *Client) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	endpoint := "users/?email=" + url.QueryEscape(email)
	var resp listUsersResponse
	if err := c.request(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 || resp.Results[0].Email != email {
		return nil, nil
	}
	return &resp.Results[0], nil
}

func (c *Client) CreateUser(ctx context.Context, req UserCreateRequest) (*UserCreateResponse, error) {
	var resp UserCreateResponse
	if err := c.request(ctx, http.MethodPost, "users/", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetUser(ctx context.Context, userID int) (*User, error) {
	var resp User
	if err := c.request(ctx, http.MethodGet, fmt.Sprintf("users/%d/", userID), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) TransferBalance(ctx context.Context, userID int, req TransferBalanceRequest) (*TransferBalanceResponse, error) {
	endpoint := fmt.Sprintf("users/%d/transfer_balance/", userID)
	var resp TransferBalanceResponse
	if err := c.request(ctx, http.MethodPost, endpoint, req, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrChekTransfer, err)
	}
	return &resp, nil
}

func (c *Client) GetDirectPayAccount(ctx context.Context, accountID string) (*DirectPayAccount, error) {
	var resp DirectPayAccount
	if err := c.request(ctx, http.MethodGet, fmt.Sprintf("directpay_accounts/%s/", accountID), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SendACHPayment initiates a same-day ACH transfer from the recipient's
// wallet to their linked bank account. The DirectPay account must be
// Active; the status is re-read here rather than trusted from cache.
func (c *Client) SendACHPayment(ctx context.Context, directPayAccountID string, req ACHPaymentRequest) (*ACHPaymentResponse, error) {
	account, err := c.GetDirectPayAccount(ctx, directPayAccountID)
	if err != nil {
		return nil, fmt.Errorf("%w: precheck: %v", domain.ErrChekACH, err)
	}
	if account.Status != domain.ChekStatusActive {
		return nil, fmt.Errorf("%w: directpay account %s is %s, not Active", domain.ErrChekACH, directPayAccountID, account.Status)
	}

	endpoint := fmt.Sprintf("directpay_accounts/%s/send_payment/", directPayAccountID)
	var resp ACHPaymentResponse
	if err := c.request(ctx, http.MethodPost, endpoint, req, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrChekACH, err)
	}
	return &resp, nil
}

func (c *Client) TransferFundsToCard(ctx context.Context, cardID string, req TransferFundsToCardRequest) (*TransferFundsToCardResponse, error) {
	endpoint := fmt.Sprintf("cards/%s/transfer_funds/", cardID)
	var resp TransferFundsToCardResponse
	if err := c.request(ctx, http.MethodPost, endpoint, req, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrChekTransfer, err)
	}
	return &resp, nil
}

func (c *Client) CreateCard(ctx context.Context, userID int, req CardCreateRequest) (*CardCreateResponse, error) {
	payload := struct {
		UserID int `json:"user_id"`
		CardCreateRequest
	}{UserID: userID, CardCreateRequest: req}
	var resp CardCreateResponse
	if err := c.request(ctx, http.MethodPost, "cards/", payload, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) InviteDirectPayAccount(ctx context.Context, userID int) (*DirectPayAccount, error) {
	body := map[string]int{"user_id": userID}
	var resp DirectPayAccount
	if err := c.request(ctx, http.MethodPost, "directpay_accounts/invite/", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

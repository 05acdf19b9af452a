package plaid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultTimeout = 30 * time.Second
	syncPageSize   = 500
	maxSyncPages   = 100

	linkTokenPath      = "/link/token/create"
	exchangePath       = "/item/public_token/exchange"
	accountsPath       = "/accounts/get"
	institutionPath    = "/institutions/get_by_id"
	transactionsPath   = "/transactions/sync"
	processorTokenPath = "/processor/token/create"
)

var environments = map[string]string{
	"sandbox":     "https://sandbox.plaid.com",
	"development": "https://development.plaid.com",
	"production":  "https://production.plaid.com",
}

type Config struct {
	ClientID     string
	Secret       string
	Env          string
	Products     []string
	CountryCodes []string
	Timeout      time.Duration
	BaseURL      string // overrides Env when set
}

// Client handles communication with the Plaid API
type Client struct {
	httpClient   *http.Client
	baseURL      string
	clientID     string
	secret       string
	products     []string
	countryCodes []string
}

// Ensure Client implements ClientInterface
var _ ClientInterface = (*Client)(nil)

// NewClient creates a new Plaid API client
func NewClient(cfg Config) (*Client, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		var ok bool
		baseURL, ok = environments[cfg.Env]
		if !ok {
			return nil, fmt.Errorf("unknown plaid environment %q", cfg.Env)
		}
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	countryCodes := cfg.CountryCodes
	if len(countryCodes) == 0 {
		countryCodes = []string{"US"}
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		baseURL:      baseURL,
		clientID:     cfg.ClientID,
		secret:       cfg.Secret,
		products:     cfg.Products,
		countryCodes: countryCodes,
	}, nil
}

// CreateLinkToken creates a Link token for the account-linking widget
func (c *Client) CreateLinkToken(ctx context.Context, req LinkTokenRequest) (*LinkTokenResponse, error) {
	body := map[string]any{
		"user":          map[string]string{"client_user_id": req.ClientUserID},
		"client_name":   req.ClientName,
		"products":      c.products,
		"language":      "en",
		"country_codes": c.countryCodes,
	}
	var resp LinkTokenResponse
	if err := c.post(ctx, linkTokenPath, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ExchangePublicToken swaps a Link public token for a long-lived access token
func (c *Client) ExchangePublicToken(ctx context.Context, publicToken string) (*ExchangeResponse, error) {
	var resp ExchangeResponse
	if err := c.post(ctx, exchangePath, map[string]any{"public_token": publicToken}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetAccounts fetches the accounts and item metadata for an access token
func (c *Client) GetAccounts(ctx context.Context, accessToken string) (*AccountsResponse, error) {
	var resp AccountsResponse
	if err := c.post(ctx, accountsPath, map[string]any{"access_token": accessToken}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Accounts) == 0 {
		return nil, fmt.Errorf("plaid returned no accounts for item %s", resp.Item.ItemID)
	}
	return &resp, nil
}

func (c *Client) GetInstitution(ctx context.Context, institutionID string) (*Institution, error) {
	body := map[string]any{
		"institution_id": institutionID,
		"country_codes":  c.countryCodes,
	}
	var resp institutionResponse
	if err := c.post(ctx, institutionPath, body, &resp); err != nil {
		return nil, err
	}
	return &resp.Institution, nil
}

// SyncTransactions walks /transactions/sync from the beginning until has_more
// is false and returns every added transaction.
func (c *Client) SyncTransactions(ctx context.Context, accessToken string) ([]Transaction, error) {
	var (
		all    []Transaction
		cursor string
	)
	for page := 0; page < maxSyncPages; page++ {
		body := map[string]any{
			"access_token": accessToken,
			"count":        syncPageSize,
		}
		if cursor != "" {
			body["cursor"] = cursor
		}

		var resp syncResponse
		if err := c.post(ctx, transactionsPath, body, &resp); err != nil {
			return nil, err
		}
		all = append(all, resp.Added...)

		if !resp.HasMore {
			return all, nil
		}
		if resp.NextCursor == "" || resp.NextCursor == cursor {
			return nil, fmt.Errorf("plaid sync reported more pages without advancing the cursor")
		}
		cursor = resp.NextCursor
	}
	return nil, fmt.Errorf("plaid sync exceeded %d pages", maxSyncPages)
}

// CreateProcessorToken creates a token the payments processor uses to read the account
func (c *Client) CreateProcessorToken(ctx context.Context, accessToken, accountID, processor string) (string, error) {
	body := map[string]any{
		"access_token": accessToken,
		"account_id":   accountID,
		"processor":    processor,
	}
	var resp processorTokenResponse
	if err := c.post(ctx, processorTokenPath, body, &resp); err != nil {
		return "", err
	}
	return resp.ProcessorToken, nil
}

func (c *Client) post(ctx context.Context, path string, body map[string]any, out any) error {
	body["client_id"] = c.clientID
	body["secret"] = c.secret

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &Error{Status: resp.StatusCode}
		if err := json.Unmarshal(respBody, apiErr); err != nil || apiErr.ErrorCode == "" {
			return fmt.Errorf("plaid request %s failed with status %d: %s", path, resp.StatusCode, string(respBody))
		}
		return apiErr
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

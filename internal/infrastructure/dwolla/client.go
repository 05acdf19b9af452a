// Package dwolla is a client for the Dwolla payments API.
package dwolla

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"horizon/internal/domain/payment"
)

const (
	defaultTimeout = 30 * time.Second
	halContentType = "application/vnd.dwolla.v1.hal+json"
)

var environments = map[string]string{
	"sandbox":    "https://api-sandbox.dwolla.com",
	"production": "https://api.dwolla.com",
}

type Config struct {
	Key     string
	Secret  string
	Env     string
	Timeout time.Duration
	BaseURL string // overrides Env when set
}

// Client talks to Dwolla using an application access token obtained with
// the client credentials grant.
type Client struct {
	httpClient *http.Client
	baseURL    string
	newKey     func() string
}

var _ payment.Provider = (*Client)(nil)

func NewClient(cfg Config) (*Client, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		var ok bool
		baseURL, ok = environments[cfg.Env]
		if !ok {
			return nil, fmt.Errorf("unknown dwolla environment %q", cfg.Env)
		}
	}
	baseURL = strings.TrimRight(baseURL, "/")

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	transport := &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, transport)

	creds := clientcredentials.Config{
		ClientID:     cfg.Key,
		ClientSecret: cfg.Secret,
		TokenURL:     baseURL + "/token",
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	httpClient := creds.Client(ctx)
	httpClient.Timeout = timeout

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		newKey:     uuid.NewString,
	}, nil
}

type halLink struct {
	Href string `json:"href"`
}

type fundingSourceResource struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Status  string `json:"status"`
	Type    string `json:"type"`
	Removed bool   `json:"removed"`
	Links   struct {
		Self halLink `json:"self"`
	} `json:"_links"`
}

type fundingSourcesResponse struct {
	Embedded struct {
		FundingSources []fundingSourceResource `json:"funding-sources"`
	} `json:"_embedded"`
}

type onDemandAuthorizationResponse struct {
	Links struct {
		Self halLink `json:"self"`
	} `json:"_links"`
	BodyText   string `json:"bodyText"`
	ButtonText string `json:"buttonText"`
}

func (c *Client) CreateCustomer(ctx context.Context, customer payment.NewCustomer) (string, error) {
	if customer.Type == "" {
		customer.Type = "personal"
	}
	return c.create(ctx, "/customers", customer, c.newKey())
}

func (c *Client) CreateOnDemandAuthorization(ctx context.Context) (string, error) {
	var resp onDemandAuthorizationResponse
	if _, err := c.do(ctx, http.MethodPost, c.baseURL+"/on-demand-authorizations", nil, "", &resp); err != nil {
		return "", err
	}
	if resp.Links.Self.Href == "" {
		return "", fmt.Errorf("dwolla on-demand authorization response had no self link")
	}
	return resp.Links.Self.Href, nil
}

func (c *Client) CreateFundingSource(ctx context.Context, req payment.CreateFundingSourceRequest) (string, error) {
	body := map[string]any{
		"name":       req.Name,
		"plaidToken": req.ProcessorToken,
	}
	if req.AuthorizationURL != "" {
		body["_links"] = map[string]halLink{
			"on-demand-authorization": {Href: req.AuthorizationURL},
		}
	}
	return c.create(ctx, "/customers/"+req.CustomerID+"/funding-sources", body, c.newKey())
}

func (c *Client) ListFundingSources(ctx context.Context, customerID string) ([]payment.FundingSource, error) {
	var resp fundingSourcesResponse
	if _, err := c.do(ctx, http.MethodGet, c.baseURL+"/customers/"+customerID+"/funding-sources", nil, "", &resp); err != nil {
		return nil, err
	}

	sources := make([]payment.FundingSource, 0, len(resp.Embedded.FundingSources))
	for _, fs := range resp.Embedded.FundingSources {
		sources = append(sources, payment.FundingSource{
			ID:      fs.ID,
			Name:    fs.Name,
			Status:  fs.Status,
			Type:    fs.Type,
			Removed: fs.Removed,
			URL:     fs.Links.Self.Href,
		})
	}
	return sources, nil
}

// RemoveFundingSource soft-deletes a funding source by its resource URL.
func (c *Client) RemoveFundingSource(ctx context.Context, fundingSourceURL string) error {
	if !strings.HasPrefix(fundingSourceURL, c.baseURL+"/") {
		return fmt.Errorf("funding source %q does not belong to %s", fundingSourceURL, c.baseURL)
	}
	_, err := c.do(ctx, http.MethodPost, fundingSourceURL, map[string]bool{"removed": true}, "", nil)
	return err
}

func (c *Client) CreateTransfer(ctx context.Context, req payment.TransferRequest) (string, error) {
	body := map[string]any{
		"_links": map[string]halLink{
			"source":      {Href: req.SourceFundingSourceURL},
			"destination": {Href: req.DestinationFundingSourceURL},
		},
		"amount": map[string]string{
			"currency": "USD",
			"value":    req.Amount.StringFixed(2),
		},
	}
	key := req.IdempotencyKey
	if key == "" {
		key = c.newKey()
	}
	return c.create(ctx, "/transfers", body, key)
}

// create POSTs a new resource and returns its Location header.
func (c *Client) create(ctx context.Context, path string, body any, idempotencyKey string) (string, error) {
	resp, err := c.do(ctx, http.MethodPost, c.baseURL+path, body, idempotencyKey, nil)
	if err != nil {
		return "", err
	}
	location := resp.Header.Get("Location")
	if location == "" {
		return "", fmt.Errorf("dwolla %s response had no Location header", path)
	}
	return location, nil
}

func (c *Client) do(ctx context.Context, method, url string, body any, idempotencyKey string, out any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", halContentType)
	if body != nil {
		req.Header.Set("Content-Type", halContentType)
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 300 {
		apiErr := &Error{Status: resp.StatusCode}
		if err := json.Unmarshal(respBody, apiErr); err != nil || apiErr.Code == "" {
			return nil, fmt.Errorf("dwolla %s %s failed with status %d: %s", method, url, resp.StatusCode, string(respBody))
		}
		return nil, apiErr
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return nil, fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}
	return resp, nil
}

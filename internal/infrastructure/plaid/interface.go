package plaid

import (
	"context"
)

// ClientInterface defines the methods required from the Plaid API client
type ClientInterface interface {
	CreateLinkToken(ctx context.Context, req LinkTokenRequest) (*LinkTokenResponse, error)
	ExchangePublicToken(ctx context.Context, publicToken string) (*ExchangeResponse, error)
	GetAccounts(ctx context.Context, accessToken string) (*AccountsResponse, error)
	GetInstitution(ctx context.Context, institutionID string) (*Institution, error)
	SyncTransactions(ctx context.Context, accessToken string) ([]Transaction, error)
	CreateProcessorToken(ctx context.Context, accessToken, accountID, processor string) (string, error)
}

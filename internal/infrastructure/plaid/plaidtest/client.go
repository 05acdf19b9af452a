// Package plaidtest provides a configurable plaid.ClientInterface for tests.
package plaidtest

import (
	"context"

	"github.com/shopspring/decimal"

	"horizon/internal/infrastructure/plaid"
)

// MockClient is a mock implementation of plaid.ClientInterface. Unset funcs
// return a single sandbox checking account.
type MockClient struct {
	CreateLinkTokenFunc      func(ctx context.Context, req plaid.LinkTokenRequest) (*plaid.LinkTokenResponse, error)
	ExchangePublicTokenFunc  func(ctx context.Context, publicToken string) (*plaid.ExchangeResponse, error)
	GetAccountsFunc          func(ctx context.Context, accessToken string) (*plaid.AccountsResponse, error)
	GetInstitutionFunc       func(ctx context.Context, institutionID string) (*plaid.Institution, error)
	SyncTransactionsFunc     func(ctx context.Context, accessToken string) ([]plaid.Transaction, error)
	CreateProcessorTokenFunc func(ctx context.Context, accessToken, accountID, processor string) (string, error)
}

var _ plaid.ClientInterface = (*MockClient)(nil)

// Checking returns an accounts response with one account.
func Checking(accountID, itemID string, current string) *plaid.AccountsResponse {
	return &plaid.AccountsResponse{
		Accounts: []plaid.Account{{
			AccountID: accountID,
			Balances: plaid.Balances{
				Available: decimal.NewNullDecimal(decimal.RequireFromString(current)),
				Current:   decimal.NewNullDecimal(decimal.RequireFromString(current)),
			},
			Mask:    "0000",
			Name:    "Plaid Checking",
			Type:    "depository",
			Subtype: "checking",
		}},
		Item: plaid.Item{ItemID: itemID, InstitutionID: "ins_1"},
	}
}

func (m *MockClient) CreateLinkToken(ctx context.Context, req plaid.LinkTokenRequest) (*plaid.LinkTokenResponse, error) {
	if m.CreateLinkTokenFunc != nil {
		return m.CreateLinkTokenFunc(ctx, req)
	}
	return &plaid.LinkTokenResponse{LinkToken: "link-sandbox-1"}, nil
}

func (m *MockClient) ExchangePublicToken(ctx context.Context, publicToken string) (*plaid.ExchangeResponse, error) {
	if m.ExchangePublicTokenFunc != nil {
		return m.ExchangePublicTokenFunc(ctx, publicToken)
	}
	return &plaid.ExchangeResponse{AccessToken: "access-sandbox-1", ItemID: "item-1"}, nil
}

func (m *MockClient) GetAccounts(ctx context.Context, accessToken string) (*plaid.AccountsResponse, error) {
	if m.GetAccountsFunc != nil {
		return m.GetAccountsFunc(ctx, accessToken)
	}
	return Checking("acc-1", "item-1", "100"), nil
}

func (m *MockClient) GetInstitution(ctx context.Context, institutionID string) (*plaid.Institution, error) {
	if m.GetInstitutionFunc != nil {
		return m.GetInstitutionFunc(ctx, institutionID)
	}
	return &plaid.Institution{InstitutionID: institutionID, Name: "First Platypus Bank"}, nil
}

func (m *MockClient) SyncTransactions(ctx context.Context, accessToken string) ([]plaid.Transaction, error) {
	if m.SyncTransactionsFunc != nil {
		return m.SyncTransactionsFunc(ctx, accessToken)
	}
	return nil, nil
}

func (m *MockClient) CreateProcessorToken(ctx context.Context, accessToken, accountID, processor string) (string, error) {
	if m.CreateProcessorTokenFunc != nil {
		return m.CreateProcessorTokenFunc(ctx, accessToken, accountID, processor)
	}
	return "processor-sandbox-1", nil
}

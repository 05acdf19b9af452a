// Package paymenttest provides a configurable payment.Provider for tests.
package paymenttest

import (
	"context"

	"horizon/internal/domain/payment"
)

// MockProvider is a mock implementation of payment.Provider
type MockProvider struct {
	CreateCustomerFunc              func(ctx context.Context, customer payment.NewCustomer) (string, error)
	CreateOnDemandAuthorizationFunc func(ctx context.Context) (string, error)
	CreateFundingSourceFunc         func(ctx context.Context, req payment.CreateFundingSourceRequest) (string, error)
	ListFundingSourcesFunc          func(ctx context.Context, customerID string) ([]payment.FundingSource, error)
	RemoveFundingSourceFunc         func(ctx context.Context, fundingSourceURL string) error
	CreateTransferFunc              func(ctx context.Context, req payment.TransferRequest) (string, error)
}

var _ payment.Provider = (*MockProvider)(nil)

func (m *MockProvider) CreateCustomer(ctx context.Context, customer payment.NewCustomer) (string, error) {
	if m.CreateCustomerFunc != nil {
		return m.CreateCustomerFunc(ctx, customer)
	}
	return "https://api-sandbox.dwolla.com/customers/cust-1", nil
}

func (m *MockProvider) CreateOnDemandAuthorization(ctx context.Context) (string, error) {
	if m.CreateOnDemandAuthorizationFunc != nil {
		return m.CreateOnDemandAuthorizationFunc(ctx)
	}
	return "https://api-sandbox.dwolla.com/on-demand-authorizations/auth-1", nil
}

func (m *MockProvider) CreateFundingSource(ctx context.Context, req payment.CreateFundingSourceRequest) (string, error) {
	if m.CreateFundingSourceFunc != nil {
		return m.CreateFundingSourceFunc(ctx, req)
	}
	return "https://api-sandbox.dwolla.com/funding-sources/fs-1", nil
}

func (m *MockProvider) ListFundingSources(ctx context.Context, customerID string) ([]payment.FundingSource, error) {
	if m.ListFundingSourcesFunc != nil {
		return m.ListFundingSourcesFunc(ctx, customerID)
	}
	return nil, nil
}

func (m *MockProvider) RemoveFundingSource(ctx context.Context, fundingSourceURL string) error {
	if m.RemoveFundingSourceFunc != nil {
		return m.RemoveFundingSourceFunc(ctx, fundingSourceURL)
	}
	return nil
}

func (m *MockProvider) CreateTransfer(ctx context.Context, req payment.TransferRequest) (string, error) {
	if m.CreateTransferFunc != nil {
		return m.CreateTransferFunc(ctx, req)
	}
	return "https://api-sandbox.dwolla.com/transfers/tr-1", nil
}

// CodedError satisfies payment.CodedError.
type CodedError struct {
	Code string
}

func (e *CodedError) Error() string        { return "provider error: " + e.Code }
func (e *CodedError) ProviderCode() string { return e.Code }

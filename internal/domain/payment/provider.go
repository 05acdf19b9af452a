package payment

import "context"

// Provider is the payments provider contract.
type Provider interface {
	// CreateCustomer returns the new customer's resource URL.
	CreateCustomer(ctx context.Context, customer NewCustomer) (string, error)
	// CreateOnDemandAuthorization returns the authorization resource URL.
	CreateOnDemandAuthorization(ctx context.Context) (string, error)
	// CreateFundingSource returns the funding source resource URL.
	CreateFundingSource(ctx context.Context, req CreateFundingSourceRequest) (string, error)
	ListFundingSources(ctx context.Context, customerID string) ([]FundingSource, error)
	RemoveFundingSource(ctx context.Context, fundingSourceURL string) error
	// CreateTransfer returns the transfer resource URL.
	CreateTransfer(ctx context.Context, req TransferRequest) (string, error)
}

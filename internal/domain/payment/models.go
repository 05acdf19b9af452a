// Package payment registers bank accounts with the payments provider and
// moves money between them.
package payment

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// Provider error codes the registration flow reacts to.
const (
	CodeDuplicateResource    = "DuplicateResource"
	CodeInvalidResourceState = "InvalidResourceState"
	CodeValidationError      = "ValidationError"
	CodeInvalidCredentials   = "InvalidCredentials"
)

const (
	FundingSourceVerified = "verified"
	FundingSourceTypeBank = "bank"
)

// NewCustomer is a personal verified customer record.
type NewCustomer struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	Type        string `json:"type"`
	Address1    string `json:"address1"`
	City        string `json:"city"`
	State       string `json:"state"`
	PostalCode  string `json:"postalCode"`
	DateOfBirth string `json:"dateOfBirth"`
	SSN         string `json:"ssn"`
}

type FundingSource struct {
	ID      string
	Name    string
	Status  string
	Type    string
	Removed bool
	URL     string
}

// CreateFundingSourceRequest attaches a bank account using an aggregator processor token.
type CreateFundingSourceRequest struct {
	CustomerID       string
	Name             string
	ProcessorToken   string
	AuthorizationURL string
}

type TransferRequest struct {
	SourceFundingSourceURL      string
	DestinationFundingSourceURL string
	Amount                      decimal.Decimal
	IdempotencyKey              string
}

// CodedError is implemented by provider errors that carry a machine-readable code.
type CodedError interface {
	error
	ProviderCode() string
}

// ErrorCode returns the provider code in err's chain, or "".
func ErrorCode(err error) string {
	var coded CodedError
	if errors.As(err, &coded) {
		return coded.ProviderCode()
	}
	return ""
}

// ExtractCustomerID returns the last path segment of a customer resource URL.
func ExtractCustomerID(customerURL string) string {
	trimmed := strings.TrimRight(customerURL, "/")
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}

package payment

import (
	"context"
	"errors"
	"fmt"
	"log"

	"horizon/internal/shared/apperror"
)

const (
	msgDuplicate      = "This bank account is already connected to your account. Please use the existing connection or remove it first."
	msgVerification   = "Your payments account needs additional verification before adding bank accounts. Please contact support."
	msgValidation     = "There was an issue validating your bank account. Please check your account information and try again."
	msgCredentials    = "Invalid bank account credentials. Please verify your account information."
	msgGenericFunding = "Failed to connect bank account. Please try again later."
)

var errNoFundingSource = errors.New("payments provider returned no funding source")

type AddFundingSourceParams struct {
	CustomerID     string
	ProcessorToken string
	BankName       string
}

// Registration is the outcome of AddFundingSource. Created is false when an
// existing funding source was reused.
type Registration struct {
	URL     string
	Created bool
}

// Registrar attaches bank accounts to payments customers.
type Registrar struct {
	provider Provider
}

func NewRegistrar(provider Provider) *Registrar {
	return &Registrar{provider: provider}
}

// AddFundingSource registers a bank account as a funding source. Provider
// conflicts are resolved by reusing an existing verified source; anything
// else becomes a user-facing *apperror.Error.
func (r *Registrar) AddFundingSource(ctx context.Context, p AddFundingSourceParams) (Registration, error) {
	authURL, err := r.provider.CreateOnDemandAuthorization(ctx)
	if err != nil {
		log.Printf("AddFundingSource: on-demand authorization failed for customer %s: %v", p.CustomerID, err)
		return Registration{}, mapFundingError(err)
	}

	url, err := r.provider.CreateFundingSource(ctx, CreateFundingSourceRequest{
		CustomerID:       p.CustomerID,
		Name:             p.BankName,
		ProcessorToken:   p.ProcessorToken,
		AuthorizationURL: authURL,
	})
	if err == nil {
		if url == "" {
			return Registration{}, mapFundingError(errNoFundingSource)
		}
		return Registration{URL: url, Created: true}, nil
	}

	code := ErrorCode(err)
	switch code {
	case CodeDuplicateResource:
		log.Printf("AddFundingSource: funding source already exists for customer %s, looking up existing one", p.CustomerID)
		if existing := r.findExisting(ctx, p.CustomerID, p.BankName); existing != "" {
			return Registration{URL: existing}, nil
		}
	case CodeInvalidResourceState:
		log.Printf("AddFundingSource: customer %s may need verification, looking for a verified source", p.CustomerID)
		if existing := r.findExisting(ctx, p.CustomerID, ""); existing != "" {
			return Registration{URL: existing}, nil
		}
	default:
		log.Printf("AddFundingSource: creating funding source failed for customer %s: %v", p.CustomerID, err)
	}

	return Registration{}, mapFundingError(err)
}

// findExisting prefers a verified source named bankName, then any verified
// bank source. An empty bankName skips the name match.
func (r *Registrar) findExisting(ctx context.Context, customerID, bankName string) string {
	sources, err := r.provider.ListFundingSources(ctx, customerID)
	if err != nil {
		log.Printf("AddFundingSource: failed to list funding sources for customer %s: %v", customerID, err)
		return ""
	}

	if bankName != "" {
		for _, s := range sources {
			if !s.Removed && s.Name == bankName && s.Status == FundingSourceVerified && s.URL != "" {
				return s.URL
			}
		}
	}
	for _, s := range sources {
		if !s.Removed && s.Status == FundingSourceVerified && s.Type == FundingSourceTypeBank && s.URL != "" {
			return s.URL
		}
	}
	return ""
}

func mapFundingError(err error) error {
	switch ErrorCode(err) {
	case CodeDuplicateResource:
		return apperror.Conflict(msgDuplicate, err)
	case CodeInvalidResourceState:
		return apperror.Forbidden(msgVerification, err)
	case CodeValidationError:
		return apperror.Invalid(msgValidation, err)
	case CodeInvalidCredentials:
		return apperror.Invalid(msgCredentials, err)
	default:
		return apperror.Unavailable(msgGenericFunding, fmt.Errorf("add funding source: %w", err))
	}
}

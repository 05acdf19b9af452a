package bank

import (
	"context"
	"errors"
	"fmt"
	"log"

	"horizon/internal/domain/notification"
	"horizon/internal/domain/payment"
	"horizon/internal/domain/user"
	"horizon/internal/infrastructure/plaid"
	"horizon/internal/shared/apperror"
	"horizon/internal/shared/messages"
)

const processorDwolla = "dwolla"

const (
	msgPlaidConfig     = "Invalid Plaid configuration. Please contact support."
	msgTooManyRequests = "Too many requests. Please wait a moment and try again."
	msgLinkInitFailed  = "Failed to initialize bank connection. Please try again."
	msgConnectFailed   = "Failed to connect bank account. Please try again."
	msgAlreadyLinked   = "This bank account is already connected to your profile."
	msgInvalidAccount  = "Invalid account information. Please try connecting your bank again."
	msgSaveFailed      = "Failed to save bank account information. Please try again."
	msgMissingCustomer = "Your payments profile is incomplete. Please contact support."
)

// IDEncrypter derives the opaque shareable id from an account id.
type IDEncrypter interface {
	EncryptID(id string) (string, error)
}

// Notifier delivers push notifications to a user.
type Notifier interface {
	SendToUser(ctx context.Context, userID, title, body, category string, data map[string]string) error
}

// Service links bank accounts and reads linked banks.
type Service struct {
	repo      Repository
	plaid     plaid.ClientInterface
	registrar *payment.Registrar
	payments  payment.Provider
	ids       IDEncrypter
	notifier  Notifier
	messages  *messages.Messages
}

func NewService(
	repo Repository,
	plaidClient plaid.ClientInterface,
	registrar *payment.Registrar,
	payments payment.Provider,
	ids IDEncrypter,
	notifier Notifier,
	msgs *messages.Messages,
) *Service {
	if msgs == nil {
		msgs = messages.Defaults()
	}
	return &Service{
		repo:      repo,
		plaid:     plaidClient,
		registrar: registrar,
		payments:  payments,
		ids:       ids,
		notifier:  notifier,
		messages:  msgs,
	}
}

// CreateLinkToken returns a token for the aggregator's account-linking widget.
func (s *Service) CreateLinkToken(ctx context.Context, u *user.User) (string, error) {
	if u == nil || u.ID == "" {
		return "", apperror.Unauthorized("Please sign in to connect a bank.", nil)
	}

	resp, err := s.plaid.CreateLinkToken(ctx, plaid.LinkTokenRequest{
		ClientUserID: u.ID,
		ClientName:   user.FullName(u.FirstName, u.LastName),
	})
	if err != nil {
		log.Printf("Create link token error for user %s: %v", u.ID, err)
		switch plaid.ErrorCode(err) {
		case plaid.CodeInvalidCredentials:
			return "", apperror.Internal(msgPlaidConfig, err)
		case plaid.CodeRateLimitExceeded:
			return "", apperror.RateLimited(msgTooManyRequests, err)
		default:
			return "", apperror.Unavailable(msgLinkInitFailed, err)
		}
	}
	return resp.LinkToken, nil
}

// ExchangePublicToken completes account linking: it exchanges the public
// token, registers the first account as a funding source and persists the
// Bank. No Bank is persisted unless every provider step succeeded, and a
// funding source created by this call is removed if persisting fails.
func (s *Service) ExchangePublicToken(ctx context.Context, u *user.User, publicToken string) (*Bank, error) {
	if u == nil || u.ID == "" {
		return nil, apperror.Unauthorized("Please sign in to connect a bank.", nil)
	}
	if publicToken == "" {
		return nil, apperror.Invalid("Public token is required.", nil)
	}
	if u.PaymentsCustomerID == "" {
		return nil, apperror.Forbidden(msgMissingCustomer, nil)
	}

	exchange, err := s.plaid.ExchangePublicToken(ctx, publicToken)
	if err != nil {
		log.Printf("Exchange public token error for user %s: %v", u.ID, err)
		return nil, mapAggregatorError(err)
	}

	accounts, err := s.plaid.GetAccounts(ctx, exchange.AccessToken)
	if err != nil {
		log.Printf("Exchange: fetching accounts failed for item %s: %v", exchange.ItemID, err)
		return nil, mapAggregatorError(err)
	}
	account := accounts.Accounts[0]

	processorToken, err := s.plaid.CreateProcessorToken(ctx, exchange.AccessToken, account.AccountID, processorDwolla)
	if err != nil {
		log.Printf("Exchange: processor token failed for item %s: %v", exchange.ItemID, err)
		return nil, mapAggregatorError(err)
	}

	registration, err := s.registrar.AddFundingSource(ctx, payment.AddFundingSourceParams{
		CustomerID:     u.PaymentsCustomerID,
		ProcessorToken: processorToken,
		BankName:       account.Name,
	})
	if err != nil {
		return nil, err
	}

	shareableID, err := s.ids.EncryptID(account.AccountID)
	if err != nil {
		s.rollbackFundingSource(ctx, registration)
		return nil, apperror.Internal(msgSaveFailed, fmt.Errorf("derive shareable id: %w", err))
	}

	b, err := s.repo.Create(ctx, CreateParams{
		UserID:           u.ID,
		BankID:           exchange.ItemID,
		AccountID:        account.AccountID,
		AccessToken:      exchange.AccessToken,
		FundingSourceURL: registration.URL,
		ShareableID:      shareableID,
	})
	if err != nil {
		log.Printf("Create bank account error for user %s: %v", u.ID, err)
		s.rollbackFundingSource(ctx, registration)
		return nil, mapPersistError(err)
	}

	s.notifyLinked(ctx, u.ID, b, account.Name)
	return b, nil
}

func (s *Service) rollbackFundingSource(ctx context.Context, reg payment.Registration) {
	if !reg.Created {
		return
	}
	if err := s.payments.RemoveFundingSource(ctx, reg.URL); err != nil {
		log.Printf("Failed to remove funding source %s after failed link: %v", reg.URL, err)
	}
}

func (s *Service) notifyLinked(ctx context.Context, userID string, b *Bank, bankName string) {
	if s.notifier == nil {
		return
	}
	msg := s.messages.BankLinked.Render(map[string]string{"bank": bankName})
	data := map[string]string{"route": "banks/" + b.ID}
	if err := s.notifier.SendToUser(ctx, userID, msg.Title, msg.Body, notification.CategoryBanks, data); err != nil {
		log.Printf("Failed to send bank linked notification to user %s: %v", userID, err)
	}
}

func mapAggregatorError(err error) error {
	switch plaid.ErrorCode(err) {
	case plaid.CodeRateLimitExceeded:
		return apperror.RateLimited(msgTooManyRequests, err)
	case plaid.CodeInvalidCredentials:
		return apperror.Internal(msgPlaidConfig, err)
	default:
		return apperror.Unavailable(msgConnectFailed, err)
	}
}

func mapPersistError(err error) error {
	switch {
	case errors.Is(err, ErrAlreadyLinked):
		return apperror.Conflict(msgAlreadyLinked, err)
	case errors.Is(err, ErrInvalidBank):
		return apperror.Invalid(msgInvalidAccount, err)
	default:
		return apperror.Internal(msgSaveFailed, err)
	}
}

// ListBanks returns the user's banks, or an empty list on missing id or failure.
func (s *Service) ListBanks(ctx context.Context, userID string) []*Bank {
	if userID == "" {
		log.Println("ListBanks: userID is required")
		return []*Bank{}
	}
	banks, err := s.repo.ListByUserID(ctx, userID)
	if err != nil {
		log.Printf("ListBanks error for user %s: %v", userID, err)
		return []*Bank{}
	}
	if banks == nil {
		return []*Bank{}
	}
	return banks
}

// GetBank returns a bank by its record id, or nil.
func (s *Service) GetBank(ctx context.Context, id string) *Bank {
	if id == "" {
		log.Println("GetBank: id is required")
		return nil
	}
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Printf("GetBank error for %s: %v", id, err)
		}
		return nil
	}
	return b
}

// GetBankByAccountID returns the bank bound to an aggregator account id, or nil.
func (s *Service) GetBankByAccountID(ctx context.Context, accountID string) *Bank {
	if accountID == "" {
		log.Println("GetBankByAccountID: accountID is required")
		return nil
	}
	b, err := s.repo.GetByAccountID(ctx, accountID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Printf("GetBankByAccountID error: %v", err)
		}
		return nil
	}
	return b
}

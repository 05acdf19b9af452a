package transfer

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"horizon/internal/domain/bank"
	"horizon/internal/domain/notification"
	"horizon/internal/domain/payment"
	"horizon/internal/domain/user"
	"horizon/internal/shared/apperror"
	"horizon/internal/shared/messages"
)

const (
	msgInvalidTransfer  = "Please check the transfer details and try again."
	msgInvalidAmount    = "Amount must be a positive number with at most two decimal places."
	msgSenderNotFound   = "The selected source bank was not found."
	msgReceiverNotFound = "No account matches that sharable id. Please check it and try again."
	msgSameAccount      = "You cannot transfer money to the same account."
	msgTransferFailed   = "Transfer failed. Please try again."
	msgNotRecorded      = "The transfer was submitted but could not be saved to your history."
)

var validate = validator.New()

// IDDecrypter recovers an account id from a shareable id.
type IDDecrypter interface {
	DecryptID(token string) (string, error)
}

// Directory resolves user profiles for notification text.
type Directory interface {
	GetUserInfo(ctx context.Context, userID string) *user.User
}

// Notifier delivers push notifications to a user.
type Notifier interface {
	SendToUser(ctx context.Context, userID, title, body, category string, data map[string]string) error
}

// Service moves money between linked banks.
type Service struct {
	repo     Repository
	banks    bank.Repository
	payments payment.Provider
	ids      IDDecrypter
	users    Directory
	notifier Notifier
	messages *messages.Messages
	newKey   func() string
}

func NewService(repo Repository, banks bank.Repository, payments payment.Provider, ids IDDecrypter, users Directory, notifier Notifier, msgs *messages.Messages) *Service {
	if msgs == nil {
		msgs = messages.Defaults()
	}
	return &Service{
		repo:     repo,
		banks:    banks,
		payments: payments,
		ids:      ids,
		users:    users,
		notifier: notifier,
		messages: msgs,
		newKey:   uuid.NewString,
	}
}

// ParseAmount accepts a positive amount with at most two decimal places.
func ParseAmount(s string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("amount must be positive")
	}
	if !amount.Equal(amount.Truncate(2)) {
		return decimal.Zero, fmt.Errorf("amount has more than two decimal places")
	}
	return amount, nil
}

// Create sends money from one of the user's banks to the bank behind a
// shareable id, records the transfer and notifies both parties.
func (s *Service) Create(ctx context.Context, userID string, params CreateTransferParams) (*Transfer, error) {
	if userID == "" {
		return nil, apperror.Unauthorized("Please sign in to send money.", nil)
	}
	if err := validate.Struct(params); err != nil {
		return nil, apperror.Invalid(msgInvalidTransfer, err)
	}
	amount, err := ParseAmount(params.Amount)
	if err != nil {
		return nil, apperror.Invalid(msgInvalidAmount, err)
	}

	sender, err := s.banks.GetByID(ctx, params.SenderBankID)
	if err != nil || sender.UserID != userID {
		if err != nil && !errors.Is(err, bank.ErrNotFound) {
			log.Printf("Transfer: loading sender bank %s failed: %v", params.SenderBankID, err)
		}
		return nil, apperror.NotFound(msgSenderNotFound, err)
	}

	accountID, err := s.ids.DecryptID(params.ReceiverShareableID)
	if err != nil {
		return nil, apperror.NotFound(msgReceiverNotFound, err)
	}
	receiver, err := s.banks.GetByAccountID(ctx, accountID)
	if err != nil {
		if !errors.Is(err, bank.ErrNotFound) {
			log.Printf("Transfer: loading receiver bank failed: %v", err)
		}
		return nil, apperror.NotFound(msgReceiverNotFound, err)
	}
	if receiver.ID == sender.ID {
		return nil, apperror.Invalid(msgSameAccount, nil)
	}

	key := params.IdempotencyKey
	if key == "" {
		key = s.newKey()
	}
	paymentURL, err := s.payments.CreateTransfer(ctx, payment.TransferRequest{
		SourceFundingSourceURL:      sender.FundingSourceURL,
		DestinationFundingSourceURL: receiver.FundingSourceURL,
		Amount:                      amount,
		IdempotencyKey:              key,
	})
	if err != nil {
		log.Printf("Transfer from bank %s failed: %v", sender.ID, err)
		if payment.ErrorCode(err) == payment.CodeValidationError {
			return nil, apperror.Invalid(msgInvalidTransfer, err)
		}
		return nil, apperror.Unavailable(msgTransferFailed, err)
	}

	t, err := s.repo.Create(ctx, CreateParams{
		Name:           params.Name,
		Amount:         amount,
		SenderID:       sender.UserID,
		SenderBankID:   sender.ID,
		ReceiverID:     receiver.UserID,
		ReceiverBankID: receiver.ID,
		Email:          params.Email,
		PaymentURL:     paymentURL,
	}.WithDefaults())
	if errors.Is(err, ErrAlreadyRecorded) {
		return s.replayed(ctx, paymentURL, sender.UserID)
	}
	if err != nil {
		log.Printf("Transfer %s succeeded at the provider but was not recorded: %v", paymentURL, err)
		return nil, apperror.Internal(msgNotRecorded, err)
	}

	s.notify(ctx, t)
	return t, nil
}

// replayed answers a retried request whose idempotency key the provider
// recognised. Both parties were notified the first time.
func (s *Service) replayed(ctx context.Context, paymentURL, senderID string) (*Transfer, error) {
	t, err := s.repo.GetByPaymentURL(ctx, paymentURL)
	if err != nil {
		log.Printf("Transfer %s was replayed but the stored record could not be loaded: %v", paymentURL, err)
		return nil, apperror.Internal(msgNotRecorded, err)
	}
	if t.SenderID != senderID {
		log.Printf("Transfer %s was replayed for user %s but belongs to %s", paymentURL, senderID, t.SenderID)
		return nil, apperror.Internal(msgNotRecorded, ErrAlreadyRecorded)
	}
	return t, nil
}

func (s *Service) notify(ctx context.Context, t *Transfer) {
	if s.notifier == nil {
		return
	}
	amount := t.Amount.StringFixed(2)

	sent := s.messages.TransferSent.Render(map[string]string{"amount": amount, "name": t.Email})
	if err := s.notifier.SendToUser(ctx, t.SenderID, sent.Title, sent.Body, notification.CategoryTransfers,
		map[string]string{"route": "transfers/" + t.ID}); err != nil {
		log.Printf("Failed to notify sender %s of transfer %s: %v", t.SenderID, t.ID, err)
	}

	if t.ReceiverID == "" || t.ReceiverID == t.SenderID {
		return
	}
	received := s.messages.TransferReceived.Render(map[string]string{"amount": amount, "name": s.senderName(ctx, t.SenderID)})
	if err := s.notifier.SendToUser(ctx, t.ReceiverID, received.Title, received.Body, notification.CategoryTransfers,
		map[string]string{"route": "transfers/" + t.ID}); err != nil {
		log.Printf("Failed to notify receiver %s of transfer %s: %v", t.ReceiverID, t.ID, err)
	}
}

// ListByBankID returns transfers touching a bank, or an empty list on failure.
func (s *Service) ListByBankID(ctx context.Context, bankID string) []*Transfer {
	if bankID == "" {
		log.Println("ListByBankID: bankID is required")
		return []*Transfer{}
	}
	transfers, err := s.repo.ListByBankID(ctx, bankID)
	if err != nil {
		log.Printf("ListByBankID error for bank %s: %v", bankID, err)
		return []*Transfer{}
	}
	return transfers
}

func (s *Service) senderName(ctx context.Context, userID string) string {
	if s.users != nil {
		if u := s.users.GetUserInfo(ctx, userID); u != nil {
			if name := user.FullName(u.FirstName, u.LastName); name != "" {
				return name
			}
		}
	}
	return "Someone"
}

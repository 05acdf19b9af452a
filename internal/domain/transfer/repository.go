package transfer

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("transfer not found")
	// ErrAlreadyRecorded is returned by Create when a transfer with the same
	// payment URL exists, which happens when the provider replays an
	// idempotent request.
	ErrAlreadyRecorded = errors.New("transfer already recorded")
)

// Repository defines the interface for transfer data access
type Repository interface {
	Create(ctx context.Context, params CreateParams) (*Transfer, error)
	GetByPaymentURL(ctx context.Context, paymentURL string) (*Transfer, error)
	// ListByBankID returns transfers where the bank is sender or receiver.
	ListByBankID(ctx context.Context, bankID string) ([]*Transfer, error)
}

package bank

import "context"

// Repository defines the interface for bank data access
type Repository interface {
	Create(ctx context.Context, params CreateParams) (*Bank, error)
	GetByID(ctx context.Context, id string) (*Bank, error)
	ListByUserID(ctx context.Context, userID string) ([]*Bank, error)
	GetByAccountID(ctx context.Context, accountID string) (*Bank, error)
}

package user

import (
	"context"
	"errors"
	"time"
)

// Identity provider errors. Implementations translate provider-specific
// failures into these so the service can map them to user-facing messages.
var (
	ErrAccountExists      = errors.New("account already exists")
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountBlocked     = errors.New("account blocked")
	ErrAccountNotFound    = errors.New("account not found")
	ErrRateLimited        = errors.New("rate limit exceeded")
	ErrSessionInvalid     = errors.New("session invalid or expired")

	// ErrUserExists is returned by Repository.Create for a duplicate id or email.
	ErrUserExists = errors.New("user document already exists")
	ErrNotFound   = errors.New("user not found")
)

// Session is an authenticated session. Secret is what the client presents.
type Session struct {
	Secret    string    `json:"-"`
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// IdentityProvider manages email/password accounts and sessions.
type IdentityProvider interface {
	CreateAccount(ctx context.Context, email, password, name string) (string, error)
	DeleteAccount(ctx context.Context, accountID string) error
	CreateSession(ctx context.Context, email, password string) (*Session, error)
	// ResolveSession returns the account id the session belongs to.
	ResolveSession(ctx context.Context, secret string) (string, error)
	DeleteSession(ctx context.Context, secret string) error
}

// Package identity implements user.IdentityProvider. Local keeps bcrypt
// credentials and revocable JWT sessions in Postgres; Firebase delegates to
// Firebase Authentication.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"horizon/internal/domain/user"
	"horizon/internal/shared/auth"
)

var (
	ErrCredentialNotFound = errors.New("credential not found")
	ErrEmailTaken         = errors.New("email already has a credential")
	ErrSessionNotFound    = errors.New("session not found")
)

var validate = validator.New()

// Credential is a local email/password account.
type Credential struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Blocked      bool
}

// Store persists credentials and sessions for the local provider.
type Store interface {
	CreateCredential(ctx context.Context, c Credential) error
	GetCredentialByEmail(ctx context.Context, email string) (*Credential, error)
	DeleteCredential(ctx context.Context, id string) error
	CreateSession(ctx context.Context, sessionID, accountID string, expiresAt time.Time) error
	// SessionActive reports whether the session exists and has not been revoked.
	SessionActive(ctx context.Context, sessionID string) (bool, error)
	DeleteSession(ctx context.Context, sessionID string) error
}

// Local is a self-hosted identity provider.
type Local struct {
	store Store
	jwt   *auth.JWTManager
	newID func() string
}

var _ user.IdentityProvider = (*Local)(nil)

func NewLocal(store Store, jwt *auth.JWTManager) *Local {
	return &Local{store: store, jwt: jwt, newID: uuid.NewString}
}

func (l *Local) CreateAccount(ctx context.Context, email, password, name string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validate.Var(email, "required,email"); err != nil {
		return "", fmt.Errorf("%w: email: %v", user.ErrInvalidArgument, err)
	}
	if err := validate.Var(password, "min=8"); err != nil {
		return "", fmt.Errorf("%w: password too short", user.ErrInvalidArgument)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("%w: %v", user.ErrInvalidArgument, err)
	}

	id := l.newID()
	err = l.store.CreateCredential(ctx, Credential{ID: id, Email: email, Name: name, PasswordHash: hash})
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return "", user.ErrEmailExists
		}
		return "", fmt.Errorf("failed to create credential: %w", err)
	}
	return id, nil
}

func (l *Local) DeleteAccount(ctx context.Context, accountID string) error {
	if err := l.store.DeleteCredential(ctx, accountID); err != nil {
		if errors.Is(err, ErrCredentialNotFound) {
			return user.ErrAccountNotFound
		}
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	return nil
}

func (l *Local) CreateSession(ctx context.Context, email, password string) (*user.Session, error) {
	cred, err := l.store.GetCredentialByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, ErrCredentialNotFound) {
			return nil, user.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load credential: %w", err)
	}
	if err := auth.VerifyPassword(cred.PasswordHash, password); err != nil {
		return nil, user.ErrInvalidCredentials
	}
	if cred.Blocked {
		return nil, user.ErrAccountBlocked
	}

	sessionID := l.newID()
	token, expiresAt, err := l.jwt.Generate(cred.ID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to sign session: %w", err)
	}
	if err := l.store.CreateSession(ctx, sessionID, cred.ID, expiresAt); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}
	return &user.Session{Secret: token, UserID: cred.ID, ExpiresAt: expiresAt}, nil
}

func (l *Local) ResolveSession(ctx context.Context, secret string) (string, error) {
	claims, err := l.jwt.Validate(secret)
	if err != nil {
		return "", fmt.Errorf("%w: %v", user.ErrSessionInvalid, err)
	}
	active, err := l.store.SessionActive(ctx, claims.ID)
	if err != nil {
		return "", fmt.Errorf("failed to check session: %w", err)
	}
	if !active {
		return "", user.ErrSessionInvalid
	}
	return claims.UserID, nil
}

// DeleteSession revokes the session. Expired or unknown sessions are a no-op.
func (l *Local) DeleteSession(ctx context.Context, secret string) error {
	claims, err := l.jwt.Validate(secret)
	if err != nil {
		return nil
	}
	if err := l.store.DeleteSession(ctx, claims.ID); err != nil && !errors.Is(err, ErrSessionNotFound) {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"horizon/internal/infrastructure/identity"
)

// CredentialRepository backs the local identity provider.
type CredentialRepository struct {
	db *DB
}

var _ identity.Store = (*CredentialRepository)(nil)

func NewCredentialRepository(db *DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

func (r *CredentialRepository) CreateCredential(ctx context.Context, c identity.Credential) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO credentials (id, email, name, password_hash, blocked) VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.Email, c.Name, c.PasswordHash, c.Blocked,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return identity.ErrEmailTaken
		}
		return fmt.Errorf("failed to create credential: %w", err)
	}
	return nil
}

func (r *CredentialRepository) GetCredentialByEmail(ctx context.Context, email string) (*identity.Credential, error) {
	var c identity.Credential
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, name, password_hash, blocked FROM credentials WHERE email = $1`,
		email,
	).Scan(&c.ID, &c.Email, &c.Name, &c.PasswordHash, &c.Blocked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, identity.ErrCredentialNotFound
		}
		return nil, fmt.Errorf("failed to get credential: %w", err)
	}
	return &c, nil
}

func (r *CredentialRepository) DeleteCredential(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM credentials WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return identity.ErrCredentialNotFound
	}
	return nil
}

func (r *CredentialRepository) CreateSession(ctx context.Context, sessionID, accountID string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, account_id, expires_at) VALUES ($1, $2, $3)`,
		sessionID, accountID, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *CredentialRepository) SessionActive(ctx context.Context, sessionID string) (bool, error) {
	var active bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM sessions WHERE id = $1 AND expires_at > NOW())`,
		sessionID,
	).Scan(&active)
	if err != nil {
		return false, fmt.Errorf("failed to check session: %w", err)
	}
	return active, nil
}

func (r *CredentialRepository) DeleteSession(ctx context.Context, sessionID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return identity.ErrSessionNotFound
	}
	return nil
}

// PurgeExpiredSessions removes sessions past their expiry.
func (r *CredentialRepository) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("failed to purge sessions: %w", err)
	}
	return result.RowsAffected()
}

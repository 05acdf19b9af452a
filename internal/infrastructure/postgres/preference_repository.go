package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type PreferenceRepository struct {
	db *DB
}

func NewPreferenceRepository(db *DB) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

func (r *PreferenceRepository) Get(ctx context.Context, userID, key string) (bool, bool, error) {
	var value bool
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM preferences WHERE user_id = $1 AND key = $2`,
		userID, key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, false, nil
		}
		return false, false, fmt.Errorf("failed to get preference: %w", err)
	}
	return value, true, nil
}

func (r *PreferenceRepository) Set(ctx context.Context, userID, key string, value bool) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO preferences (user_id, key, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, key) DO UPDATE
			SET value = EXCLUDED.value,
			    updated_at = NOW()
	`, userID, key, value)
	if err != nil {
		return fmt.Errorf("failed to set preference: %w", err)
	}
	return nil
}

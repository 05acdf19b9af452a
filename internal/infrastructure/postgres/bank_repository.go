package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"horizon/internal/domain/bank"
	"horizon/internal/infrastructure/crypto"
)

// BankRepository stores bank bindings. Access tokens are encrypted at rest.
type BankRepository struct {
	db        *DB
	encryptor *crypto.Encryptor
}

func NewBankRepository(db *DB, encryptor *crypto.Encryptor) *BankRepository {
	return &BankRepository{db: db, encryptor: encryptor}
}

const bankColumns = `id, user_id, bank_id, account_id, access_token, funding_source_url, shareable_id, created_at`

func (r *BankRepository) Create(ctx context.Context, params bank.CreateParams) (*bank.Bank, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	token, err := r.encryptor.Encrypt(params.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt access token: %w", err)
	}

	query := `
		INSERT INTO banks (user_id, bank_id, account_id, access_token, funding_source_url, shareable_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + bankColumns

	b, err := r.scan(r.db.QueryRowContext(ctx, query,
		params.UserID, params.BankID, params.AccountID, token, params.FundingSourceURL, params.ShareableID,
	))
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return nil, bank.ErrAlreadyLinked
		case isConstraintViolation(err):
			return nil, fmt.Errorf("%w: %v", bank.ErrInvalidBank, err)
		}
		return nil, fmt.Errorf("failed to create bank: %w", err)
	}
	return b, nil
}

func (r *BankRepository) GetByID(ctx context.Context, id string) (*bank.Bank, error) {
	if uuid.Validate(id) != nil {
		return nil, bank.ErrNotFound
	}
	return r.getOne(ctx, `SELECT `+bankColumns+` FROM banks WHERE id = $1`, id)
}

func (r *BankRepository) GetByAccountID(ctx context.Context, accountID string) (*bank.Bank, error) {
	return r.getOne(ctx, `SELECT `+bankColumns+` FROM banks WHERE account_id = $1`, accountID)
}

func (r *BankRepository) getOne(ctx context.Context, query, arg string) (*bank.Bank, error) {
	b, err := r.scan(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, bank.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get bank: %w", err)
	}
	return b, nil
}

func (r *BankRepository) ListByUserID(ctx context.Context, userID string) ([]*bank.Bank, error) {
	query := `SELECT ` + bankColumns + ` FROM banks WHERE user_id = $1 ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list banks: %w", err)
	}
	defer rows.Close()

	var banks []*bank.Bank
	for rows.Next() {
		b, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bank: %w", err)
		}
		banks = append(banks, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating banks: %w", err)
	}
	return banks, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *BankRepository) scan(row scanner) (*bank.Bank, error) {
	var b bank.Bank
	var token string
	if err := row.Scan(&b.ID, &b.UserID, &b.BankID, &b.AccountID, &token, &b.FundingSourceURL, &b.ShareableID, &b.CreatedAt); err != nil {
		return nil, err
	}
	var err error
	if b.AccessToken, err = r.encryptor.Decrypt(token); err != nil {
		return nil, fmt.Errorf("failed to decrypt access token: %w", err)
	}
	return &b, nil
}

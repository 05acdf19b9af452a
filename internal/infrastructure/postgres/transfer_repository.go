package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"horizon/internal/domain/transfer"
)

type TransferRepository struct {
	db *DB
}

func NewTransferRepository(db *DB) *TransferRepository {
	return &TransferRepository{db: db}
}

const transferColumns = `id, name, amount, channel, category, sender_id, sender_bank_id, receiver_id,
	receiver_bank_id, email, payment_url, created_at`

func (r *TransferRepository) Create(ctx context.Context, params transfer.CreateParams) (*transfer.Transfer, error) {
	params = params.WithDefaults()
	query := `
		INSERT INTO transfers (name, amount, channel, category, sender_id, sender_bank_id, receiver_id,
			receiver_bank_id, email, payment_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + transferColumns

	t, err := scanTransfer(r.db.QueryRowContext(ctx, query,
		params.Name, params.Amount, params.Channel, params.Category, params.SenderID, params.SenderBankID,
		params.ReceiverID, params.ReceiverBankID, params.Email, params.PaymentURL,
	))
	if isUniqueViolation(err) {
		return nil, transfer.ErrAlreadyRecorded
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create transfer: %w", err)
	}
	return t, nil
}

func (r *TransferRepository) GetByPaymentURL(ctx context.Context, paymentURL string) (*transfer.Transfer, error) {
	t, err := scanTransfer(r.db.QueryRowContext(ctx,
		`SELECT `+transferColumns+` FROM transfers WHERE payment_url = $1`,
		paymentURL,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, transfer.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transfer: %w", err)
	}
	return t, nil
}

func (r *TransferRepository) ListByBankID(ctx context.Context, bankID string) ([]*transfer.Transfer, error) {
	if uuid.Validate(bankID) != nil {
		return nil, nil
	}
	query := `
		SELECT ` + transferColumns + `
		FROM transfers
		WHERE sender_bank_id = $1 OR receiver_bank_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, bankID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transfers: %w", err)
	}
	defer rows.Close()

	var transfers []*transfer.Transfer
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transfer: %w", err)
		}
		transfers = append(transfers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transfers: %w", err)
	}
	return transfers, nil
}

func scanTransfer(row scanner) (*transfer.Transfer, error) {
	var t transfer.Transfer
	err := row.Scan(
		&t.ID, &t.Name, &t.Amount, &t.Channel, &t.Category, &t.SenderID, &t.SenderBankID,
		&t.ReceiverID, &t.ReceiverBankID, &t.Email, &t.PaymentURL, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"horizon/internal/domain/user"
	"horizon/internal/infrastructure/crypto"
)

type UserRepository struct {
	db        *DB
	encryptor *crypto.Encryptor
}

func NewUserRepository(db *DB, encryptor *crypto.Encryptor) *UserRepository {
	return &UserRepository{db: db, encryptor: encryptor}
}

const userColumns = `id, email, first_name, last_name, address1, city, state, postal_code,
	date_of_birth, ssn, payments_customer_id, payments_customer_url, created_at`

func (r *UserRepository) Create(ctx context.Context, params user.CreateUserParams) (*user.User, error) {
	ssn, err := r.encryptor.Encrypt(params.SSN)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt ssn: %w", err)
	}

	query := `
		INSERT INTO users (id, email, first_name, last_name, address1, city, state, postal_code,
			date_of_birth, ssn, payments_customer_id, payments_customer_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + userColumns

	u, err := r.scan(r.db.QueryRowContext(ctx, query,
		params.ID, params.Email, params.FirstName, params.LastName, params.Address1, params.City,
		params.State, params.PostalCode, params.DateOfBirth, ssn,
		params.PaymentsCustomerID, params.PaymentsCustomerURL,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, user.ErrUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	u, err := r.scan(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

func (r *UserRepository) scan(row scanner) (*user.User, error) {
	var u user.User
	var ssn string
	err := row.Scan(
		&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Address1, &u.City, &u.State, &u.PostalCode,
		&u.DateOfBirth, &ssn, &u.PaymentsCustomerID, &u.PaymentsCustomerURL, &u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if u.SSN, err = r.encryptor.Decrypt(ssn); err != nil {
		return nil, fmt.Errorf("failed to decrypt ssn: %w", err)
	}
	u.Name = user.FullName(u.FirstName, u.LastName)
	return &u, nil
}

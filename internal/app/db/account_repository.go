package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"roomchat/internal/app/account"
	"roomchat/internal/pkg/errs"
)

const (
	insertAccountSQL = `
INSERT INTO users (username, firstname, lastname, password_hash)
VALUES ($1, $2, $3, $4)
RETURNING created_at`

	selectAccountSQL = `
SELECT username, firstname, lastname, password_hash, created_at
FROM users
WHERE username = $1`
)

// AccountRepository implements account.Repository on PostgreSQL.
type AccountRepository struct {
	pool *pgxpool.Pool
}

var _ account.Repository = (*AccountRepository)(nil)

// NewAccountRepository builds an AccountRepository over pool.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

func (r *AccountRepository) CreateAccount(ctx context.Context, a account.Account) (account.Account, error) {
	err := r.pool.QueryRow(ctx, insertAccountSQL, a.Username, a.Firstname, a.Lastname, a.PasswordHash).Scan(&a.CreatedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return account.Account{}, errs.Wrap(errs.ErrUsernameTaken, err)
		}
		return account.Account{}, unavailable(err)
	}
	return a, nil
}

func (r *AccountRepository) GetAccount(ctx context.Context, username string) (account.Account, error) {
	var a account.Account

	err := r.pool.QueryRow(ctx, selectAccountSQL, username).
		Scan(&a.Username, &a.Firstname, &a.Lastname, &a.PasswordHash, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return account.Account{}, account.ErrNotFound
	}
	if err != nil {
		return account.Account{}, unavailable(err)
	}
	return a, nil
}

/*
Package account contains the registered-user model and the signup/login logic.

It validates credentials, hashes passwords with bcrypt, and delegates persistence to a
Repository. It defines the public shape of a user returned to HTTP clients.
*/
package account

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by a Repository when no account has the requested username.
var ErrNotFound = errors.New("account not found")

// Account is a registered chat user as stored.
type Account struct {
	Username     string
	Firstname    string
	Lastname     string
	PasswordHash string
	CreatedAt    time.Time
}

// User is the public representation of an account.
type User struct {
	Username  string    `json:"username"`
	Firstname string    `json:"firstname"`
	Lastname  string    `json:"lastname"`
	CreatedAt time.Time `json:"createdAt"`
}

// Public strips the password hash.
func (a Account) Public() User {
	return User{
		Username:  a.Username,
		Firstname: a.Firstname,
		Lastname:  a.Lastname,
		CreatedAt: a.CreatedAt,
	}
}

// Repository persists accounts.
type Repository interface {
	// CreateAccount inserts a new account and returns it with its creation time.
	// A duplicate username yields an errs.ErrUsernameTaken error.
	CreateAccount(ctx context.Context, a Account) (Account, error)

	// GetAccount returns the account for username, or ErrNotFound.
	GetAccount(ctx context.Context, username string) (Account, error)
}

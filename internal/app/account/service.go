package account

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"roomchat/internal/pkg/errs"
	"roomchat/internal/pkg/logx"
)

const (
	MinUsernameLength = 3
	MaxUsernameLength = 32
	MinPasswordLength = 6
	MaxPasswordLength = 72
	MaxNameLength     = 64
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// SignupInput carries the fields of a signup request.
type SignupInput struct {
	Username  string `json:"username"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Password  string `json:"password"`
}

// Service registers and authenticates accounts.
type Service struct {
	repo      Repository
	hashCost  int
	dummyHash []byte
	logger    zerolog.Logger
}

// NewService builds a Service over repo.
func NewService(repo Repository) *Service {
	return newServiceWithCost(repo, bcrypt.DefaultCost)
}

func newServiceWithCost(repo Repository, cost int) *Service {
	dummy, _ := bcrypt.GenerateFromPassword([]byte("roomchat-dummy-password"), cost)

	return &Service{
		repo:      repo,
		hashCost:  cost,
		dummyHash: dummy,
		logger:    logx.Component("AccountService"),
	}
}

// Signup validates in, hashes the password and stores a new account.
func (s *Service) Signup(ctx context.Context, in SignupInput) (User, error) {
	username, err := NormalizeUsername(in.Username)
	if err != nil {
		return User{}, err
	}

	if err := validatePassword(in.Password); err != nil {
		return User{}, err
	}

	firstname := strings.TrimSpace(in.Firstname)
	lastname := strings.TrimSpace(in.Lastname)
	if utf8.RuneCountInString(firstname) > MaxNameLength || utf8.RuneCountInString(lastname) > MaxNameLength {
		return User{}, errs.NewError(errs.ErrInvalidParams)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password.")
		return User{}, errs.Wrap(errs.ErrUnknown, err)
	}

	created, err := s.repo.CreateAccount(ctx, Account{
		Username:     username,
		Firstname:    firstname,
		Lastname:     lastname,
		PasswordHash: string(hash),
	})
	if err != nil {
		if errs.HasCode(err, errs.ErrUsernameTaken) {
			s.logger.Info().Str("username", username).Msg("Signup rejected: username taken.")
		} else {
			s.logger.Error().Err(err).Str("username", username).Msg("Failed to create account.")
		}
		return User{}, err
	}

	s.logger.Info().Str("username", username).Msg("Account created.")
	return created.Public(), nil
}

// Login checks username and password and returns the matching user.
// Unknown usernames and wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, username, password string) (User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return User{}, errs.NewError(errs.ErrInvalidCredentials)
	}

	acc, err := s.repo.GetAccount(ctx, username)
	if errors.Is(err, ErrNotFound) {
		// Spend the same bcrypt time as a real comparison.
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return User{}, errs.NewError(errs.ErrInvalidCredentials)
	}
	if err != nil {
		s.logger.Error().Err(err).Str("username", username).Msg("Failed to load account.")
		return User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)); err != nil {
		s.logger.Info().Str("username", username).Msg("Login rejected: wrong password.")
		return User{}, errs.NewError(errs.ErrInvalidCredentials)
	}

	return acc.Public(), nil
}

// NormalizeUsername trims and validates a username.
func NormalizeUsername(username string) (string, error) {
	username = strings.TrimSpace(username)

	n := utf8.RuneCountInString(username)
	if n < MinUsernameLength || n > MaxUsernameLength || !usernamePattern.MatchString(username) {
		return "", errs.NewError(errs.ErrInvalidUsername, MinUsernameLength, MaxUsernameLength)
	}
	return username, nil
}

func validatePassword(password string) error {
	n := len(password)
	if n < MinPasswordLength || n > MaxPasswordLength {
		return errs.NewError(errs.ErrInvalidPassword, MinPasswordLength, MaxPasswordLength)
	}
	return nil
}

package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"billed/internal/core"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrWeakPassword       = errors.New("password must be at least 5 characters")
)

// UserStorage is the account persistence the authenticator needs.
type UserStorage interface {
	CreateUser(ctx context.Context, a core.Account) error
	GetUserByEmail(ctx context.Context, email string) (core.Account, error)
}

// PasswordAuthenticator checks bcrypt hashed passwords.
type PasswordAuthenticator struct {
	storage UserStorage
}

func NewPasswordAuthenticator(storage UserStorage) *PasswordAuthenticator {
	return &PasswordAuthenticator{storage: storage}
}

func (a *PasswordAuthenticator) ValidateCredential(credential string) error {
	if len(credential) < 5 {
		return ErrWeakPassword
	}
	return nil
}

// Register hashes the password and stores the account, replacing any previous one.
func (a *PasswordAuthenticator) Register(ctx context.Context, user core.User, credential string) error {
	if err := a.ValidateCredential(credential); err != nil {
		return err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(credential), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.Email = normalizeEmail(user.Email)
	if err := a.storage.CreateUser(ctx, core.Account{User: user, PasswordHash: string(hashed)}); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// Authenticate returns the identity for a valid email/password pair.
// wantType, when non-empty, restricts the login to one user type.
func (a *PasswordAuthenticator) Authenticate(ctx context.Context, email, credential string, wantType core.UserType) (core.User, error) {
	acc, err := a.storage.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return core.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(credential)); err != nil {
		return core.User{}, ErrInvalidCredentials
	}
	if wantType != "" && acc.User.Type != wantType {
		return core.User{}, ErrInvalidCredentials
	}
	return acc.User, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

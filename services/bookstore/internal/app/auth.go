package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bookstore/pkg/auth"
	"bookstore/pkg/domain"
	"bookstore/pkg/store"
)

// Register creates a user. It reports false, with no error, when the
// username is already taken; the store's uniqueness guarantee decides
// concurrent attempts for the same name.
func (a *App) Register(ctx context.Context, username, password string) (bool, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return false, ErrUsernameAndPasswordRequired
	}
	hash, salt, err := auth.HashPassword(password)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}
	_, err = a.store.CreateUser(ctx, domain.User{
		Username:     username,
		PasswordHash: hash,
		PasswordSalt: salt,
	})
	if errors.Is(err, store.ErrUsernameTaken) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("create user: %w", err)
	}
	return true, nil
}

// Login verifies credentials and issues a token. ok is false for an
// unknown user, a malformed credential record, or a wrong password.
func (a *App) Login(ctx context.Context, username, password string) (token string, ok bool, err error) {
	username = strings.TrimSpace(username)
	user, found, err := a.store.GetUserByUsername(ctx, username)
	if err != nil {
		return "", false, fmt.Errorf("fetch user: %w", err)
	}
	if !found || !user.HasCredentials() {
		return "", false, nil
	}
	if !auth.CheckPassword(password, user.PasswordHash, user.PasswordSalt) {
		return "", false, nil
	}
	token, err = a.GenerateToken(user.Username)
	if err != nil {
		return "", false, err
	}
	return token, true, nil
}

// GenerateToken issues a signed token asserting username.
func (a *App) GenerateToken(username string) (string, error) {
	token, err := a.sessions.NewSession(username)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}

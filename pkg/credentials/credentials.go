// Package credentials keeps the GitHub token in the operating system
// keyring.
package credentials

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	serviceName = "docustream"
	githubUser  = "github"
)

// ErrNotFound is returned when no token is stored.
var ErrNotFound = errors.New("no stored token")

// StoreToken saves a GitHub token, replacing any previous one.
func StoreToken(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("token is empty")
	}
	if err := keyring.Set(serviceName, githubUser, token); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	return nil
}

// Token returns the stored GitHub token.
func Token() (string, error) {
	tok, err := keyring.Get(serviceName, githubUser)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	return tok, nil
}

// DeleteToken removes the stored token. Deleting a missing token is not an
// error.
func DeleteToken() error {
	err := keyring.Delete(serviceName, githubUser)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

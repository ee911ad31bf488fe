// Package credentials stores the bot service API key in the system keyring:
// macOS Keychain, Windows Credential Manager, or Linux Secret Service.
//
// For CI and headless environments, POSTMEET_RECALL_API_KEY overrides the
// keyring.
package credentials

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// keyringService is the service name used in the system keyring.
	keyringService = "postmeet"
	// keyringUser is the account name for the bot service API key.
	keyringUser = "recall-api-key"

	// EnvAPIKey overrides the keyring when set.
	EnvAPIKey = "POSTMEET_RECALL_API_KEY"
)

// ErrNoAPIKey is returned when no API key is stored.
var ErrNoAPIKey = errors.New("no bot service API key stored")

// Store manages the bot service API key.
type Store struct {
	service string
}

// NewStore creates a credential store backed by the system keyring.
func NewStore() *Store {
	return &Store{service: keyringService}
}

// GetAPIKey returns the stored bot service API key. The environment
// variable wins over the keyring.
func (s *Store) GetAPIKey() (string, error) {
	if key := strings.TrimSpace(os.Getenv(EnvAPIKey)); key != "" {
		return key, nil
	}

	key, err := keyring.Get(s.service, keyringUser)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNoAPIKey
		}
		return "", fmt.Errorf("reading API key from keyring: %w", err)
	}
	if key == "" {
		return "", ErrNoAPIKey
	}
	return key, nil
}

// SetAPIKey stores the bot service API key in the keyring.
func (s *Store) SetAPIKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("API key must not be empty")
	}
	if err := keyring.Set(s.service, keyringUser, key); err != nil {
		return fmt.Errorf("storing API key in keyring: %w", err)
	}
	return nil
}

// DeleteAPIKey removes the stored API key. Deleting a missing key is not an
// error.
func (s *Store) DeleteAPIKey() error {
	if err := keyring.Delete(s.service, keyringUser); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("deleting API key from keyring: %w", err)
	}
	return nil
}

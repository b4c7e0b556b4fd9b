// Package keyring keeps backend connection strings in the OS keyring so they
// never have to live in the config file.
package keyring

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/julianstephens/clinichat/internal/constants"
)

var (
	// ErrNotFound is returned when no credentials are stored for a backend.
	ErrNotFound = errors.New("credentials not found in keyring")
	// ErrKeyringUnavailable is returned when the OS keyring is not available.
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
	// ErrUnknownBackend is returned for a backend name with no keyring entry.
	ErrUnknownBackend = errors.New("unknown backend")
)

// Backends lists the names accepted by Get, Set and Delete.
var Backends = []string{constants.KeyringUserPostgres, constants.KeyringUserRedis}

func user(backend string) (string, error) {
	for _, b := range Backends {
		if b == backend {
			return b, nil
		}
	}
	return "", fmt.Errorf("%w: %q (want postgres or redis)", ErrUnknownBackend, backend)
}

// Get returns the connection string stored for backend.
func Get(backend string) (string, error) {
	u, err := user(backend)
	if err != nil {
		return "", err
	}
	connStr, err := keyring.Get(constants.AppName, u)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return connStr, nil
}

func Set(backend, connStr string) error {
	u, err := user(backend)
	if err != nil {
		return err
	}
	if connStr == "" {
		return errors.New("connection string cannot be empty")
	}
	if err := keyring.Set(constants.AppName, u, connStr); err != nil {
		return fmt.Errorf("failed to store credentials in keyring: %w", err)
	}
	return nil
}

func Delete(backend string) error {
	u, err := user(backend)
	if err != nil {
		return err
	}
	if err := keyring.Delete(constants.AppName, u); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete credentials from keyring: %w", err)
	}
	return nil
}

// IsAvailable is a best-effort probe of the OS keyring.
func IsAvailable() bool {
	_, err := keyring.Get(constants.AppName, "test-availability")
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}

// Package store persists the vault configuration and the encrypted vault
// envelope. The core only sees the ConfigStore and DataStore contracts.
package store

import (
	"context"
	"errors"

	"github.com/Hussein-Mazeh/PasswordVault/internal/vault"
)

var (
	// ErrNotFound reports that nothing has been stored yet.
	ErrNotFound = errors.New("not found")
	// ErrCorrupt reports a stored record that cannot be decoded.
	ErrCorrupt = errors.New("stored data is corrupt")
)

// ConfigStore loads and saves the authentication configuration.
type ConfigStore interface {
	LoadConfig(ctx context.Context) (vault.Configuration, error)
	SaveConfig(ctx context.Context, cfg vault.Configuration) error
}

// DataStore loads, saves and deletes the encrypted vault envelope.
// DeleteEnvelope on an empty store is not an error.
type DataStore interface {
	LoadEnvelope(ctx context.Context) (vault.Envelope, error)
	SaveEnvelope(ctx context.Context, env vault.Envelope) error
	DeleteEnvelope(ctx context.Context) error
}

// Backend is a store that implements both contracts.
type Backend interface {
	ConfigStore
	DataStore
	Close() error
}

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

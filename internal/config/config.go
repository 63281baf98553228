// Package config loads runtime settings from PWVAULT_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/Hussein-Mazeh/PasswordVault/krypto"
	"github.com/Hussein-Mazeh/PasswordVault/store"
)

// Config contains the vault settings.
type Config struct {
	// Dir holds the vault files. Empty means <user config dir>/pwvault.
	Dir            string        `env:"DIR"`
	Backend        string        `env:"BACKEND" envDefault:"file"`
	KDF            string        `env:"KDF" envDefault:"pbkdf2-sha512"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"warn"`
	ClipboardClear time.Duration `env:"CLIPBOARD_CLEAR" envDefault:"15s"`
}

// Load reads the environment and fills defaults.
func Load() (*Config, error) {
	cfg := Config{}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "PWVAULT_"}); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Resolve(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Resolve fills the default directory and validates the settings. Call it
// again after applying flag overrides.
func (c *Config) Resolve() error {
	if c.Dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return fmt.Errorf("resolve vault directory: %w", err)
		}
		c.Dir = filepath.Join(base, "pwvault")
	}
	switch c.Backend {
	case store.BackendFile, store.BackendSQLite:
	default:
		return fmt.Errorf("unknown backend %q (want %s or %s)", c.Backend, store.BackendFile, store.BackendSQLite)
	}
	if !krypto.ValidKDF(c.KDF) {
		return fmt.Errorf("unknown kdf %q (want %s or %s)", c.KDF, krypto.KDFPBKDF2, krypto.KDFArgon2id)
	}
	if c.ClipboardClear < 0 {
		return fmt.Errorf("clipboard clear delay must not be negative")
	}
	return nil
}

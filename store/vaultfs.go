package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Hussein-Mazeh/PasswordVault/internal/vault"
)

const (
	configFilename = "app-config.json"
	dataFilename   = "encrypted_vault_data.json"
)

// Paths locates vault artifacts on disk.
type Paths struct {
	Dir string
}

// ConfigPath resolves the configuration JSON path.
func (p Paths) ConfigPath() string {
	return filepath.Join(p.Dir, configFilename)
}

// DataPath resolves the encrypted vault JSON path.
func (p Paths) DataPath() string {
	return filepath.Join(p.Dir, dataFilename)
}

// DatabasePath resolves the sqlite file used by the sqlite backend.
func (p Paths) DatabasePath() string {
	return filepath.Join(p.Dir, "vault.db")
}

// EnsureDir creates the vault directory with owner-only permissions.
func (p Paths) EnsureDir() error {
	if p.Dir == "" {
		return errors.New("vault directory not specified")
	}
	if err := os.MkdirAll(p.Dir, 0o700); err != nil {
		return fmt.Errorf("create vault directory: %w", err)
	}
	return nil
}

// FileStore keeps the configuration and the envelope in two JSON files.
type FileStore struct {
	paths Paths
}

// NewFileStore returns a FileStore rooted at dir. The directory is created on first save.
func NewFileStore(dir string) *FileStore {
	return &FileStore{paths: Paths{Dir: dir}}
}

// Paths exposes the file locations.
func (s *FileStore) Paths() Paths { return s.paths }

// LoadConfig reads app-config.json.
func (s *FileStore) LoadConfig(_ context.Context) (vault.Configuration, error) {
	var cfg vault.Configuration
	if err := readJSON(s.paths.ConfigPath(), &cfg); err != nil {
		return vault.Configuration{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes app-config.json atomically.
func (s *FileStore) SaveConfig(_ context.Context, cfg vault.Configuration) error {
	if err := s.writeJSON(s.paths.ConfigPath(), cfg); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	return nil
}

// LoadEnvelope reads encrypted_vault_data.json.
func (s *FileStore) LoadEnvelope(_ context.Context) (vault.Envelope, error) {
	var env vault.Envelope
	if err := readJSON(s.paths.DataPath(), &env); err != nil {
		return vault.Envelope{}, fmt.Errorf("load vault data: %w", err)
	}
	return env, nil
}

// SaveEnvelope writes encrypted_vault_data.json atomically.
func (s *FileStore) SaveEnvelope(_ context.Context, env vault.Envelope) error {
	if err := s.writeJSON(s.paths.DataPath(), env); err != nil {
		return fmt.Errorf("save vault data: %w", err)
	}
	return nil
}

// DeleteEnvelope removes encrypted_vault_data.json.
func (s *FileStore) DeleteEnvelope(_ context.Context) error {
	if err := os.Remove(s.paths.DataPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete vault data: %w", err)
	}
	return nil
}

// Close is a no-op; files are not held open.
func (s *FileStore) Close() error { return nil }

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return nil
}

func (s *FileStore) writeJSON(path string, v any) error {
	if err := s.paths.EnsureDir(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	return WriteFileAtomic(path, data)
}

// WriteFileAtomic replaces path with data via a temp file in the same
// directory, with 0600 permissions.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("chmod temp file: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("sync temp file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}

	return nil
}

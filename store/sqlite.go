package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Hussein-Mazeh/PasswordVault/internal/db"
	"github.com/Hussein-Mazeh/PasswordVault/internal/vault"
)

// SQLStore keeps the configuration and the envelope as two rows of a sqlite
// blobs table, using the same JSON encodings as FileStore.
type SQLStore struct {
	db *db.DB
}

// OpenSQLStore opens (and migrates) the sqlite database at path.
func OpenSQLStore(ctx context.Context, path string) (*SQLStore, error) {
	d, err := db.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx, d); err != nil {
		db.Close(d)
		return nil, err
	}
	return &SQLStore{db: d}, nil
}

// LoadConfig reads the config row.
func (s *SQLStore) LoadConfig(ctx context.Context) (vault.Configuration, error) {
	var cfg vault.Configuration
	if err := s.get(ctx, db.BlobConfig, &cfg); err != nil {
		return vault.Configuration{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// SaveConfig upserts the config row.
func (s *SQLStore) SaveConfig(ctx context.Context, cfg vault.Configuration) error {
	if err := s.put(ctx, db.BlobConfig, cfg); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	return nil
}

// LoadEnvelope reads the envelope row.
func (s *SQLStore) LoadEnvelope(ctx context.Context) (vault.Envelope, error) {
	var env vault.Envelope
	if err := s.get(ctx, db.BlobEnvelope, &env); err != nil {
		return vault.Envelope{}, fmt.Errorf("load vault data: %w", err)
	}
	return env, nil
}

// SaveEnvelope upserts the envelope row.
func (s *SQLStore) SaveEnvelope(ctx context.Context, env vault.Envelope) error {
	if err := s.put(ctx, db.BlobEnvelope, env); err != nil {
		return fmt.Errorf("save vault data: %w", err)
	}
	return nil
}

// DeleteEnvelope removes the envelope row.
func (s *SQLStore) DeleteEnvelope(ctx context.Context) error {
	err := db.DeleteBlob(ctx, s.db, db.BlobEnvelope)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("delete vault data: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLStore) Close() error {
	return db.Close(s.db)
}

func (s *SQLStore) get(ctx context.Context, name string, v any) error {
	body, err := db.GetBlob(ctx, s.db, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return nil
}

func (s *SQLStore) put(ctx context.Context, name string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return db.PutBlob(ctx, s.db, name, body)
}

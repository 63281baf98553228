package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Blob names used by the vault stores.
const (
	BlobConfig   = "config"
	BlobEnvelope = "envelope"
)

// GetBlob returns the body stored under name. It returns sql.ErrNoRows if
// nothing is stored.
func GetBlob(ctx context.Context, d *DB, name string) ([]byte, error) {
	if d == nil || d.sql == nil {
		return nil, fmt.Errorf("database handle is nil")
	}

	var body []byte
	err := d.sql.QueryRowContext(ctx, `SELECT body FROM blobs WHERE name = ?`, name).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("select blob: %w", err)
	}
	return body, nil
}

// PutBlob inserts or replaces the body stored under name.
func PutBlob(ctx context.Context, d *DB, name string, body []byte) error {
	if d == nil || d.sql == nil {
		return fmt.Errorf("database handle is nil")
	}

	_, err := d.sql.ExecContext(ctx,
		`INSERT INTO blobs (name, body) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET body = excluded.body, updated_at = CURRENT_TIMESTAMP`,
		name, body,
	)
	if err != nil {
		return fmt.Errorf("upsert blob: %w", err)
	}
	return nil
}

// DeleteBlob removes the body stored under name. It returns sql.ErrNoRows if
// nothing was deleted.
func DeleteBlob(ctx context.Context, d *DB, name string) error {
	if d == nil || d.sql == nil {
		return fmt.Errorf("database handle is nil")
	}

	res, err := d.sql.ExecContext(ctx, `DELETE FROM blobs WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete blob: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

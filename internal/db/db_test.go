package db_test

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/Hussein-Mazeh/PasswordVault/internal/db"
)

func openMigrated(t *testing.T, path string) *db.DB {
	t.Helper()
	ctx := context.Background()

	d, err := db.Open(ctx, path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() {
		db.Close(d)
	})

	if err := db.Migrate(ctx, d); err != nil {
		t.Fatalf("Migrate returned error: %v", err)
	}
	return d
}

func TestOpenCreatesDatabaseFile(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "data", "vault.db")
	openMigrated(t, dbPath)

	info, err := os.Stat(dbPath)
	if err != nil {
		t.Fatalf("expected database file to exist at %q: %v", dbPath, err)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm() != 0o600 {
		t.Fatalf("expected 0600 permissions, got %v", info.Mode().Perm())
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := db.Open(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestBlobLifecycle(t *testing.T) {
	ctx := context.Background()
	d := openMigrated(t, filepath.Join(t.TempDir(), "vault.db"))

	if _, err := db.GetBlob(ctx, d, db.BlobEnvelope); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows before insert, got %v", err)
	}

	if err := db.PutBlob(ctx, d, db.BlobEnvelope, []byte("first")); err != nil {
		t.Fatalf("PutBlob: %v", err)
	}
	if err := db.PutBlob(ctx, d, db.BlobEnvelope, []byte("second")); err != nil {
		t.Fatalf("PutBlob overwrite: %v", err)
	}

	got, err := db.GetBlob(ctx, d, db.BlobEnvelope)
	if err != nil {
		t.Fatalf("GetBlob: %v", err)
	}
	if string(got) != "second" {
		t.Fatalf("expected %q, got %q", "second", got)
	}

	if err := db.DeleteBlob(ctx, d, db.BlobEnvelope); err != nil {
		t.Fatalf("DeleteBlob: %v", err)
	}
	if err := db.DeleteBlob(ctx, d, db.BlobEnvelope); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows on second delete, got %v", err)
	}
}

func TestBlobsAreIndependent(t *testing.T) {
	ctx := context.Background()
	d := openMigrated(t, filepath.Join(t.TempDir(), "vault.db"))

	if err := db.PutBlob(ctx, d, db.BlobConfig, []byte("cfg")); err != nil {
		t.Fatalf("PutBlob config: %v", err)
	}
	if err := db.PutBlob(ctx, d, db.BlobEnvelope, []byte("env")); err != nil {
		t.Fatalf("PutBlob envelope: %v", err)
	}
	if err := db.DeleteBlob(ctx, d, db.BlobEnvelope); err != nil {
		t.Fatalf("DeleteBlob: %v", err)
	}

	got, err := db.GetBlob(ctx, d, db.BlobConfig)
	if err != nil {
		t.Fatalf("GetBlob config: %v", err)
	}
	if string(got) != "cfg" {
		t.Fatalf("expected config blob to survive, got %q", got)
	}
}

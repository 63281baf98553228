package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Hussein-Mazeh/PasswordVault/internal/vault"
	"github.com/Hussein-Mazeh/PasswordVault/store"
)

// Export returns the stored encrypted vault as indented envelope JSON. The
// plaintext never leaves the session.
func (s *Session) Export(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrLocked
	}

	env, err := s.svc.data.LoadEnvelope(ctx)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, ErrNothingToExport
	case err != nil:
		return nil, persistErr("load vault", err)
	}
	out, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	return out, nil
}

// Import replaces the vault with the contents of an exported envelope. The
// envelope must open with the current master password; otherwise the error
// wraps vault.ErrVaultOpen and the session keeps its records.
func (s *Session) Import(ctx context.Context, data []byte) (int, error) {
	env, err := vault.ParseEnvelope(data)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", vault.ErrVaultOpen, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrLocked
	}

	var records []vault.Credential
	err = s.withSecret(func(secret []byte) error {
		var err error
		records, err = vault.Open(env, secret)
		return err
	})
	if err != nil {
		s.svc.log.Warn("import rejected", zap.Error(err))
		return 0, err
	}
	if err := s.commit(ctx, records); err != nil {
		return 0, err
	}
	s.svc.log.Info("vault imported", zap.Int("records", len(records)))
	return len(records), nil
}

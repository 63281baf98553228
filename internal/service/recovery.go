package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Hussein-Mazeh/PasswordVault/auth"
	"github.com/Hussein-Mazeh/PasswordVault/krypto"
	"github.com/Hussein-Mazeh/PasswordVault/store"
)

// ResetResult reports what happened to the old vault data after a reset.
type ResetResult struct {
	// VaultCleared is true when the old encrypted vault was removed or absent.
	VaultCleared bool
	// Warning is set when the old vault could not be removed. The new password
	// is already in effect and that data will not open with it.
	Warning error
}

// Recovery is a verified security answer, ready to set a new master password.
type Recovery struct {
	svc  *Service
	done bool
}

// SecurityQuestion returns the stored recovery question.
func (s *Service) SecurityQuestion(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, err := s.loadConfiguration(ctx)
	if err != nil {
		return "", err
	}
	return cfg.Security.Question, nil
}

// BeginRecovery verifies the security answer. It requires a locked vault.
func (s *Service) BeginRecovery(ctx context.Context, answer string) (*Recovery, error) {
	if err := auth.ValidateSecurityAnswer(answer); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active != nil {
		return nil, ErrUnlocked
	}
	cfg, err := s.loadConfiguration(ctx)
	if err != nil {
		return nil, err
	}
	ok, err := krypto.VerifySecret(answer, cfg.Security.AnswerHash)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotConfigured, err)
	}
	if !ok {
		s.log.Warn("security answer rejected")
		return nil, fmt.Errorf("%w: incorrect security answer", ErrAuthentication)
	}
	return &Recovery{svc: s}, nil
}

// Complete sets a new master password, keeps the security question and answer,
// and removes the old vault data since it cannot be opened with the new
// password.
func (r *Recovery) Complete(ctx context.Context, newPassword, confirm string) (ResetResult, error) {
	if err := auth.ValidateNewMasterPassword(newPassword, confirm); err != nil {
		return ResetResult{}, err
	}

	s := r.svc
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.done {
		return ResetResult{}, ErrRecoveryDone
	}
	if s.active != nil {
		return ResetResult{}, ErrUnlocked
	}

	cfg, err := s.loadConfiguration(ctx)
	if err != nil {
		return ResetResult{}, err
	}
	hash, err := krypto.HashSecret(newPassword)
	if err != nil {
		return ResetResult{}, fmt.Errorf("hash master password: %w", err)
	}
	cfg.MasterPasswordHash = hash
	cfg.TaggedEnvelopes = true
	if err := s.config.SaveConfig(ctx, cfg); err != nil {
		s.log.Error("save configuration failed", zap.Error(err))
		return ResetResult{}, persistErr("save configuration", err)
	}
	r.done = true

	var res ResetResult
	switch err := s.data.DeleteEnvelope(ctx); {
	case err == nil, errors.Is(err, store.ErrNotFound):
		res.VaultCleared = true
	default:
		s.log.Warn("old vault data could not be removed", zap.Error(err))
		res.Warning = fmt.Errorf("old vault data could not be removed and will not open with the new password: %w", err)
	}

	s.log.Info("master password reset", zap.Bool("vault_cleared", res.VaultCleared))
	return res, nil
}

// ResetPassword runs BeginRecovery and Complete in one step.
func (s *Service) ResetPassword(ctx context.Context, answer, newPassword, confirm string) (ResetResult, error) {
	if err := auth.ValidateNewMasterPassword(newPassword, confirm); err != nil {
		return ResetResult{}, err
	}
	rec, err := s.BeginRecovery(ctx, answer)
	if err != nil {
		return ResetResult{}, err
	}
	return rec.Complete(ctx, newPassword, confirm)
}

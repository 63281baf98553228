package service

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured means no usable configuration exists; run setup.
	ErrNotConfigured = errors.New("vault is not configured")
	// ErrAlreadyConfigured rejects a second setup.
	ErrAlreadyConfigured = errors.New("vault is already configured")
	// ErrAuthentication reports a wrong master password or security answer.
	ErrAuthentication = errors.New("authentication failed")
	// ErrLocked is returned by a session that was closed.
	ErrLocked = errors.New("vault is locked")
	// ErrUnlocked rejects recovery while a session is open.
	ErrUnlocked = errors.New("vault is unlocked; log out first")
	// ErrNotFound reports an unknown credential id.
	ErrNotFound = errors.New("credential not found")
	// ErrNothingToExport means no encrypted vault has been stored yet.
	ErrNothingToExport = errors.New("no vault data to export")
	// ErrPersistence wraps every store failure. In-memory state is not advanced.
	ErrPersistence = errors.New("storage failure")
	// ErrRecoveryDone rejects reuse of a completed recovery.
	ErrRecoveryDone = errors.New("recovery already completed")
)

func persistErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}

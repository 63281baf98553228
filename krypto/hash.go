package krypto

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the adaptive cost used for every new HashRecord.
const BcryptCost = 10

// MaxSecretLen is the longest secret bcrypt accepts.
const MaxSecretLen = 72

var (
	// ErrInvalidHashRecord marks a stored hash that cannot be parsed.
	ErrInvalidHashRecord = errors.New("invalid hash record")
	// ErrSecretTooLong is returned when a secret exceeds MaxSecretLen bytes.
	ErrSecretTooLong = errors.New("secret exceeds 72 bytes")
)

// HashRecord is a self-contained one-way hash (bcrypt modular-crypt string,
// salt and cost embedded).
type HashRecord string

// IsZero reports whether the record is empty.
func (h HashRecord) IsZero() bool { return h == "" }

// Validate checks that the record is a structurally valid bcrypt hash.
func (h HashRecord) Validate() error {
	if _, err := bcrypt.Cost([]byte(h)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidHashRecord, err)
	}
	return nil
}

// HashSecret hashes secret with a fresh salt, so two calls never return the same record.
func HashSecret(secret string) (HashRecord, error) {
	if len(secret) > MaxSecretLen {
		return "", ErrSecretTooLong
	}
	buf := []byte(secret)
	defer Wipe(buf)

	out, err := bcrypt.GenerateFromPassword(buf, BcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash secret: %w", err)
	}
	return HashRecord(out), nil
}

// VerifySecret reports whether secret matches rec. A mismatch is not an error;
// only a malformed record is.
func VerifySecret(secret string, rec HashRecord) (bool, error) {
	if err := rec.Validate(); err != nil {
		return false, err
	}
	if len(secret) > MaxSecretLen {
		return false, nil
	}
	buf := []byte(secret)
	defer Wipe(buf)

	err := bcrypt.CompareHashAndPassword([]byte(rec), buf)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", ErrInvalidHashRecord, err)
	}
}

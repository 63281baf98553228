package krypto

import (
	"crypto/rand"
	"crypto/sha512"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// SaltLen is the length of every key-derivation salt written to an envelope.
	SaltLen = 16
	// KeyLen is the derived key size (AES-256).
	KeyLen = 32
	// PBKDF2Iterations is the iteration count for PBKDF2-SHA512.
	PBKDF2Iterations = 100000

	// KDFPBKDF2 names PBKDF2-SHA512, the default and the only KDF of legacy envelopes.
	KDFPBKDF2 = "pbkdf2-sha512"
	// KDFArgon2id names Argon2id with DefaultArgon2Params.
	KDFArgon2id = "argon2id"
)

var (
	// ErrUnsupportedKDF is returned for an envelope naming an unknown KDF.
	ErrUnsupportedKDF = errors.New("unsupported kdf")

	errEmptyPassword = errors.New("password is required")
)

// Argon2Params captures tunable parameters for Argon2id.
type Argon2Params struct {
	MemoryMB    uint32
	Time        uint32
	Parallelism uint8
}

// DefaultArgon2Params returns sane defaults for deriving a 256-bit key.
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{
		MemoryMB:    64,
		Time:        3,
		Parallelism: 1,
	}
}

// DeriveKey turns a password and a 16-byte salt into a 32-byte key with
// PBKDF2-SHA512. The result is deterministic for identical inputs.
func DeriveKey(password, salt []byte) ([]byte, error) {
	if err := checkKDFInput(password, salt); err != nil {
		return nil, err
	}
	return pbkdf2.Key(password, salt, PBKDF2Iterations, KeyLen, sha512.New), nil
}

// DeriveKeyArgon2id derives a 32-byte key using Argon2id with the provided parameters.
func DeriveKeyArgon2id(password, salt []byte, p Argon2Params) ([]byte, error) {
	if err := checkKDFInput(password, salt); err != nil {
		return nil, err
	}
	if p.MemoryMB == 0 {
		return nil, errors.New("memory parameter must be positive")
	}
	if p.Time == 0 {
		return nil, errors.New("time parameter must be positive")
	}
	if p.Parallelism == 0 {
		return nil, errors.New("parallelism parameter must be positive")
	}

	key := argon2.IDKey(password, salt, p.Time, p.MemoryMB*1024, p.Parallelism, KeyLen)
	if len(key) != KeyLen {
		return nil, fmt.Errorf("derived key has unexpected length %d", len(key))
	}
	return key, nil
}

// DeriveEnvelopeKey dispatches on the KDF name stored alongside an envelope.
// An empty name means PBKDF2, which is what envelopes without a kdf field used.
func DeriveEnvelopeKey(kdf string, password, salt []byte) ([]byte, error) {
	switch kdf {
	case "", KDFPBKDF2:
		return DeriveKey(password, salt)
	case KDFArgon2id:
		return DeriveKeyArgon2id(password, salt, DefaultArgon2Params())
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedKDF, kdf)
	}
}

// ValidKDF reports whether name can be used to seal a new envelope.
func ValidKDF(name string) bool {
	return name == KDFPBKDF2 || name == KDFArgon2id
}

// NewRandomSalt returns a cryptographically secure random salt of SaltLen bytes.
func NewRandomSalt() ([]byte, error) {
	salt := make([]byte, SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	return salt, nil
}

func checkKDFInput(password, salt []byte) error {
	if len(password) == 0 {
		return errEmptyPassword
	}
	if len(salt) != SaltLen {
		return fmt.Errorf("salt must be %d bytes, got %d", SaltLen, len(salt))
	}
	return nil
}

// Wipe overwrites sensitive byte slices in place.
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

package vault

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Hussein-Mazeh/PasswordVault/krypto"
)

// ErrVaultOpen means the envelope cannot be opened with the given secret, either
// because the key is wrong or because the data is corrupted.
var ErrVaultOpen = errors.New("cannot open vault with this master password")

type sealConfig struct {
	kdf string
}

// SealOption tunes Seal.
type SealOption func(*sealConfig)

// WithKDF selects the key-derivation function recorded in the new envelope.
func WithKDF(name string) SealOption {
	return func(c *sealConfig) {
		if name != "" {
			c.kdf = name
		}
	}
}

// Seal serialises records and encrypts them under a key derived from secret.
//
// Every call draws a fresh salt and IV, so sealing an unchanged vault twice
// never yields the same envelope. The envelope carries an HMAC-SHA256 tag over
// kdf|salt|iv|ciphertext.
func Seal(records []Credential, secret []byte, opts ...SealOption) (Envelope, error) {
	cfg := sealConfig{kdf: krypto.KDFPBKDF2}
	for _, opt := range opts {
		opt(&cfg)
	}
	if !krypto.ValidKDF(cfg.kdf) {
		return Envelope{}, fmt.Errorf("%w: %q", krypto.ErrUnsupportedKDF, cfg.kdf)
	}

	if records == nil {
		records = []Credential{}
	}
	payload, err := json.Marshal(records)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode records: %w", err)
	}
	defer krypto.Wipe(payload)

	salt, err := krypto.NewRandomSalt()
	if err != nil {
		return Envelope{}, err
	}

	key, err := krypto.DeriveEnvelopeKey(cfg.kdf, secret, salt)
	if err != nil {
		return Envelope{}, fmt.Errorf("derive key: %w", err)
	}
	defer krypto.Wipe(key)

	iv, ciphertext, err := krypto.EncryptCBC(key, payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("encrypt vault: %w", err)
	}

	macKey, err := krypto.MACKey(key, salt)
	if err != nil {
		return Envelope{}, err
	}
	defer krypto.Wipe(macKey)

	return Envelope{
		Salt:       salt,
		IV:         iv,
		Ciphertext: ciphertext,
		MAC:        krypto.Tag(macKey, []byte(cfg.kdf), salt, iv, ciphertext),
		KDF:        cfg.kdf,
	}, nil
}

// ErrUntagged rejects an envelope without an integrity tag when one is required.
var ErrUntagged = errors.New("envelope has no integrity tag")

type openConfig struct {
	requireTag bool
}

// OpenOption tunes Open.
type OpenOption func(*openConfig)

// RequireTag refuses envelopes that carry no HMAC tag. Use it once the vault is
// known to have been sealed by a release that always tags.
func RequireTag(required bool) OpenOption {
	return func(c *openConfig) { c.requireTag = required }
}

// Open decrypts env with secret and parses the record list. All failures wrap
// ErrVaultOpen.
func Open(env Envelope, secret []byte, opts ...OpenOption) ([]Credential, error) {
	var cfg openConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := env.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrVaultOpen, err)
	}
	if cfg.requireTag && len(env.MAC) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrVaultOpen, ErrUntagged)
	}

	key, err := krypto.DeriveEnvelopeKey(env.KDF, secret, env.Salt)
	if err != nil {
		return nil, fmt.Errorf("%w: derive key: %w", ErrVaultOpen, err)
	}
	defer krypto.Wipe(key)

	if len(env.MAC) > 0 {
		macKey, err := krypto.MACKey(key, env.Salt)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrVaultOpen, err)
		}
		err = krypto.VerifyTag(macKey, env.MAC, []byte(env.KDF), env.Salt, env.IV, env.Ciphertext)
		krypto.Wipe(macKey)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrVaultOpen, err)
		}
	}

	payload, err := krypto.DecryptCBC(key, env.IV, env.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrVaultOpen, err)
	}
	defer krypto.Wipe(payload)

	var records []Credential
	if err := json.Unmarshal(payload, &records); err != nil {
		return nil, fmt.Errorf("%w: decode records: %w", ErrVaultOpen, err)
	}
	if records == nil {
		records = []Credential{}
	}
	return records, nil
}

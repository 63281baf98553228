package vault

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Hussein-Mazeh/PasswordVault/krypto"
)

// Envelope is one encrypted vault snapshot. It is self-contained: the master
// password plus these fields are enough to open it.
type Envelope struct {
	Salt       []byte
	IV         []byte
	Ciphertext []byte
	// MAC is absent on envelopes written without authentication.
	MAC []byte
	// KDF is empty on envelopes written before the field existed (PBKDF2).
	KDF string
}

type envelopeJSON struct {
	Salt          string `json:"salt"`
	IV            string `json:"iv"`
	EncryptedData string `json:"encryptedData"`
	MAC           string `json:"mac,omitempty"`
	KDF           string `json:"kdf,omitempty"`
}

// MarshalJSON writes the hex encoded on-disk form.
func (e Envelope) MarshalJSON() ([]byte, error) {
	return json.Marshal(envelopeJSON{
		Salt:          hex.EncodeToString(e.Salt),
		IV:            hex.EncodeToString(e.IV),
		EncryptedData: hex.EncodeToString(e.Ciphertext),
		MAC:           hex.EncodeToString(e.MAC),
		KDF:           e.KDF,
	})
}

// UnmarshalJSON parses and validates the hex encoded on-disk form.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	var raw envelopeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var (
		out Envelope
		err error
	)
	if out.Salt, err = hex.DecodeString(raw.Salt); err != nil {
		return fmt.Errorf("decode salt: %w", err)
	}
	if out.IV, err = hex.DecodeString(raw.IV); err != nil {
		return fmt.Errorf("decode iv: %w", err)
	}
	if out.Ciphertext, err = hex.DecodeString(raw.EncryptedData); err != nil {
		return fmt.Errorf("decode encrypted data: %w", err)
	}
	if raw.MAC != "" {
		if out.MAC, err = hex.DecodeString(raw.MAC); err != nil {
			return fmt.Errorf("decode mac: %w", err)
		}
	}
	out.KDF = raw.KDF

	if err := out.Validate(); err != nil {
		return err
	}
	*e = out
	return nil
}

// Validate checks field sizes.
func (e Envelope) Validate() error {
	if len(e.Salt) != krypto.SaltLen {
		return fmt.Errorf("envelope salt must be %d bytes", krypto.SaltLen)
	}
	if len(e.IV) != krypto.IVLen {
		return fmt.Errorf("envelope iv must be %d bytes", krypto.IVLen)
	}
	if len(e.Ciphertext) == 0 {
		return errors.New("envelope has no encrypted data")
	}
	return nil
}

// ParseEnvelope decodes an exported vault file.
func ParseEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("parse envelope: %w", err)
	}
	return env, nil
}

package krypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const macInfo = "vault-mac-v1"

// MACKey derives the HMAC key for an envelope from its encryption key.
func MACKey(encKey, salt []byte) ([]byte, error) {
	if len(encKey) != KeyLen {
		return nil, errors.New("invalid encryption key length")
	}
	out := make([]byte, KeyLen)
	if _, err := io.ReadFull(hkdf.New(sha256.New, encKey, salt, []byte(macInfo)), out); err != nil {
		return nil, fmt.Errorf("derive mac key: %w", err)
	}
	return out, nil
}

// Tag computes HMAC-SHA256 over the given parts, each prefixed with its length
// so that boundaries cannot shift.
func Tag(macKey []byte, parts ...[]byte) []byte {
	m := hmac.New(sha256.New, macKey)
	var lenBuf [4]byte
	for _, p := range parts {
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(p)))
		m.Write(lenBuf[:])
		m.Write(p)
	}
	return m.Sum(nil)
}

// VerifyTag compares tag against a freshly computed one in constant time.
func VerifyTag(macKey, tag []byte, parts ...[]byte) error {
	if !hmac.Equal(tag, Tag(macKey, parts...)) {
		return ErrDecryption
	}
	return nil
}

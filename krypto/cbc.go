package krypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
)

// IVLen is the AES-CBC initialisation vector size.
const IVLen = aes.BlockSize

// ErrDecryption is the only failure reported by DecryptCBC and VerifyTag. Without
// a tag the cipher layer cannot tell a wrong key from corrupted data.
var ErrDecryption = errors.New("incorrect key or corrupted data")

// EncryptCBC encrypts plaintext using AES-256-CBC with PKCS#7 padding under a
// freshly generated IV.
func EncryptCBC(key, plaintext []byte) (iv, ciphertext []byte, err error) {
	if len(key) != KeyLen {
		return nil, nil, errors.New("aes-cbc requires a 32-byte key")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, fmt.Errorf("create cipher: %w", err)
	}

	iv = make([]byte, IVLen)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, nil, fmt.Errorf("generate iv: %w", err)
	}

	padded := pkcs7Pad(plaintext, aes.BlockSize)
	ciphertext = make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)
	Wipe(padded)
	return iv, ciphertext, nil
}

// DecryptCBC reverses EncryptCBC. Every failure, including bad padding, is ErrDecryption.
func DecryptCBC(key, iv, ciphertext []byte) ([]byte, error) {
	if len(key) != KeyLen || len(iv) != IVLen {
		return nil, ErrDecryption
	}
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, ErrDecryption
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, ErrDecryption
	}

	plain := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, ciphertext)

	out, err := pkcs7Unpad(plain, aes.BlockSize)
	if err != nil {
		Wipe(plain)
		return nil, ErrDecryption
	}
	return out, nil
}

func pkcs7Pad(b []byte, size int) []byte {
	n := size - len(b)%size
	return append(bytes.Clone(b), bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(b []byte, size int) ([]byte, error) {
	if len(b) == 0 || len(b)%size != 0 {
		return nil, errors.New("invalid padded length")
	}
	n := int(b[len(b)-1])
	if n == 0 || n > size {
		return nil, errors.New("invalid padding")
	}
	pad := b[len(b)-n:]
	want := bytes.Repeat([]byte{byte(n)}, n)
	if subtle.ConstantTimeCompare(pad, want) != 1 {
		return nil, errors.New("invalid padding")
	}
	return b[:len(b)-n], nil
}

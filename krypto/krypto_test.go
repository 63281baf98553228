package krypto_test

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hussein-Mazeh/PasswordVault/krypto"
)

func TestDeriveKeyDeterministic(t *testing.T) {
	salt := bytes.Repeat([]byte{7}, krypto.SaltLen)

	k1, err := krypto.DeriveKey([]byte("longenough1"), salt)
	require.NoError(t, err)
	k2, err := krypto.DeriveKey([]byte("longenough1"), salt)
	require.NoError(t, err)

	assert.Len(t, k1, krypto.KeyLen)
	assert.Equal(t, k1, k2)

	other, err := krypto.DeriveKey([]byte("longenough2"), salt)
	require.NoError(t, err)
	assert.NotEqual(t, k1, other)
}

func TestDeriveKeyRejectsBadInput(t *testing.T) {
	_, err := krypto.DeriveKey(nil, make([]byte, krypto.SaltLen))
	assert.Error(t, err)

	_, err = krypto.DeriveKey([]byte("pw"), make([]byte, 12))
	assert.Error(t, err)
}

func TestDeriveEnvelopeKeyDispatch(t *testing.T) {
	salt := bytes.Repeat([]byte{1}, krypto.SaltLen)
	pw := []byte("longenough1")

	legacy, err := krypto.DeriveEnvelopeKey("", pw, salt)
	require.NoError(t, err)
	named, err := krypto.DeriveEnvelopeKey(krypto.KDFPBKDF2, pw, salt)
	require.NoError(t, err)
	assert.Equal(t, legacy, named)

	argon, err := krypto.DeriveEnvelopeKey(krypto.KDFArgon2id, pw, salt)
	require.NoError(t, err)
	assert.Len(t, argon, krypto.KeyLen)
	assert.NotEqual(t, legacy, argon)

	_, err = krypto.DeriveEnvelopeKey("scrypt", pw, salt)
	assert.ErrorIs(t, err, krypto.ErrUnsupportedKDF)
}

func TestCBCRoundTrip(t *testing.T) {
	key := bytes.Repeat([]byte{3}, krypto.KeyLen)

	for _, size := range []int{0, 1, 15, 16, 17, 100} {
		plain := bytes.Repeat([]byte{'x'}, size)
		iv, ct, err := krypto.EncryptCBC(key, plain)
		require.NoError(t, err)
		assert.Len(t, iv, krypto.IVLen)
		assert.Zero(t, len(ct)%16, "ciphertext must be block aligned")
		assert.Greater(t, len(ct), size, "padding always adds at least one byte")

		got, err := krypto.DecryptCBC(key, iv, ct)
		require.NoError(t, err)
		assert.Equal(t, plain, append([]byte{}, got...))
	}
}

func TestCBCFreshIV(t *testing.T) {
	key := bytes.Repeat([]byte{3}, krypto.KeyLen)
	iv1, ct1, err := krypto.EncryptCBC(key, []byte("same"))
	require.NoError(t, err)
	iv2, ct2, err := krypto.EncryptCBC(key, []byte("same"))
	require.NoError(t, err)

	assert.NotEqual(t, iv1, iv2)
	assert.NotEqual(t, ct1, ct2)
}

func TestDecryptCBCFailures(t *testing.T) {
	key := bytes.Repeat([]byte{3}, krypto.KeyLen)
	iv, ct, err := krypto.EncryptCBC(key, []byte(`[{"id":"1"}]`))
	require.NoError(t, err)

	_, err = krypto.DecryptCBC(key, iv, ct[:len(ct)-1])
	assert.ErrorIs(t, err, krypto.ErrDecryption)

	_, err = krypto.DecryptCBC(key, iv[:8], ct)
	assert.ErrorIs(t, err, krypto.ErrDecryption)

	_, err = krypto.DecryptCBC(key[:16], iv, ct)
	assert.ErrorIs(t, err, krypto.ErrDecryption)

	_, err = krypto.DecryptCBC(key, iv, nil)
	assert.ErrorIs(t, err, krypto.ErrDecryption)
}

func TestTagDetectsChanges(t *testing.T) {
	encKey := bytes.Repeat([]byte{9}, krypto.KeyLen)
	salt := bytes.Repeat([]byte{2}, krypto.SaltLen)

	macKey, err := krypto.MACKey(encKey, salt)
	require.NoError(t, err)
	assert.NotEqual(t, encKey, macKey)

	tag := krypto.Tag(macKey, []byte("iv"), []byte("ct"))
	assert.NoError(t, krypto.VerifyTag(macKey, tag, []byte("iv"), []byte("ct")))
	assert.ErrorIs(t, krypto.VerifyTag(macKey, tag, []byte("iv"), []byte("cT")), krypto.ErrDecryption)
	assert.ErrorIs(t, krypto.VerifyTag(macKey, tag, []byte("ivc"), []byte("t")), krypto.ErrDecryption)
}

func TestTagLengthPrefix(t *testing.T) {
	macKey := bytes.Repeat([]byte{5}, krypto.KeyLen)

	m := hmac.New(sha256.New, macKey)
	m.Write([]byte{0, 0, 0, 3})
	m.Write([]byte("kdf"))
	m.Write([]byte{0, 0, 1, 0})
	m.Write(bytes.Repeat([]byte{1}, 256))
	want := m.Sum(nil)

	assert.Equal(t, want, krypto.Tag(macKey, []byte("kdf"), bytes.Repeat([]byte{1}, 256)))
}

func TestHashSecret(t *testing.T) {
	h1, err := krypto.HashSecret("longenough1")
	require.NoError(t, err)
	h2, err := krypto.HashSecret("longenough1")
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2, "each hash uses a fresh salt")

	for _, h := range []krypto.HashRecord{h1, h2} {
		ok, err := krypto.VerifySecret("longenough1", h)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = krypto.VerifySecret("longenough2", h)
		require.NoError(t, err)
		assert.False(t, ok)
	}
}

func TestVerifySecretInvalidRecord(t *testing.T) {
	ok, err := krypto.VerifySecret("x", krypto.HashRecord("not-a-hash"))
	assert.False(t, ok)
	assert.ErrorIs(t, err, krypto.ErrInvalidHashRecord)

	ok, err = krypto.VerifySecret("x", "")
	assert.False(t, ok)
	assert.ErrorIs(t, err, krypto.ErrInvalidHashRecord)
}

func TestHashSecretTooLong(t *testing.T) {
	_, err := krypto.HashSecret(string(bytes.Repeat([]byte{'a'}, krypto.MaxSecretLen+1)))
	assert.ErrorIs(t, err, krypto.ErrSecretTooLong)
}

package vault_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hussein-Mazeh/PasswordVault/internal/vault"
	"github.com/Hussein-Mazeh/PasswordVault/krypto"
)

func notes(s string) *string { return &s }

func sampleRecords() []vault.Credential {
	return []vault.Credential{
		{ID: "b", Website: "example.com", Username: "bob", Password: "hunter2"},
		{ID: "a", Website: "mail.test", Username: "alice", Password: "p@ss w0rd", Notes: notes("recovery codes in drawer")},
		{ID: "c", Website: "ünïcode.example", Username: "", Password: "日本語", Notes: notes("")},
	}
}

func TestSealOpenRoundTrip(t *testing.T) {
	secret := []byte("longenough1")
	cases := map[string][]vault.Credential{
		"empty":   {},
		"nil":     nil,
		"records": sampleRecords(),
	}

	for name, records := range cases {
		t.Run(name, func(t *testing.T) {
			env, err := vault.Seal(records, secret)
			require.NoError(t, err)

			got, err := vault.Open(env, secret)
			require.NoError(t, err)

			want := records
			if want == nil {
				want = []vault.Credential{}
			}
			assert.Equal(t, want, got)
		})
	}
}

func TestSealOpenArgon2id(t *testing.T) {
	secret := []byte("longenough1")
	env, err := vault.Seal(sampleRecords(), secret, vault.WithKDF(krypto.KDFArgon2id))
	require.NoError(t, err)
	assert.Equal(t, krypto.KDFArgon2id, env.KDF)

	got, err := vault.Open(env, secret)
	require.NoError(t, err)
	assert.Equal(t, sampleRecords(), got)
}

func TestOpenWrongSecret(t *testing.T) {
	env, err := vault.Seal(sampleRecords(), []byte("longenough1"))
	require.NoError(t, err)

	_, err = vault.Open(env, []byte("longenough2"))
	require.Error(t, err)
	assert.ErrorIs(t, err, vault.ErrVaultOpen)
	assert.ErrorIs(t, err, krypto.ErrDecryption)
}

func TestSealFreshness(t *testing.T) {
	secret := []byte("longenough1")
	e1, err := vault.Seal(sampleRecords(), secret)
	require.NoError(t, err)
	e2, err := vault.Seal(sampleRecords(), secret)
	require.NoError(t, err)

	assert.NotEqual(t, e1.Salt, e2.Salt)
	assert.NotEqual(t, e1.IV, e2.IV)
	assert.NotEqual(t, e1.Ciphertext, e2.Ciphertext)
}

func TestOpenRejectsTampering(t *testing.T) {
	secret := []byte("longenough1")
	env, err := vault.Seal(sampleRecords(), secret)
	require.NoError(t, err)

	flipped := env
	flipped.Ciphertext = append([]byte{}, env.Ciphertext...)
	flipped.Ciphertext[0] ^= 0x01
	_, err = vault.Open(flipped, secret)
	assert.ErrorIs(t, err, vault.ErrVaultOpen)

	downgraded := env
	downgraded.KDF = ""
	_, err = vault.Open(downgraded, secret)
	assert.ErrorIs(t, err, vault.ErrVaultOpen)

	badTag := env
	badTag.MAC = append([]byte{}, env.MAC...)
	badTag.MAC[len(badTag.MAC)-1] ^= 0xff
	_, err = vault.Open(badTag, secret)
	assert.ErrorIs(t, err, vault.ErrVaultOpen)
}

// An envelope shaped like the ones the first release wrote: PBKDF2 key, no tag,
// no kdf name.
func TestOpenUntaggedEnvelope(t *testing.T) {
	secret := []byte("longenough1")
	salt, err := krypto.NewRandomSalt()
	require.NoError(t, err)
	key, err := krypto.DeriveKey(secret, salt)
	require.NoError(t, err)

	payload := []byte(`[{"id":"1712","website":"example.com","username":"bob","password":"hunter2","notes":"","showPassword":false}]`)
	iv, ct, err := krypto.EncryptCBC(key, payload)
	require.NoError(t, err)

	got, err := vault.Open(vault.Envelope{Salt: salt, IV: iv, Ciphertext: ct}, secret)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "1712", got[0].ID)
	assert.Equal(t, "hunter2", got[0].Password)
	require.NotNil(t, got[0].Notes)
	assert.Equal(t, "", *got[0].Notes)
}

func TestOpenRequireTag(t *testing.T) {
	secret := []byte("longenough1")
	env, err := vault.Seal(sampleRecords(), secret)
	require.NoError(t, err)

	_, err = vault.Open(env, secret, vault.RequireTag(true))
	require.NoError(t, err)

	stripped := env
	stripped.MAC = nil
	stripped.KDF = ""
	_, err = vault.Open(stripped, secret, vault.RequireTag(true))
	assert.ErrorIs(t, err, vault.ErrVaultOpen)
	assert.ErrorIs(t, err, vault.ErrUntagged)
}

func TestOpenRejectsNonVaultPayload(t *testing.T) {
	secret := []byte("longenough1")
	salt, err := krypto.NewRandomSalt()
	require.NoError(t, err)
	key, err := krypto.DeriveKey(secret, salt)
	require.NoError(t, err)
	iv, ct, err := krypto.EncryptCBC(key, []byte("not json"))
	require.NoError(t, err)

	_, err = vault.Open(vault.Envelope{Salt: salt, IV: iv, Ciphertext: ct}, secret)
	assert.ErrorIs(t, err, vault.ErrVaultOpen)
}

func TestEnvelopeJSON(t *testing.T) {
	env, err := vault.Seal(sampleRecords(), []byte("longenough1"))
	require.NoError(t, err)

	data, err := json.Marshal(env)
	require.NoError(t, err)

	var fields map[string]string
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Len(t, fields["salt"], 32)
	assert.Len(t, fields["iv"], 32)
	assert.NotEmpty(t, fields["encryptedData"])
	assert.NotEmpty(t, fields["mac"])
	assert.Equal(t, krypto.KDFPBKDF2, fields["kdf"])

	parsed, err := vault.ParseEnvelope(data)
	require.NoError(t, err)
	assert.Equal(t, env, parsed)
}

func TestParseEnvelopeInvalid(t *testing.T) {
	for name, body := range map[string]string{
		"not json":   `nope`,
		"bad hex":    `{"salt":"zz","iv":"00","encryptedData":"00"}`,
		"short salt": `{"salt":"0011","iv":"00112233445566778899aabbccddeeff","encryptedData":"00"}`,
		"no data":    `{"salt":"00112233445566778899aabbccddeeff","iv":"00112233445566778899aabbccddeeff","encryptedData":""}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := vault.ParseEnvelope([]byte(body))
			assert.Error(t, err)
		})
	}
}

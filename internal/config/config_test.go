package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hussein-Mazeh/PasswordVault/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	t.Setenv("HOME", "/tmp/home")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.NotEmpty(t, cfg.Dir)
	assert.Equal(t, "file", cfg.Backend)
	assert.Equal(t, "pbkdf2-sha512", cfg.KDF)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 15*time.Second, cfg.ClipboardClear)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PWVAULT_DIR", "/srv/vault")
	t.Setenv("PWVAULT_BACKEND", "sqlite")
	t.Setenv("PWVAULT_KDF", "argon2id")
	t.Setenv("PWVAULT_LOG_LEVEL", "debug")
	t.Setenv("PWVAULT_CLIPBOARD_CLEAR", "30s")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "/srv/vault", cfg.Dir)
	assert.Equal(t, "sqlite", cfg.Backend)
	assert.Equal(t, "argon2id", cfg.KDF)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.ClipboardClear)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := map[string][2]string{
		"backend":  {"PWVAULT_BACKEND", "bolt"},
		"kdf":      {"PWVAULT_KDF", "md5"},
		"duration": {"PWVAULT_CLIPBOARD_CLEAR", "soon"},
		"negative": {"PWVAULT_CLIPBOARD_CLEAR", "-1s"},
	}
	for name, kv := range tests {
		t.Run(name, func(t *testing.T) {
			t.Setenv("PWVAULT_DIR", t.TempDir())
			t.Setenv(kv[0], kv[1])
			_, err := config.Load()
			assert.Error(t, err)
		})
	}
}

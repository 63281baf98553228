package vault_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Hussein-Mazeh/PasswordVault/internal/vault"
)

func TestFilter(t *testing.T) {
	records := sampleRecords()

	assert.Len(t, vault.Filter(records, ""), 3)
	assert.Len(t, vault.Filter(records, "   "), 3)

	got := vault.Filter(records, "EXAMPLE")
	if assert.Len(t, got, 2) {
		assert.Equal(t, "b", got[0].ID)
		assert.Equal(t, "c", got[1].ID)
	}

	got = vault.Filter(records, "drawer")
	if assert.Len(t, got, 1) {
		assert.Equal(t, "a", got[0].ID)
	}

	assert.Empty(t, vault.Filter(records, "hunter2"), "passwords are not searched")
}

func TestCloneDoesNotAliasNotes(t *testing.T) {
	orig := vault.Credential{ID: "1", Notes: notes("keep")}
	cp := orig.Clone()
	*cp.Notes = "changed"
	assert.Equal(t, "keep", orig.NotesText())
}

func TestNewIDUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		id := vault.NewID()
		_, dup := seen[id]
		assert.False(t, dup)
		seen[id] = struct{}{}
	}
}

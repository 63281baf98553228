package vault

import (
	"github.com/Hussein-Mazeh/PasswordVault/krypto"
)

// SecurityBlock holds the recovery question and the hash of its answer.
// It is written once at setup and never changed by a password reset.
type SecurityBlock struct {
	Question   string            `json:"question"`
	AnswerHash krypto.HashRecord `json:"answerHash"`
}

// Configuration is the persisted authentication record of the vault.
type Configuration struct {
	MasterPasswordHash krypto.HashRecord `json:"masterPasswordHash"`
	Security           SecurityBlock     `json:"security"`
	// TaggedEnvelopes is set once every stored envelope carries an HMAC tag.
	// From then on an untagged envelope is refused.
	TaggedEnvelopes bool `json:"taggedEnvelopes,omitempty"`
}

// Configured reports whether the configuration carries a master password hash.
func (c Configuration) Configured() bool {
	return !c.MasterPasswordHash.IsZero()
}

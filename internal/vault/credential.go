package vault

import (
	"strings"

	"github.com/google/uuid"
)

// Credential is one stored login.
type Credential struct {
	ID       string  `json:"id"`
	Website  string  `json:"website"`
	Username string  `json:"username"`
	Password string  `json:"password"`
	Notes    *string `json:"notes,omitempty"`
}

// NewID returns a fresh credential identifier.
func NewID() string {
	return uuid.NewString()
}

// NotesText returns the notes or "" when none are set.
func (c Credential) NotesText() string {
	if c.Notes == nil {
		return ""
	}
	return *c.Notes
}

// Clone returns a deep copy, so callers cannot alias the notes pointer.
func (c Credential) Clone() Credential {
	if c.Notes != nil {
		n := *c.Notes
		c.Notes = &n
	}
	return c
}

// CloneAll deep-copies a record sequence, preserving order.
func CloneAll(records []Credential) []Credential {
	out := make([]Credential, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}

// Matches reports whether term occurs, case-insensitively, in the website,
// username or notes. An empty term matches everything.
func (c Credential) Matches(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(c.Website), term) ||
		strings.Contains(strings.ToLower(c.Username), term) ||
		strings.Contains(strings.ToLower(c.NotesText()), term)
}

// Filter returns the records matching term in their original order.
func Filter(records []Credential, term string) []Credential {
	out := make([]Credential, 0, len(records))
	for _, r := range records {
		if r.Matches(term) {
			out = append(out, r.Clone())
		}
	}
	return out
}

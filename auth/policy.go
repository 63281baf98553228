package auth

import (
	"errors"
	"strings"

	"github.com/Hussein-Mazeh/PasswordVault/krypto"
)

// MinMasterPasswordLen is the shortest accepted master password.
const MinMasterPasswordLen = 8

// ErrValidation matches every ValidationError via errors.Is.
var ErrValidation = errors.New("invalid input")

// ValidationError describes user input rejected before any crypto or storage call.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string { return e.Msg }

// Is lets errors.Is(err, ErrValidation) match.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Msg: msg}
}

// ValidateNewMasterPassword checks a new master password and its confirmation.
// The confirmation is checked first.
func ValidateNewMasterPassword(pw, confirm string) error {
	if pw != confirm {
		return invalid("confirm", "passwords do not match")
	}
	if len([]rune(pw)) < MinMasterPasswordLen {
		return invalid("password", "master password must be at least 8 characters long")
	}
	if len(pw) > krypto.MaxSecretLen {
		return invalid("password", "master password must be at most 72 bytes long")
	}
	return nil
}

// ValidateSetup checks every setup field before anything is hashed.
func ValidateSetup(pw, confirm, question, answer string) error {
	if err := ValidateNewMasterPassword(pw, confirm); err != nil {
		return err
	}
	if strings.TrimSpace(question) == "" || strings.TrimSpace(answer) == "" {
		return invalid("security", "please provide a security question and answer")
	}
	if len(answer) > krypto.MaxSecretLen {
		return invalid("answer", "security answer must be at most 72 bytes long")
	}
	return nil
}

// ValidateSecurityAnswer rejects a blank recovery answer.
func ValidateSecurityAnswer(answer string) error {
	if strings.TrimSpace(answer) == "" {
		return invalid("answer", "please provide an answer to the security question")
	}
	return nil
}

// ValidateLoginPassword rejects an empty login attempt.
func ValidateLoginPassword(pw string) error {
	if pw == "" {
		return invalid("password", "master password is required")
	}
	return nil
}

// ValidateCredential checks the required credential fields.
func ValidateCredential(website, username, password string) error {
	if strings.TrimSpace(website) == "" || strings.TrimSpace(username) == "" || password == "" {
		return invalid("credential", "website, username and password are required")
	}
	return nil
}

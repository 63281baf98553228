package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

const (
	lowerChars  = "abcdefghijklmnopqrstuvwxyz"
	upperChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digitChars  = "0123456789"
	symbolChars = "!@#$%^&*()-_=+[]{}|;:,.<>?"

	// DefaultGenerateLength is the length used when GenerateOptions.Length is zero.
	DefaultGenerateLength = 16
	// MaxGenerateLength bounds generated passwords.
	MaxGenerateLength = 128
)

// GenerateOptions selects the character classes of a generated password.
type GenerateOptions struct {
	Length  int
	Upper   bool
	Lower   bool
	Digits  bool
	Symbols bool
}

// DefaultGenerateOptions returns length 16 with every class enabled.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		Length:  DefaultGenerateLength,
		Upper:   true,
		Lower:   true,
		Digits:  true,
		Symbols: true,
	}
}

// Generate returns a random password containing at least one character from
// every selected class.
func Generate(opts GenerateOptions) (string, error) {
	if opts.Length == 0 {
		opts.Length = DefaultGenerateLength
	}

	var classes []string
	if opts.Lower {
		classes = append(classes, lowerChars)
	}
	if opts.Upper {
		classes = append(classes, upperChars)
	}
	if opts.Digits {
		classes = append(classes, digitChars)
	}
	if opts.Symbols {
		classes = append(classes, symbolChars)
	}

	if len(classes) == 0 {
		return "", errors.New("no character types selected for password generation")
	}
	if opts.Length < len(classes) || opts.Length > MaxGenerateLength {
		return "", fmt.Errorf("length must be between %d and %d", len(classes), MaxGenerateLength)
	}

	all := strings.Join(classes, "")
	out := make([]byte, opts.Length)

	// One character from each class first, the rest from the union, then shuffle.
	for i, class := range classes {
		c, err := pick(class)
		if err != nil {
			return "", err
		}
		out[i] = c
	}
	for i := len(classes); i < len(out); i++ {
		c, err := pick(all)
		if err != nil {
			return "", err
		}
		out[i] = c
	}
	for i := len(out) - 1; i > 0; i-- {
		j, err := randInt(i + 1)
		if err != nil {
			return "", err
		}
		out[i], out[j] = out[j], out[i]
	}
	return string(out), nil
}

func pick(set string) (byte, error) {
	i, err := randInt(len(set))
	if err != nil {
		return 0, err
	}
	return set[i], nil
}

func randInt(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("read random: %w", err)
	}
	return int(v.Int64()), nil
}

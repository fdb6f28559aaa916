// Package codes generates opaque random tokens used in URLs, such as
// calendar feed tokens.
package codes

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
)

var ErrInvalidLength = errors.New("invalid code length")

const (
	// FeedTokenByteLength produces 43 URL-safe characters.
	FeedTokenByteLength = 32

	// MinTokenByteLength keeps configured tokens above 128 bits.
	MinTokenByteLength = 16

	// HintLength is how many leading characters of a token are kept for display.
	HintLength = 6
)

// GenerateSecureToken creates a cryptographically secure hex token.
// byteLength specifies the number of random bytes (output will be 2x this length in hex).
func GenerateSecureToken(byteLength int) (string, error) {
	b, err := randomBytes(byteLength)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// GenerateURLSafeToken creates a URL-safe base64-encoded token without padding.
func GenerateURLSafeToken(byteLength int) (string, error) {
	b, err := randomBytes(byteLength)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GenerateFeedToken creates a token for a calendar subscription URL.
func GenerateFeedToken(cfg Config) (string, error) {
	n := cfg.TokenByteLength
	if n < MinTokenByteLength {
		n = FeedTokenByteLength
	}
	return GenerateURLSafeToken(n)
}

// Hint returns the displayable prefix of a token.
func Hint(token string) string {
	if len(token) <= HintLength {
		return token
	}
	return token[:HintLength]
}

func randomBytes(n int) ([]byte, error) {
	if n < 1 {
		return nil, ErrInvalidLength
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return b, nil
}

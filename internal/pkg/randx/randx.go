/*
Package randx generates cryptographically secure random identifiers.

It backs session IDs and OAuth state values, both of which must be
unguessable and carry no information about the user.
*/
package randx

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const (
	// SessionIDBytes is the entropy of a session ID (256 bits).
	SessionIDBytes = 32

	// StateBytes is the entropy of an OAuth state value.
	StateBytes = 24
)

// Token returns n random bytes encoded as unpadded base64url.
func Token(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// SessionID generates a new opaque session identifier.
func SessionID() (string, error) {
	return Token(SessionIDBytes)
}

// OAuthState generates the anti-forgery value for one federated login attempt.
func OAuthState() (string, error) {
	return Token(StateBytes)
}

// IsValidToken checks that s could have come from Token(n): correct length
// and only base64url characters.
func IsValidToken(s string, n int) bool {
	if len(s) != base64.RawURLEncoding.EncodedLen(n) {
		return false
	}
	_, err := base64.RawURLEncoding.DecodeString(s)
	return err == nil
}

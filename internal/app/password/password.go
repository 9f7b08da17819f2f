/*
Package password hashes and verifies local credentials with bcrypt.

bcrypt embeds a per-hash random salt and the cost in its output, so the stored
string is all that is needed to verify later, even after the configured cost
changes.
*/
package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MaxLength is bcrypt's input limit in bytes. Longer passwords are rejected
// rather than silently truncated.
const MaxLength = 72

var (
	ErrEmpty   = errors.New("password is empty")
	ErrTooLong = fmt.Errorf("password exceeds %d bytes", MaxLength)
	ErrBadCost = fmt.Errorf("bcrypt cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
)

// Verifier hashes with a fixed cost.
type Verifier struct {
	cost int

	// dummy is compared against when the user does not exist, so unknown
	// usernames take as long to reject as wrong passwords.
	dummy []byte
}

// NewVerifier validates cost. bcrypt.DefaultCost (10) keeps a verification
// in the tens of milliseconds on current hardware.
func NewVerifier(cost int) (*Verifier, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, ErrBadCost
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("no-such-user"), cost)
	if err != nil {
		return nil, fmt.Errorf("bcrypt: %w", err)
	}
	return &Verifier{cost: cost, dummy: dummy}, nil
}

func (v *Verifier) Cost() int { return v.cost }

// Hash returns storable credential material for plain.
func (v *Verifier) Hash(plain string) (string, error) {
	if err := Validate(plain); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), v.cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether plain matches hash. An empty or malformed hash
// (for example a federated-only user) never matches.
func (v *Verifier) Verify(hash, plain string) bool {
	if hash == "" || len(plain) > MaxLength {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// VerifyMissing spends the same work as Verify and always fails.
func (v *Verifier) VerifyMissing(plain string) bool {
	_ = bcrypt.CompareHashAndPassword(v.dummy, []byte(plain))
	return false
}

// NeedsRehash reports whether hash was produced with a different cost.
func (v *Verifier) NeedsRehash(hash string) bool {
	cost, err := bcrypt.Cost([]byte(hash))
	return err != nil || cost != v.cost
}

// Validate checks the length rules without hashing.
func Validate(plain string) error {
	switch {
	case plain == "":
		return ErrEmpty
	case len(plain) > MaxLength:
		return ErrTooLong
	}
	return nil
}

/*
Package user defines the User record and the Store contract every credential
backend implements.

Empty strings stand for absent values: a federated-only user has no Username
or PasswordHash, a local user has no FederatedID, and Secret stays empty until
its owner submits one.
*/
package user

import "time"

// User is the only persisted entity.
type User struct {
	// ID is assigned by the store at creation and never changes.
	ID string

	// Username is unique across all users when present.
	Username string

	// PasswordHash is bcrypt output for locally registered users.
	PasswordHash string

	// FederatedID is the identity provider's subject for federated users.
	FederatedID string

	// Secret is overwritten, never appended, on resubmission.
	Secret string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasPassword reports whether the user can sign in with a local password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// HasCredential reports whether the user satisfies the onboarding invariant:
// at least one of a password hash or a federated identity.
func (u *User) HasCredential() bool {
	return u.PasswordHash != "" || u.FederatedID != ""
}

// Clone returns a copy that can be handed out without sharing store state.
func (u *User) Clone() *User {
	c := *u
	return &c
}

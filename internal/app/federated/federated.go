/*
Package federated signs users in through an external identity provider.

One attempt goes: Begin (redirect to the provider with a state value),
Complete (exchange the returned code for a profile, then look up or create
the local user). Retrying means starting over from Begin.
*/
package federated

import (
	"context"
	"errors"
	"fmt"

	"secrets/internal/app/user"
)

// ErrNoProviderID is returned when a provider profile lacks a subject.
var ErrNoProviderID = errors.New("profile has no provider id")

// Profile is the part of the provider's answer the application keeps.
type Profile struct {
	ProviderID  string
	DisplayName string
}

// Provider hides the OAuth client behind the two calls the flow needs.
type Provider interface {
	Name() string
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (Profile, error)
}

// Adapter links provider identities to local users.
type Adapter struct {
	provider Provider
	users    user.Store
}

func NewAdapter(provider Provider, users user.Store) *Adapter {
	return &Adapter{provider: provider, users: users}
}

// ProviderName names the configured provider, for logs.
func (a *Adapter) ProviderName() string { return a.provider.Name() }

// Begin returns the provider URL the browser should be sent to.
func (a *Adapter) Begin(state string) string {
	return a.provider.AuthCodeURL(state)
}

// Complete exchanges code and returns the matching local user, creating it
// on first sight.
func (a *Adapter) Complete(ctx context.Context, code string) (*user.User, bool, error) {
	if code == "" {
		return nil, false, errors.New("missing authorization code")
	}

	profile, err := a.provider.Exchange(ctx, code)
	if err != nil {
		return nil, false, err
	}

	return a.LookupOrCreate(ctx, profile)
}

// LookupOrCreate returns the user linked to profile.ProviderID, creating a
// password-less user if none exists. created reports which happened. Losing
// a creation race to a concurrent login falls back to the winner's record.
func (a *Adapter) LookupOrCreate(ctx context.Context, profile Profile) (u *user.User, created bool, err error) {
	if profile.ProviderID == "" {
		return nil, false, ErrNoProviderID
	}

	u, err = a.users.FindByFederatedID(ctx, profile.ProviderID)
	if err == nil {
		return u, false, nil
	}
	if !errors.Is(err, user.ErrNotFound) {
		return nil, false, fmt.Errorf("failed to look up federated user: %w", err)
	}

	u, err = a.users.Create(ctx, &user.User{FederatedID: profile.ProviderID})
	if errors.Is(err, user.ErrFederatedIDTaken) {
		u, err = a.users.FindByFederatedID(ctx, profile.ProviderID)
		if err != nil {
			return nil, false, fmt.Errorf("failed to re-read federated user: %w", err)
		}
		return u, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to create federated user: %w", err)
	}
	return u, true, nil
}

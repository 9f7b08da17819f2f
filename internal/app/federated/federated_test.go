package federated

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"secrets/internal/app/user"
)

type fakeProvider struct {
	profiles map[string]Profile
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) AuthCodeURL(state string) string {
	return "https://idp.example/authorize?state=" + state
}

func (f *fakeProvider) Exchange(_ context.Context, code string) (Profile, error) {
	p, ok := f.profiles[code]
	if !ok {
		return Profile{}, errors.New("access_denied")
	}
	return p, nil
}

func TestCompleteReusesUser(t *testing.T) {
	ctx := context.Background()
	users := user.NewMemoryStore()
	a := NewAdapter(&fakeProvider{profiles: map[string]Profile{
		"code-1": {ProviderID: "g-42", DisplayName: "Alice"},
		"code-2": {ProviderID: "g-42", DisplayName: "Alice"},
	}}, users)

	first, created, err := a.Complete(ctx, "code-1")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "g-42", first.FederatedID)
	assert.False(t, first.HasPassword())
	assert.Empty(t, first.Username)

	second, created, err := a.Complete(ctx, "code-2")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
}

func TestCompleteFailures(t *testing.T) {
	ctx := context.Background()
	a := NewAdapter(&fakeProvider{profiles: map[string]Profile{
		"anonymous": {DisplayName: "No Subject"},
	}}, user.NewMemoryStore())

	_, _, err := a.Complete(ctx, "")
	assert.Error(t, err)

	_, _, err = a.Complete(ctx, "denied")
	assert.Error(t, err)

	_, _, err = a.Complete(ctx, "anonymous")
	assert.ErrorIs(t, err, ErrNoProviderID)
}

func TestBegin(t *testing.T) {
	a := NewAdapter(&fakeProvider{}, user.NewMemoryStore())
	assert.Equal(t, "https://idp.example/authorize?state=xyz", a.Begin("xyz"))
	assert.Equal(t, "fake", a.ProviderName())
}

func TestLookupOrCreateConcurrent(t *testing.T) {
	ctx := context.Background()
	users := user.NewMemoryStore()
	a := NewAdapter(&fakeProvider{}, users)

	const logins = 10
	ids := make([]string, logins)
	var wg sync.WaitGroup
	for i := 0; i < logins; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			u, _, err := a.LookupOrCreate(ctx, Profile{ProviderID: "g-7"})
			if assert.NoError(t, err) {
				ids[i] = u.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}

type brokenStore struct{ *user.MemoryStore }

func (brokenStore) FindByFederatedID(context.Context, string) (*user.User, error) {
	return nil, errors.New("store unreachable")
}

func TestLookupOrCreateStoreError(t *testing.T) {
	a := NewAdapter(&fakeProvider{}, brokenStore{user.NewMemoryStore()})
	_, _, err := a.LookupOrCreate(context.Background(), Profile{ProviderID: "g-1"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, user.ErrNotFound)
}

// Package usertest is a conformance suite for user.Store implementations.
package usertest

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"secrets/internal/app/user"
)

// Run exercises every Store operation against a fresh store from newStore.
func Run(t *testing.T, newStore func(t *testing.T) user.Store) {
	t.Run("CreateAndFind", func(t *testing.T) { testCreateAndFind(t, newStore(t)) })
	t.Run("DuplicateUsername", func(t *testing.T) { testDuplicateUsername(t, newStore(t)) })
	t.Run("Federated", func(t *testing.T) { testFederated(t, newStore(t)) })
	t.Run("NoCredential", func(t *testing.T) { testNoCredential(t, newStore(t)) })
	t.Run("SaveSecret", func(t *testing.T) { testSaveSecret(t, newStore(t)) })
	t.Run("SaveUnknown", func(t *testing.T) { testSaveUnknown(t, newStore(t)) })
	t.Run("UpdatesAreIndependent", func(t *testing.T) { testUpdatesAreIndependent(t, newStore(t)) })
	t.Run("ConcurrentCreate", func(t *testing.T) { testConcurrentCreate(t, newStore(t)) })
}

func testCreateAndFind(t *testing.T, s user.Store) {
	ctx := context.Background()

	created, err := s.Create(ctx, &user.User{Username: "alice@example.com", PasswordHash: "hash"})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	byName, err := s.FindByUsername(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byName.ID)
	assert.Equal(t, "hash", byName.PasswordHash)
	assert.Empty(t, byName.FederatedID)
	assert.Empty(t, byName.Secret)

	byID, err := s.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", byID.Username)

	_, err = s.FindByUsername(ctx, "bob@example.com")
	assert.ErrorIs(t, err, user.ErrNotFound)

	_, err = s.FindByUsername(ctx, "")
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func testDuplicateUsername(t *testing.T, s user.Store) {
	ctx := context.Background()

	first, err := s.Create(ctx, &user.User{Username: "alice", PasswordHash: "first"})
	require.NoError(t, err)

	_, err = s.Create(ctx, &user.User{Username: "alice", PasswordHash: "second"})
	assert.ErrorIs(t, err, user.ErrUsernameTaken)

	stored, err := s.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, first.ID, stored.ID)
	assert.Equal(t, "first", stored.PasswordHash)
}

func testFederated(t *testing.T, s user.Store) {
	ctx := context.Background()

	_, err := s.FindByFederatedID(ctx, "google-123")
	assert.ErrorIs(t, err, user.ErrNotFound)

	a, err := s.Create(ctx, &user.User{FederatedID: "google-123"})
	require.NoError(t, err)
	b, err := s.Create(ctx, &user.User{FederatedID: "google-456"})
	require.NoError(t, err, "federated users without usernames must not collide")
	assert.NotEqual(t, a.ID, b.ID)

	found, err := s.FindByFederatedID(ctx, "google-123")
	require.NoError(t, err)
	assert.Equal(t, a.ID, found.ID)
	assert.Empty(t, found.Username)
	assert.False(t, found.HasPassword())

	_, err = s.Create(ctx, &user.User{FederatedID: "google-123"})
	assert.ErrorIs(t, err, user.ErrFederatedIDTaken)
}

func testNoCredential(t *testing.T, s user.Store) {
	_, err := s.Create(context.Background(), &user.User{Username: "nobody"})
	assert.ErrorIs(t, err, user.ErrNoCredential)
}

func testSaveSecret(t *testing.T, s user.Store) {
	ctx := context.Background()

	alice, err := s.Create(ctx, &user.User{Username: "alice", PasswordHash: "h1"})
	require.NoError(t, err)
	bob, err := s.Create(ctx, &user.User{Username: "bob", PasswordHash: "h2"})
	require.NoError(t, err)

	none, err := s.FindAllWithSecret(ctx)
	require.NoError(t, err)
	assert.Empty(t, none)

	require.NoError(t, s.UpdateSecret(ctx, alice.ID, "hello"))
	require.NoError(t, s.UpdateSecret(ctx, alice.ID, "hello again"))

	withSecret, err := s.FindAllWithSecret(ctx)
	require.NoError(t, err)
	require.Len(t, withSecret, 1)
	assert.Equal(t, alice.ID, withSecret[0].ID)
	assert.Equal(t, "hello again", withSecret[0].Secret)

	stored, err := s.FindByID(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Secret, "saving alice must not touch bob")
}

func testSaveUnknown(t *testing.T, s user.Store) {
	ctx := context.Background()
	unknown := "00000000-0000-0000-0000-000000000000"

	assert.ErrorIs(t, s.UpdateSecret(ctx, unknown, "x"), user.ErrNotFound)
	assert.ErrorIs(t, s.UpdatePasswordHash(ctx, unknown, "h"), user.ErrNotFound)
	assert.ErrorIs(t, s.UpdateSecret(ctx, "not-a-uuid", "x"), user.ErrNotFound)
}

// A stale copy of the user must not matter: each update touches one column.
func testUpdatesAreIndependent(t *testing.T, s user.Store) {
	ctx := context.Background()

	alice, err := s.Create(ctx, &user.User{Username: "alice", PasswordHash: "old-hash"})
	require.NoError(t, err)

	require.NoError(t, s.UpdateSecret(ctx, alice.ID, "tea"))
	require.NoError(t, s.UpdatePasswordHash(ctx, alice.ID, "new-hash"))

	stored, err := s.FindByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "tea", stored.Secret)
	assert.Equal(t, "new-hash", stored.PasswordHash)

	require.NoError(t, s.UpdateSecret(ctx, alice.ID, "coffee"))
	stored, err = s.FindByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "coffee", stored.Secret)
	assert.Equal(t, "new-hash", stored.PasswordHash)
	assert.Equal(t, "alice", stored.Username)
}

func testConcurrentCreate(t *testing.T, s user.Store) {
	ctx := context.Background()

	const attempts = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Create(ctx, &user.User{Username: "racer", PasswordHash: "h"})
			if err == nil {
				mu.Lock()
				created++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, user.ErrUsernameTaken)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, created)
}

package user

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps users in process memory. It backs the tests and the
// memory:// database URL; nothing survives a restart.
type MemoryStore struct {
	mu          sync.RWMutex
	byID        map[string]*User
	byUsername  map[string]string
	byFederated map[string]string
	now         func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:        make(map[string]*User),
		byUsername:  make(map[string]string),
		byFederated: make(map[string]string),
		now:         time.Now,
	}
}

func (s *MemoryStore) FindByUsername(_ context.Context, username string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byUsername[username]
	if !ok || username == "" {
		return nil, ErrNotFound
	}
	return s.byID[id].Clone(), nil
}

func (s *MemoryStore) FindByID(_ context.Context, id string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return u.Clone(), nil
}

func (s *MemoryStore) FindByFederatedID(_ context.Context, federatedID string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byFederated[federatedID]
	if !ok || federatedID == "" {
		return nil, ErrNotFound
	}
	return s.byID[id].Clone(), nil
}

func (s *MemoryStore) Create(_ context.Context, u *User) (*User, error) {
	if !u.HasCredential() {
		return nil, ErrNoCredential
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if u.Username != "" {
		if _, taken := s.byUsername[u.Username]; taken {
			return nil, ErrUsernameTaken
		}
	}
	if u.FederatedID != "" {
		if _, taken := s.byFederated[u.FederatedID]; taken {
			return nil, ErrFederatedIDTaken
		}
	}

	created := u.Clone()
	created.ID = uuid.NewString()
	created.CreatedAt = s.now()
	created.UpdatedAt = created.CreatedAt

	s.byID[created.ID] = created
	if created.Username != "" {
		s.byUsername[created.Username] = created.ID
	}
	if created.FederatedID != "" {
		s.byFederated[created.FederatedID] = created.ID
	}

	return created.Clone(), nil
}

func (s *MemoryStore) UpdateSecret(_ context.Context, id, secret string) error {
	return s.update(id, func(u *User) { u.Secret = secret })
}

func (s *MemoryStore) UpdatePasswordHash(_ context.Context, id, hash string) error {
	return s.update(id, func(u *User) { u.PasswordHash = hash })
}

// update applies fn to the stored record under the write lock.
func (s *MemoryStore) update(id string, fn func(u *User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}

	fn(stored)
	stored.UpdatedAt = s.now()
	return nil
}

func (s *MemoryStore) FindAllWithSecret(_ context.Context) ([]*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*User
	for _, u := range s.byID {
		if u.Secret != "" {
			out = append(out, u.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }

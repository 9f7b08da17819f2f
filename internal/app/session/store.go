package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned by a Store when the key is unknown or evicted.
var ErrNotFound = errors.New("session not found")

// Store keeps encoded session records server-side, keyed by session ID.
type Store interface {
	Put(ctx context.Context, id string, data []byte, ttl time.Duration) error
	Get(ctx context.Context, id string) ([]byte, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// NewStore returns a RedisStore for redis:// and rediss:// URLs and an
// in-process MemoryStore when url is empty.
func NewStore(ctx context.Context, url string, ttl time.Duration) (Store, error) {
	switch {
	case url == "":
		return NewMemoryStore(ttl)
	case strings.HasPrefix(url, "redis://"), strings.HasPrefix(url, "rediss://"):
		return NewRedisStore(ctx, url)
	default:
		return nil, fmt.Errorf("unsupported SESSION_STORE_URL scheme")
	}
}

// MemoryStore keeps sessions in a bigcache instance. Entries live at most
// ttl; the Manager also checks the expiry stored in each record because
// bigcache only evicts on its clean-up tick.
type MemoryStore struct {
	cache *bigcache.BigCache
}

func NewMemoryStore(ttl time.Duration) (*MemoryStore, error) {
	cfg := bigcache.DefaultConfig(ttl)
	cfg.CleanWindow = time.Minute
	if ttl < cfg.CleanWindow {
		cfg.CleanWindow = ttl
	}
	cache, err := bigcache.NewBigCache(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create session cache: %w", err)
	}
	return &MemoryStore{cache: cache}, nil
}

func (m *MemoryStore) Put(_ context.Context, id string, data []byte, _ time.Duration) error {
	return m.cache.Set(id, data)
}

func (m *MemoryStore) Get(_ context.Context, id string) ([]byte, error) {
	buf, err := m.cache.Get(id)
	if errors.Is(err, bigcache.ErrEntryNotFound) {
		return nil, ErrNotFound
	}
	return buf, err
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	err := m.cache.Delete(id)
	if errors.Is(err, bigcache.ErrEntryNotFound) {
		return nil
	}
	return err
}

func (m *MemoryStore) Close() error {
	return m.cache.Close()
}

// RedisStore shares sessions between server instances.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(ctx context.Context, url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &RedisStore{client: client, prefix: "secrets:session:"}, nil
}

func (s *RedisStore) Put(ctx context.Context, id string, data []byte, ttl time.Duration) error {
	return s.client.Set(ctx, s.prefix+id, data, ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, id string) ([]byte, error) {
	buf, err := s.client.Get(ctx, s.prefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return buf, err
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, s.prefix+id).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

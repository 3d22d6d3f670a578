package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces snapshot keys.
const DefaultRedisPrefix = "enricher:cache:"

// RedisStore keeps each cache snapshot as one JSON string value in Redis.
// It lets CI runners share a cache without sharing a filesystem.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore wraps an existing client. An empty prefix selects
// [DefaultRedisPrefix].
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

// DialRedis connects to addr and verifies the connection with PING.
func DialRedis(ctx context.Context, addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis %s: %w", addr, err)
	}
	return NewRedisStore(client, ""), nil
}

func (s *RedisStore) key(name string) string { return s.prefix + name }

// Load reads the snapshot for name.
func (s *RedisStore) Load(ctx context.Context, name string) (*Snapshot, error) {
	data, err := s.client.Get(ctx, s.key(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptSnapshot, s.key(name), err)
	}
	return &snap, nil
}

// Save replaces the snapshot for name. The key has no Redis expiry; entry
// expiry is tracked inside the snapshot.
func (s *RedisStore) Save(ctx context.Context, name string, snap *Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(name), data, 0).Err()
}

// Delete removes the snapshot for name.
func (s *RedisStore) Delete(ctx context.Context, name string) error {
	return s.client.Del(ctx, s.key(name)).Err()
}

// Close closes the underlying client.
func (s *RedisStore) Close() error { return s.client.Close() }

func (s *RedisStore) String() string { return "redis:" + s.prefix }

// Ensure RedisStore implements Store.
var _ Store = (*RedisStore)(nil)

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	redisclient "github.com/avelichko/vitrina-storefront/pkg/redis"
)

// RedisStore persists snapshots in Redis under the shared namespace.
// Snapshots carry no TTL: carts survive until explicitly cleared.
type RedisStore struct {
	client *redisclient.Client
}

// NewRedisStore wraps an established redis client.
func NewRedisStore(client *redisclient.Client) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	return &RedisStore{client: client}, nil
}

// Set serializes value under the namespaced key.
func (s *RedisStore) Set(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding snapshot %q: %w", key, err)
	}
	return s.client.Set(ctx, s.client.Key(key), string(raw), 0)
}

// Get decodes the stored value into dest. Missing keys and corrupt
// payloads both report found=false.
func (s *RedisStore) Get(ctx context.Context, key string, dest any) (bool, error) {
	raw, err := s.client.Get(ctx, s.client.Key(key))
	if err != nil {
		if errors.Is(err, redisclient.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		// corrupt snapshot: treat as absent
		return false, nil
	}
	return true, nil
}

// Remove deletes the entry.
func (s *RedisStore) Remove(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.client.Key(key))
}

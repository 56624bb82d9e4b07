package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// kvPrefix namespaces KV keys away from the feed's dedup keys.
const kvPrefix = "kv:"

// KVStore is the persisted key-value store. Values are stored as JSON and
// are durable: no TTL is ever applied, values live until overwritten or
// removed. Concurrent writes to the same key are last-write-wins.
type KVStore struct {
	client *redis.Client
}

// NewKVStore wraps the given Redis client.
func NewKVStore(client *redis.Client) *KVStore {
	return &KVStore{client: client}
}

// Get unmarshals the value under key into dest, reporting presence.
func (s *KVStore) Get(ctx context.Context, key string, dest any) (bool, error) {
	raw, err := s.client.Get(ctx, kvPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("kv get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("kv decode %s: %w", key, err)
	}
	return true, nil
}

// Set stores the value under key, replacing any previous value.
func (s *KVStore) Set(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("kv encode %s: %w", key, err)
	}
	if err := s.client.Set(ctx, kvPrefix+key, raw, 0).Err(); err != nil {
		return fmt.Errorf("kv set %s: %w", key, err)
	}
	return nil
}

// Remove deletes the key. Removing an absent key is success.
func (s *KVStore) Remove(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, kvPrefix+key).Err(); err != nil {
		return fmt.Errorf("kv remove %s: %w", key, err)
	}
	return nil
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/pdiddy/citation-harvester/internal/metrics"
	"github.com/pdiddy/citation-harvester/pkg/types"
)

// RedisKeyPrefix namespaces progress keys.
const RedisKeyPrefix = "citation-harvester:progress:"

// RedisStore keeps the progress state as one JSON value in Redis, so a
// harvest can be resumed from another machine.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore returns a RedisStore that saves under RedisKeyPrefix+name.
func NewRedisStore(client *redis.Client, name string) *RedisStore {
	if client == nil {
		panic("redis client cannot be nil")
	}
	return &RedisStore{client: client, key: RedisKeyPrefix + name}
}

// Key returns the Redis key holding the state.
func (r *RedisStore) Key() string { return r.key }

// Load fetches the state. A missing key yields a nil state.
func (r *RedisStore) Load(ctx context.Context) (*types.ProgressState, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get %s: %w", r.key, err)
	}

	var s types.ProgressState
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: redis key %s: %v", ErrCorruptProgress, r.key, err)
	}
	if s.Records == nil {
		s.Records = make(map[string]types.Record)
	}
	return &s, nil
}

// Save replaces the stored value with s. SET is atomic, so a reader never
// sees a partial state.
func (r *RedisStore) Save(ctx context.Context, s *types.ProgressState) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshaling progress state: %w", err)
	}
	if err := r.client.Set(ctx, r.key, data, 0).Err(); err != nil {
		metrics.CheckpointWritesTotal.WithLabelValues("redis", "error").Inc()
		return fmt.Errorf("redis set %s: %w", r.key, err)
	}
	metrics.CheckpointWritesTotal.WithLabelValues("redis", "ok").Inc()
	return nil
}

// Delete removes the key.
func (r *RedisStore) Delete(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", r.key, err)
	}
	return nil
}

// Describe implements Store.
func (r *RedisStore) Describe() string {
	return "redis:" + r.client.Options().Addr + "/" + r.key
}

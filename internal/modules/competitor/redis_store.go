// README: Shared competitor cache store backed by Redis string keys with TTL.
package competitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "competitor:cache:%s:%s"

// RedisStore lets several pricing-api instances share competitor lookups.
// Keys expire after retention, which must exceed the freshness TTL so that
// stale entries remain readable.
type RedisStore struct {
	redis     *redis.Client
	retention time.Duration
}

func NewRedisStore(client *redis.Client, retention time.Duration) *RedisStore {
	return &RedisStore{redis: client, retention: retention}
}

func (s *RedisStore) Get(ctx context.Context, key Key) (Entry, bool, error) {
	raw, err := s.redis.Get(ctx, redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return Entry{}, false, fmt.Errorf("decode cache entry %s: %w", key, err)
	}
	return e, true, nil
}

func (s *RedisStore) Put(ctx context.Context, key Key, e Entry) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode cache entry %s: %w", key, err)
	}
	return s.redis.Set(ctx, redisKey(key), raw, s.retention).Err()
}

func redisKey(key Key) string {
	return fmt.Sprintf(cacheKeyPrefix, key.City, string(key.Category))
}

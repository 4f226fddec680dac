package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore marks recently checked URLs so repeat scan passes skip the
// database round-trip for the bulk of the typosquat candidate universe.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(addr string) *RedisStore {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	return &RedisStore{client: rdb}
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// MarkChecked sets a key with a TTL to prevent re-checking within the window.
func (s *RedisStore) MarkChecked(ctx context.Context, url string, ttl time.Duration) error {
	key := fmt.Sprintf("checked:%s", url)
	return s.client.Set(ctx, key, "1", ttl).Err()
}

// IsRecentlyChecked reports whether a URL was checked within the TTL.
func (s *RedisStore) IsRecentlyChecked(ctx context.Context, url string) (bool, error) {
	key := fmt.Sprintf("checked:%s", url)
	val, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return val == 1, nil
}

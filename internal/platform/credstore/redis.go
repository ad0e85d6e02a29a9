package credstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the credential pair in Redis so a gateway restart resumes
// the session instead of forcing a re-login.
type RedisStore struct {
	rdb *redis.Client
	key string
	ttl time.Duration
}

// NewRedisStore connects to Redis at url and scopes all records under key.
func NewRedisStore(url, key string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("credstore: parsing redis url: %w", err)
	}
	return &RedisStore{rdb: redis.NewClient(opts), key: key, ttl: ttl}, nil
}

func (s *RedisStore) Load(ctx context.Context) (*Record, bool, error) {
	val, err := s.rdb.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("credstore: load: %w", err)
	}

	var rec Record
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		return nil, false, fmt.Errorf("credstore: decoding record: %w", err)
	}
	return &rec, true, nil
}

func (s *RedisStore) Save(ctx context.Context, rec *Record) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("credstore: encoding record: %w", err)
	}
	if err := s.rdb.Set(ctx, s.key, b, s.ttl).Err(); err != nil {
		return fmt.Errorf("credstore: save: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.rdb.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("credstore: clear: %w", err)
	}
	return nil
}

// Close releases the underlying Redis connection.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

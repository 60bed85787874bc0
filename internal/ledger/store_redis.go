package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "tfbridge:record:"

// RedisStore keeps command records in Redis. Records are written without TTL;
// staleness is detected by the dispatcher probing the referenced invocation,
// not by key expiry.
type RedisStore struct {
	client *redis.Client
}

// NewRedis constructs a Redis-backed store.
func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, physicalResourceID string) (*Record, error) {
	raw, err := s.client.Get(ctx, redisKeyPrefix+RecordKey(physicalResourceID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get command record: %w", err)
	}

	var record Record
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return nil, fmt.Errorf("decode command record: %w", err)
	}
	return &record, nil
}

func (s *RedisStore) Put(ctx context.Context, physicalResourceID string, record Record) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode command record: %w", err)
	}
	if err := s.client.Set(ctx, redisKeyPrefix+RecordKey(physicalResourceID), payload, 0).Err(); err != nil {
		return fmt.Errorf("put command record: %w", err)
	}
	return nil
}

package summary

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"countryatlas/pkg/platform/sentinel"
)

const latestArtifactKey = "summary:image:latest"

// RedisStore persists the artifact in Redis so it survives restarts and is
// shared when more than one instance serves reads.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore constructs a Redis-backed artifact store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Save(ctx context.Context, data []byte) error {
	// No TTL: the artifact stays valid until the next refresh replaces it.
	if err := s.client.Set(ctx, latestArtifactKey, data, 0).Err(); err != nil {
		return fmt.Errorf("save summary artifact: %w", err)
	}
	return nil
}

func (s *RedisStore) Latest(ctx context.Context) ([]byte, error) {
	data, err := s.client.Get(ctx, latestArtifactKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load summary artifact: %w", err)
	}
	return data, nil
}

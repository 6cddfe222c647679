package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const idempotencyTTL = 24 * time.Hour

func idempotencyKey(scope, key string) string { return "idem:" + scope + ":" + key }

// IdempotencyStore remembers keys that were already acted on: withdrawal
// Idempotency-Key headers on the API side, notification IDs in the notifier.
type IdempotencyStore interface {
	// Claim records key under scope. It returns false when the key was
	// already claimed.
	Claim(ctx context.Context, scope, key string) (bool, error)
	// Release forgets a claim so the request can be retried after a failure.
	Release(ctx context.Context, scope, key string) error
}

type idempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewIdempotencyStore creates a Redis-backed IdempotencyStore. A zero ttl
// keeps claims for 24h.
func NewIdempotencyStore(client *redis.Client, ttl time.Duration) IdempotencyStore {
	if ttl <= 0 {
		ttl = idempotencyTTL
	}
	return &idempotencyStore{client: client, ttl: ttl}
}

func (s *idempotencyStore) Claim(ctx context.Context, scope, key string) (bool, error) {
	ok, err := s.client.SetNX(ctx, idempotencyKey(scope, key), time.Now().UTC().Format(time.RFC3339), s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis claim %s/%s: %w", scope, key, err)
	}
	return ok, nil
}

func (s *idempotencyStore) Release(ctx context.Context, scope, key string) error {
	if err := s.client.Del(ctx, idempotencyKey(scope, key)).Err(); err != nil {
		return fmt.Errorf("redis release %s/%s: %w", scope, key, err)
	}
	return nil
}

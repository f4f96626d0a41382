package revocation

import (
	"context"
	"time"

	"quill/internal/observability"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "blacklist:"

// Store records revoked token ids until their natural expiry.
type Store struct {
	client *redis.Client
}

// NewStore returns a Store backed by client.
func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

// Revoke blacklists jti for ttl. Tokens that have already expired are ignored.
func (s *Store) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" || ttl <= 0 {
		return nil
	}
	ctx, span := observability.StartRedisSpan(ctx, "set")
	defer span.End()

	err := s.client.Set(ctx, keyPrefix+jti, "1", ttl).Err()
	observability.RecordErrorInContext(ctx, err)
	return err
}

// IsRevoked reports whether jti has been blacklisted.
func (s *Store) IsRevoked(ctx context.Context, jti string) (bool, error) {
	ctx, span := observability.StartRedisSpan(ctx, "exists")
	defer span.End()

	n, err := s.client.Exists(ctx, keyPrefix+jti).Result()
	if err != nil {
		observability.RecordErrorInContext(ctx, err)
		return false, err
	}
	return n > 0, nil
}

// Ping checks that Redis is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

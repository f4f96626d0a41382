// Package bootstrap wires the runtime dependencies shared by the commands.
package bootstrap

import (
	"context"
	"fmt"

	"quill/internal/config"
	"quill/internal/database"
	"quill/internal/middleware"
	"quill/internal/revocation"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// InitRuntime connects to the database, applies the schema policy and
// connects to Redis. Redis is optional: when it is unreachable the returned
// client is nil and logout cannot revoke tokens.
func InitRuntime(ctx context.Context, cfg *config.Config) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	if err := database.ApplySchema(ctx, db, cfg); err != nil {
		return nil, nil, fmt.Errorf("schema apply failed: %w", err)
	}

	return db, connectRedis(ctx, cfg.RedisURL), nil
}

func connectRedis(ctx context.Context, addr string) *redis.Client {
	if addr == "" {
		middleware.Logger.Warn("REDIS_URL not set; token revocation disabled")
		return nil
	}
	client, err := revocation.NewClient(ctx, addr)
	if err != nil {
		middleware.Logger.Warn("Redis unavailable; token revocation disabled", "error", err)
		return nil
	}
	return client
}

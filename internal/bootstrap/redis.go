package bootstrap

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cnpie-acelerador/cnpie-backend/config"
	"github.com/cnpie-acelerador/cnpie-backend/internal/logging"
)

// OpenRedis returns nil when Redis is not configured or not reachable; the
// record cache and live events are then disabled.
func OpenRedis(ctx context.Context, cfg config.RedisConfig) *redis.Client {
	if cfg.Addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logging.NewLogger(ctx).LogWarnf("redis_connect", "addr=%s unreachable, cache disabled: %v", cfg.Addr, err)
		_ = client.Close()
		return nil
	}
	return client
}

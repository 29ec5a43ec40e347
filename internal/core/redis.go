// KaungMyatLinn | 2026
// redis.go

package core

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kaungmyat1inn/digitalmartpos/internal/config"
)

const (
	redisProbeTimeout = 5 * time.Second
	redisPoolWait     = 10 * time.Second
	redisIdleTime     = 4 * time.Minute
)

// Redis wraps the one shared client. Per-plan rate limiting and the admin
// surface both draw on this pool, so its sizing comes from config rather
// than library defaults.
type Redis struct {
	Client *redis.Client
}

func NewRedis(ctx context.Context, cfg config.RedisConfig) (*Redis, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	opts.ClientName = "digitalmartpos"
	opts.DialTimeout = redisProbeTimeout
	opts.PoolTimeout = redisPoolWait
	opts.ConnMaxIdleTime = redisIdleTime
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.MinIdleConns > 0 {
		opts.MinIdleConns = cfg.MinIdleConns
	}

	r := &Redis{Client: redis.NewClient(opts)}

	if err := r.Ping(ctx); err != nil {
		//nolint:errcheck // startup is failing anyway
		_ = r.Client.Close()
		return nil, err
	}

	return r, nil
}

// Ping bounds the probe so a wedged server cannot stall readiness checks.
func (r *Redis) Ping(ctx context.Context) error {
	probeCtx, cancel := context.WithTimeout(ctx, redisProbeTimeout)
	defer cancel()

	if err := r.Client.Ping(probeCtx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}

	return nil
}

// PoolStats feeds the admin diagnostics surface.
func (r *Redis) PoolStats() *redis.PoolStats {
	return r.Client.PoolStats()
}

func (r *Redis) Close() error {
	if r.Client == nil {
		return nil
	}
	return r.Client.Close()
}

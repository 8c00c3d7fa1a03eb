package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/educa-pb/demandas-service/internal/config"
)

const keyPrefix = "demandas:"

// Redis wraps the go-redis client.
type Redis struct {
	Client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedis connects to Redis using the provided configuration. It returns nil
// when no address is configured.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	if cfg.Addr == "" {
		logger.Info("REDIS_ADDR not provided; caching disabled")
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("unable to reach redis", zap.Error(err))
	} else {
		logger.Info("connected to redis")
	}

	return &Redis{Client: client, ttl: cfg.TTL(), logger: logger}
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}

// Get returns a cached value. Misses and errors both report ok=false.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	if r == nil || r.Client == nil {
		return nil, false
	}
	val, err := r.Client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("redis get failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	return val, true
}

// Set stores a value with the configured TTL, logging failures.
func (r *Redis) Set(ctx context.Context, key string, value []byte) {
	if r == nil || r.Client == nil {
		return
	}
	if err := r.Client.Set(ctx, keyPrefix+key, value, r.ttl).Err(); err != nil {
		r.logger.Warn("redis set failed", zap.String("key", key), zap.Error(err))
	}
}

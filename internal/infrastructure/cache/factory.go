package cache

import (
	"go.uber.org/zap"

	"github.com/nhatro/backend/internal/domain/shared"
	"github.com/nhatro/backend/internal/infrastructure/config"
)

// NewIdempotencyStore picks the store implementation from configuration:
// Redis when enabled and reachable, otherwise the in-memory store.
func NewIdempotencyStore(cfg config.RedisConfig, logger *zap.Logger) shared.IdempotencyStore {
	if cfg.Enabled {
		store, err := NewRedisIdempotencyStore(cfg)
		if err == nil {
			logger.Info("using redis idempotency store", zap.String("addr", cfg.RedisAddr()))
			return store
		}
		logger.Warn("redis unavailable, falling back to in-memory idempotency store",
			zap.String("addr", cfg.RedisAddr()),
			zap.Error(err))
	}
	logger.Info("using in-memory idempotency store")
	return NewInMemoryIdempotencyStore()
}

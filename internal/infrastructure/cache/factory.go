package cache

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/orderprofit/backend/internal/domain/profit"
	"github.com/orderprofit/backend/internal/infrastructure/config"
)

// FeeLookupCache is the cache contract shared by the Redis and in-memory stores
type FeeLookupCache interface {
	Get(ctx context.Context, productID string) (*profit.ProductCosts, bool, error)
	Set(ctx context.Context, productID string, costs *profit.ProductCosts, ttl time.Duration) error
	Close() error
}

var (
	_ FeeLookupCache = (*RedisFeeLookupCache)(nil)
	_ FeeLookupCache = (*InMemoryFeeLookupCache)(nil)
)

// FeeCacheFactory creates fee lookup caches based on configuration
type FeeCacheFactory struct {
	redisConfig config.RedisConfig
	logger      *zap.Logger
	connect     func(RedisConfig) (*RedisFeeLookupCache, error)
}

// FeeCacheFactoryOption is a functional option for configuring the factory
type FeeCacheFactoryOption func(*FeeCacheFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FeeCacheFactoryOption {
	return func(f *FeeCacheFactory) {
		f.logger = logger
	}
}

// NewFeeCacheFactory creates a new factory
func NewFeeCacheFactory(cfg config.RedisConfig, opts ...FeeCacheFactoryOption) *FeeCacheFactory {
	f := &FeeCacheFactory{
		redisConfig: cfg,
		logger:      zap.NewNop(),
		connect:     NewRedisFeeLookupCache,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateCache returns a Redis cache when Redis is enabled and reachable.
// Otherwise it falls back to an in-memory cache.
func (f *FeeCacheFactory) CreateCache() FeeLookupCache {
	if f.redisConfig.Enabled {
		store, err := f.connect(RedisConfig{
			Host:     f.redisConfig.Host,
			Port:     f.redisConfig.Port,
			Password: f.redisConfig.Password,
			DB:       f.redisConfig.DB,
		})
		if err == nil {
			f.logger.Info("using Redis fee lookup cache", zap.String("addr", f.redisConfig.Addr()))
			return store
		}
		f.logger.Warn("Redis unavailable, falling back to in-memory fee lookup cache", zap.Error(err))
	}
	return NewInMemoryFeeLookupCache(time.Minute)
}

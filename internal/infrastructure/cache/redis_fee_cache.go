package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/orderprofit/backend/internal/domain/profit"
)

const defaultFeeKeyPrefix = "profit:fees:"

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// RedisFeeLookupCache stores product cost lookups in Redis so that every
// server instance shares them
type RedisFeeLookupCache struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisFeeLookupCache connects to Redis and verifies the connection
func NewRedisFeeLookupCache(cfg RedisConfig) (*RedisFeeLookupCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisFeeLookupCacheWithClient(client, ""), nil
}

// NewRedisFeeLookupCacheWithClient creates a cache over an existing client
func NewRedisFeeLookupCacheWithClient(client *redis.Client, keyPrefix string) *RedisFeeLookupCache {
	if keyPrefix == "" {
		keyPrefix = defaultFeeKeyPrefix
	}
	return &RedisFeeLookupCache{client: client, keyPrefix: keyPrefix}
}

// Get returns the cached costs for a product
func (c *RedisFeeLookupCache) Get(ctx context.Context, productID string) (*profit.ProductCosts, bool, error) {
	raw, err := c.client.Get(ctx, c.keyPrefix+productID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read fee cache: %w", err)
	}

	var costs profit.ProductCosts
	if err := json.Unmarshal(raw, &costs); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached costs: %w", err)
	}
	return &costs, true, nil
}

// Set stores costs for a product with a TTL
func (c *RedisFeeLookupCache) Set(ctx context.Context, productID string, costs *profit.ProductCosts, ttl time.Duration) error {
	raw, err := json.Marshal(costs)
	if err != nil {
		return fmt.Errorf("failed to encode costs: %w", err)
	}
	if err := c.client.Set(ctx, c.keyPrefix+productID, raw, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write fee cache: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func (c *RedisFeeLookupCache) Close() error {
	return c.client.Close()
}

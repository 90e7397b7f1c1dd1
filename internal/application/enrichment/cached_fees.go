package enrichment

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/orderprofit/backend/internal/domain/integration"
	"github.com/orderprofit/backend/internal/domain/profit"
	"github.com/orderprofit/backend/internal/infrastructure/telemetry"
)

// FeeCache stores product costs by product id.
type FeeCache interface {
	Get(ctx context.Context, productID string) (*profit.ProductCosts, bool, error)
	Set(ctx context.Context, productID string, costs *profit.ProductCosts, ttl time.Duration) error
}

// CachedFeeLookup decorates a FeeLookupClient with a product-keyed cache.
// Lookup errors are never cached and cache failures fall through to the
// upstream client.
type CachedFeeLookup struct {
	next    integration.FeeLookupClient
	cache   FeeCache
	ttl     time.Duration
	logger  *zap.Logger
	metrics *telemetry.PipelineMetrics
}

// NewCachedFeeLookup wraps next with cache. A non-positive ttl disables expiry.
func NewCachedFeeLookup(next integration.FeeLookupClient, cache FeeCache, ttl time.Duration, zapLogger *zap.Logger) *CachedFeeLookup {
	if zapLogger == nil {
		zapLogger = zap.NewNop()
	}
	return &CachedFeeLookup{next: next, cache: cache, ttl: ttl, logger: zapLogger.Named("fee_cache")}
}

// SetPipelineMetrics sets the metrics recorder (optional)
func (c *CachedFeeLookup) SetPipelineMetrics(m *telemetry.PipelineMetrics) {
	c.metrics = m
}

// LookupProductCosts implements integration.FeeLookupClient
func (c *CachedFeeLookup) LookupProductCosts(ctx context.Context, token, productID string) (*profit.ProductCosts, error) {
	cached, ok, err := c.cache.Get(ctx, productID)
	if err != nil {
		c.logger.Warn("fee cache read failed", zap.String("product_id", productID), zap.Error(err))
	}
	c.recordLookup(ctx, ok && err == nil)
	if ok && err == nil {
		return cached, nil
	}

	costs, err := c.next.LookupProductCosts(ctx, token, productID)
	if err != nil {
		return nil, err
	}
	if costs != nil {
		if err := c.cache.Set(ctx, productID, costs, c.ttl); err != nil {
			c.logger.Warn("fee cache write failed", zap.String("product_id", productID), zap.Error(err))
		}
	}
	return costs, nil
}

func (c *CachedFeeLookup) recordLookup(ctx context.Context, hit bool) {
	if c.metrics != nil {
		c.metrics.RecordFeeCacheLookup(ctx, hit)
	}
}

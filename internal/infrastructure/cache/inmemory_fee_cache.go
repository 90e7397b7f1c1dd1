package cache

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/orderprofit/backend/internal/domain/profit"
)

type feeEntry struct {
	costs     profit.ProductCosts
	expiresAt time.Time
}

// InMemoryFeeLookupCache keeps product cost lookups in process memory.
// Suitable for single-instance deployments and tests.
type InMemoryFeeLookupCache struct {
	mu        sync.RWMutex
	entries   map[string]feeEntry
	now       func() time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryFeeLookupCache creates the cache and starts a goroutine that
// evicts expired entries every cleanupInterval (0 disables it)
func NewInMemoryFeeLookupCache(cleanupInterval time.Duration) *InMemoryFeeLookupCache {
	c := &InMemoryFeeLookupCache{
		entries:  make(map[string]feeEntry),
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
	if cleanupInterval > 0 {
		c.wg.Add(1)
		go c.cleanupLoop(cleanupInterval)
	}
	return c
}

// Get returns a copy of the cached costs for a product
func (c *InMemoryFeeLookupCache) Get(_ context.Context, productID string) (*profit.ProductCosts, bool, error) {
	c.mu.RLock()
	e, ok := c.entries[productID]
	c.mu.RUnlock()

	if !ok || !c.now().Before(e.expiresAt) {
		return nil, false, nil
	}
	costs := cloneCosts(e.costs)
	return &costs, true, nil
}

// Set stores a copy of costs for a product
func (c *InMemoryFeeLookupCache) Set(_ context.Context, productID string, costs *profit.ProductCosts, ttl time.Duration) error {
	if costs == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[productID] = feeEntry{costs: cloneCosts(*costs), expiresAt: c.now().Add(ttl)}
	return nil
}

// Len returns the number of stored entries, including expired ones not yet evicted
func (c *InMemoryFeeLookupCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close stops the cleanup goroutine
func (c *InMemoryFeeLookupCache) Close() error {
	c.closeOnce.Do(func() {
		close(c.stopChan)
	})
	c.wg.Wait()
	return nil
}

func (c *InMemoryFeeLookupCache) cleanupLoop(interval time.Duration) {
	defer c.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.evictExpired()
		case <-c.stopChan:
			return
		}
	}
}

func (c *InMemoryFeeLookupCache) evictExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for id, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, id)
		}
	}
}

func cloneCosts(in profit.ProductCosts) profit.ProductCosts {
	out := in
	if in.FeeRates != nil {
		out.FeeRates = make(map[string]decimal.Decimal, len(in.FeeRates))
		for k, v := range in.FeeRates {
			out.FeeRates[k] = v
		}
	}
	return out
}

// Package pacing spaces out upstream calls so bursts of concurrent work do
// not overrun third-party rate limits.
package pacing

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Pacer grants start slots at least Spacing apart. The first acquisition,
// and any acquisition after an idle gap of Spacing or longer, is immediate.
//
// Thread Safety: Safe for concurrent use.
type Pacer struct {
	limiter  *rate.Limiter
	spacing  time.Duration
	acquired atomic.Int64
	waited   atomic.Int64
}

// NewPacer creates a pacer; spacing <= 0 disables pacing
func NewPacer(spacing time.Duration) *Pacer {
	limit := rate.Inf
	if spacing > 0 {
		limit = rate.Every(spacing)
	}
	return &Pacer{
		limiter: rate.NewLimiter(limit, 1),
		spacing: spacing,
	}
}

// Acquire blocks until the next slot is available or ctx is done
func (p *Pacer) Acquire(ctx context.Context) error {
	start := time.Now()
	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}
	p.acquired.Add(1)
	p.waited.Add(int64(time.Since(start)))
	return nil
}

// Spacing returns the configured minimum gap between slots
func (p *Pacer) Spacing() time.Duration {
	return p.spacing
}

// Stats contains pacing statistics
type Stats struct {
	Acquired  int64
	TotalWait time.Duration
}

// Stats returns the number of slots granted and the total time spent waiting
func (p *Pacer) Stats() Stats {
	return Stats{
		Acquired:  p.acquired.Load(),
		TotalWait: time.Duration(p.waited.Load()),
	}
}

// Sleep waits for d or until ctx is done. A non-positive d returns at once.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Package ristretto puts an in-process cache of completed incident ids in
// front of a marker store.
package ristretto

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/Strob0t/driftgate/internal/port/idempotency"
)

// MarkerCache decorates an idempotency.Store. Only positive Exists answers
// are cached: completion markers are never removed, so a cached hit can
// not go stale. Claims always reach the backing store.
type MarkerCache struct {
	next idempotency.Store
	c    *ristretto.Cache[string, struct{}]
	ttl  time.Duration
}

// New wraps next with a cache bounded to roughly maxCostBytes.
func New(next idempotency.Store, maxCostBytes int64, ttl time.Duration) (*MarkerCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config[string, struct{}]{
		NumCounters: maxCostBytes / 100 * 10, // ~10x expected items
		MaxCost:     maxCostBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &MarkerCache{next: next, c: c, ttl: ttl}, nil
}

// Exists consults the cache before the backing store.
func (m *MarkerCache) Exists(ctx context.Context, id string) (bool, error) {
	if _, ok := m.c.Get(id); ok {
		return true, nil
	}
	done, err := m.next.Exists(ctx, id)
	if err != nil || !done {
		return done, err
	}
	m.remember(id)
	return true, nil
}

// Claim is passed through unchanged.
func (m *MarkerCache) Claim(ctx context.Context, id string, at time.Time) error {
	return m.next.Claim(ctx, id, at)
}

// MarkDone writes through and caches the completion.
func (m *MarkerCache) MarkDone(ctx context.Context, id string, at time.Time) error {
	if err := m.next.MarkDone(ctx, id, at); err != nil {
		return err
	}
	m.remember(id)
	return nil
}

func (m *MarkerCache) remember(id string) {
	m.c.SetWithTTL(id, struct{}{}, int64(len(id)), m.ttl)
}

// Wait blocks until buffered cache writes are applied.
func (m *MarkerCache) Wait() { m.c.Wait() }

// Close shuts down the cache and releases resources.
func (m *MarkerCache) Close() {
	m.c.Close()
}

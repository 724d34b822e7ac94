package ristretto

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Strob0t/driftgate/internal/port/idempotency"
)

var _ idempotency.Store = (*MarkerCache)(nil)

// countingStore records how often Exists reaches the backing store.
type countingStore struct {
	mu     sync.Mutex
	done   map[string]bool
	exists int
	claims int
}

func (s *countingStore) Exists(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exists++
	return s.done[id], nil
}

func (s *countingStore) Claim(context.Context, string, time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.claims++
	return nil
}

func (s *countingStore) MarkDone(_ context.Context, id string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done[id] = true
	return nil
}

func newCache(t *testing.T, next idempotency.Store) *MarkerCache {
	t.Helper()
	c, err := New(next, 1<<20, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(c.Close)
	return c
}

func TestMarkerCacheServesPositiveHits(t *testing.T) {
	store := &countingStore{done: map[string]bool{"d-1": true}}
	c := newCache(t, store)
	ctx := context.Background()

	if ok, _ := c.Exists(ctx, "d-1"); !ok {
		t.Fatal("expected done")
	}
	c.Wait()
	if ok, _ := c.Exists(ctx, "d-1"); !ok {
		t.Fatal("expected cached done")
	}
	if store.exists != 1 {
		t.Fatalf("expected one backing lookup, got %d", store.exists)
	}
}

func TestMarkerCacheDoesNotCacheMisses(t *testing.T) {
	store := &countingStore{done: map[string]bool{}}
	c := newCache(t, store)
	ctx := context.Background()

	if ok, _ := c.Exists(ctx, "d-2"); ok {
		t.Fatal("expected miss")
	}
	if err := c.MarkDone(ctx, "d-2", time.Now()); err != nil {
		t.Fatal(err)
	}
	c.Wait()
	if ok, _ := c.Exists(ctx, "d-2"); !ok {
		t.Fatal("expected done after MarkDone")
	}
}

func TestMarkerCacheClaimPassesThrough(t *testing.T) {
	store := &countingStore{done: map[string]bool{}}
	c := newCache(t, store)
	_ = c.Claim(context.Background(), "d-3", time.Now())
	_ = c.Claim(context.Background(), "d-3", time.Now())
	if store.claims != 2 {
		t.Fatalf("claims must not be cached, got %d", store.claims)
	}
}

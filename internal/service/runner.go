// Package service contains the callback gateway and the background
// remediation pipeline.
package service

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/Strob0t/driftgate/internal/domain"
)

// Runner executes tracked background tasks with bounded concurrency.
// Tasks outlive the request that submitted them and are awaited on Shutdown.
type Runner struct {
	sem      *semaphore.Weighted
	wg       sync.WaitGroup
	mu       sync.Mutex
	closed   bool
	inFlight atomic.Int64
}

// NewRunner creates a Runner that executes at most limit tasks at once.
// Extra tasks queue until a slot frees up.
func NewRunner(limit int) *Runner {
	if limit < 1 {
		limit = 1
	}
	return &Runner{sem: semaphore.NewWeighted(int64(limit))}
}

// Submit schedules fn in a new goroutine. fn receives a context carrying the
// values of ctx but detached from its cancellation. Submit returns
// domain.ErrQueueClosed once Shutdown has begun.
func (r *Runner) Submit(ctx context.Context, fn func(ctx context.Context)) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return domain.ErrQueueClosed
	}
	r.wg.Add(1)
	r.inFlight.Add(1)
	r.mu.Unlock()

	bg := context.WithoutCancel(ctx)
	go func() {
		defer r.wg.Done()
		defer r.inFlight.Add(-1)

		if err := r.sem.Acquire(bg, 1); err != nil {
			return
		}
		defer r.sem.Release(1)
		defer func() {
			if p := recover(); p != nil {
				slog.Error("background task panicked", "category", "exec", "panic", p)
			}
		}()
		fn(bg)
	}()
	return nil
}

// InFlight returns the number of submitted tasks that have not finished.
func (r *Runner) InFlight() int {
	return int(r.inFlight.Load())
}

// Shutdown stops accepting tasks and waits for submitted ones to finish or
// for ctx to expire, whichever comes first.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		slog.Warn("shutdown deadline reached with tasks still running", "in_flight", r.InFlight())
		return ctx.Err()
	}
}

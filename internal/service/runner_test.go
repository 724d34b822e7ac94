package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Strob0t/driftgate/internal/domain"
)

func TestRunnerLimitsConcurrency(t *testing.T) {
	r := NewRunner(2)
	var current, peak atomic.Int32

	for range 8 {
		err := r.Submit(context.Background(), func(context.Context) {
			n := current.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			current.Add(-1)
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.Shutdown(ctx); err != nil {
		t.Fatal(err)
	}
	if peak.Load() > 2 {
		t.Fatalf("expected at most 2 concurrent tasks, saw %d", peak.Load())
	}
}

func TestRunnerDetachesFromRequestContext(t *testing.T) {
	r := NewRunner(1)
	ctx, cancel := context.WithCancel(context.Background())

	result := make(chan error, 1)
	_ = r.Submit(ctx, func(bg context.Context) {
		time.Sleep(20 * time.Millisecond)
		result <- bg.Err()
	})
	cancel()

	if err := <-result; err != nil {
		t.Fatalf("background task saw cancellation: %v", err)
	}
}

func TestRunnerRejectsAfterShutdown(t *testing.T) {
	r := NewRunner(1)
	if err := r.Shutdown(context.Background()); err != nil {
		t.Fatal(err)
	}
	err := r.Submit(context.Background(), func(context.Context) {})
	if !errors.Is(err, domain.ErrQueueClosed) {
		t.Fatalf("expected ErrQueueClosed, got %v", err)
	}
}

func TestRunnerShutdownDeadline(t *testing.T) {
	r := NewRunner(1)
	release := make(chan struct{})
	_ = r.Submit(context.Background(), func(context.Context) { <-release })
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := r.Shutdown(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if r.InFlight() != 1 {
		t.Errorf("expected 1 in-flight task, got %d", r.InFlight())
	}
}

func TestRunnerRecoversPanics(t *testing.T) {
	r := NewRunner(1)
	_ = r.Submit(context.Background(), func(context.Context) { panic("boom") })
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := r.Shutdown(ctx); err != nil {
		t.Fatalf("panicking task must still be accounted for: %v", err)
	}
}

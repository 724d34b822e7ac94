// Package notifier defines the best-effort outbound chat port.
package notifier

import (
	"context"
	"errors"

	"github.com/Strob0t/driftgate/internal/domain/incident"
)

// ErrNotConfigured is returned when credentials or routing metadata needed for
// a delivery are missing.
var ErrNotConfigured = errors.New("notifier: not configured")

// Result reports the outcome of a best-effort delivery. Callers log failures
// and carry on; a failed Result never becomes a pipeline error.
type Result struct {
	Delivered bool
	Err       error
}

// Delivered is the successful Result.
func Delivered() Result { return Result{Delivered: true} }

// Failed wraps err as an undelivered Result.
func Failed(err error) Result { return Result{Err: err} }

// Notifier is the port interface for outbound chat messages.
type Notifier interface {
	// Name returns the unique identifier for this notifier (e.g. "slack").
	Name() string

	// Acknowledge rewrites the original alert message in place.
	Acknowledge(ctx context.Context, route incident.Routing, text string) Result

	// Reply posts a follow-up message in the alert's conversation thread.
	Reply(ctx context.Context, route incident.Routing, text string) Result
}

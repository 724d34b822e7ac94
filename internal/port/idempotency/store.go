// Package idempotency defines the durable per-incident marker port.
package idempotency

import (
	"context"
	"time"
)

// Store guarantees at most one executed remediation per incident id.
//
// Claim is an atomic create-if-absent taken when an approval is accepted; it
// fails with domain.ErrAlreadyClaimed when a claim or a completion marker
// already exists. MarkDone records completion and may be repeated. Exists
// reports completion markers only. Markers are never deleted.
type Store interface {
	Exists(ctx context.Context, incidentID string) (bool, error)
	Claim(ctx context.Context, incidentID string, at time.Time) error
	MarkDone(ctx context.Context, incidentID string, at time.Time) error
}

// Package metricsink defines the append-only pipeline metrics port.
package metricsink

import (
	"context"

	"github.com/Strob0t/driftgate/internal/domain/metrics"
)

// Recorder appends partial metrics rows. Readers reconcile rows sharing an
// incident id; the writer never updates a row in place.
type Recorder interface {
	Append(ctx context.Context, r metrics.Row) error
}

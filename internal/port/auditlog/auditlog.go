// Package auditlog defines the append-only audit trail port.
package auditlog

import (
	"context"

	"github.com/Strob0t/driftgate/internal/domain/audit"
)

// Sink appends audit entries. Implementations never reorder or rewrite
// previously appended entries.
type Sink interface {
	Append(ctx context.Context, e audit.Entry) error
}

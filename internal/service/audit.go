package service

import (
	"context"

	"github.com/Strob0t/driftgate/internal/domain/audit"
	"github.com/Strob0t/driftgate/internal/logger"
	"github.com/Strob0t/driftgate/internal/port/auditlog"
)

// AuditTrail appends entries to the primary sink and copies them to any
// mirrors. Only the primary sink's error is returned.
type AuditTrail struct {
	primary auditlog.Sink
	mirrors []auditlog.Sink
}

// NewAuditTrail creates an AuditTrail.
func NewAuditTrail(primary auditlog.Sink, mirrors ...auditlog.Sink) *AuditTrail {
	return &AuditTrail{primary: primary, mirrors: mirrors}
}

// Append implements auditlog.Sink.
func (a *AuditTrail) Append(ctx context.Context, e audit.Entry) error {
	err := a.primary.Append(ctx, e)
	for _, m := range a.mirrors {
		if mErr := m.Append(ctx, e); mErr != nil {
			logger.From(ctx).Warn("audit mirror append failed", "category", "persistence", "error", mErr)
		}
	}
	return err
}

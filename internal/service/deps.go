package service

import (
	"context"
	"time"

	cfotel "github.com/Strob0t/driftgate/internal/adapter/otel"
	"github.com/Strob0t/driftgate/internal/domain/audit"
	"github.com/Strob0t/driftgate/internal/domain/incident"
	"github.com/Strob0t/driftgate/internal/domain/metrics"
	"github.com/Strob0t/driftgate/internal/logger"
	"github.com/Strob0t/driftgate/internal/port/auditlog"
	"github.com/Strob0t/driftgate/internal/port/idempotency"
	"github.com/Strob0t/driftgate/internal/port/metricsink"
	"github.com/Strob0t/driftgate/internal/port/notifier"
)

// Deps bundles the collaborators shared by the gateway and remediation runs.
type Deps struct {
	Store    idempotency.Store
	Notifier notifier.Notifier
	Audit    auditlog.Sink
	Metrics  metricsink.Recorder

	// Now defaults to time.Now.
	Now func() time.Time
	// Telemetry is optional.
	Telemetry *cfotel.Metrics
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// audit appends an entry for inc, logging instead of returning failures.
func (d Deps) audit(ctx context.Context, inc *incident.Incident, status audit.Status, detail string) {
	e := audit.Entry{
		Time:   d.now(),
		Actor:  inc.Actor,
		Action: inc.Label(),
		Status: status,
		Detail: detail,
	}
	if err := d.Audit.Append(ctx, e); err != nil {
		logger.From(ctx).Error("audit append failed", "category", "persistence", "status", status, "error", err)
	}
}

// record appends a metrics snapshot of inc.
func (d Deps) record(ctx context.Context, inc *incident.Incident) {
	if err := d.Metrics.Append(ctx, metrics.FromIncident(inc)); err != nil {
		logger.From(ctx).Error("metrics append failed", "category", "persistence", "status", inc.Status, "error", err)
	}
}

// reply posts text in the incident thread. Failures are logged and counted.
func (d Deps) reply(ctx context.Context, inc *incident.Incident, text string) {
	res := d.Notifier.Reply(ctx, inc.Routing, text)
	if !res.Delivered {
		logger.From(ctx).Warn("thread reply failed", "category", "notify", "notifier", d.Notifier.Name(), "error", res.Err)
		d.Telemetry.RecordNotifyFailure(ctx, "reply")
	}
}

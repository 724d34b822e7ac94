package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "driftgate"

// Metrics holds all driftgate metric instruments.
type Metrics struct {
	Callbacks             metric.Int64Counter
	RemediationsStarted   metric.Int64Counter
	RemediationsSucceeded metric.Int64Counter
	RemediationsFailed    metric.Int64Counter
	RemediationDuration   metric.Float64Histogram
	PostFailures          metric.Int64Histogram
	NotifyFailures        metric.Int64Counter
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.Callbacks, err = meter.Int64Counter("driftgate.callbacks",
		metric.WithDescription("Interaction callbacks handled, by outcome"))
	if err != nil {
		return nil, err
	}

	m.RemediationsStarted, err = meter.Int64Counter("driftgate.remediations.started",
		metric.WithDescription("Number of remediation runs started"))
	if err != nil {
		return nil, err
	}

	m.RemediationsSucceeded, err = meter.Int64Counter("driftgate.remediations.succeeded",
		metric.WithDescription("Number of remediation runs that exited zero"))
	if err != nil {
		return nil, err
	}

	m.RemediationsFailed, err = meter.Int64Counter("driftgate.remediations.failed",
		metric.WithDescription("Number of remediation runs that failed"))
	if err != nil {
		return nil, err
	}

	m.RemediationDuration, err = meter.Float64Histogram("driftgate.remediation.duration_seconds",
		metric.WithDescription("Remediation command duration in seconds"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	m.PostFailures, err = meter.Int64Histogram("driftgate.compliance.post_failures",
		metric.WithDescription("Failing compliance checks after remediation"))
	if err != nil {
		return nil, err
	}

	m.NotifyFailures, err = meter.Int64Counter("driftgate.notify.failures",
		metric.WithDescription("Chat deliveries that failed"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordCallback counts one handled callback. A nil receiver is a no-op.
func (m *Metrics) RecordCallback(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.Callbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordRemediation records the result of one finished run.
func (m *Metrics) RecordRemediation(ctx context.Context, succeeded bool, seconds float64, postFailures int, postKnown bool) {
	if m == nil {
		return
	}
	if succeeded {
		m.RemediationsSucceeded.Add(ctx, 1)
	} else {
		m.RemediationsFailed.Add(ctx, 1)
	}
	m.RemediationDuration.Record(ctx, seconds)
	if postKnown {
		m.PostFailures.Record(ctx, int64(postFailures))
	}
}

// RecordStart counts a started run.
func (m *Metrics) RecordStart(ctx context.Context) {
	if m == nil {
		return
	}
	m.RemediationsStarted.Add(ctx, 1)
}

// RecordNotifyFailure counts one failed chat delivery.
func (m *Metrics) RecordNotifyFailure(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.NotifyFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "driftgate"

// StartRunSpan starts a span covering one background remediation run.
func StartRunSpan(ctx context.Context, runID, incidentID, environment string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "remediation.run",
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("incident.id", incidentID),
			attribute.String("incident.environment", environment),
		),
	)
}

// StartExecSpan starts a span for the remediation command.
func StartExecSpan(ctx context.Context, runID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "remediation.exec",
		trace.WithAttributes(attribute.String("run.id", runID)),
	)
}

// StartScanSpan starts a span for the post-remediation compliance scan.
func StartScanSpan(ctx context.Context, runID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "compliance.scan",
		trace.WithAttributes(attribute.String("run.id", runID)),
	)
}

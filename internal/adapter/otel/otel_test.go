package otel

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Strob0t/driftgate/internal/config"
)

func TestSetupWithoutEndpointIsNoop(t *testing.T) {
	shutdown, err := Setup(context.Background(), config.OTel{ServiceName: "driftgate"})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestMetricsRecordOnNoopProvider(t *testing.T) {
	m, err := NewMetrics()
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	ctx := context.Background()
	m.RecordCallback(ctx, "running")
	m.RecordStart(ctx)
	m.RecordRemediation(ctx, true, 1.5, 0, true)
	m.RecordNotifyFailure(ctx, "reply")
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordCallback(context.Background(), "ignored")
	m.RecordRemediation(context.Background(), false, 0, 0, false)
}

func TestSpansEnd(t *testing.T) {
	ctx, span := StartRunSpan(context.Background(), "run-1", "d-1", "prod")
	_, exec := StartExecSpan(ctx, "run-1")
	exec.End()
	_, scan := StartScanSpan(ctx, "run-1")
	scan.End()
	span.End()
}

func TestHTTPMiddlewarePassesThrough(t *testing.T) {
	h := HTTPMiddleware("driftgate")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
	if rec.Code != http.StatusTeapot {
		t.Fatalf("status = %d", rec.Code)
	}
}

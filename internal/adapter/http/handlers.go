package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Strob0t/driftgate/internal/domain/incident"
	"github.com/Strob0t/driftgate/internal/service"
)

const maxRequestBodySize = 1 << 20 // 1 MB

// HealthCheck probes one optional dependency for GET /health.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Handlers holds the services the HTTP endpoints delegate to.
type Handlers struct {
	Gateway *service.Gateway
	Ingest  *service.Ingest
	Runner  *service.Runner
	Checks  []HealthCheck
	Now     func() time.Time // nil = time.Now
}

func (h *Handlers) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// interactionResponse is the body returned for every accepted callback.
type interactionResponse struct {
	OK         bool   `json:"ok"`
	Status     string `json:"status"`
	IncidentID string `json:"incident_id,omitempty"`
	RunID      string `json:"run_id,omitempty"`
	Processing bool   `json:"processing,omitempty"`
}

// HandleInteraction handles POST on the callback path. The request has
// already passed signature verification. The JSON callback arrives in the
// "payload" form field.
func (h *Handlers) HandleInteraction(w http.ResponseWriter, r *http.Request) {
	receivedAt := h.now()
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := r.ParseForm(); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		loggerFor(r).Warn("callback form unreadable", "category", "input", "error", err)
		writeError(w, http.StatusBadRequest, "invalid form body")
		return
	}

	payload := r.PostForm.Get("payload")
	if payload == "" {
		loggerFor(r).Warn("callback without payload", "category", "input")
		writeError(w, http.StatusBadRequest, "missing payload")
		return
	}

	action, err := incident.DecodeAction([]byte(payload))
	if err != nil {
		loggerFor(r).Warn("callback payload malformed", "category", "input", "error", err)
		writeError(w, http.StatusBadRequest, "malformed payload")
		return
	}

	out, err := h.Gateway.HandleCallback(r.Context(), action, receivedAt)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, interactionResponse{
		OK:         true,
		Status:     string(out.Kind),
		IncidentID: out.IncidentID,
		RunID:      out.RunID,
		Processing: out.Kind == service.OutcomeRunning,
	})
}

// HandleIngest handles POST on the ingestion path and appends one early-stage
// metrics row.
func (h *Handlers) HandleIngest(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[service.IngestRequest](w, r, maxRequestBodySize)
	if !ok {
		return
	}
	if err := h.Ingest.Record(r.Context(), &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"ok": true, "incident_id": req.IncidentID})
}

type healthStatus struct {
	Status   string            `json:"status"`
	InFlight int               `json:"in_flight"`
	Checks   map[string]string `json:"checks,omitempty"`
}

// Health reports liveness, the number of running remediations and the state
// of each configured dependency. Any failing check yields 503.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	status := healthStatus{Status: "ok"}
	if h.Runner != nil {
		status.InFlight = h.Runner.InFlight()
	}

	code := http.StatusOK
	if len(h.Checks) > 0 {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status.Checks = make(map[string]string, len(h.Checks))
		for _, c := range h.Checks {
			if err := c.Check(ctx); err != nil {
				status.Checks[c.Name] = err.Error()
				status.Status = "degraded"
				code = http.StatusServiceUnavailable
				continue
			}
			status.Checks[c.Name] = "ok"
		}
	}
	writeJSON(w, code, status)
}

package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/Strob0t/driftgate/internal/domain"
	"github.com/Strob0t/driftgate/internal/domain/incident"
	"github.com/Strob0t/driftgate/internal/domain/metrics"
	"github.com/Strob0t/driftgate/internal/logger"
	"github.com/Strob0t/driftgate/internal/port/metricsink"
)

// Timestamp accepts RFC 3339 strings or unix seconds (integer or fractional).
type Timestamp struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("timestamp %q: %w", s, err)
		}
		t.Time = parsed
		return nil
	}
	secs, err := strconv.ParseFloat(string(data), 64)
	if err != nil || math.IsNaN(secs) || math.IsInf(secs, 0) || secs < 0 {
		return fmt.Errorf("timestamp %s: want RFC 3339 or unix seconds", data)
	}
	whole, frac := math.Modf(secs)
	t.Time = time.Unix(int64(whole), int64(frac*1e9)).UTC()
	return nil
}

// IngestRequest carries the early pipeline milestones measured by the
// alerting side: alert posted, pre-scan done, and the pre-remediation count.
type IngestRequest struct {
	IncidentID      string     `json:"incident_id"`
	T0              *Timestamp `json:"t0,omitempty"`
	T1              *Timestamp `json:"t1,omitempty"`
	T2              *Timestamp `json:"t2,omitempty"`
	PreFailureCount *int       `json:"pre_failure_count,omitempty"`
}

// Validate checks the request before it is recorded.
func (r *IngestRequest) Validate() error {
	if r.IncidentID == "" {
		return fmt.Errorf("incident_id is required: %w", domain.ErrValidation)
	}
	for name, ts := range map[string]*Timestamp{"t0": r.T0, "t1": r.T1, "t2": r.T2} {
		if ts == nil {
			continue
		}
		if y := ts.UTC().Year(); y < 0 || y > 9999 {
			return fmt.Errorf("%s is out of range: %w", name, domain.ErrValidation)
		}
	}
	if r.PreFailureCount != nil && *r.PreFailureCount < 0 {
		return fmt.Errorf("pre_failure_count must be >= 0: %w", domain.ErrValidation)
	}
	return nil
}

// Ingest records out-of-band metrics rows.
type Ingest struct {
	metrics metricsink.Recorder
}

// NewIngest creates an Ingest service.
func NewIngest(m metricsink.Recorder) *Ingest {
	return &Ingest{metrics: m}
}

// Record appends one partial row for req.
func (s *Ingest) Record(ctx context.Context, req *IngestRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	row := metrics.Row{IncidentID: req.IncidentID}
	for m, ts := range map[incident.Milestone]*Timestamp{
		incident.AlertPosted:      req.T0,
		incident.PreScanDone:      req.T1,
		incident.CallbackReceived: req.T2,
	} {
		if ts != nil {
			row.Timestamps.Set(m, ts.Time)
		}
	}
	if req.PreFailureCount != nil {
		fc := incident.Failures(*req.PreFailureCount)
		row.PreFailure = &fc
	}
	if err := s.metrics.Append(ctx, row); err != nil {
		return fmt.Errorf("record ingest %s: %w", req.IncidentID, err)
	}
	logger.From(ctx).Info("early metrics ingested", "incident_id", req.IncidentID)
	return nil
}

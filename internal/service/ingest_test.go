package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Strob0t/driftgate/internal/domain"
	"github.com/Strob0t/driftgate/internal/domain/incident"
)

func TestIngestTimestampFormats(t *testing.T) {
	var req IngestRequest
	body := `{"incident_id":"d-1","t0":"2026-03-01T11:58:00Z","t1":1772366340,"t2":1772366400.5,"pre_failure_count":4}`
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !req.T0.Equal(time.Date(2026, 3, 1, 11, 58, 0, 0, time.UTC)) {
		t.Errorf("t0 = %v", req.T0)
	}
	if req.T1.Unix() != 1772366340 {
		t.Errorf("t1 = %v", req.T1)
	}
	if req.T2.Nanosecond() != 500_000_000 {
		t.Errorf("t2 fraction lost: %v", req.T2)
	}
}

func TestIngestRejectsBadTimestamp(t *testing.T) {
	var req IngestRequest
	for _, body := range []string{
		`{"incident_id":"d-1","t0":"yesterday"}`,
		`{"incident_id":"d-1","t0":true}`,
		`{"incident_id":"d-1","t0":-5}`,
	} {
		if err := json.Unmarshal([]byte(body), &req); err == nil {
			t.Errorf("expected error for %s", body)
		}
	}
}

func TestIngestRecord(t *testing.T) {
	j := &journal{}
	m := &fakeMetrics{j: j}
	svc := NewIngest(m)

	n := 4
	t0 := Timestamp{time.Date(2026, 3, 1, 11, 58, 0, 0, time.UTC)}
	if err := svc.Record(context.Background(), &IngestRequest{IncidentID: "d-1", T0: &t0, PreFailureCount: &n}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	rows := m.all()
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	r := rows[0]
	if !r.Timestamps.Get(incident.AlertPosted).Equal(t0.Time) {
		t.Errorf("t0 = %v", r.Timestamps.Get(incident.AlertPosted))
	}
	if r.PreFailure.String() != "4" || r.PostFailure != nil || r.Status != "" {
		t.Errorf("unexpected row %+v", r)
	}
}

func TestIngestValidation(t *testing.T) {
	svc := NewIngest(&fakeMetrics{j: &journal{}})
	neg := -1
	for _, req := range []*IngestRequest{
		{},
		{IncidentID: "d-1", PreFailureCount: &neg},
	} {
		if err := svc.Record(context.Background(), req); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("expected ErrValidation for %+v, got %v", req, err)
		}
	}
}

func TestIngestRejectsFarFutureTimestamp(t *testing.T) {
	m := &fakeMetrics{j: &journal{}}
	svc := NewIngest(m)

	var req IngestRequest
	if err := json.Unmarshal([]byte(`{"incident_id":"d-9","t0":1e12}`), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := svc.Record(context.Background(), &req); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if rows := m.all(); len(rows) != 0 {
		t.Fatalf("expected no rows, got %d", len(rows))
	}
}

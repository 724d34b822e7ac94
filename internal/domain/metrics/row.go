// Package metrics defines the fixed-column pipeline metrics row and the
// reader-side reconciliation of partial rows.
package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/Strob0t/driftgate/internal/domain/incident"
)

// TimeLayout is the timestamp format written to metrics rows.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// Header is the fixed column set. Column order never changes.
var Header = []string{
	"incident_id",
	"t0_alert_posted",
	"t1_prescan_done",
	"t2_callback_received",
	"t3_ack_sent",
	"t4_remediation_started",
	"t5_remediation_done",
	"t6_postscan_done",
	"pre_failure_count",
	"post_failure_count",
	"status",
}

const (
	colIncident = 0
	colFirstTS  = 1
	colPre      = 8
	colPost     = 9
	colStatus   = 10
)

// Row is one partial metrics record. Unset fields render as empty columns.
type Row struct {
	IncidentID  string
	Timestamps  incident.Timestamps
	PreFailure  *incident.FailureCount
	PostFailure *incident.FailureCount
	Status      incident.Status
}

// FromIncident snapshots the fields of inc that are currently known.
func FromIncident(inc *incident.Incident) Row {
	return Row{
		IncidentID:  inc.ID,
		Timestamps:  inc.Timestamps,
		PreFailure:  inc.PreFailure,
		PostFailure: inc.PostFailure,
		Status:      inc.Status,
	}
}

// Record renders r in Header column order.
func (r Row) Record() []string {
	rec := make([]string, len(Header))
	rec[colIncident] = r.IncidentID
	for i, ts := range r.Timestamps {
		if !ts.IsZero() {
			rec[colFirstTS+i] = ts.UTC().Format(TimeLayout)
		}
	}
	if r.PreFailure != nil {
		rec[colPre] = r.PreFailure.String()
	}
	if r.PostFailure != nil {
		rec[colPost] = r.PostFailure.String()
	}
	rec[colStatus] = string(r.Status)
	return rec
}

// ParseRecord is the inverse of Record. Unparseable timestamps are an error.
func ParseRecord(rec []string) (Row, error) {
	if len(rec) != len(Header) {
		return Row{}, fmt.Errorf("metrics row has %d columns, want %d", len(rec), len(Header))
	}
	r := Row{IncidentID: rec[colIncident], Status: incident.Status(rec[colStatus])}
	for i := range r.Timestamps {
		v := rec[colFirstTS+i]
		if v == "" {
			continue
		}
		ts, err := time.Parse(TimeLayout, v)
		if err != nil {
			return Row{}, fmt.Errorf("column %s: %w", Header[colFirstTS+i], err)
		}
		r.Timestamps[i] = ts
	}
	r.PreFailure = parseCount(rec[colPre])
	r.PostFailure = parseCount(rec[colPost])
	return r, nil
}

func parseCount(v string) *incident.FailureCount {
	if v == "" {
		return nil
	}
	fc := incident.UnknownFailures
	if n, err := strconv.Atoi(v); err == nil {
		fc = incident.Failures(n)
	}
	return &fc
}

// Reconcile groups rows by incident id and coalesces non-empty fields, later
// rows winning. The result keeps first-seen incident order.
func Reconcile(rows []Row) []Row {
	index := make(map[string]int)
	var out []Row
	for _, r := range rows {
		i, ok := index[r.IncidentID]
		if !ok {
			index[r.IncidentID] = len(out)
			out = append(out, r)
			continue
		}
		merged := &out[i]
		for m, ts := range r.Timestamps {
			if !ts.IsZero() {
				merged.Timestamps[m] = ts
			}
		}
		if r.PreFailure != nil {
			merged.PreFailure = r.PreFailure
		}
		if r.PostFailure != nil {
			merged.PostFailure = r.PostFailure
		}
		if r.Status != "" {
			merged.Status = r.Status
		}
	}
	return out
}

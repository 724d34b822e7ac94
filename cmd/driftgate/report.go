package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/Strob0t/driftgate/internal/adapter/filestore"
	"github.com/Strob0t/driftgate/internal/config"
	"github.com/Strob0t/driftgate/internal/domain/incident"
	"github.com/Strob0t/driftgate/internal/domain/metrics"
)

// reportLine is one reconciled incident. Durations are omitted when either
// milestone is missing.
type reportLine struct {
	IncidentID      string   `json:"incident_id"`
	T0              string   `json:"t0_alert_posted,omitempty"`
	T1              string   `json:"t1_prescan_done,omitempty"`
	T2              string   `json:"t2_callback_received,omitempty"`
	T3              string   `json:"t3_ack_sent,omitempty"`
	T4              string   `json:"t4_remediation_started,omitempty"`
	T5              string   `json:"t5_remediation_done,omitempty"`
	T6              string   `json:"t6_postscan_done,omitempty"`
	PreFailures     string   `json:"pre_failure_count,omitempty"`
	PostFailures    string   `json:"post_failure_count,omitempty"`
	Status          string   `json:"status,omitempty"`
	ApprovalSeconds *float64 `json:"approval_seconds,omitempty"`
	RemediationSecs *float64 `json:"remediation_seconds,omitempty"`
	EndToEndSeconds *float64 `json:"end_to_end_seconds,omitempty"`
}

func newReportLine(r metrics.Row) reportLine {
	rec := r.Record()
	return reportLine{
		IncidentID:      rec[0],
		T0:              rec[1],
		T1:              rec[2],
		T2:              rec[3],
		T3:              rec[4],
		T4:              rec[5],
		T5:              rec[6],
		T6:              rec[7],
		PreFailures:     rec[8],
		PostFailures:    rec[9],
		Status:          rec[10],
		ApprovalSeconds: between(r.Timestamps, incident.AlertPosted, incident.CallbackReceived),
		RemediationSecs: between(r.Timestamps, incident.RemediationStarted, incident.RemediationDone),
		EndToEndSeconds: between(r.Timestamps, incident.AlertPosted, incident.PostScanDone),
	}
}

func between(ts incident.Timestamps, from, to incident.Milestone) *float64 {
	a, b := ts.Get(from), ts.Get(to)
	if a.IsZero() || b.IsZero() {
		return nil
	}
	s := b.Sub(a).Seconds()
	return &s
}

// runReport prints the reconciled contents of a metrics file.
func runReport(args []string) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	format := fs.String("format", "json", "output format: json (one object per line) or table")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: driftgate report [options] [metrics.csv]

Reconciles the partial rows of a metrics file into one record per incident.
The path defaults to $DRIFTGATE_METRICS_FILE or %s.

Options:
`, config.Defaults().Storage.MetricsFile)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	path := fs.Arg(0)
	if path == "" {
		path = os.Getenv("DRIFTGATE_METRICS_FILE")
	}
	if path == "" {
		path = config.Defaults().Storage.MetricsFile
	}

	rows, err := filestore.ReadMetrics(path)
	if err != nil {
		return fmt.Errorf("read metrics: %w", err)
	}
	reconciled := metrics.Reconcile(rows)

	switch *format {
	case "json":
		return writeReportJSON(os.Stdout, reconciled)
	case "table":
		return writeReportTable(os.Stdout, reconciled)
	default:
		return fmt.Errorf("unknown format %q", *format)
	}
}

func writeReportJSON(w io.Writer, rows []metrics.Row) error {
	enc := json.NewEncoder(w)
	for _, r := range rows {
		if err := enc.Encode(newReportLine(r)); err != nil {
			return err
		}
	}
	return nil
}

func writeReportTable(w io.Writer, rows []metrics.Row) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "INCIDENT\tSTATUS\tPRE\tPOST\tAPPROVAL\tREMEDIATION\tEND-TO-END")
	for _, r := range rows {
		l := newReportLine(r)
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			l.IncidentID, l.Status, l.PreFailures, l.PostFailures,
			seconds(l.ApprovalSeconds), seconds(l.RemediationSecs), seconds(l.EndToEndSeconds))
	}
	return tw.Flush()
}

func seconds(s *float64) string {
	if s == nil {
		return "-"
	}
	return (time.Duration(*s * float64(time.Second))).Round(time.Millisecond).String()
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	cfotel "github.com/Strob0t/driftgate/internal/adapter/otel"
	"github.com/Strob0t/driftgate/internal/domain/audit"
	"github.com/Strob0t/driftgate/internal/domain/incident"
	"github.com/Strob0t/driftgate/internal/domain/metrics"
	"github.com/Strob0t/driftgate/internal/logger"
	"github.com/Strob0t/driftgate/internal/port/executor"
	"github.com/Strob0t/driftgate/internal/port/messagequeue"
)

// Remediation runs an approved incident through remediation and the
// post-remediation compliance scan.
type Remediation struct {
	deps        Deps
	remediator  executor.Remediator
	scanner     executor.Scanner
	outputLines int
	publisher   messagequeue.Publisher
}

// NewRemediation creates a Remediation. outputLines bounds the command output
// echoed back to the chat thread.
func NewRemediation(deps Deps, remediator executor.Remediator, scanner executor.Scanner, outputLines int) *Remediation {
	return &Remediation{
		deps:        deps,
		remediator:  remediator,
		scanner:     scanner,
		outputLines: outputLines,
	}
}

// SetPublisher enables lifecycle events.
func (r *Remediation) SetPublisher(p messagequeue.Publisher) {
	r.publisher = p
}

// Run executes the pipeline for inc, which must be in StatusRunning and is
// owned by the caller's goroutine from here on. The completion marker is
// written last, after the audit entry and the metrics row.
func (r *Remediation) Run(ctx context.Context, inc *incident.Incident) {
	ctx = logger.WithIncident(ctx, inc.ID)
	log := logger.From(ctx).With("run_id", inc.RunID, "environment", inc.Environment)
	ctx, span := cfotel.StartRunSpan(ctx, inc.RunID, inc.ID, inc.Environment)
	defer span.End()

	started := r.deps.now()
	inc.Timestamps.Set(incident.RemediationStarted, started)
	r.deps.Telemetry.RecordStart(ctx)
	log.Info("remediation started")

	execCtx, execSpan := cfotel.StartExecSpan(ctx, inc.RunID)
	res := r.remediator.Remediate(execCtx, inc)
	execSpan.End()

	finished := r.deps.now()
	inc.Timestamps.Set(incident.RemediationDone, finished)
	inc.Status = incident.StatusSucceeded
	if !res.Succeeded() {
		inc.Status = incident.StatusFailed
	}
	log.Info("remediation finished", "exit_code", res.ExitCode, "status", inc.Status, "duration", finished.Sub(started))
	if res.Err != nil {
		log.Error("remediation did not complete", "category", "exec", "error", res.Err)
	}
	r.deps.reply(ctx, inc, r.remediationText(inc, res))

	scanCtx, scanSpan := cfotel.StartScanSpan(ctx, inc.RunID)
	post := r.scanner.Scan(scanCtx, inc)
	scanSpan.End()
	inc.Timestamps.Set(incident.PostScanDone, r.deps.now())
	inc.PostFailure = &post
	r.deps.reply(ctx, inc, fmt.Sprintf("Post-remediation compliance scan for `%s`: %s failing checks.", inc.ID, post))

	auditStatus := audit.StatusSuccess
	if inc.Status == incident.StatusFailed {
		auditStatus = audit.StatusFailed
	}
	r.deps.audit(ctx, inc, auditStatus, runDetail(inc, res))
	r.deps.record(ctx, inc)
	r.publish(ctx, inc, res)

	n, known := post.Value()
	r.deps.Telemetry.RecordRemediation(ctx, res.Succeeded(), finished.Sub(started).Seconds(), n, known)

	if inc.ID == "" {
		return
	}
	if err := r.deps.Store.MarkDone(ctx, inc.ID, r.deps.now()); err != nil {
		log.Error("completion marker not written", "category", "persistence", "error", err)
	}
}

func (r *Remediation) remediationText(inc *incident.Incident, res executor.Result) string {
	text := fmt.Sprintf("Remediation for `%s` %s (exit code %d).", inc.ID, inc.Status, res.ExitCode)
	if res.Err != nil {
		text = fmt.Sprintf("Remediation for `%s` could not complete: %v", inc.ID, res.Err)
	}
	if out := res.Head(r.outputLines); out != "" {
		text += "\n```\n" + out + "\n```"
	}
	return text
}

func runDetail(inc *incident.Incident, res executor.Result) string {
	detail := fmt.Sprintf("run=%s exit=%d post_failures=%s", inc.RunID, res.ExitCode, inc.PostFailure)
	if res.Err != nil {
		detail += " error=" + res.Err.Error()
	}
	if inc.ID == "" {
		detail += "; " + bypassDetail
	}
	return detail
}

// publish emits the final snapshot on incidents.<status>.
func (r *Remediation) publish(ctx context.Context, inc *incident.Incident, res executor.Result) {
	if r.publisher == nil {
		return
	}
	payload := messagequeue.IncidentEventPayload{
		IncidentID:  inc.ID,
		RunID:       inc.RunID,
		Environment: inc.Environment,
		Actor:       inc.Actor,
		Decision:    string(inc.Decision),
		Status:      string(inc.Status),
		ExitCode:    &res.ExitCode,
		Timestamps:  make(map[string]string),
	}
	if inc.PostFailure != nil {
		payload.PostFailures = inc.PostFailure.String()
	}
	for i, ts := range inc.Timestamps {
		if !ts.IsZero() {
			payload.Timestamps[metrics.Header[1+i]] = ts.UTC().Format(time.RFC3339Nano)
		}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		logger.From(ctx).Error("marshal lifecycle event", "error", err)
		return
	}
	if err := r.publisher.Publish(ctx, messagequeue.SubjectIncident(string(inc.Status)), data); err != nil {
		logger.From(ctx).Warn("lifecycle event not published", "category", "notify", "error", err)
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Strob0t/driftgate/internal/domain"
	"github.com/Strob0t/driftgate/internal/domain/audit"
	"github.com/Strob0t/driftgate/internal/domain/incident"
	"github.com/Strob0t/driftgate/internal/logger"
)

// OutcomeKind is the synchronous result of handling one callback.
type OutcomeKind string

const (
	OutcomeIgnored   OutcomeKind = "ignored"
	OutcomeDuplicate OutcomeKind = "duplicate"
	OutcomeRejected  OutcomeKind = "rejected"
	OutcomeRunning   OutcomeKind = "running"
)

// Outcome describes what HandleCallback did.
type Outcome struct {
	Kind       OutcomeKind
	IncidentID string
	RunID      string
}

// bypassDetail is appended to audit details when an incident has no id and
// duplicate suppression could not apply.
const bypassDetail = "idempotency bypassed: no incident id"

// ackTimeLayout renders the approval time in the acknowledgement text.
const ackTimeLayout = "2006-01-02 15:04:05 MST"

// Gateway turns decoded callbacks into acknowledgements, audit entries and
// background remediation runs.
type Gateway struct {
	deps        Deps
	runner      *Runner
	remediation *Remediation
	loc         *time.Location
}

// NewGateway creates a Gateway. loc is the time zone shown in acknowledgements.
func NewGateway(deps Deps, runner *Runner, remediation *Remediation, loc *time.Location) *Gateway {
	if loc == nil {
		loc = time.UTC
	}
	return &Gateway{deps: deps, runner: runner, remediation: remediation, loc: loc}
}

// HandleCallback processes one authenticated callback. Approvals return as
// soon as the run is scheduled; the run itself continues in the background.
// An error means the approval could not be scheduled.
func (g *Gateway) HandleCallback(ctx context.Context, a incident.Action, receivedAt time.Time) (Outcome, error) {
	out, err := g.handle(ctx, a, receivedAt)
	g.deps.Telemetry.RecordCallback(ctx, string(out.Kind))
	return out, err
}

func (g *Gateway) handle(ctx context.Context, a incident.Action, receivedAt time.Time) (Outcome, error) {
	inc := incident.FromAction(a)
	ctx = logger.WithIncident(ctx, inc.ID)
	log := logger.From(ctx).With("decision", inc.Decision, "actor", inc.Actor)

	if !a.Known() {
		log.Info("callback ignored", "category", "input", "label", a.Label)
		err := g.deps.Audit.Append(ctx, audit.Entry{
			Time:   g.deps.now(),
			Actor:  a.Actor,
			Action: a.Label,
			Status: audit.StatusIgnored,
			Detail: "unrecognised action",
		})
		if err != nil {
			log.Error("audit append failed", "category", "persistence", "error", err)
		}
		return Outcome{Kind: OutcomeIgnored, IncidentID: a.IncidentID}, nil
	}

	// t2 belongs to the upstream alerting side; it arrives via ingest.
	log.Info("callback received", "received_at", receivedAt.UTC().Format(time.RFC3339Nano))
	g.acknowledge(ctx, inc)
	inc.Status = incident.StatusAcknowledged
	g.deps.record(ctx, inc)

	bypass := inc.ID == ""
	if bypass {
		log.Warn("callback has no incident id; duplicate suppression bypassed", "category", "input")
	} else {
		done, err := g.deps.Store.Exists(ctx, inc.ID)
		if err != nil {
			log.Error("marker lookup failed", "category", "persistence", "error", err)
		}
		if done {
			return g.duplicate(ctx, inc), nil
		}
	}

	if inc.Decision == incident.DecisionReject {
		return g.reject(ctx, inc, bypass), nil
	}
	return g.approve(ctx, inc, bypass)
}

func (g *Gateway) acknowledge(ctx context.Context, inc *incident.Incident) {
	verb := "Approved"
	if inc.Decision == incident.DecisionReject {
		verb = "Rejected"
	}
	text := fmt.Sprintf("%s by %s at %s", verb, inc.Actor, g.deps.now().In(g.loc).Format(ackTimeLayout))

	res := g.deps.Notifier.Acknowledge(ctx, inc.Routing, text)
	if !res.Delivered {
		logger.From(ctx).Warn("acknowledgement failed", "category", "notify", "notifier", g.deps.Notifier.Name(), "error", res.Err)
		g.deps.Telemetry.RecordNotifyFailure(ctx, "ack")
		return
	}
	inc.Timestamps.Set(incident.AckSent, g.deps.now())
}

func (g *Gateway) duplicate(ctx context.Context, inc *incident.Incident) Outcome {
	inc.Status = incident.StatusDuplicate
	logger.From(ctx).Info("duplicate callback ignored")
	g.deps.reply(ctx, inc, fmt.Sprintf("Incident `%s` was already handled; duplicate ignored.", inc.ID))
	g.deps.audit(ctx, inc, audit.StatusDuplicate, "already handled")
	return Outcome{Kind: OutcomeDuplicate, IncidentID: inc.ID}
}

func (g *Gateway) reject(ctx context.Context, inc *incident.Incident, bypass bool) Outcome {
	inc.Status = incident.StatusRejected
	detail := "rejected; no remediation"
	if bypass {
		detail += "; " + bypassDetail
	}
	g.deps.audit(ctx, inc, audit.StatusNoOp, detail)
	g.deps.reply(ctx, inc, fmt.Sprintf("Remediation for `%s` rejected by %s. No changes were made.", inc.ID, inc.Actor))
	g.deps.record(ctx, inc)
	logger.From(ctx).Info("remediation rejected")
	return Outcome{Kind: OutcomeRejected, IncidentID: inc.ID}
}

func (g *Gateway) approve(ctx context.Context, inc *incident.Incident, bypass bool) (Outcome, error) {
	log := logger.From(ctx)
	if !bypass {
		err := g.deps.Store.Claim(ctx, inc.ID, g.deps.now())
		if errors.Is(err, domain.ErrAlreadyClaimed) {
			return g.duplicate(ctx, inc), nil
		}
		if err != nil {
			log.Error("claim failed; remediation not started", "category", "persistence", "error", err)
			g.deps.audit(ctx, inc, audit.StatusFailed, "claim failed: "+err.Error())
			return Outcome{}, fmt.Errorf("claim %s: %w", inc.ID, err)
		}
	}

	inc.RunID = uuid.NewString()
	inc.Status = incident.StatusRunning
	detail := "run=" + inc.RunID
	if bypass {
		detail += "; " + bypassDetail
	}
	g.deps.audit(ctx, inc, audit.StatusRunning, detail)

	runID, id := inc.RunID, inc.ID
	err := g.runner.Submit(ctx, func(bg context.Context) {
		g.remediation.Run(bg, inc)
	})
	if err != nil {
		log.Error("remediation not scheduled", "category", "exec", "run_id", runID, "error", err)
		inc.Status = incident.StatusFailed
		g.deps.audit(ctx, inc, audit.StatusFailed, "run="+runID+" not scheduled: "+err.Error())
		return Outcome{}, fmt.Errorf("schedule %s: %w", id, err)
	}
	log.Info("remediation scheduled", "run_id", runID)
	return Outcome{Kind: OutcomeRunning, IncidentID: id, RunID: runID}, nil
}

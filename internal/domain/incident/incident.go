// Package incident models one drift-alert-to-remediation lifecycle.
package incident

import (
	"strconv"
	"time"
)

// Decision is the operator's choice extracted from a callback.
type Decision string

const (
	DecisionApprove Decision = "Approve"
	DecisionReject  Decision = "Reject"
	DecisionUnknown Decision = ""
)

// Status is the pipeline state of an incident.
type Status string

const (
	StatusPending      Status = "pending"
	StatusAcknowledged Status = "acknowledged"
	StatusRejected     Status = "rejected"
	StatusRunning      Status = "running"
	StatusSucceeded    Status = "succeeded"
	StatusFailed       Status = "failed"
	StatusDuplicate    Status = "duplicate"
)

// Terminal reports whether no further transition can follow s.
func (s Status) Terminal() bool {
	switch s {
	case StatusRejected, StatusSucceeded, StatusFailed, StatusDuplicate:
		return true
	}
	return false
}

// UnknownActor is recorded when the callback carries no user identity.
const UnknownActor = "unknown"

// Routing holds opaque reply tokens supplied by the callback. They are only
// passed back to the chat platform, never interpreted.
type Routing struct {
	Channel string `json:"reply_channel,omitempty"`
	Thread  string `json:"reply_thread,omitempty"`
	URL     string `json:"reply_url,omitempty"`
}

// Empty reports whether no routing metadata is present at all.
func (r Routing) Empty() bool {
	return r.Channel == "" && r.Thread == "" && r.URL == ""
}

// Milestone indexes the fixed timestamp slots t0..t6.
type Milestone int

const (
	AlertPosted Milestone = iota
	PreScanDone
	CallbackReceived
	AckSent
	RemediationStarted
	RemediationDone
	PostScanDone

	milestoneCount
)

// Timestamps holds the milestone instants; a zero time means "not recorded".
type Timestamps [milestoneCount]time.Time

// Set records t for milestone m.
func (ts *Timestamps) Set(m Milestone, t time.Time) {
	ts[m] = t
}

// Get returns the instant recorded for m.
func (ts *Timestamps) Get(m Milestone) time.Time {
	return ts[m]
}

// FailureCount is a non-negative count of failing compliance checks, or the
// "unknown" sentinel when the scanner output could not be interpreted.
type FailureCount struct {
	n     int
	known bool
}

// Failures returns a known count. Negative values are clamped to zero.
func Failures(n int) FailureCount {
	if n < 0 {
		n = 0
	}
	return FailureCount{n: n, known: true}
}

// UnknownFailures is the sentinel for an unmeasurable count.
var UnknownFailures = FailureCount{}

// Value returns the count and whether it is known.
func (f FailureCount) Value() (int, bool) {
	return f.n, f.known
}

func (f FailureCount) String() string {
	if !f.known {
		return "unknown"
	}
	return strconv.Itoa(f.n)
}

// Incident is the in-flight context of one callback. It is owned by the request
// or background task that created it and discarded on completion.
type Incident struct {
	ID          string
	RunID       string
	Environment string
	Decision    Decision
	Actor       string
	Routing     Routing
	Timestamps  Timestamps
	PreFailure  *FailureCount
	PostFailure *FailureCount
	Status      Status
}

// FromAction builds a pending incident from a decoded callback.
func FromAction(a Action) *Incident {
	return &Incident{
		ID:          a.IncidentID,
		Environment: a.Environment,
		Decision:    a.Decision,
		Actor:       a.Actor,
		Routing:     a.Routing,
		Status:      StatusPending,
	}
}

// Label renders the audit action label, e.g. "Approve:abc123".
func (i *Incident) Label() string {
	return string(i.Decision) + ":" + i.ID
}

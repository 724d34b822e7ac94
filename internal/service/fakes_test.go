package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Strob0t/driftgate/internal/domain"
	"github.com/Strob0t/driftgate/internal/domain/audit"
	"github.com/Strob0t/driftgate/internal/domain/incident"
	"github.com/Strob0t/driftgate/internal/domain/metrics"
	"github.com/Strob0t/driftgate/internal/port/executor"
	"github.com/Strob0t/driftgate/internal/port/notifier"
)

// journal records side effects across all fakes in the order they happen.
type journal struct {
	mu     sync.Mutex
	events []string
}

func (j *journal) add(format string, args ...any) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, fmt.Sprintf(format, args...))
}

func (j *journal) list() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.events...)
}

func (j *journal) index(event string) int {
	for i, e := range j.list() {
		if e == event {
			return i
		}
	}
	return -1
}

type fakeStore struct {
	j       *journal
	mu      sync.Mutex
	claimed map[string]bool
	done    map[string]bool
	err     error
}

func newFakeStore(j *journal) *fakeStore {
	return &fakeStore{j: j, claimed: map[string]bool{}, done: map[string]bool{}}
}

func (s *fakeStore) Exists(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done[id], s.err
}

func (s *fakeStore) Claim(_ context.Context, id string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if s.claimed[id] || s.done[id] {
		return domain.ErrAlreadyClaimed
	}
	s.claimed[id] = true
	s.j.add("claim %s", id)
	return nil
}

func (s *fakeStore) MarkDone(_ context.Context, id string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done[id] = true
	s.j.add("done %s", id)
	return nil
}

type fakeNotifier struct {
	j    *journal
	mu   sync.Mutex
	acks []string
	msgs []string
	fail bool
}

func (n *fakeNotifier) Name() string { return "fake" }

func (n *fakeNotifier) Acknowledge(_ context.Context, _ incident.Routing, text string) notifier.Result {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.j.add("ack")
	if n.fail {
		return notifier.Failed(errors.New("platform down"))
	}
	n.acks = append(n.acks, text)
	return notifier.Delivered()
}

func (n *fakeNotifier) Reply(_ context.Context, _ incident.Routing, text string) notifier.Result {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.j.add("reply")
	if n.fail {
		return notifier.Failed(errors.New("platform down"))
	}
	n.msgs = append(n.msgs, text)
	return notifier.Delivered()
}

func (n *fakeNotifier) replies() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.msgs...)
}

type fakeAudit struct {
	j       *journal
	mu      sync.Mutex
	entries []audit.Entry
	err     error
}

func (a *fakeAudit) Append(_ context.Context, e audit.Entry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.j.add("audit %s", e.Status)
	a.entries = append(a.entries, e)
	return a.err
}

func (a *fakeAudit) statuses() []audit.Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]audit.Status, len(a.entries))
	for i, e := range a.entries {
		out[i] = e.Status
	}
	return out
}

type fakeMetrics struct {
	j    *journal
	mu   sync.Mutex
	rows []metrics.Row
}

func (m *fakeMetrics) Append(_ context.Context, r metrics.Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.j.add("metrics %s", r.Status)
	m.rows = append(m.rows, r)
	return nil
}

func (m *fakeMetrics) all() []metrics.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]metrics.Row(nil), m.rows...)
}

type fakeRemediator struct {
	j      *journal
	result executor.Result
	delay  time.Duration
	mu     sync.Mutex
	runs   int
}

func (r *fakeRemediator) Remediate(_ context.Context, inc *incident.Incident) executor.Result {
	r.mu.Lock()
	r.runs++
	r.mu.Unlock()
	r.j.add("remediate %s", inc.ID)
	time.Sleep(r.delay)
	return r.result
}

func (r *fakeRemediator) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs
}

type fakeScanner struct {
	j     *journal
	count incident.FailureCount
}

func (s *fakeScanner) Scan(_ context.Context, _ *incident.Incident) incident.FailureCount {
	s.j.add("scan")
	return s.count
}

type fakePublisher struct {
	mu       sync.Mutex
	subjects []string
}

func (p *fakePublisher) Publish(_ context.Context, subject string, _ []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

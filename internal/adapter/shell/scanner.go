package shell

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/Strob0t/driftgate/internal/config"
	"github.com/Strob0t/driftgate/internal/domain/incident"
	"github.com/Strob0t/driftgate/internal/port/executor"
)

// targetPlaceholder is replaced in the compliance command with the target dir.
const targetPlaceholder = "{target}"

// Scanner runs the compliance scanner and counts failing checks.
type Scanner struct {
	command []string
	target  string
	timeout time.Duration

	// execCommand is swappable for testing.
	execCommand func(ctx context.Context, name string, args ...string) *exec.Cmd
}

// NewScanner builds a Scanner from the compliance config.
func NewScanner(cfg config.Compliance) *Scanner {
	return &Scanner{
		command:     cfg.Command,
		target:      cfg.TargetDir,
		timeout:     cfg.Timeout,
		execCommand: exec.CommandContext,
	}
}

// Target returns the scanned directory.
func (s *Scanner) Target() string { return s.target }

// Scan runs the scanner and parses its JSON report from stdout. The exit
// status is ignored when the report parses, since scanners exit non-zero
// whenever a check fails. Anything unparseable yields UnknownFailures.
func (s *Scanner) Scan(ctx context.Context, inc *incident.Incident) incident.FailureCount {
	if len(s.command) == 0 {
		return incident.UnknownFailures
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	args := make([]string, len(s.command)-1)
	for i, a := range s.command[1:] {
		args[i] = strings.ReplaceAll(a, targetPlaceholder, s.target)
	}

	cmd := s.execCommand(ctx, s.command[0], args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		slog.Warn("compliance scan did not run", "category", "exec", "incident_id", inc.ID, "error", err)
		return incident.UnknownFailures
	}

	count, ok := ParseFailures(stdout.Bytes())
	if !ok {
		slog.Warn("compliance report unreadable", "category", "exec", "incident_id", inc.ID,
			"stderr", executor.Head(stderr.String(), 5))
		return incident.UnknownFailures
	}
	return count
}

type report struct {
	Summary *struct {
		Failed *int `json:"failed"`
	} `json:"summary"`
}

func (r report) failed() (int, bool) {
	if r.Summary == nil || r.Summary.Failed == nil {
		return 0, false
	}
	return *r.Summary.Failed, true
}

// ParseFailures reads a report object {"summary":{"failed":N}} or an array of
// such objects, one per framework, summing their counts.
func ParseFailures(data []byte) (incident.FailureCount, bool) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return incident.UnknownFailures, false
	}

	if data[0] == '[' {
		var reports []report
		if err := json.Unmarshal(data, &reports); err != nil || len(reports) == 0 {
			return incident.UnknownFailures, false
		}
		total := 0
		for _, r := range reports {
			n, ok := r.failed()
			if !ok {
				return incident.UnknownFailures, false
			}
			total += n
		}
		return incident.Failures(total), true
	}

	var r report
	if err := json.Unmarshal(data, &r); err != nil {
		return incident.UnknownFailures, false
	}
	n, ok := r.failed()
	if !ok {
		return incident.UnknownFailures, false
	}
	return incident.Failures(n), true
}

// Package executor defines the ports for the external remediation and
// compliance-scan tools.
package executor

import (
	"context"
	"strings"

	"github.com/Strob0t/driftgate/internal/domain/incident"
)

// Result is the captured outcome of a remediation run. A non-zero ExitCode is
// data, not an error; Err is set only when the command could not be run.
type Result struct {
	ExitCode int
	Output   string
	Err      error
}

// Succeeded reports a zero exit status with no launch error.
func (r Result) Succeeded() bool {
	return r.Err == nil && r.ExitCode == 0
}

// Head returns at most n leading lines of the captured output.
func (r Result) Head(n int) string {
	return Head(r.Output, n)
}

// Head returns at most n leading lines of s without a trailing newline.
func Head(s string, n int) string {
	s = strings.TrimRight(s, "\n")
	if n <= 0 || s == "" {
		return ""
	}
	lines := strings.SplitN(s, "\n", n+1)
	if len(lines) > n {
		lines = lines[:n]
	}
	return strings.Join(lines, "\n")
}

// Remediator applies the fix for an incident.
type Remediator interface {
	Remediate(ctx context.Context, inc *incident.Incident) Result
}

// Scanner reports the number of currently failing compliance checks, or
// incident.UnknownFailures when the report cannot be interpreted.
type Scanner interface {
	Scan(ctx context.Context, inc *incident.Incident) incident.FailureCount
}

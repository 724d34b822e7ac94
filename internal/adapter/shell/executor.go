// Package shell runs the external remediation and compliance-scan commands.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/Strob0t/driftgate/internal/config"
	"github.com/Strob0t/driftgate/internal/domain/incident"
	"github.com/Strob0t/driftgate/internal/port/executor"
)

// Environment variables exported to the remediation command.
const (
	EnvIncidentID  = "DRIFT_INCIDENT_ID"
	EnvEnvironment = "DRIFT_ENVIRONMENT"
)

// Executor runs the configured remediation command.
type Executor struct {
	command []string
	workDir string
	timeout time.Duration

	// execCommand is swappable for testing.
	execCommand func(ctx context.Context, name string, args ...string) *exec.Cmd
}

// NewExecutor builds an Executor from the remediation config.
func NewExecutor(cfg config.Remediation) *Executor {
	return &Executor{
		command:     cfg.Command,
		workDir:     cfg.WorkDir,
		timeout:     cfg.Timeout,
		execCommand: exec.CommandContext,
	}
}

// Command returns the program name, for logs and spans.
func (e *Executor) Command() string {
	if len(e.command) == 0 {
		return ""
	}
	return e.command[0]
}

// Remediate runs the command to completion with no stdin, capturing stdout and
// stderr together. A non-zero exit is reported in Result.ExitCode.
func (e *Executor) Remediate(ctx context.Context, inc *incident.Incident) executor.Result {
	if len(e.command) == 0 {
		return executor.Result{ExitCode: -1, Err: errors.New("remediation command is empty")}
	}
	ctx, cancel := withTimeout(ctx, e.timeout)
	defer cancel()

	cmd := e.execCommand(ctx, e.command[0], e.command[1:]...)
	cmd.Dir = e.workDir
	cmd.Stdin = nil
	cmd.Env = append(os.Environ(),
		EnvIncidentID+"="+inc.ID,
		EnvEnvironment+"="+inc.Environment,
	)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	res := executor.Result{Output: out.String()}
	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case ctx.Err() != nil:
		res.ExitCode = -1
		res.Err = fmt.Errorf("remediation aborted: %w", ctx.Err())
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	default:
		res.ExitCode = -1
		res.Err = fmt.Errorf("run %s: %w", e.command[0], err)
	}

	slog.Debug("remediation command finished", "command", e.command[0], "exit_code", res.ExitCode, "output_bytes", out.Len())
	return res
}

// withTimeout applies d when positive; zero means no limit.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

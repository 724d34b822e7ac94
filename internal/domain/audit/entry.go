// Package audit defines the append-only audit trail entry.
package audit

import (
	"strings"
	"time"
)

// Status is the outcome label recorded for an audited event.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSuccess   Status = "success"
	StatusFailed    Status = "failed"
	StatusNoOp      Status = "no-op"
	StatusDuplicate Status = "duplicate"
	StatusIgnored   Status = "ignored"
)

// Entry is one immutable audit record.
type Entry struct {
	Time   time.Time `json:"time"`
	Actor  string    `json:"actor"`
	Action string    `json:"action"`
	Status Status    `json:"status"`
	Detail string    `json:"detail,omitempty"`
}

// fieldSep separates fields on a rendered line.
const fieldSep = " | "

// Line renders e as a single human-readable line without the trailing newline.
// Line breaks and separators inside fields are flattened so an entry never
// spans more than one line.
func (e Entry) Line() string {
	fields := []string{
		e.Time.UTC().Format(time.RFC3339),
		flatten(e.Actor),
		flatten(e.Action),
		flatten(string(e.Status)),
	}
	if e.Detail != "" {
		fields = append(fields, flatten(e.Detail))
	}
	return strings.Join(fields, fieldSep)
}

var flattener = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ", fieldSep, " / ")

func flatten(s string) string {
	return flattener.Replace(s)
}

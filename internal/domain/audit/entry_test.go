package audit

import (
	"strings"
	"testing"
	"time"
)

func TestEntryLine(t *testing.T) {
	e := Entry{
		Time:   time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC),
		Actor:  "U123",
		Action: "Approve:d-1",
		Status: StatusSuccess,
		Detail: "exit=0 post_failures=2",
	}
	want := "2026-03-01T12:30:00Z | U123 | Approve:d-1 | success | exit=0 post_failures=2"
	if got := e.Line(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestEntryLineOmitsEmptyDetail(t *testing.T) {
	e := Entry{Time: time.Unix(0, 0), Actor: "bob", Action: "Reject:d-2", Status: StatusNoOp}
	if strings.Count(e.Line(), fieldSep) != 3 {
		t.Errorf("expected 4 fields, got %q", e.Line())
	}
}

func TestEntryLineFlattensNewlines(t *testing.T) {
	e := Entry{
		Time:   time.Unix(0, 0),
		Actor:  "eve\nmallory",
		Action: "Approve:x",
		Status: StatusFailed,
		Detail: "line one\r\nline two | injected",
	}
	line := e.Line()
	if strings.ContainsAny(line, "\r\n") {
		t.Fatalf("line contains a line break: %q", line)
	}
	if strings.Count(line, fieldSep) != 4 {
		t.Errorf("separator injection changed the field count: %q", line)
	}
}

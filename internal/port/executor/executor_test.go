package executor

import (
	"strings"
	"testing"
)

func TestHead(t *testing.T) {
	var b strings.Builder
	for i := range 40 {
		b.WriteString("line ")
		b.WriteString(strings.Repeat("x", i%3))
		b.WriteString("\n")
	}
	got := Result{Output: b.String()}.Head(30)
	if n := strings.Count(got, "\n") + 1; n != 30 {
		t.Fatalf("expected 30 lines, got %d", n)
	}
	if Head("a\nb\n", 30) != "a\nb" {
		t.Errorf("short output changed: %q", Head("a\nb\n", 30))
	}
	if Head("", 30) != "" || Head("a", 0) != "" {
		t.Error("empty input or zero limit should give empty output")
	}
}

func TestSucceeded(t *testing.T) {
	if !(Result{}).Succeeded() {
		t.Error("zero exit without error should succeed")
	}
	if (Result{ExitCode: 2}).Succeeded() {
		t.Error("non-zero exit should fail")
	}
}

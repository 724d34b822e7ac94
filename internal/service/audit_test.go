package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Strob0t/driftgate/internal/domain/audit"
)

func TestAuditTrailMirrorFailureIsNotReturned(t *testing.T) {
	j := &journal{}
	primary := &fakeAudit{j: j}
	mirror := &fakeAudit{j: j, err: errors.New("db down")}
	trail := NewAuditTrail(primary, mirror)

	e := audit.Entry{Time: time.Now(), Actor: "U1", Action: "Approve:d-1", Status: audit.StatusRunning}
	if err := trail.Append(context.Background(), e); err != nil {
		t.Fatalf("mirror failure leaked: %v", err)
	}
	if len(primary.entries) != 1 || len(mirror.entries) != 1 {
		t.Fatal("entry must reach every sink")
	}
}

func TestAuditTrailPrimaryFailureIsReturned(t *testing.T) {
	j := &journal{}
	trail := NewAuditTrail(&fakeAudit{j: j, err: errors.New("disk full")})
	if err := trail.Append(context.Background(), audit.Entry{}); err == nil {
		t.Fatal("expected primary error")
	}
}

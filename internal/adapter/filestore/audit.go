package filestore

import (
	"context"
	"sync"

	"github.com/Strob0t/driftgate/internal/domain/audit"
)

// AuditLog appends one line per entry to a plain-text file.
type AuditLog struct {
	path string
	mu   sync.Mutex
}

// NewAuditLog returns an audit log writing to path. The file and its parent
// directories are created on first write.
func NewAuditLog(path string) *AuditLog {
	return &AuditLog{path: path}
}

// Path returns the log file location.
func (l *AuditLog) Path() string { return l.path }

// Append writes e as a single line.
func (l *AuditLog) Append(_ context.Context, e audit.Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return withLock(l.path, func() error {
		return appendFile(l.path, []byte(e.Line()+"\n"))
	})
}

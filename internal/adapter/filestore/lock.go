// Package filestore implements the append-only audit log, the metrics CSV and
// the incident marker store on the local filesystem.
//
// Every write takes an advisory lock on a sibling ".lock" file so that
// several gateway processes sharing a directory never interleave records.
package filestore

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

const (
	dirPerm  = 0o750
	filePerm = 0o640
)

// withLock runs fn while holding an exclusive lock for path.
func withLock(path string, fn func() error) error {
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}
	lk := flock.New(path + ".lock")
	if err := lk.Lock(); err != nil {
		return fmt.Errorf("lock %s: %w", path, err)
	}
	defer func() { _ = lk.Unlock() }()
	return fn()
}

// appendFile opens path for appending, writes data and closes it again.
func appendFile(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, filePerm) //nolint:gosec // operator-configured path
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

package filestore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/Strob0t/driftgate/internal/domain"
)

const (
	claimSuffix = ".claim"
	doneSuffix  = ".done"

	// maxMarkerName keeps name plus suffix under the usual 255-byte limit.
	maxMarkerName = 200
	hashedPrefix  = "%sha256-"
)

// MarkerStore keeps one claim file and one completion file per incident id in
// a directory. Claims are created with O_EXCL so exactly one caller wins.
type MarkerStore struct {
	dir string
}

// NewMarkerStore returns a store rooted at dir, creating it if needed.
func NewMarkerStore(dir string) (*MarkerStore, error) {
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, fmt.Errorf("marker dir %s: %w", dir, err)
	}
	return &MarkerStore{dir: dir}, nil
}

// markerName escapes an incident id into a single path element. Ids that
// escape to more than maxMarkerName bytes are replaced by their SHA-256.
// PathEscape never emits "%s", so hashed names cannot collide with escaped ones.
func markerName(id string) string {
	name := url.PathEscape(id)
	if len(name) <= maxMarkerName {
		return name
	}
	sum := sha256.Sum256([]byte(id))
	return hashedPrefix + hex.EncodeToString(sum[:])
}

func (s *MarkerStore) path(id, suffix string) string {
	return filepath.Join(s.dir, markerName(id)+suffix)
}

// Exists reports whether a completion marker exists for id.
func (s *MarkerStore) Exists(_ context.Context, id string) (bool, error) {
	_, err := os.Stat(s.path(id, doneSuffix))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat marker %s: %w", id, err)
}

// Claim atomically creates the claim file for id. It returns
// domain.ErrAlreadyClaimed when the id was claimed or completed before.
func (s *MarkerStore) Claim(ctx context.Context, id string, at time.Time) error {
	done, err := s.Exists(ctx, id)
	if err != nil {
		return err
	}
	if done {
		return fmt.Errorf("incident %s: %w", id, domain.ErrAlreadyClaimed)
	}

	f, err := os.OpenFile(s.path(id, claimSuffix), os.O_CREATE|os.O_EXCL|os.O_WRONLY, filePerm)
	if errors.Is(err, os.ErrExist) {
		return fmt.Errorf("incident %s: %w", id, domain.ErrAlreadyClaimed)
	}
	if err != nil {
		return fmt.Errorf("claim marker %s: %w", id, err)
	}
	if _, err := f.WriteString(at.UTC().Format(time.RFC3339Nano) + "\n"); err != nil {
		_ = f.Close()
		return fmt.Errorf("claim marker %s: %w", id, err)
	}
	return f.Close()
}

// MarkDone writes the completion marker for id. Repeated calls keep the first
// recorded timestamp.
func (s *MarkerStore) MarkDone(_ context.Context, id string, at time.Time) error {
	f, err := os.OpenFile(s.path(id, doneSuffix), os.O_CREATE|os.O_EXCL|os.O_WRONLY, filePerm)
	if errors.Is(err, os.ErrExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("done marker %s: %w", id, err)
	}
	if _, err := f.WriteString(at.UTC().Format(time.RFC3339Nano) + "\n"); err != nil {
		_ = f.Close()
		return fmt.Errorf("done marker %s: %w", id, err)
	}
	return f.Close()
}

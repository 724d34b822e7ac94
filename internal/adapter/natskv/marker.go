// Package natskv implements the incident marker store on a NATS JetStream
// key-value bucket, for deployments running several gateway replicas.
package natskv

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/Strob0t/driftgate/internal/domain"
)

// KeyValue is the subset of jetstream.KeyValue used by the store.
type KeyValue interface {
	Get(ctx context.Context, key string) (jetstream.KeyValueEntry, error)
	Put(ctx context.Context, key string, value []byte) (uint64, error)
	Update(ctx context.Context, key string, value []byte, revision uint64) (uint64, error)
}

// MarkerStore keeps claim and completion keys per incident in one bucket.
type MarkerStore struct {
	kv KeyValue
}

// New wraps a JetStream KV bucket.
func New(kv KeyValue) *MarkerStore {
	return &MarkerStore{kv: kv}
}

// Incident ids are free-form; KV keys only allow a small alphabet.
func key(kind, id string) string {
	return kind + "." + base64.RawURLEncoding.EncodeToString([]byte(id))
}

// Exists reports whether the completion key for id is present.
func (s *MarkerStore) Exists(ctx context.Context, id string) (bool, error) {
	return s.has(ctx, key("done", id))
}

func (s *MarkerStore) has(ctx context.Context, k string) (bool, error) {
	_, err := s.kv.Get(ctx, k)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("kv get %s: %w", k, err)
}

// Claim writes the claim key at revision 0, which the server accepts only
// when the key has never been written.
func (s *MarkerStore) Claim(ctx context.Context, id string, at time.Time) error {
	done, err := s.Exists(ctx, id)
	if err != nil {
		return err
	}
	if done {
		return fmt.Errorf("incident %s: %w", id, domain.ErrAlreadyClaimed)
	}

	_, err = s.kv.Update(ctx, key("claim", id), stamp(at), 0)
	if err == nil {
		return nil
	}
	if errors.Is(err, jetstream.ErrKeyExists) {
		return fmt.Errorf("incident %s: %w", id, domain.ErrAlreadyClaimed)
	}
	// Servers report a sequence mismatch as a generic API error.
	var apiErr *jetstream.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode == jetstream.JSErrCodeStreamWrongLastSequence {
		return fmt.Errorf("incident %s: %w", id, domain.ErrAlreadyClaimed)
	}
	return fmt.Errorf("kv claim %s: %w", id, err)
}

// MarkDone records completion. Repeated calls overwrite the timestamp, which
// readers never depend on.
func (s *MarkerStore) MarkDone(ctx context.Context, id string, at time.Time) error {
	if _, err := s.kv.Put(ctx, key("done", id), stamp(at)); err != nil {
		return fmt.Errorf("kv done %s: %w", id, err)
	}
	return nil
}

func stamp(at time.Time) []byte {
	return []byte(at.UTC().Format(time.RFC3339Nano))
}

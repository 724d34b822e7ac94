package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Strob0t/driftgate/internal/domain/audit"
	"github.com/Strob0t/driftgate/internal/logger"
)

// AuditStore implements auditlog.Sink using PostgreSQL (append-only).
type AuditStore struct {
	pool *pgxpool.Pool
}

// NewAuditStore creates an AuditStore backed by the given connection pool.
func NewAuditStore(pool *pgxpool.Pool) *AuditStore {
	return &AuditStore{pool: pool}
}

// Append inserts e into the incident_audit table.
func (s *AuditStore) Append(ctx context.Context, e audit.Entry) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO incident_audit (occurred_at, actor, action, status, detail, incident_id, request_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.Time.UTC(), e.Actor, e.Action, string(e.Status), e.Detail,
		logger.Incident(ctx), logger.RequestID(ctx))
	if err != nil {
		return fmt.Errorf("append audit: %w", err)
	}
	return nil
}

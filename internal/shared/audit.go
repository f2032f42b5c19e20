package shared

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditLog is one row of the audit trail. Meta holds action-specific detail
// and may be nil.
type AuditLog struct {
	Actor    Actor
	Action   string
	Entity   string
	EntityID string
	Meta     map[string]any
	At       time.Time
}

// AuditLogger appends to the audit_logs table. Services call it after state
// changes; read access lives in the audit package.
type AuditLogger struct {
	pool *pgxpool.Pool
}

// NewAuditLogger wires the logger to the shared pool.
func NewAuditLogger(pool *pgxpool.Pool) *AuditLogger {
	return &AuditLogger{pool: pool}
}

// Record persists one entry. A zero At is stamped with the current time.
func (l *AuditLogger) Record(ctx context.Context, log AuditLog) error {
	if l == nil {
		return errors.New("audit logger not initialised")
	}
	if log.Action == "" || log.Entity == "" || log.EntityID == "" {
		return errors.New("audit log requires action/entity/entity_id")
	}
	if log.At.IsZero() {
		log.At = time.Now()
	}
	meta := []byte("{}")
	if log.Meta != nil {
		var err error
		if meta, err = json.Marshal(log.Meta); err != nil {
			return err
		}
	}
	_, err := l.pool.Exec(ctx, `
		INSERT INTO audit_logs (actor_name, actor_role, action, entity, entity_id, meta, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		log.Actor.Name, log.Actor.Role, log.Action, log.Entity, log.EntityID, meta, log.At)
	return err
}

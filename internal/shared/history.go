package shared

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TransitionAction enumerates workflow history actions.
type TransitionAction string

const (
	// TransitionApprove marks a frontier-step approval.
	TransitionApprove TransitionAction = "APPROVE"
	// TransitionReject marks a frontier-step rejection.
	TransitionReject TransitionAction = "REJECT"
	// TransitionAcknowledge marks a goods-receipt response.
	TransitionAcknowledge TransitionAction = "ACKNOWLEDGE"
)

// TransitionLog is a single entry in an order's approval history.
type TransitionLog struct {
	ID        uuid.UUID
	Module    string
	RefNumber string
	StepLabel string
	Actor     Actor
	Action    TransitionAction
	Note      string
	At        time.Time
}

// TransitionRecorder persists workflow transition history.
type TransitionRecorder struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewTransitionRecorder constructs TransitionRecorder.
func NewTransitionRecorder(pool *pgxpool.Pool, logger *slog.Logger) *TransitionRecorder {
	return &TransitionRecorder{pool: pool, logger: logger}
}

// Record writes a transition entry to the database.
func (r *TransitionRecorder) Record(ctx context.Context, log TransitionLog) error {
	if r == nil {
		return errors.New("transition recorder not initialised")
	}
	if log.Module == "" {
		return errors.New("transition module required")
	}
	if log.RefNumber == "" {
		return errors.New("transition ref number required")
	}
	if log.Action == "" {
		return errors.New("transition action required")
	}
	log = log.normalized()
	_, err := r.pool.Exec(ctx, `INSERT INTO workflow_transitions (id, module, ref_number, step_label, actor_name, actor_role, action, note, at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		log.ID, log.Module, log.RefNumber, log.StepLabel, log.Actor.Name, log.Actor.Role, string(log.Action), log.Note, log.At)
	if err != nil {
		r.logger.Error("record transition", slog.Any("error", err))
		return err
	}
	return nil
}

// normalized fills the generated fields. A zero At is stamped here rather
// than in SQL: pgx encodes the zero time as a year-1 timestamp, not NULL,
// so a database-side default would never apply.
func (l TransitionLog) normalized() TransitionLog {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.At.IsZero() {
		l.At = time.Now()
	}
	return l
}

// List returns the transition history for a module/ref pair, oldest first.
func (r *TransitionRecorder) List(ctx context.Context, module, refNumber string) ([]TransitionLog, error) {
	if r == nil {
		return nil, errors.New("transition recorder not initialised")
	}
	rows, err := r.pool.Query(ctx, `SELECT id, module, ref_number, step_label, actor_name, actor_role, action, note, at
FROM workflow_transitions WHERE module=$1 AND ref_number=$2 ORDER BY at ASC`, module, refNumber)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var logs []TransitionLog
	for rows.Next() {
		var l TransitionLog
		var action string
		if err := rows.Scan(&l.ID, &l.Module, &l.RefNumber, &l.StepLabel, &l.Actor.Name, &l.Actor.Role, &action, &l.Note, &l.At); err != nil {
			return nil, err
		}
		l.Action = TransitionAction(action)
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}

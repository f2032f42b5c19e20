package audit

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nectar-erp/nectar-erp/internal/shared"
)

// Repository reads audit_logs.
type Repository interface {
	Timeline(ctx context.Context, f TimelineFilters) ([]Entry, int, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a postgres-backed audit repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) Timeline(ctx context.Context, f TimelineFilters) ([]Entry, int, error) {
	var (
		conds []string
		args  []any
	)
	if !f.From.IsZero() {
		args = append(args, f.From)
		conds = append(conds, fmt.Sprintf("occurred_at >= $%d", len(args)))
	}
	if !f.To.IsZero() {
		args = append(args, f.To)
		conds = append(conds, fmt.Sprintf("occurred_at < $%d", len(args)))
	}
	if f.Actor != "" {
		args = append(args, "%"+strings.ToLower(f.Actor)+"%")
		conds = append(conds, fmt.Sprintf("LOWER(actor_name) LIKE $%d", len(args)))
	}
	if f.Entity != "" {
		args = append(args, f.Entity)
		conds = append(conds, fmt.Sprintf("entity = $%d", len(args)))
	}
	if f.Action != "" {
		args = append(args, f.Action)
		conds = append(conds, fmt.Sprintf("action = $%d", len(args)))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM audit_logs`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count audit logs: %w", err)
	}

	p := shared.NewPagination(f.Page, f.PerPage, total)
	args = append(args, p.PerPage, p.Offset())
	query := fmt.Sprintf(`
		SELECT occurred_at, actor_name, actor_role, action, entity, entity_id, meta
		FROM audit_logs%s
		ORDER BY occurred_at DESC
		LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.At, &e.ActorName, &e.ActorRole, &e.Action, &e.Entity, &e.EntityID, &e.Meta); err != nil {
			return nil, 0, fmt.Errorf("scan audit log: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}

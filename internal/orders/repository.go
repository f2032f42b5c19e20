package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nectar-erp/nectar-erp/internal/platform/db"
	"github.com/nectar-erp/nectar-erp/internal/shared"
	"github.com/nectar-erp/nectar-erp/internal/workflow"
)

// Repository abstracts persistence for orders and their step sequences.
type Repository interface {
	GenerateOrderNumber(ctx context.Context, date time.Time) (string, error)
	Create(ctx context.Context, order *workflow.Order) (int64, error)
	Get(ctx context.Context, id int64) (*OrderRecord, error)
	GetByNumber(ctx context.Context, orderNumber string) (*OrderRecord, error)
	GetSteps(ctx context.Context, orderID int64) ([]workflow.OrderStep, error)
	SaveSteps(ctx context.Context, orderID, expectedVersion int64, steps []workflow.OrderStep) error
	List(ctx context.Context, req ListOrdersRequest) ([]OrderRecord, int, error)
	CountStats(ctx context.Context) (Stats, error)
	ListStale(ctx context.Context, cutoff time.Time) ([]StaleOrder, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

// StaleOrder is returned by the stale-frontier scan.
type StaleOrder struct {
	OrderNumber   string
	FrontierLabel string
	ApproverEmail string
	UpdatedAt     time.Time
}

const orderColumns = `id, order_number, order_type, distributor_name, order_date, total_amount, version, created_at, updated_at`

func scanOrder(row pgx.Row) (*OrderRecord, error) {
	var rec OrderRecord
	err := row.Scan(&rec.ID, &rec.OrderNumber, &rec.OrderType, &rec.DistributorName,
		&rec.OrderDate, &rec.TotalAmount, &rec.Version, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// GenerateOrderNumber produces the next ORD-YYYY-NNN sequence value.
func (r *repository) GenerateOrderNumber(ctx context.Context, date time.Time) (string, error) {
	var number string
	err := r.pool.QueryRow(ctx, `SELECT generate_order_number($1)`, date).Scan(&number)
	return number, err
}

// Create inserts the order and its full step sequence in one transaction.
func (r *repository) Create(ctx context.Context, order *workflow.Order) (int64, error) {
	var orderID int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO orders (order_number, order_type, distributor_name, order_date, total_amount, version)
			VALUES ($1, $2, $3, $4, $5, 1)
			RETURNING id`,
			order.OrderNumber, order.OrderType, order.DistributorName, order.OrderDate, order.TotalAmount,
		).Scan(&orderID)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: order number %s", shared.ErrDuplicate, order.OrderNumber)
			}
			return fmt.Errorf("insert order: %w", err)
		}
		return insertSteps(ctx, tx, orderID, order.Steps)
	})
	if err != nil {
		return 0, err
	}
	return orderID, nil
}

// Get loads an order record by id.
func (r *repository) Get(ctx context.Context, id int64) (*OrderRecord, error) {
	return scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
}

// GetByNumber loads an order record by its order number.
func (r *repository) GetByNumber(ctx context.Context, orderNumber string) (*OrderRecord, error) {
	return scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE order_number = $1`, orderNumber))
}

// GetSteps loads the ordered step sequence for an order.
func (r *repository) GetSteps(ctx context.Context, orderID int64) ([]workflow.OrderStep, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT label, status, date, remarks,
		       approver_name, approver_role, approver_contact, approver_email,
		       has_artifact, requires_ack, acknowledgement
		FROM order_steps
		WHERE order_id = $1
		ORDER BY position ASC`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var steps []workflow.OrderStep
	for rows.Next() {
		var (
			step                       workflow.OrderStep
			name, role, contact, email *string
			ack                        *string
		)
		if err := rows.Scan(&step.Label, &step.Status, &step.Date, &step.Remarks,
			&name, &role, &contact, &email,
			&step.HasArtifact, &step.RequiresAck, &ack); err != nil {
			return nil, err
		}
		if name != nil {
			step.Approver = &workflow.Approver{Name: *name}
			if role != nil {
				step.Approver.Role = *role
			}
			if contact != nil {
				step.Approver.Contact = *contact
			}
			if email != nil {
				step.Approver.Email = *email
			}
		}
		if ack != nil {
			step.Ack = workflow.Acknowledgement(*ack)
		}
		steps = append(steps, step)
	}
	return steps, rows.Err()
}

// SaveSteps atomically replaces the full step sequence. The expected version
// guards against concurrent editors: a mismatch aborts with ErrVersionConflict
// and no rows changed.
func (r *repository) SaveSteps(ctx context.Context, orderID, expectedVersion int64, steps []workflow.OrderStep) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE orders SET version = version + 1, updated_at = NOW()
			WHERE id = $1 AND version = $2`, orderID, expectedVersion)
		if err != nil {
			return fmt.Errorf("bump version: %w", err)
		}
		if tag.RowsAffected() == 0 {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT true FROM orders WHERE id = $1`, orderID).Scan(&exists); err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return shared.ErrNotFound
				}
				return err
			}
			return shared.ErrVersionConflict
		}
		if _, err := tx.Exec(ctx, `DELETE FROM order_steps WHERE order_id = $1`, orderID); err != nil {
			return fmt.Errorf("clear steps: %w", err)
		}
		return insertSteps(ctx, tx, orderID, steps)
	})
}

func insertSteps(ctx context.Context, tx pgx.Tx, orderID int64, steps []workflow.OrderStep) error {
	for i, step := range steps {
		var name, role, contact, email *string
		if step.Approver != nil {
			name, role, contact, email = &step.Approver.Name, &step.Approver.Role, &step.Approver.Contact, &step.Approver.Email
		}
		var ack *string
		if step.Ack != workflow.AckNone {
			v := string(step.Ack)
			ack = &v
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO order_steps (order_id, position, label, status, date, remarks,
				approver_name, approver_role, approver_contact, approver_email,
				has_artifact, requires_ack, acknowledgement)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			orderID, i, step.Label, step.Status, step.Date, step.Remarks,
			name, role, contact, email,
			step.HasArtifact, step.RequiresAck, ack)
		if err != nil {
			return fmt.Errorf("insert step %d: %w", i, err)
		}
	}
	return nil
}

// List returns paginated order records matching the filter. The derived
// status filter is evaluated in SQL against the step rows so the precedence
// matches the engine: any cancelled step marks the order cancelled.
func (r *repository) List(ctx context.Context, req ListOrdersRequest) ([]OrderRecord, int, error) {
	var (
		conds []string
		args  []any
	)
	if req.Search != "" {
		args = append(args, "%"+strings.ToLower(req.Search)+"%")
		conds = append(conds, fmt.Sprintf(
			"(LOWER(order_number) LIKE $%d OR LOWER(distributor_name) LIKE $%d)", len(args), len(args)))
	}
	switch req.Status {
	case FilterCancelled:
		conds = append(conds, "EXISTS (SELECT 1 FROM order_steps s WHERE s.order_id = o.id AND s.status = 'cancelled')")
	case FilterCompleted:
		conds = append(conds,
			"NOT EXISTS (SELECT 1 FROM order_steps s WHERE s.order_id = o.id AND s.status <> 'completed')")
	case FilterPending:
		conds = append(conds,
			"NOT EXISTS (SELECT 1 FROM order_steps s WHERE s.order_id = o.id AND s.status = 'cancelled')",
			"EXISTS (SELECT 1 FROM order_steps s WHERE s.order_id = o.id AND s.status IN ('pending','in-progress'))")
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders o`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	p := shared.NewPagination(req.Page, req.PerPage, total)
	args = append(args, p.PerPage, p.Offset())
	query := fmt.Sprintf(`SELECT %s FROM orders o%s ORDER BY order_date DESC, id DESC LIMIT $%d OFFSET $%d`,
		orderColumns, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var records []OrderRecord
	for rows.Next() {
		var rec OrderRecord
		if err := rows.Scan(&rec.ID, &rec.OrderNumber, &rec.OrderType, &rec.DistributorName,
			&rec.OrderDate, &rec.TotalAmount, &rec.Version, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, 0, err
		}
		records = append(records, rec)
	}
	return records, total, rows.Err()
}

// CountStats aggregates dashboard counters in one scan.
func (r *repository) CountStats(ctx context.Context) (Stats, error) {
	var s Stats
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE NOT EXISTS (SELECT 1 FROM order_steps st WHERE st.order_id = o.id AND st.status = 'cancelled')
		                          AND EXISTS (SELECT 1 FROM order_steps st WHERE st.order_id = o.id AND st.status IN ('pending','in-progress'))),
		       COUNT(*) FILTER (WHERE NOT EXISTS (SELECT 1 FROM order_steps st WHERE st.order_id = o.id AND st.status <> 'completed')),
		       COUNT(*) FILTER (WHERE EXISTS (SELECT 1 FROM order_steps st WHERE st.order_id = o.id AND st.status = 'cancelled'))
		FROM orders o`).Scan(&s.Total, &s.Pending, &s.Completed, &s.Cancelled)
	return s, err
}

// ListStale returns orders whose frontier step is still open and whose last
// update is older than the cutoff.
func (r *repository) ListStale(ctx context.Context, cutoff time.Time) ([]StaleOrder, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT o.order_number, s.label, COALESCE(s.approver_email, ''), o.updated_at
		FROM orders o
		JOIN LATERAL (
			SELECT label, approver_email
			FROM order_steps
			WHERE order_id = o.id AND status IN ('pending','in-progress')
			ORDER BY position ASC
			LIMIT 1
		) s ON true
		WHERE o.updated_at < $1
		ORDER BY o.updated_at ASC`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stale []StaleOrder
	for rows.Next() {
		var so StaleOrder
		if err := rows.Scan(&so.OrderNumber, &so.FrontierLabel, &so.ApproverEmail, &so.UpdatedAt); err != nil {
			return nil, err
		}
		stale = append(stale, so)
	}
	return stale, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

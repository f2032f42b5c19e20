package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nectar-erp/nectar-erp/internal/shared"
)

// ErrInsufficientStock is returned when an outbound adjustment exceeds the
// quantity on hand.
var ErrInsufficientStock = errors.New("inventory: insufficient stock")

// Repository abstracts persistence for stock items.
type Repository interface {
	Create(ctx context.Context, item *Item) (int64, error)
	Get(ctx context.Context, id int64) (*Item, error)
	AdjustQuantity(ctx context.Context, id int64, delta float64) (*Item, error)
	List(ctx context.Context, req ListItemsRequest) ([]Item, int, error)
	ListLowStock(ctx context.Context) ([]Item, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const itemColumns = `id, sku, name, category, unit, quantity, min_threshold, created_at, updated_at`

func scanItem(row pgx.Row) (*Item, error) {
	var i Item
	err := row.Scan(&i.ID, &i.SKU, &i.Name, &i.Category, &i.Unit,
		&i.Quantity, &i.MinThreshold, &i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &i, nil
}

func (r *repository) Create(ctx context.Context, item *Item) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO inventory_items (sku, name, category, unit, quantity, min_threshold)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		item.SKU, item.Name, item.Category, item.Unit, item.Quantity, item.MinThreshold,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, fmt.Errorf("%w: sku %s", shared.ErrDuplicate, item.SKU)
		}
		return 0, fmt.Errorf("insert item: %w", err)
	}
	return id, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Item, error) {
	return scanItem(r.pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM inventory_items WHERE id = $1`, id))
}

// AdjustQuantity applies the delta atomically. The WHERE guard rejects
// adjustments that would drive the quantity negative.
func (r *repository) AdjustQuantity(ctx context.Context, id int64, delta float64) (*Item, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE inventory_items
		SET quantity = quantity + $1, updated_at = NOW()
		WHERE id = $2 AND quantity + $1 >= 0
		RETURNING `+itemColumns, delta, id)
	item, err := scanItem(row)
	if errors.Is(err, shared.ErrNotFound) {
		if _, getErr := r.Get(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, ErrInsufficientStock
	}
	return item, err
}

func (r *repository) List(ctx context.Context, req ListItemsRequest) ([]Item, int, error) {
	var (
		conds []string
		args  []any
	)
	if req.Category != "" {
		args = append(args, req.Category)
		conds = append(conds, fmt.Sprintf("category = $%d", len(args)))
	}
	if req.Search != "" {
		args = append(args, "%"+strings.ToLower(req.Search)+"%")
		conds = append(conds, fmt.Sprintf("(LOWER(name) LIKE $%d OR LOWER(sku) LIKE $%d)", len(args), len(args)))
	}
	if req.LowOnly {
		conds = append(conds, "quantity <= min_threshold")
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM inventory_items`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count items: %w", err)
	}

	p := shared.NewPagination(req.Page, req.PerPage, total)
	args = append(args, p.PerPage, p.Offset())
	query := fmt.Sprintf(`SELECT %s FROM inventory_items%s ORDER BY name ASC LIMIT $%d OFFSET $%d`,
		itemColumns, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, *item)
	}
	return items, total, rows.Err()
}

// ListLowStock returns every item at or below its reorder threshold.
func (r *repository) ListLowStock(ctx context.Context) ([]Item, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+itemColumns+` FROM inventory_items WHERE quantity <= min_threshold ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list low stock: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

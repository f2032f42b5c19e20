package distributor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nectar-erp/nectar-erp/internal/shared"
)

// Repository abstracts persistence for distributor master data.
type Repository interface {
	Create(ctx context.Context, d *Distributor) (int64, error)
	Get(ctx context.Context, id int64) (*Distributor, error)
	Update(ctx context.Context, d *Distributor) error
	SetActive(ctx context.Context, id int64, active bool) error
	List(ctx context.Context, req ListDistributorsRequest) ([]Distributor, int, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const distributorColumns = `id, name, contact_person, phone, email, address, city, state, pincode,
	aadhaar_number, pan_number, gst_number, salesperson, active, created_at, updated_at`

func scanDistributor(row pgx.Row) (*Distributor, error) {
	var d Distributor
	err := row.Scan(&d.ID, &d.Name, &d.ContactPerson, &d.Phone, &d.Email,
		&d.Address, &d.City, &d.State, &d.Pincode,
		&d.AadhaarNumber, &d.PANNumber, &d.GSTNumber, &d.Salesperson,
		&d.Active, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (r *repository) Create(ctx context.Context, d *Distributor) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO distributors (name, contact_person, phone, email, address, city, state, pincode,
			aadhaar_number, pan_number, gst_number, salesperson, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, true)
		RETURNING id`,
		d.Name, d.ContactPerson, d.Phone, d.Email, d.Address, d.City, d.State, d.Pincode,
		d.AadhaarNumber, d.PANNumber, d.GSTNumber, d.Salesperson,
	).Scan(&id)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.ConstraintName == "uq_distributors_gst" {
			return 0, ErrDuplicateGST
		}
		return 0, fmt.Errorf("insert distributor: %w", err)
	}
	return id, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Distributor, error) {
	return scanDistributor(r.pool.QueryRow(ctx,
		`SELECT `+distributorColumns+` FROM distributors WHERE id = $1`, id))
}

func (r *repository) Update(ctx context.Context, d *Distributor) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE distributors
		SET contact_person = $1, phone = $2, email = $3, address = $4,
		    city = $5, state = $6, pincode = $7, salesperson = $8, updated_at = NOW()
		WHERE id = $9`,
		d.ContactPerson, d.Phone, d.Email, d.Address,
		d.City, d.State, d.Pincode, d.Salesperson, d.ID)
	if err != nil {
		return fmt.Errorf("update distributor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) SetActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE distributors SET active = $1, updated_at = NOW() WHERE id = $2`, active, id)
	if err != nil {
		return fmt.Errorf("toggle distributor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) List(ctx context.Context, req ListDistributorsRequest) ([]Distributor, int, error) {
	var (
		conds []string
		args  []any
	)
	if req.Search != "" {
		args = append(args, "%"+strings.ToLower(req.Search)+"%")
		conds = append(conds, fmt.Sprintf(
			"(LOWER(name) LIKE $%d OR LOWER(city) LIKE $%d OR LOWER(gst_number) LIKE $%d)",
			len(args), len(args), len(args)))
	}
	if req.Active != nil {
		args = append(args, *req.Active)
		conds = append(conds, fmt.Sprintf("active = $%d", len(args)))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM distributors`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count distributors: %w", err)
	}

	p := shared.NewPagination(req.Page, req.PerPage, total)
	args = append(args, p.PerPage, p.Offset())
	query := fmt.Sprintf(`SELECT %s FROM distributors%s ORDER BY name ASC LIMIT $%d OFFSET $%d`,
		distributorColumns, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list distributors: %w", err)
	}
	defer rows.Close()

	var distributors []Distributor
	for rows.Next() {
		d, err := scanDistributor(rows)
		if err != nil {
			return nil, 0, err
		}
		distributors = append(distributors, *d)
	}
	return distributors, total, rows.Err()
}

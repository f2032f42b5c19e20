package ledger

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

// Repository abstracts persistence for ledger accounts.
type Repository interface {
	Create(ctx context.Context, a *Account) (int64, error)
	Get(ctx context.Context, id int64) (*Account, error)
	UpdateBalance(ctx context.Context, id, expectedVersion int64, newBalance float64) error
	List(ctx context.Context, req ListAccountsRequest) ([]Account, int, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const accountColumns = `id, account_number, account_name, account_type, distributor_id,
	credit_limit, current_balance, version, created_at, updated_at`

func scanAccount(row pgx.Row) (*Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.AccountNumber, &a.AccountName, &a.AccountType, &a.DistributorID,
		&a.CreditLimit, &a.CurrentBalance, &a.Version, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *repository) Create(ctx context.Context, a *Account) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO ledger_accounts (account_number, account_name, account_type, distributor_id,
			credit_limit, current_balance, version)
		VALUES ($1, $2, $3, $4, $5, 0, 1)
		RETURNING id`,
		a.AccountNumber, a.AccountName, a.AccountType, a.DistributorID, a.CreditLimit,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: account number %s", shared.ErrDuplicate, a.AccountNumber)
		}
		return 0, fmt.Errorf("insert account: %w", err)
	}
	return id, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Account, error) {
	return scanAccount(r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM ledger_accounts WHERE id = $1`, id))
}

// UpdateBalance writes the new balance guarded by the version column.
func (r *repository) UpdateBalance(ctx context.Context, id, expectedVersion int64, newBalance float64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE ledger_accounts
		SET current_balance = $1, version = version + 1, updated_at = NOW()
		WHERE id = $2 AND version = $3`,
		newBalance, id, expectedVersion)
	if err != nil {
		return fmt.Errorf("update balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		err := r.pool.QueryRow(ctx, `SELECT true FROM ledger_accounts WHERE id = $1`, id).Scan(&exists)
		if errors.Is(err, pgx.ErrNoRows) {
			return shared.ErrNotFound
		}
		if err != nil {
			return err
		}
		return shared.ErrVersionConflict
	}
	return nil
}

func (r *repository) List(ctx context.Context, req ListAccountsRequest) ([]Account, int, error) {
	var (
		conds []string
		args  []any
	)
	if req.Type != "" {
		args = append(args, req.Type)
		conds = append(conds, fmt.Sprintf("account_type = $%d", len(args)))
	}
	if req.Search != "" {
		args = append(args, "%"+strings.ToLower(req.Search)+"%")
		conds = append(conds, fmt.Sprintf(
			"(LOWER(account_name) LIKE $%d OR LOWER(account_number) LIKE $%d)", len(args), len(args)))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM ledger_accounts`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count accounts: %w", err)
	}

	orderBy := "account_name"
	if col, ok := sortColumns[req.SortBy]; ok {
		orderBy = col
	}
	direction := "ASC"
	if req.Desc {
		direction = "DESC"
	}

	p := shared.NewPagination(req.Page, req.PerPage, total)
	args = append(args, p.PerPage, p.Offset())
	query := fmt.Sprintf(`SELECT %s FROM ledger_accounts%s ORDER BY %s %s, id ASC LIMIT $%d OFFSET $%d`,
		accountColumns, where, orderBy, direction, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, 0, err
		}
		accounts = append(accounts, *a)
	}
	return accounts, total, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

package documents

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nectar-erp/nectar-erp/internal/shared"
)

// Repository persists generated documents.
type Repository interface {
	GenerateDocNumber(ctx context.Context, docType DocumentType, date time.Time) (string, error)
	Create(ctx context.Context, doc *Document) error
	GetByNumber(ctx context.Context, docNumber string) (*Document, error)
	GetByStep(ctx context.Context, orderNumber, stepLabel string) (*Document, error)
	ListByOrder(ctx context.Context, orderNumber string) ([]Document, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository wires the Postgres-backed document repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const documentColumns = `id, doc_number, doc_type, order_number, step_label,
	amount, payload, generated_by, generated_at`

func scanDocument(row pgx.Row) (*Document, error) {
	var d Document
	err := row.Scan(&d.ID, &d.DocNumber, &d.DocType, &d.OrderNumber, &d.StepLabel,
		&d.Amount, &d.Payload, &d.GeneratedBy, &d.GeneratedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan document: %w", err)
	}
	return &d, nil
}

func (r *repository) GenerateDocNumber(ctx context.Context, docType DocumentType, date time.Time) (string, error) {
	var number string
	err := r.pool.QueryRow(ctx,
		`SELECT generate_document_number($1, $2)`, docType.Prefix(), date).Scan(&number)
	if err != nil {
		return "", fmt.Errorf("generate document number: %w", err)
	}
	return number, nil
}

func (r *repository) Create(ctx context.Context, doc *Document) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO documents (id, doc_number, doc_type, order_number, step_label,
			amount, payload, generated_by, generated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		doc.ID, doc.DocNumber, doc.DocType, doc.OrderNumber, doc.StepLabel,
		doc.Amount, doc.Payload, doc.GeneratedBy, doc.GeneratedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return shared.ErrDuplicate
		}
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (r *repository) GetByNumber(ctx context.Context, docNumber string) (*Document, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE doc_number = $1`, docNumber)
	return scanDocument(row)
}

func (r *repository) GetByStep(ctx context.Context, orderNumber, stepLabel string) (*Document, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE order_number = $1 AND step_label = $2`,
		orderNumber, stepLabel)
	return scanDocument(row)
}

func (r *repository) ListByOrder(ctx context.Context, orderNumber string) ([]Document, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE order_number = $1 ORDER BY generated_at`,
		orderNumber)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

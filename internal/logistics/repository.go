package logistics

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nectar-erp/nectar-erp/internal/platform/db"
	"github.com/nectar-erp/nectar-erp/internal/shared"
)

// Repository abstracts persistence for shipments and their checkpoints.
type Repository interface {
	GenerateShipmentNumber(ctx context.Context, date time.Time) (string, error)
	Create(ctx context.Context, shipment *Shipment, checkpoints []Checkpoint) (int64, error)
	Get(ctx context.Context, id int64) (*Shipment, error)
	GetByNumber(ctx context.Context, shipmentNumber string) (*Shipment, error)
	GetCheckpoints(ctx context.Context, shipmentID int64) ([]Checkpoint, error)
	Save(ctx context.Context, shipment *Shipment, checkpoints []Checkpoint) error
	List(ctx context.Context, req ListShipmentsRequest) ([]Shipment, int, error)
	CountStats(ctx context.Context) (Stats, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const shipmentColumns = `id, shipment_number, order_number, gdn_number, origin, destination,
	dispatch_date, expected_date, delivered_at, status, transport_mode,
	vehicle_number, driver_name, driver_contact, weight_kg, package_count,
	version, created_at, updated_at`

func scanShipment(row pgx.Row) (*Shipment, error) {
	var s Shipment
	err := row.Scan(&s.ID, &s.ShipmentNumber, &s.OrderNumber, &s.GDNNumber, &s.Origin, &s.Destination,
		&s.DispatchDate, &s.ExpectedDate, &s.DeliveredAt, &s.Status, &s.TransportMode,
		&s.VehicleNumber, &s.DriverName, &s.DriverContact, &s.WeightKg, &s.PackageCount,
		&s.Version, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// GenerateShipmentNumber produces the next SHP-YYYY-NNN sequence value.
func (r *repository) GenerateShipmentNumber(ctx context.Context, date time.Time) (string, error) {
	var number string
	err := r.pool.QueryRow(ctx, `SELECT generate_shipment_number($1)`, date).Scan(&number)
	return number, err
}

// Create inserts the shipment and its checkpoint template in one transaction.
func (r *repository) Create(ctx context.Context, shipment *Shipment, checkpoints []Checkpoint) (int64, error) {
	var shipmentID int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO shipments (shipment_number, order_number, gdn_number, origin, destination,
				dispatch_date, expected_date, status, transport_mode,
				vehicle_number, driver_name, driver_contact, weight_kg, package_count, version)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, 1)
			RETURNING id`,
			shipment.ShipmentNumber, shipment.OrderNumber, shipment.GDNNumber,
			shipment.Origin, shipment.Destination,
			shipment.DispatchDate, shipment.ExpectedDate, shipment.Status, shipment.TransportMode,
			shipment.VehicleNumber, shipment.DriverName, shipment.DriverContact,
			shipment.WeightKg, shipment.PackageCount,
		).Scan(&shipmentID)
		if err != nil {
			return fmt.Errorf("insert shipment: %w", err)
		}
		return insertCheckpoints(ctx, tx, shipmentID, checkpoints)
	})
	if err != nil {
		return 0, err
	}
	return shipmentID, nil
}

// Get loads a shipment record by id.
func (r *repository) Get(ctx context.Context, id int64) (*Shipment, error) {
	return scanShipment(r.pool.QueryRow(ctx, `SELECT `+shipmentColumns+` FROM shipments WHERE id = $1`, id))
}

// GetByNumber loads a shipment record by its shipment number.
func (r *repository) GetByNumber(ctx context.Context, shipmentNumber string) (*Shipment, error) {
	return scanShipment(r.pool.QueryRow(ctx,
		`SELECT `+shipmentColumns+` FROM shipments WHERE shipment_number = $1`, shipmentNumber))
}

// GetCheckpoints loads the ordered tracking milestones for a shipment.
func (r *repository) GetCheckpoints(ctx context.Context, shipmentID int64) ([]Checkpoint, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT label, status, date, location, remarks
		FROM shipment_checkpoints
		WHERE shipment_id = $1
		ORDER BY position ASC`, shipmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cps []Checkpoint
	for rows.Next() {
		var cp Checkpoint
		if err := rows.Scan(&cp.Label, &cp.Status, &cp.Date, &cp.Location, &cp.Remarks); err != nil {
			return nil, err
		}
		cps = append(cps, cp)
	}
	return cps, rows.Err()
}

// Save atomically writes the shipment fields and replaces its checkpoint
// rows. The shipment's Version must match the stored row or the save aborts
// with ErrVersionConflict.
func (r *repository) Save(ctx context.Context, shipment *Shipment, checkpoints []Checkpoint) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE shipments
			SET status = $1, delivered_at = $2, version = version + 1, updated_at = NOW()
			WHERE id = $3 AND version = $4`,
			shipment.Status, shipment.DeliveredAt, shipment.ID, shipment.Version)
		if err != nil {
			return fmt.Errorf("bump version: %w", err)
		}
		if tag.RowsAffected() == 0 {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT true FROM shipments WHERE id = $1`, shipment.ID).Scan(&exists); err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return shared.ErrNotFound
				}
				return err
			}
			return shared.ErrVersionConflict
		}
		if _, err := tx.Exec(ctx, `DELETE FROM shipment_checkpoints WHERE shipment_id = $1`, shipment.ID); err != nil {
			return fmt.Errorf("clear checkpoints: %w", err)
		}
		return insertCheckpoints(ctx, tx, shipment.ID, checkpoints)
	})
}

func insertCheckpoints(ctx context.Context, tx pgx.Tx, shipmentID int64, cps []Checkpoint) error {
	for i, cp := range cps {
		_, err := tx.Exec(ctx, `
			INSERT INTO shipment_checkpoints (shipment_id, position, label, status, date, location, remarks)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			shipmentID, i, cp.Label, cp.Status, cp.Date, cp.Location, cp.Remarks)
		if err != nil {
			return fmt.Errorf("insert checkpoint %d: %w", i, err)
		}
	}
	return nil
}

// List returns paginated shipments matching the filter.
func (r *repository) List(ctx context.Context, req ListShipmentsRequest) ([]Shipment, int, error) {
	var (
		conds []string
		args  []any
	)
	if req.Status != "" {
		args = append(args, req.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if req.Mode != "" {
		args = append(args, req.Mode)
		conds = append(conds, fmt.Sprintf("transport_mode = $%d", len(args)))
	}
	if req.Search != "" {
		args = append(args, "%"+strings.ToLower(req.Search)+"%")
		conds = append(conds, fmt.Sprintf(
			"(LOWER(shipment_number) LIKE $%d OR LOWER(order_number) LIKE $%d OR LOWER(destination) LIKE $%d)",
			len(args), len(args), len(args)))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM shipments`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count shipments: %w", err)
	}

	p := shared.NewPagination(req.Page, req.PerPage, total)
	args = append(args, p.PerPage, p.Offset())
	query := fmt.Sprintf(`SELECT %s FROM shipments%s ORDER BY dispatch_date DESC, id DESC LIMIT $%d OFFSET $%d`,
		shipmentColumns, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list shipments: %w", err)
	}
	defer rows.Close()

	var shipments []Shipment
	for rows.Next() {
		s, err := scanShipment(rows)
		if err != nil {
			return nil, 0, err
		}
		shipments = append(shipments, *s)
	}
	return shipments, total, rows.Err()
}

// CountStats aggregates dashboard counters in one scan.
func (r *repository) CountStats(ctx context.Context) (Stats, error) {
	var s Stats
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'pending'),
		       COUNT(*) FILTER (WHERE status = 'in-transit'),
		       COUNT(*) FILTER (WHERE status = 'delivered'),
		       COUNT(*) FILTER (WHERE status = 'delayed'),
		       COUNT(*) FILTER (WHERE status = 'returned')
		FROM shipments`).Scan(&s.Total, &s.Pending, &s.InTransit, &s.Delivered, &s.Delayed, &s.Returned)
	return s, err
}

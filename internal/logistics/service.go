package logistics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nectar-erp/nectar-erp/internal/shared"
	"github.com/nectar-erp/nectar-erp/internal/workflow"
)

// Module identifies logistics entries in transition history.
const Module = "logistics"

// OrderAdvancer completes order pipeline steps on behalf of logistics.
type OrderAdvancer interface {
	AdvanceByNumber(ctx context.Context, orderNumber, stepLabel, remarks string) error
}

// Service provides business logic for shipment tracking.
type Service struct {
	repo     Repository
	orders   OrderAdvancer
	recorder Recorder
	logger   *slog.Logger
	now      func() time.Time
}

// Recorder persists transition history entries.
type Recorder interface {
	Record(ctx context.Context, log shared.TransitionLog) error
	List(ctx context.Context, module, refNumber string) ([]shared.TransitionLog, error)
}

// NewService wires the logistics service.
func NewService(repo Repository, orders OrderAdvancer, recorder Recorder, logger *slog.Logger) *Service {
	return &Service{repo: repo, orders: orders, recorder: recorder, logger: logger, now: time.Now}
}

// Create registers a shipment for an order and stamps the tracking template.
func (s *Service) Create(ctx context.Context, req CreateShipmentRequest) (*ShipmentView, error) {
	number, err := s.repo.GenerateShipmentNumber(ctx, req.DispatchDate)
	if err != nil {
		return nil, fmt.Errorf("generate shipment number: %w", err)
	}

	shipment := &Shipment{
		ShipmentNumber: number,
		OrderNumber:    req.OrderNumber,
		GDNNumber:      req.GDNNumber,
		Origin:         req.Origin,
		Destination:    req.Destination,
		DispatchDate:   req.DispatchDate,
		ExpectedDate:   req.ExpectedDate,
		Status:         StatusPending,
		TransportMode:  req.TransportMode,
		VehicleNumber:  req.VehicleNumber,
		DriverName:     req.DriverName,
		DriverContact:  req.DriverContact,
		WeightKg:       req.WeightKg,
		PackageCount:   req.PackageCount,
	}
	checkpoints := newCheckpoints(req.DispatchDate)

	id, err := s.repo.Create(ctx, shipment, checkpoints)
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Get returns a shipment with its checkpoints.
func (s *Service) Get(ctx context.Context, id int64) (*ShipmentView, error) {
	shipment, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, shipment)
}

// GetByNumber returns a shipment with its checkpoints by shipment number.
func (s *Service) GetByNumber(ctx context.Context, shipmentNumber string) (*ShipmentView, error) {
	shipment, err := s.repo.GetByNumber(ctx, shipmentNumber)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, shipment)
}

// AdvanceCheckpoint completes the named frontier milestone. Completing the
// final milestone marks the shipment delivered and closes the order's transit
// step.
func (s *Service) AdvanceCheckpoint(ctx context.Context, shipmentNumber string, req AdvanceCheckpointRequest) (*ShipmentView, error) {
	shipment, err := s.repo.GetByNumber(ctx, shipmentNumber)
	if err != nil {
		return nil, err
	}
	if shipment.Status.Terminal() {
		return nil, ErrShipmentClosed
	}
	checkpoints, err := s.repo.GetCheckpoints(ctx, shipment.ID)
	if err != nil {
		return nil, err
	}

	at := s.now()
	if err := advanceCheckpoint(checkpoints, req.Label, at, req.Location, req.Remarks); err != nil {
		return nil, err
	}

	if delivered(checkpoints) {
		shipment.Status = StatusDelivered
		shipment.DeliveredAt = &at
	} else if shipment.Status == StatusPending {
		shipment.Status = StatusInTransit
	}

	if err := s.repo.Save(ctx, shipment, checkpoints); err != nil {
		return nil, err
	}
	s.record(ctx, shipment.ShipmentNumber, req.Label, shared.TransitionApprove, derefOrEmpty(req.Remarks))

	if shipment.Status == StatusDelivered && s.orders != nil {
		err := s.orders.AdvanceByNumber(ctx, shipment.OrderNumber, workflow.LabelOnTheWay,
			fmt.Sprintf("Delivered by logistics, shipment %s", shipment.ShipmentNumber))
		if err != nil {
			// The shipment is already persisted as delivered. The order step
			// stays open for manual approval rather than failing the request.
			s.logger.Warn("close order transit step",
				slog.String("shipment", shipment.ShipmentNumber),
				slog.String("order", shipment.OrderNumber),
				slog.Any("error", err))
		}
	}
	return s.Get(ctx, shipment.ID)
}

// UpdateStatus moves a shipment between in-transit, delayed, and returned.
func (s *Service) UpdateStatus(ctx context.Context, shipmentNumber string, req UpdateStatusRequest) (*ShipmentView, error) {
	shipment, err := s.repo.GetByNumber(ctx, shipmentNumber)
	if err != nil {
		return nil, err
	}
	if !shipment.Status.CanTransitionTo(req.Status) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidStatusChange, shipment.Status, req.Status)
	}
	checkpoints, err := s.repo.GetCheckpoints(ctx, shipment.ID)
	if err != nil {
		return nil, err
	}

	shipment.Status = req.Status
	if err := s.repo.Save(ctx, shipment, checkpoints); err != nil {
		return nil, err
	}
	s.record(ctx, shipment.ShipmentNumber, string(req.Status), shared.TransitionApprove, derefOrEmpty(req.Remarks))
	return s.Get(ctx, shipment.ID)
}

// List returns shipment views matching the filter plus pagination metadata.
func (s *Service) List(ctx context.Context, req ListShipmentsRequest) ([]ShipmentView, shared.Pagination, error) {
	if req.Status != "" && !req.Status.IsValid() {
		return nil, shared.Pagination{}, fmt.Errorf("unknown status filter %q", req.Status)
	}
	if req.Mode != "" && !req.Mode.IsValid() {
		return nil, shared.Pagination{}, fmt.Errorf("unknown transport mode %q", req.Mode)
	}
	shipments, total, err := s.repo.List(ctx, req)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	views := make([]ShipmentView, 0, len(shipments))
	for i := range shipments {
		checkpoints, err := s.repo.GetCheckpoints(ctx, shipments[i].ID)
		if err != nil {
			return nil, shared.Pagination{}, fmt.Errorf("get checkpoints for %s: %w", shipments[i].ShipmentNumber, err)
		}
		views = append(views, ShipmentView{Shipment: shipments[i], Checkpoints: checkpoints})
	}
	return views, shared.NewPagination(req.Page, req.PerPage, total), nil
}

// History returns the transition log for a shipment.
func (s *Service) History(ctx context.Context, shipmentNumber string) ([]shared.TransitionLog, error) {
	if _, err := s.repo.GetByNumber(ctx, shipmentNumber); err != nil {
		return nil, err
	}
	return s.recorder.List(ctx, Module, shipmentNumber)
}

// Stats returns shipment dashboard counters.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	return s.repo.CountStats(ctx)
}

func (s *Service) view(ctx context.Context, shipment *Shipment) (*ShipmentView, error) {
	checkpoints, err := s.repo.GetCheckpoints(ctx, shipment.ID)
	if err != nil {
		return nil, err
	}
	return &ShipmentView{Shipment: *shipment, Checkpoints: checkpoints}, nil
}

func (s *Service) record(ctx context.Context, shipmentNumber, label string, action shared.TransitionAction, note string) {
	if s.recorder == nil {
		return
	}
	err := s.recorder.Record(ctx, shared.TransitionLog{
		Module:    Module,
		RefNumber: shipmentNumber,
		StepLabel: label,
		Actor:     shared.ActorFromContext(ctx),
		Action:    action,
		Note:      note,
	})
	if err != nil {
		s.logger.Warn("record transition", slog.String("shipment", shipmentNumber), slog.Any("error", err))
	}
}

func derefOrEmpty(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

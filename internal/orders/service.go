package orders

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nectar-erp/nectar-erp/internal/shared"
	"github.com/nectar-erp/nectar-erp/internal/workflow"
)

// Module name used for transition history and idempotency records.
const Module = "orders"

// Notifier alerts the approver of the step that becomes actionable after a
// transition. Implementations enqueue background work; failures are logged,
// never propagated into the transition itself.
type Notifier interface {
	StepAdvanced(ctx context.Context, orderNumber, stepLabel, approverEmail string) error
}

// Recorder persists workflow transition history.
type Recorder interface {
	Record(ctx context.Context, log shared.TransitionLog) error
	List(ctx context.Context, module, refNumber string) ([]shared.TransitionLog, error)
}

// StatsSource caches dashboard stats; implemented by Cache in stats.go.
type StatsSource interface {
	Stats(ctx context.Context) (Stats, error)
	Invalidate(ctx context.Context)
}

// Service provides business logic for order workflow operations.
type Service struct {
	repo     Repository
	recorder Recorder
	notifier Notifier
	stats    StatsSource
	logger   *slog.Logger
}

// NewService constructs an orders service.
func NewService(repo Repository, recorder Recorder, notifier Notifier, stats StatsSource, logger *slog.Logger) *Service {
	return &Service{repo: repo, recorder: recorder, notifier: notifier, stats: stats, logger: logger}
}

// Create builds an order from the step template for its type and persists
// it. Every step starts pending except "Order Placed", completed at once.
func (s *Service) Create(ctx context.Context, req CreateOrderRequest) (*OrderView, error) {
	orderNumber, err := s.repo.GenerateOrderNumber(ctx, req.OrderDate)
	if err != nil {
		return nil, fmt.Errorf("generate order number: %w", err)
	}

	order, err := workflow.NewOrder(req.OrderType, orderNumber, req.DistributorName, req.OrderDate, req.TotalAmount)
	if err != nil {
		return nil, err
	}
	for label, approver := range req.Approvers {
		idx := order.StepIndex(label)
		if idx < 0 {
			return nil, fmt.Errorf("%w: approver assigned to %q", workflow.ErrUnknownStep, label)
		}
		a := approver
		order.Steps[idx].Approver = &a
	}

	id, err := s.repo.Create(ctx, order)
	if err != nil {
		return nil, err
	}
	s.invalidateStats(ctx)
	return s.Get(ctx, id)
}

// Get loads the aggregate with derived status and progress.
func (s *Service) Get(ctx context.Context, id int64) (*OrderView, error) {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	steps, err := s.repo.GetSteps(ctx, rec.ID)
	if err != nil {
		return nil, fmt.Errorf("get steps: %w", err)
	}
	return s.view(rec, steps), nil
}

// GetByNumber loads the aggregate by order number.
func (s *Service) GetByNumber(ctx context.Context, orderNumber string) (*OrderView, error) {
	rec, err := s.repo.GetByNumber(ctx, orderNumber)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	steps, err := s.repo.GetSteps(ctx, rec.ID)
	if err != nil {
		return nil, fmt.Errorf("get steps: %w", err)
	}
	return s.view(rec, steps), nil
}

// AdvanceStep applies an approve/reject decision to the order's frontier
// step and persists the rewritten step sequence atomically.
func (s *Service) AdvanceStep(ctx context.Context, id int64, req AdvanceStepRequest) (*OrderView, error) {
	rec, order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := order.AdvanceStep(req.StepLabel, workflow.Transition{
		Outcome:     req.Outcome,
		Remarks:     req.Remarks,
		PromoteNext: req.PromoteNext,
	}); err != nil {
		return nil, err
	}

	if err := s.repo.SaveSteps(ctx, rec.ID, rec.Version, order.Steps); err != nil {
		return nil, err
	}

	action := shared.TransitionApprove
	if req.Outcome == workflow.OutcomeReject {
		action = shared.TransitionReject
	}
	s.record(ctx, rec.OrderNumber, req.StepLabel, action, req.Remarks)
	s.invalidateStats(ctx)

	if req.Outcome == workflow.OutcomeApprove {
		s.notifyNextApprover(ctx, order)
	}
	return s.Get(ctx, id)
}

// AdvanceByNumber approves the named frontier step. Used by collaborators
// that reference orders by number, such as logistics marking the transit
// step complete on delivery.
func (s *Service) AdvanceByNumber(ctx context.Context, orderNumber, stepLabel, remarks string) error {
	rec, err := s.repo.GetByNumber(ctx, orderNumber)
	if err != nil {
		return fmt.Errorf("get order: %w", err)
	}
	_, err = s.AdvanceStep(ctx, rec.ID, AdvanceStepRequest{
		StepLabel: stepLabel,
		Outcome:   workflow.OutcomeApprove,
		Remarks:   remarks,
	})
	return err
}

// RecordGoodsReceipt records the distributor's terminal acknowledgement.
func (s *Service) RecordGoodsReceipt(ctx context.Context, id int64, req GoodsReceiptRequest) (*OrderView, error) {
	rec, order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := order.RecordGoodsReceipt(req.Response, time.Time{}); err != nil {
		return nil, err
	}

	if err := s.repo.SaveSteps(ctx, rec.ID, rec.Version, order.Steps); err != nil {
		return nil, err
	}

	s.record(ctx, rec.OrderNumber, workflow.LabelOrderReceived, shared.TransitionAcknowledge, string(req.Response))
	s.invalidateStats(ctx)
	return s.Get(ctx, id)
}

// List returns order views matching the filter plus pagination metadata.
func (s *Service) List(ctx context.Context, req ListOrdersRequest) ([]OrderView, shared.Pagination, error) {
	if req.Status == "" {
		req.Status = FilterAll
	}
	if !req.Status.IsValid() {
		return nil, shared.Pagination{}, fmt.Errorf("unknown status filter %q", req.Status)
	}
	records, total, err := s.repo.List(ctx, req)
	if err != nil {
		return nil, shared.Pagination{}, fmt.Errorf("list orders: %w", err)
	}
	views := make([]OrderView, 0, len(records))
	for i := range records {
		steps, err := s.repo.GetSteps(ctx, records[i].ID)
		if err != nil {
			return nil, shared.Pagination{}, fmt.Errorf("get steps for %s: %w", records[i].OrderNumber, err)
		}
		views = append(views, *s.view(&records[i], steps))
	}
	return views, shared.NewPagination(req.Page, req.PerPage, total), nil
}

// History returns the transition log for an order.
func (s *Service) History(ctx context.Context, id int64) ([]shared.TransitionLog, error) {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return s.recorder.List(ctx, Module, rec.OrderNumber)
}

// Stats returns dashboard counters, served from cache when warm.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	if s.stats != nil {
		return s.stats.Stats(ctx)
	}
	return s.repo.CountStats(ctx)
}

func (s *Service) load(ctx context.Context, id int64) (*OrderRecord, *workflow.Order, error) {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("get order: %w", err)
	}
	steps, err := s.repo.GetSteps(ctx, rec.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("get steps: %w", err)
	}
	return rec, &workflow.Order{
		ID:              rec.ID,
		OrderNumber:     rec.OrderNumber,
		OrderType:       rec.OrderType,
		DistributorName: rec.DistributorName,
		OrderDate:       rec.OrderDate,
		TotalAmount:     rec.TotalAmount,
		Steps:           steps,
	}, nil
}

func (s *Service) view(rec *OrderRecord, steps []workflow.OrderStep) *OrderView {
	order := workflow.Order{Steps: steps}
	return &OrderView{
		OrderRecord:     *rec,
		Steps:           steps,
		Status:          string(order.Status()),
		ProgressPercent: order.ProgressPercent(),
	}
}

func (s *Service) record(ctx context.Context, orderNumber, stepLabel string, action shared.TransitionAction, note string) {
	if s.recorder == nil {
		return
	}
	err := s.recorder.Record(ctx, shared.TransitionLog{
		Module:    Module,
		RefNumber: orderNumber,
		StepLabel: stepLabel,
		Actor:     shared.ActorFromContext(ctx),
		Action:    action,
		Note:      note,
	})
	if err != nil {
		s.logger.Warn("record transition", slog.String("order", orderNumber), slog.Any("error", err))
	}
}

func (s *Service) notifyNextApprover(ctx context.Context, order *workflow.Order) {
	if s.notifier == nil {
		return
	}
	idx := order.FrontierIndex()
	if idx < 0 {
		return
	}
	step := order.Steps[idx]
	email := ""
	if step.Approver != nil {
		email = step.Approver.Email
	}
	if err := s.notifier.StepAdvanced(ctx, order.OrderNumber, step.Label, email); err != nil {
		s.logger.Warn("notify approver", slog.String("order", order.OrderNumber), slog.Any("error", err))
	}
}

func (s *Service) invalidateStats(ctx context.Context) {
	if s.stats != nil {
		s.stats.Invalidate(ctx)
	}
}

package documents

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nectar-erp/nectar-erp/internal/orders"
	"github.com/nectar-erp/nectar-erp/internal/shared"
	"github.com/nectar-erp/nectar-erp/internal/workflow"
)

// OrderSource resolves order data for document rendering.
type OrderSource interface {
	GetByNumber(ctx context.Context, orderNumber string) (*orders.OrderView, error)
}

// ErrStepNotCompleted is returned when the artefact step has not been approved yet.
var ErrStepNotCompleted = errors.New("documents: step not completed")

// Service generates and serves order documents.
type Service struct {
	repo     Repository
	ordersvc OrderSource
	renderer *Renderer
	logger   *slog.Logger
	now      func() time.Time
}

// NewService wires the document service.
func NewService(repo Repository, ordersvc OrderSource, renderer *Renderer, logger *slog.Logger) *Service {
	return &Service{repo: repo, ordersvc: ordersvc, renderer: renderer, logger: logger, now: time.Now}
}

// Generate produces the artefact for an order step, returning the existing
// document when one was already generated for that step.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (*Document, error) {
	docType, ok := typeForStep[req.StepLabel]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoArtifact, req.StepLabel)
	}

	existing, err := s.repo.GetByStep(ctx, req.OrderNumber, req.StepLabel)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	view, err := s.ordersvc.GetByNumber(ctx, req.OrderNumber)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	order := workflow.Order{Steps: view.Steps}
	idx := order.StepIndex(req.StepLabel)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q", workflow.ErrUnknownStep, req.StepLabel)
	}
	if view.Steps[idx].Status != workflow.StepCompleted {
		return nil, ErrStepNotCompleted
	}

	generatedAt := s.now()
	docNumber, err := s.repo.GenerateDocNumber(ctx, docType, generatedAt)
	if err != nil {
		return nil, err
	}

	actor := shared.ActorFromContext(ctx)
	payload, err := s.renderer.Render(docType, RenderData{
		DocNumber:       docNumber,
		OrderNumber:     view.OrderNumber,
		DistributorName: view.DistributorName,
		OrderDate:       view.OrderDate,
		TotalAmount:     view.TotalAmount,
		GeneratedBy:     actor.Name,
		GeneratedAt:     generatedAt,
	})
	if err != nil {
		return nil, err
	}

	doc := &Document{
		ID:          uuid.New(),
		DocNumber:   docNumber,
		DocType:     docType,
		OrderNumber: view.OrderNumber,
		StepLabel:   req.StepLabel,
		Amount:      view.TotalAmount,
		Payload:     payload,
		GeneratedBy: actor.Name,
		GeneratedAt: generatedAt,
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		// A concurrent generation won the unique constraint. Serve its result.
		if errors.Is(err, shared.ErrDuplicate) {
			return s.repo.GetByStep(ctx, req.OrderNumber, req.StepLabel)
		}
		return nil, err
	}

	s.logger.Info("document generated",
		slog.String("doc_number", docNumber),
		slog.String("order", view.OrderNumber),
		slog.String("type", string(docType)))
	return doc, nil
}

// Get returns document metadata by number.
func (s *Service) Get(ctx context.Context, docNumber string) (*Document, error) {
	return s.repo.GetByNumber(ctx, docNumber)
}

// ListByOrder returns all documents generated for an order.
func (s *Service) ListByOrder(ctx context.Context, orderNumber string) ([]Document, error) {
	return s.repo.ListByOrder(ctx, orderNumber)
}

package inventory

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/nectar-erp/nectar-erp/internal/shared"
)

// Service provides business logic for inventory.
type Service struct {
	repo   Repository
	audit  *shared.AuditLogger
	logger *slog.Logger
}

// NewService wires the inventory service.
func NewService(repo Repository, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: audit, logger: logger}
}

// Create registers a stock item.
func (s *Service) Create(ctx context.Context, req CreateItemRequest) (*ItemView, error) {
	item := &Item{
		SKU:          strings.ToUpper(strings.TrimSpace(req.SKU)),
		Name:         strings.TrimSpace(req.Name),
		Category:     req.Category,
		Unit:         req.Unit,
		Quantity:     req.Quantity,
		MinThreshold: req.MinThreshold,
	}
	id, err := s.repo.Create(ctx, item)
	if err != nil {
		return nil, err
	}
	s.auditLog(ctx, "inventory.item_created", id)
	return s.Get(ctx, id)
}

// Get returns an item by id.
func (s *Service) Get(ctx context.Context, id int64) (*ItemView, error) {
	item, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return view(item), nil
}

// Adjust moves stock by a signed delta. A low-stock warning is logged when
// the adjustment crosses the threshold.
func (s *Service) Adjust(ctx context.Context, id int64, req AdjustQuantityRequest) (*ItemView, error) {
	item, err := s.repo.AdjustQuantity(ctx, id, req.Delta)
	if err != nil {
		return nil, err
	}
	if item.LowStock() {
		s.logger.Warn("item below reorder threshold",
			slog.String("sku", item.SKU),
			slog.Float64("quantity", item.Quantity),
			slog.Float64("threshold", item.MinThreshold))
	}
	s.auditLog(ctx, "inventory.quantity_adjusted", id)
	return view(item), nil
}

// List returns item views matching the filter plus pagination metadata.
func (s *Service) List(ctx context.Context, req ListItemsRequest) ([]ItemView, shared.Pagination, error) {
	if req.Category != "" && !req.Category.IsValid() {
		return nil, shared.Pagination{}, fmt.Errorf("unknown category %q", req.Category)
	}
	items, total, err := s.repo.List(ctx, req)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	views := make([]ItemView, 0, len(items))
	for i := range items {
		views = append(views, *view(&items[i]))
	}
	return views, shared.NewPagination(req.Page, req.PerPage, total), nil
}

// LowStock returns every item at or below its reorder threshold.
func (s *Service) LowStock(ctx context.Context) ([]ItemView, error) {
	items, err := s.repo.ListLowStock(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]ItemView, 0, len(items))
	for i := range items {
		views = append(views, *view(&items[i]))
	}
	return views, nil
}

func view(item *Item) *ItemView {
	return &ItemView{Item: *item, LowStock: item.LowStock()}
}

func (s *Service) auditLog(ctx context.Context, action string, id int64) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		Actor:    shared.ActorFromContext(ctx),
		Action:   action,
		Entity:   "inventory_item",
		EntityID: strconv.FormatInt(id, 10),
	})
	if err != nil {
		s.logger.Warn("audit log", slog.String("action", action), slog.Any("error", err))
	}
}

package audit

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"time"

	"github.com/nectar-erp/nectar-erp/internal/shared"
)

// Service coordinates audit timeline reads and exports.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService builds the audit service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Timeline returns one page of the audit trail, newest first.
func (s *Service) Timeline(ctx context.Context, f TimelineFilters) ([]Entry, shared.Pagination, error) {
	entries, total, err := s.repo.Timeline(ctx, f)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return entries, shared.NewPagination(f.Page, f.PerPage, total), nil
}

// exportPageSize keeps export queries bounded while still walking the
// whole filtered range.
const exportPageSize = 500

// ExportCSV streams the filtered timeline into a CSV byte buffer.
func (s *Service) ExportCSV(ctx context.Context, f TimelineFilters) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"occurred_at", "actor_name", "actor_role", "action", "entity", "entity_id"}); err != nil {
		return nil, err
	}

	f.PerPage = exportPageSize
	for page := 1; ; page++ {
		f.Page = page
		entries, total, err := s.repo.Timeline(ctx, f)
		if err != nil {
			return nil, fmt.Errorf("export page %d: %w", page, err)
		}
		for _, e := range entries {
			record := []string{
				e.At.Format(time.RFC3339),
				e.ActorName,
				e.ActorRole,
				e.Action,
				e.Entity,
				e.EntityID,
			}
			if err := w.Write(record); err != nil {
				return nil, err
			}
		}
		if page*exportPageSize >= total || len(entries) == 0 {
			break
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

package distributor

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/nectar-erp/nectar-erp/internal/shared"
)

// Service provides business logic for distributor master data.
type Service struct {
	repo   Repository
	audit  *shared.AuditLogger
	logger *slog.Logger
}

// NewService wires the distributor service.
func NewService(repo Repository, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: audit, logger: logger}
}

// Create onboards a distributor. Identifier fields are normalised to upper
// case before insert so the GST uniqueness check is case-insensitive.
func (s *Service) Create(ctx context.Context, req CreateDistributorRequest) (*Distributor, error) {
	d := &Distributor{
		Name:          strings.TrimSpace(req.Name),
		ContactPerson: strings.TrimSpace(req.ContactPerson),
		Phone:         strings.TrimSpace(req.Phone),
		Email:         strings.ToLower(strings.TrimSpace(req.Email)),
		Address:       strings.TrimSpace(req.Address),
		City:          strings.TrimSpace(req.City),
		State:         strings.TrimSpace(req.State),
		Pincode:       req.Pincode,
		AadhaarNumber: req.AadhaarNumber,
		PANNumber:     strings.ToUpper(req.PANNumber),
		GSTNumber:     strings.ToUpper(req.GSTNumber),
		Salesperson:   strings.TrimSpace(req.Salesperson),
		Active:        true,
	}
	id, err := s.repo.Create(ctx, d)
	if err != nil {
		return nil, err
	}
	s.auditLog(ctx, "distributor.created", id)
	return s.repo.Get(ctx, id)
}

// Get returns a distributor by id.
func (s *Service) Get(ctx context.Context, id int64) (*Distributor, error) {
	return s.repo.Get(ctx, id)
}

// Update applies the editable fields that are present in the request.
func (s *Service) Update(ctx context.Context, id int64, req UpdateDistributorRequest) (*Distributor, error) {
	d, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	applyIfSet(&d.ContactPerson, req.ContactPerson)
	applyIfSet(&d.Phone, req.Phone)
	applyIfSet(&d.Email, req.Email)
	applyIfSet(&d.Address, req.Address)
	applyIfSet(&d.City, req.City)
	applyIfSet(&d.State, req.State)
	applyIfSet(&d.Pincode, req.Pincode)
	applyIfSet(&d.Salesperson, req.Salesperson)

	if err := s.repo.Update(ctx, d); err != nil {
		return nil, err
	}
	s.auditLog(ctx, "distributor.updated", id)
	return s.repo.Get(ctx, id)
}

// ToggleStatus flips the active flag.
func (s *Service) ToggleStatus(ctx context.Context, id int64) (*Distributor, error) {
	d, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetActive(ctx, id, !d.Active); err != nil {
		return nil, err
	}
	s.auditLog(ctx, "distributor.status_toggled", id)
	return s.repo.Get(ctx, id)
}

// List returns distributors matching the filter plus pagination metadata.
func (s *Service) List(ctx context.Context, req ListDistributorsRequest) ([]Distributor, shared.Pagination, error) {
	distributors, total, err := s.repo.List(ctx, req)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return distributors, shared.NewPagination(req.Page, req.PerPage, total), nil
}

func (s *Service) auditLog(ctx context.Context, action string, id int64) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		Actor:    shared.ActorFromContext(ctx),
		Action:   action,
		Entity:   "distributor",
		EntityID: strconv.FormatInt(id, 10),
	})
	if err != nil {
		s.logger.Warn("audit log", slog.String("action", action), slog.Any("error", err))
	}
}

func applyIfSet(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/nectar-erp/nectar-erp/internal/shared"
)

// Service provides business logic for ledger accounts.
type Service struct {
	repo   Repository
	audit  *shared.AuditLogger
	logger *slog.Logger
}

// NewService wires the ledger service.
func NewService(repo Repository, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: audit, logger: logger}
}

// Create opens a ledger account with a zero opening balance.
func (s *Service) Create(ctx context.Context, req CreateAccountRequest) (*Account, error) {
	a := &Account{
		AccountNumber: strings.TrimSpace(req.AccountNumber),
		AccountName:   strings.TrimSpace(req.AccountName),
		AccountType:   req.AccountType,
		DistributorID: req.DistributorID,
		CreditLimit:   req.CreditLimit,
	}
	id, err := s.repo.Create(ctx, a)
	if err != nil {
		return nil, err
	}
	s.auditLog(ctx, "ledger.account_created", id)
	return s.repo.Get(ctx, id)
}

// Get returns an account by id.
func (s *Service) Get(ctx context.Context, id int64) (*Account, error) {
	return s.repo.Get(ctx, id)
}

// PostEntry applies a signed amount to the account balance. Credits are
// positive, debits negative. A debit may not push the balance below the
// negative credit limit.
func (s *Service) PostEntry(ctx context.Context, id int64, req PostEntryRequest) (*Account, error) {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	newBalance := a.CurrentBalance + req.Amount
	if req.Amount < 0 && newBalance < -a.CreditLimit {
		return nil, fmt.Errorf("%w: balance %.2f, limit %.2f", ErrCreditLimitExceeded, newBalance, a.CreditLimit)
	}

	if err := s.repo.UpdateBalance(ctx, id, a.Version, newBalance); err != nil {
		return nil, err
	}
	s.auditLog(ctx, "ledger.entry_posted", id)
	return s.repo.Get(ctx, id)
}

// List returns accounts matching the filter plus pagination metadata. Sorting
// and slicing happen in the repository, never in handler memory.
func (s *Service) List(ctx context.Context, req ListAccountsRequest) ([]Account, shared.Pagination, error) {
	if req.Type != "" && !req.Type.IsValid() {
		return nil, shared.Pagination{}, fmt.Errorf("unknown account type %q", req.Type)
	}
	if req.SortBy != "" {
		if _, ok := sortColumns[req.SortBy]; !ok {
			return nil, shared.Pagination{}, fmt.Errorf("unknown sort column %q", req.SortBy)
		}
	}
	accounts, total, err := s.repo.List(ctx, req)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return accounts, shared.NewPagination(req.Page, req.PerPage, total), nil
}

func (s *Service) auditLog(ctx context.Context, action string, id int64) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		Actor:    shared.ActorFromContext(ctx),
		Action:   action,
		Entity:   "ledger_account",
		EntityID: strconv.FormatInt(id, 10),
	})
	if err != nil {
		s.logger.Warn("audit log", slog.String("action", action), slog.Any("error", err))
	}
}

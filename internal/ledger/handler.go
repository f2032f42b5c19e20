package ledger

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/nectar-erp/nectar-erp/internal/platform/httpx"
)

// Handler exposes ledger account endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler wires the ledger HTTP handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers ledger routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/accounts", h.list)
	r.Post("/accounts", h.create)
	r.Get("/accounts/{id}", h.show)
	r.Post("/accounts/{id}/entries", h.postEntry)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	req := ListAccountsRequest{
		Type:    AccountType(q.Get("type")),
		Search:  q.Get("search"),
		SortBy:  q.Get("sort_by"),
		Desc:    q.Get("order") == "desc",
		Page:    page,
		PerPage: perPage,
	}
	accounts, pagination, err := h.service.List(r.Context(), req)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid filter", err.Error())
		return
	}
	httpx.OK(w, "Accounts fetched", map[string]any{
		"accounts":   accounts,
		"pagination": pagination,
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation failed", err.Error())
		return
	}
	a, err := h.service.Create(r.Context(), req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, "Account created", a)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	a, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "Account fetched", a)
}

func (h *Handler) postEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	var req PostEntryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation failed", err.Error())
		return
	}
	a, err := h.service.PostEntry(r.Context(), id, req)
	if errors.Is(err, ErrCreditLimitExceeded) {
		httpx.Problem(w, http.StatusConflict, "Credit limit exceeded", err.Error())
		return
	}
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "Entry posted", a)
}

func (h *Handler) parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid id", "id must be a positive integer")
		return 0, false
	}
	return id, true
}

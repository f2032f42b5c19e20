package distributor

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/nectar-erp/nectar-erp/internal/platform/httpx"
)

// Handler exposes distributor master endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler wires the distributor HTTP handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers distributor routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.show)
	r.Put("/{id}", h.update)
	r.Post("/{id}/toggle-status", h.toggleStatus)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	req := ListDistributorsRequest{
		Search:  q.Get("search"),
		Page:    page,
		PerPage: perPage,
	}
	if v := q.Get("active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid filter", "active must be true or false")
			return
		}
		req.Active = &active
	}
	distributors, pagination, err := h.service.List(r.Context(), req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "Distributors fetched", map[string]any{
		"distributors": distributors,
		"pagination":   pagination,
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateDistributorRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation failed", err.Error())
		return
	}
	d, err := h.service.Create(r.Context(), req)
	if errors.Is(err, ErrDuplicateGST) {
		httpx.Problem(w, http.StatusConflict, "Duplicate GST number", err.Error())
		return
	}
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, "Distributor created", d)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	d, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "Distributor fetched", d)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	var req UpdateDistributorRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation failed", err.Error())
		return
	}
	d, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "Distributor updated", d)
}

func (h *Handler) toggleStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	d, err := h.service.ToggleStatus(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "Distributor status updated", d)
}

func (h *Handler) parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid id", "id must be a positive integer")
		return 0, false
	}
	return id, true
}

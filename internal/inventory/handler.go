package inventory

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/nectar-erp/nectar-erp/internal/platform/httpx"
)

// Handler exposes inventory endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler wires the inventory HTTP handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers inventory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/low-stock", h.lowStock)
	r.Get("/{id}", h.show)
	r.Post("/{id}/adjust", h.adjust)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	req := ListItemsRequest{
		Category: Category(q.Get("category")),
		Search:   q.Get("search"),
		LowOnly:  q.Get("low_stock") == "true",
		Page:     page,
		PerPage:  perPage,
	}
	items, pagination, err := h.service.List(r.Context(), req)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid filter", err.Error())
		return
	}
	httpx.OK(w, "Items fetched", map[string]any{
		"items":      items,
		"pagination": pagination,
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateItemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation failed", err.Error())
		return
	}
	item, err := h.service.Create(r.Context(), req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, "Item created", item)
}

func (h *Handler) lowStock(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.LowStock(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "Low-stock items fetched", items)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	item, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "Item fetched", item)
}

func (h *Handler) adjust(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	var req AdjustQuantityRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation failed", err.Error())
		return
	}
	item, err := h.service.Adjust(r.Context(), id, req)
	if errors.Is(err, ErrInsufficientStock) {
		httpx.Problem(w, http.StatusConflict, "Insufficient stock", err.Error())
		return
	}
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "Quantity adjusted", item)
}

func (h *Handler) parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid id", "id must be a positive integer")
		return 0, false
	}
	return id, true
}

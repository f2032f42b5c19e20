package logistics

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/nectar-erp/nectar-erp/internal/platform/httpx"
)

// Handler exposes shipment endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler wires the logistics HTTP handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers shipment routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/stats", h.stats)
	r.Get("/{shipmentNumber}", h.show)
	r.Get("/{shipmentNumber}/history", h.history)
	r.Post("/{shipmentNumber}/checkpoints/advance", h.advanceCheckpoint)
	r.Post("/{shipmentNumber}/status", h.updateStatus)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	req := ListShipmentsRequest{
		Status:  ShipmentStatus(q.Get("status")),
		Mode:    TransportMode(q.Get("mode")),
		Search:  q.Get("search"),
		Page:    page,
		PerPage: perPage,
	}
	views, pagination, err := h.service.List(r.Context(), req)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid filter", err.Error())
		return
	}
	httpx.OK(w, "Shipments fetched", map[string]any{
		"shipments":  views,
		"pagination": pagination,
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateShipmentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation failed", err.Error())
		return
	}
	view, err := h.service.Create(r.Context(), req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, "Shipment created", view)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.GetByNumber(r.Context(), chi.URLParam(r, "shipmentNumber"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "Shipment fetched", view)
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	logs, err := h.service.History(r.Context(), chi.URLParam(r, "shipmentNumber"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "Shipment history fetched", logs)
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "Shipment stats fetched", stats)
}

func (h *Handler) advanceCheckpoint(w http.ResponseWriter, r *http.Request) {
	var req AdvanceCheckpointRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation failed", err.Error())
		return
	}
	view, err := h.service.AdvanceCheckpoint(r.Context(), chi.URLParam(r, "shipmentNumber"), req)
	switch {
	case errors.Is(err, ErrNotFrontier):
		httpx.Problem(w, http.StatusConflict, "Checkpoint out of order", err.Error())
	case errors.Is(err, ErrShipmentClosed):
		httpx.Problem(w, http.StatusConflict, "Shipment closed", err.Error())
	case err != nil:
		httpx.RespondError(w, err)
	default:
		httpx.OK(w, "Checkpoint completed", view)
	}
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation failed", err.Error())
		return
	}
	view, err := h.service.UpdateStatus(r.Context(), chi.URLParam(r, "shipmentNumber"), req)
	if errors.Is(err, ErrInvalidStatusChange) {
		httpx.Problem(w, http.StatusConflict, "Status change not allowed", err.Error())
		return
	}
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "Shipment status updated", view)
}

package orders

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/nectar-erp/nectar-erp/internal/platform/httpx"
	"github.com/nectar-erp/nectar-erp/internal/shared"
)

// IdempotencyHeader carries the caller-chosen replay-protection key for
// transition endpoints.
const IdempotencyHeader = "Idempotency-Key"

// Handler exposes the order workflow over JSON.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	idempotency *shared.IdempotencyStore
	validator   *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, idempotency *shared.IdempotencyStore) *Handler {
	return &Handler{
		logger:      logger,
		service:     service,
		idempotency: idempotency,
		validator:   validator.New(),
	}
}

// MountRoutes registers order routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/stats", h.stats)
	r.Get("/{id}", h.show)
	r.Get("/{id}/history", h.history)
	r.Post("/{id}/steps/advance", h.advanceStep)
	r.Post("/{id}/goods-receipt", h.goodsReceipt)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	req := ListOrdersRequest{
		Search: r.URL.Query().Get("search"),
		Status: StatusFilter(r.URL.Query().Get("status")),
	}
	if req.Status == "" {
		req.Status = FilterAll
	}
	req.Page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	req.PerPage, _ = strconv.Atoi(r.URL.Query().Get("per_page"))

	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}

	views, pagination, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list orders", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "orders retrieved", map[string]any{
		"orders":     views,
		"pagination": pagination,
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}

	view, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.logger.Error("create order", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, "order created", view)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	view, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "order retrieved", view)
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	logs, err := h.service.History(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "history retrieved", logs)
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.logger.Error("order stats", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "stats retrieved", stats)
}

func (h *Handler) advanceStep(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	var req AdvanceStepRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}
	if !h.claimIdempotency(w, r) {
		return
	}

	view, err := h.service.AdvanceStep(r.Context(), id, req)
	if err != nil {
		h.releaseIdempotency(r)
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "step advanced", view)
}

func (h *Handler) goodsReceipt(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	var req GoodsReceiptRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}
	if !h.claimIdempotency(w, r) {
		return
	}

	view, err := h.service.RecordGoodsReceipt(r.Context(), id, req)
	if err != nil {
		h.releaseIdempotency(r)
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "goods receipt recorded", view)
}

func (h *Handler) parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid order id")
		return 0, false
	}
	return id, true
}

// claimIdempotency reserves the request key when one is provided. A replay
// of an already-claimed key is rejected before the engine runs.
func (h *Handler) claimIdempotency(w http.ResponseWriter, r *http.Request) bool {
	key := r.Header.Get(IdempotencyHeader)
	if key == "" || h.idempotency == nil {
		return true
	}
	if err := h.idempotency.CheckAndInsert(r.Context(), key, Module); err != nil {
		httpx.RespondError(w, err)
		return false
	}
	return true
}

// releaseIdempotency frees the key after a failed transition so the caller
// can retry with the same key.
func (h *Handler) releaseIdempotency(r *http.Request) {
	key := r.Header.Get(IdempotencyHeader)
	if key == "" || h.idempotency == nil {
		return
	}
	if err := h.idempotency.Delete(r.Context(), key); err != nil {
		h.logger.Warn("release idempotency key", slog.Any("error", err))
	}
}

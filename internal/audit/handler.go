package audit

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nectar-erp/nectar-erp/internal/platform/httpx"
)

// Handler exposes audit trail endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler wires the audit HTTP handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers audit routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.timeline)
	r.Get("/export", h.export)
}

func (h *Handler) timeline(w http.ResponseWriter, r *http.Request) {
	filters, err := parseFilters(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid filter", err.Error())
		return
	}
	entries, pagination, err := h.service.Timeline(r.Context(), filters)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "Audit timeline fetched", map[string]any{
		"entries":    entries,
		"pagination": pagination,
	})
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	filters, err := parseFilters(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid filter", err.Error())
		return
	}
	data, err := h.service.ExportCSV(r.Context(), filters)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	filename := "audit-" + time.Now().Format("20060102") + ".csv"
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func parseFilters(r *http.Request) (TimelineFilters, error) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	filters := TimelineFilters{
		Actor:   q.Get("actor"),
		Entity:  q.Get("entity"),
		Action:  q.Get("action"),
		Page:    page,
		PerPage: perPage,
	}
	var err error
	if filters.From, err = parseDate(q.Get("from")); err != nil {
		return TimelineFilters{}, err
	}
	if filters.To, err = parseDate(q.Get("to")); err != nil {
		return TimelineFilters{}, err
	}
	return filters, nil
}

func parseDate(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", v)
}

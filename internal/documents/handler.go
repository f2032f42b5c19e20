package documents

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/nectar-erp/nectar-erp/internal/platform/httpx"
	"github.com/nectar-erp/nectar-erp/report"
)

// PDFRenderer converts HTML to a PDF byte stream.
type PDFRenderer interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// Handler exposes document endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	pdf       PDFRenderer
	validator *validator.Validate
}

// NewHandler wires the document HTTP handler. The PDF renderer may be nil, in
// which case downloads are served as plain text only.
func NewHandler(logger *slog.Logger, service *Service, pdf PDFRenderer) *Handler {
	return &Handler{logger: logger, service: service, pdf: pdf, validator: validator.New()}
}

// MountRoutes registers document routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/generate", h.generate)
	r.Get("/{docNumber}", h.show)
	r.Get("/{docNumber}/download", h.download)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	orderNumber := r.URL.Query().Get("order_number")
	if orderNumber == "" {
		httpx.Problem(w, http.StatusBadRequest, "Missing parameter", "order_number query parameter is required")
		return
	}
	docs, err := h.service.ListByOrder(r.Context(), orderNumber)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "Documents fetched", docs)
}

func (h *Handler) generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation failed", err.Error())
		return
	}
	doc, err := h.service.Generate(r.Context(), req)
	switch {
	case errors.Is(err, ErrNoArtifact):
		httpx.Problem(w, http.StatusBadRequest, "No artifact for step", err.Error())
	case errors.Is(err, ErrStepNotCompleted):
		httpx.Problem(w, http.StatusConflict, "Step not completed", "the step must be approved before its document can be generated")
	case err != nil:
		httpx.RespondError(w, err)
	default:
		httpx.Created(w, "Document generated", doc)
	}
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	doc, err := h.service.Get(r.Context(), chi.URLParam(r, "docNumber"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "Document fetched", doc)
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	doc, err := h.service.Get(r.Context(), chi.URLParam(r, "docNumber"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if r.URL.Query().Get("format") == "pdf" {
		h.downloadPDF(w, r, doc)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+doc.DocNumber+`.txt"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(doc.Payload))
}

func (h *Handler) downloadPDF(w http.ResponseWriter, r *http.Request, doc *Document) {
	if h.pdf == nil {
		httpx.Problem(w, http.StatusNotImplemented, "PDF rendering unavailable", "no PDF renderer is configured")
		return
	}
	pdf, err := h.pdf.RenderHTML(r.Context(), report.DocumentHTML(doc.DocNumber, doc.Payload))
	if err != nil {
		h.logger.Error("render document pdf", slog.String("doc", doc.DocNumber), slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "PDF rendering failed", "the PDF rendering service did not respond")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+doc.DocNumber+`.pdf"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/nectar-erp/nectar-erp/internal/audit"
	"github.com/nectar-erp/nectar-erp/internal/distributor"
	"github.com/nectar-erp/nectar-erp/internal/documents"
	"github.com/nectar-erp/nectar-erp/internal/inventory"
	"github.com/nectar-erp/nectar-erp/internal/ledger"
	"github.com/nectar-erp/nectar-erp/internal/logistics"
	"github.com/nectar-erp/nectar-erp/internal/observability"
	"github.com/nectar-erp/nectar-erp/internal/orders"
	"github.com/nectar-erp/nectar-erp/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	OrdersHandler      *orders.Handler
	DocumentsHandler   *documents.Handler
	LogisticsHandler   *logistics.Handler
	DistributorHandler *distributor.Handler
	LedgerHandler      *ledger.Handler
	InventoryHandler   *inventory.Handler
	AuditHandler       *audit.Handler
	JobsHandler        *jobs.Handler
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router with service defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)
	if params.Metrics != nil {
		r.Use(params.Metrics.Middleware)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/orders", params.OrdersHandler.MountRoutes)
	r.Route("/documents", params.DocumentsHandler.MountRoutes)
	r.Route("/logistics", params.LogisticsHandler.MountRoutes)
	r.Route("/distributors", params.DistributorHandler.MountRoutes)
	r.Route("/ledger", params.LedgerHandler.MountRoutes)
	r.Route("/inventory", params.InventoryHandler.MountRoutes)
	if params.AuditHandler != nil {
		r.Route("/audit", params.AuditHandler.MountRoutes)
	}
	if params.JobsHandler != nil {
		r.Route("/jobs", params.JobsHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}

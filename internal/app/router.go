package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-grc/meridian-grc/internal/hodledger"
	"github.com/meridian-grc/meridian-grc/internal/inspection"
	"github.com/meridian-grc/meridian-grc/internal/ledger"
	"github.com/meridian-grc/meridian-grc/internal/observability"
	"github.com/meridian-grc/meridian-grc/internal/position"
	"github.com/meridian-grc/meridian-grc/internal/responsibility"
	"github.com/meridian-grc/meridian-grc/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger                *slog.Logger
	Config                *Config
	LedgerHandler         *ledger.Handler
	HodLedgerHandler      *hodledger.Handler
	ResponsibilityHandler *responsibility.Handler
	PositionHandler       *position.Handler
	InspectionHandler     *inspection.Handler
	JobHandler            *jobs.Handler
	Pool                  *pgxpool.Pool
	Metrics               *observability.Metrics
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api", func(api chi.Router) {
		if params.LedgerHandler != nil {
			api.Route("/ledger-orders", params.LedgerHandler.MountRoutes)
		}
		if params.HodLedgerHandler != nil {
			api.Route("/hod-ledgers", params.HodLedgerHandler.MountRoutes)
		}
		if params.ResponsibilityHandler != nil {
			api.Route("/responsibilities", params.ResponsibilityHandler.MountRoutes)
		}
		if params.PositionHandler != nil {
			api.Route("/positions/concurrent", params.PositionHandler.MountRoutes)
		}
		if params.InspectionHandler != nil {
			api.Route("/inspections", params.InspectionHandler.MountRoutes)
		}
		if params.JobHandler != nil {
			api.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	return r
}

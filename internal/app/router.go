package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/velora-salon/velora-salon/internal/auth"
	"github.com/velora-salon/velora-salon/internal/billing"
	"github.com/velora-salon/velora-salon/internal/cashbook"
	"github.com/velora-salon/velora-salon/internal/masterdata/branches"
	"github.com/velora-salon/velora-salon/internal/masterdata/customers"
	"github.com/velora-salon/velora-salon/internal/masterdata/services"
	"github.com/velora-salon/velora-salon/internal/masterdata/staff"
	"github.com/velora-salon/velora-salon/internal/observability"
	"github.com/velora-salon/velora-salon/internal/packages"
	"github.com/velora-salon/velora-salon/internal/scheduling/availability"
	"github.com/velora-salon/velora-salon/internal/scheduling/booking"
	"github.com/velora-salon/velora-salon/internal/sessionledger"
	"github.com/velora-salon/velora-salon/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger *slog.Logger
	Config *Config

	AuthService *auth.Service

	AuthHandler         *auth.Handler
	BranchHandler       *branches.Handler
	ServiceHandler      *services.Handler
	StaffHandler        *staff.Handler
	CustomerHandler     *customers.Handler
	PackageHandler      *packages.Handler
	AvailabilityHandler *availability.Handler
	BookingHandler      *booking.Handler
	LedgerHandler       *sessionledger.Handler
	BillingHandler      *billing.Handler
	CashbookHandler     *cashbook.Handler
	JobHandler          *jobs.Handler

	Metrics *observability.Metrics
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
	if params.AuthService != nil {
		r.Use(auth.Middleware(params.AuthService))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.AuthHandler != nil {
		r.Route("/auth", params.AuthHandler.MountRoutes)
	}

	r.Group(func(r chi.Router) {
		if params.AuthService != nil {
			r.Use(auth.RequireAuth)
		}
		if params.BranchHandler != nil {
			r.Route("/branches", params.BranchHandler.MountRoutes)
		}
		if params.ServiceHandler != nil {
			r.Route("/services", params.ServiceHandler.MountRoutes)
		}
		if params.StaffHandler != nil {
			r.Route("/staff", params.StaffHandler.MountRoutes)
		}
		if params.CustomerHandler != nil {
			r.Route("/customers", params.CustomerHandler.MountRoutes)
		}
		if params.PackageHandler != nil {
			r.Route("/packages", params.PackageHandler.MountRoutes)
		}
		if params.AvailabilityHandler != nil {
			r.Route("/availability", params.AvailabilityHandler.MountRoutes)
		}
		if params.BookingHandler != nil {
			r.Route("/appointments", params.BookingHandler.MountRoutes)
		}
		if params.LedgerHandler != nil {
			r.Route("/usage", params.LedgerHandler.MountRoutes)
		}
		if params.BillingHandler != nil {
			r.Route("/billing", params.BillingHandler.MountRoutes)
		}
		if params.CashbookHandler != nil {
			r.Route("/cashbook", params.CashbookHandler.MountRoutes)
		}
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}

package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/straye-as/sales-dashboard-api/internal/auth"
	"github.com/straye-as/sales-dashboard-api/internal/config"
	"github.com/straye-as/sales-dashboard-api/internal/http/handler"
	"github.com/straye-as/sales-dashboard-api/internal/http/middleware"
	"github.com/straye-as/sales-dashboard-api/internal/metrics"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"

	_ "github.com/straye-as/sales-dashboard-api/docs" // Import swagger docs
)

type Router struct {
	cfg              *config.Config
	logger           *zap.Logger
	metrics          *metrics.Metrics
	authMiddleware   *auth.Middleware
	rateLimiter      *middleware.RateLimiter
	healthHandler    *handler.HealthHandler
	dashboardHandler *handler.DashboardHandler
	quotaHandler     *handler.QuotaHandler
	refreshHandler   *handler.RefreshHandler
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	m *metrics.Metrics,
	authMiddleware *auth.Middleware,
	rateLimiter *middleware.RateLimiter,
	healthHandler *handler.HealthHandler,
	dashboardHandler *handler.DashboardHandler,
	quotaHandler *handler.QuotaHandler,
	refreshHandler *handler.RefreshHandler,
) *Router {
	return &Router{
		cfg:              cfg,
		logger:           logger,
		metrics:          m,
		authMiddleware:   authMiddleware,
		rateLimiter:      rateLimiter,
		healthHandler:    healthHandler,
		dashboardHandler: dashboardHandler,
		quotaHandler:     quotaHandler,
		refreshHandler:   refreshHandler,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.Metrics(rt.metrics))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP)

	// Health checks
	r.Get("/health", rt.healthHandler.Live)
	r.Get("/health/db", rt.healthHandler.Database)
	r.Get("/health/ready", rt.healthHandler.Ready)

	if rt.cfg.Metrics.Enabled {
		r.Handle(rt.cfg.Metrics.Path, rt.metrics.Handler())
	}

	// Swagger documentation
	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	// Path the dashboard frontend polls
	r.With(rt.authMiddleware.Authenticate).Get("/api/dashboard-data", rt.dashboardHandler.GetDashboard)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rt.authMiddleware.Authenticate)

		// Dashboard
		r.Get("/dashboard", rt.dashboardHandler.GetDashboard)
		r.Get("/dashboard/overview", rt.dashboardHandler.GetOverview)
		r.Get("/dashboard/agents", rt.dashboardHandler.GetAgentPerformance)
		r.Get("/fiscal/calendar", rt.dashboardHandler.GetFiscalCalendar)

		// Quotas
		r.Route("/quotas", func(r chi.Router) {
			r.Get("/", rt.quotaHandler.List)
			r.Group(func(r chi.Router) {
				r.Use(rt.authMiddleware.RequireAdmin)
				r.Put("/{region}", rt.quotaHandler.Upsert)
				r.Delete("/{region}", rt.quotaHandler.Delete)
			})
		})

		// Snapshot refresh
		r.With(rt.authMiddleware.RequireAdmin).Post("/refresh", rt.refreshHandler.Refresh)
	})

	return r
}

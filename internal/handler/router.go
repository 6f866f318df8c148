package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/afrominerals/atlas/internal/domain"
	"github.com/afrominerals/atlas/internal/metrics"
	"github.com/afrominerals/atlas/internal/service"
)

// Router assembles the API from the role-gated handler groups.
type Router struct {
	authHandler      *AuthHandler
	dashboardHandler *DashboardHandler
	adminHandler     *AdminHandler
	sessionService   *service.SessionService
	metrics          *metrics.Metrics
	logger           zerolog.Logger
}

// RouterConfig contains configuration for the router.
type RouterConfig struct {
	AuthHandler      *AuthHandler
	DashboardHandler *DashboardHandler
	AdminHandler     *AdminHandler
	SessionService   *service.SessionService
	Metrics          *metrics.Metrics
	Logger           zerolog.Logger
}

// NewRouter creates a new Router.
func NewRouter(cfg RouterConfig) *Router {
	return &Router{
		authHandler:      cfg.AuthHandler,
		dashboardHandler: cfg.DashboardHandler,
		adminHandler:     cfg.AdminHandler,
		sessionService:   cfg.SessionService,
		metrics:          cfg.Metrics,
		logger:           cfg.Logger.With().Str("component", "router").Logger(),
	}
}

// Handler returns the main HTTP handler. Access follows the role to page
// mapping: every authenticated role reaches the rankings and the map, the
// full dashboard is reserved for Researcher and Administrator, and the
// admin routes for Administrator alone.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(rt.logger))
	if rt.metrics != nil {
		r.Use(MetricsMiddleware(rt.metrics))
	}
	r.Use(SessionMiddleware(rt.sessionService))

	r.Get("/health", rt.handleHealth)

	rt.authHandler.RegisterRoutes(r)

	r.Group(func(r chi.Router) {
		r.Use(RequireSession)
		rt.dashboardHandler.RegisterSharedRoutes(r)
	})

	r.Group(func(r chi.Router) {
		r.Use(RequireSession)
		r.Use(RequireRole(domain.RoleResearcher, domain.RoleAdministrator))
		rt.dashboardHandler.RegisterFullRoutes(r)
	})

	r.Group(func(r chi.Router) {
		r.Use(RequireSession)
		r.Use(RequireRole(domain.RoleAdministrator))
		rt.adminHandler.RegisterRoutes(r)
	})

	return r
}

// handleHealth handles health check requests.
func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

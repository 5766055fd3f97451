package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vigility/dashboard/internal/api/handlers"
	"github.com/vigility/dashboard/internal/api/middleware"
	"github.com/vigility/dashboard/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	dashboardHandler *handlers.DashboardHandler
	authHandler      *handlers.AuthHandler
	healthHandler    *handlers.HealthHandler
	sseHandler       *handlers.SSEHandler

	allowedOrigins []string
	metrics        *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	dashboardHandler *handlers.DashboardHandler,
	authHandler *handlers.AuthHandler,
	healthHandler *handlers.HealthHandler,
	sseHandler *handlers.SSEHandler,
	allowedOrigins []string,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		dashboardHandler: dashboardHandler,
		authHandler:      authHandler,
		healthHandler:    healthHandler,
		sseHandler:       sseHandler,
		allowedOrigins:   allowedOrigins,
		metrics:          metrics,
	}
}

// Handler builds the HTTP handler with every route and middleware applied
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.LoggingMiddleware)
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORSMiddleware(rt.allowedOrigins))
	r.Use(middleware.ObservabilityMiddleware(rt.metrics))

	r.Get("/health", rt.healthHandler.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/dashboard", rt.dashboardHandler.GetDashboard)
		r.Get("/dashboard/stream", rt.sseHandler.StreamDashboard)
		r.Post("/refresh", rt.dashboardHandler.Refresh)

		r.Route("/filters", func(r chi.Router) {
			r.Delete("/", rt.dashboardHandler.ClearAll)
			r.Put("/date-range", rt.dashboardHandler.SetDateRange)
			r.Put("/age-group", rt.dashboardHandler.SetAgeGroup)
			r.Put("/gender", rt.dashboardHandler.SetGender)
			r.Post("/feature/toggle", rt.dashboardHandler.ToggleFeature)
			r.Delete("/feature", rt.dashboardHandler.ClearFeature)
		})

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", rt.authHandler.Login)
			r.Post("/register", rt.authHandler.Register)
			r.Post("/logout", rt.authHandler.Logout)
			r.Post("/forgot-password", rt.authHandler.ForgotPassword)
			r.Post("/reset-password", rt.authHandler.ResetPassword)
			r.Get("/me", rt.authHandler.Me)
		})
	})

	return r
}

package handlers

import (
	"time"

	"github.com/GrandGaleTechnologies/docops-console/internal/middleware"
	"github.com/GrandGaleTechnologies/docops-console/internal/services"
	"github.com/GrandGaleTechnologies/docops-console/pkg/config"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Deps bundles everything the router needs.
type Deps struct {
	Config       *config.Config
	Sessions     *services.SessionService
	Auth         *AuthHandler
	Projects     *ProjectsHandler
	Integrations *IntegrationsHandler
	Syncs        *SyncsHandler
	Dashboard    *DashboardHandler
	Health       *HealthHandler
	Pages        *PagesHandler
	RateLimiter  *middleware.RateLimiter
}

// NewRouter assembles the console's full HTTP surface:
//
//   - /health, /ready, /metrics: unauthenticated operational endpoints
//   - /api/auth/...: login and register behind the rate limiter,
//     everything else behind RequireSession
//   - /api/...: resource endpoints, all behind RequireSession
//   - /, /sync, /projects, /login: page routes behind the route guard
func NewRouter(d Deps) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(d.Config.CORS.AllowedOrigins))
	r.Use(chimiddleware.Compress(5))
	r.Use(chimiddleware.Timeout(60 * time.Second))

	r.Get("/health", d.Health.Health)
	r.Get("/ready", d.Health.Ready)
	r.Handle("/metrics", middleware.MetricsHandler())

	resolve := middleware.ResolveSession(d.Sessions, d.Config.Session.CookieName)

	r.Group(func(r chi.Router) {
		r.Use(resolve)

		r.Route("/api", func(r chi.Router) {
			r.Route("/auth", func(r chi.Router) {
				r.Group(func(r chi.Router) {
					r.Use(d.RateLimiter.Limit("login"))
					r.Post("/login", d.Auth.Login)
					r.Post("/register", d.Auth.Register)
				})

				r.Get("/session", d.Auth.Session)
				r.Post("/logout", d.Auth.Logout)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireSession())
					r.Get("/me", d.Auth.Me)
					r.Get("/sessions", d.Auth.ListSessions)
					r.Delete("/sessions/{sid}", d.Auth.RevokeSession)
				})
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireSession())

				r.Route("/projects", func(r chi.Router) {
					r.Get("/", d.Projects.List)
					r.Post("/", d.Projects.Create)
					r.Route("/{id}", func(r chi.Router) {
						r.Get("/", d.Projects.Get)
						r.Put("/", d.Projects.Update)
						r.Delete("/", d.Projects.Delete)
						r.Get("/status", d.Projects.UpdateStatus)
						r.Get("/integrations", d.Integrations.ListForProject)
						r.Post("/integrations", d.Integrations.Attach)
					})
				})

				r.Delete("/integrations/{id}", d.Integrations.Detach)

				r.Route("/syncs", func(r chi.Router) {
					r.Get("/", d.Syncs.List)
					r.Route("/{id}", func(r chi.Router) {
						r.Get("/", d.Syncs.Get)
						r.Post("/trigger", d.Syncs.Trigger)
						r.Delete("/", d.Syncs.Delete)
					})
				})

				r.Route("/dashboard", func(r chi.Router) {
					r.Get("/stats", d.Dashboard.Stats)
					r.Get("/chart", d.Dashboard.Chart)
				})
			})
		})

		// Page routes, gated by the route guard.
		r.Get("/", d.Pages.Serve)
		r.Get("/sync", d.Pages.Serve)
		r.Get("/projects", d.Pages.Serve)
		r.Get("/login", d.Pages.Serve)
	})

	return r
}

// Package server assembles the HTTP surface: routing, guard placement,
// and the standard middleware chain.
package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"user-session-api/internal/authz"
	"user-session-api/internal/security"
	"user-session-api/internal/server/middleware"
	"user-session-api/internal/server/respond"
	sessionhandler "user-session-api/internal/session/handler"
	userhandler "user-session-api/internal/user/handler"
)

// Deps holds everything the router needs wired in.
type Deps struct {
	Tokens   *security.TokenProvider
	Policy   *authz.RoutePolicy
	Users    *userhandler.Handler
	Sessions *sessionhandler.Handler
	// Health reports readiness; typically the database ping. nil means
	// always healthy.
	Health func(ctx context.Context) error
}

// NewRouter builds the full route tree. Everything under /api sits
// behind the credential guard except what the route policy marks public;
// logout alone uses the optional guard so a dead credential can still
// clear its cookie.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Telemetry())

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if d.Health != nil {
			if err := d.Health(req.Context()); err != nil {
				respond.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(api chi.Router) {
		api.Group(func(g chi.Router) {
			g.Use(middleware.RequireAuth(d.Tokens, d.Policy))

			g.Post("/users", d.Users.Create)
			g.Get("/users", d.Users.List)
			g.Get("/users/{uuid}", d.Users.Get)
			g.Put("/users/{uuid}", d.Users.Update)
			g.Delete("/users/{uuid}", d.Users.Delete)

			g.Post("/sessions", d.Sessions.Create)
			g.Put("/sessions", d.Sessions.Update)
		})

		api.Group(func(g chi.Router) {
			g.Use(middleware.OptionalAuth(d.Tokens))
			g.Delete("/sessions", d.Sessions.Delete)
		})
	})

	return r
}

// Package router define las rutas HTTP del servicio.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	ctrl "github.com/dropDatabas3/hellojohn-jwks/internal/http/controllers"
	httperrors "github.com/dropDatabas3/hellojohn-jwks/internal/http/errors"
	mw "github.com/dropDatabas3/hellojohn-jwks/internal/http/middlewares"
	"github.com/dropDatabas3/hellojohn-jwks/internal/rate"
)

// Deps contiene las dependencias del router.
type Deps struct {
	Controllers *ctrl.Controllers
	RateLimiter rate.Limiter // opcional: solo /auth
	AdminAPIKey string       // vacío = /admin deshabilitado
	Metrics     http.Handler // opcional: GET /metrics
}

// New arma el router completo.
func New(deps Deps) http.Handler {
	c := deps.Controllers
	r := chi.NewRouter()

	r.Use(
		mw.WithRecover(),
		mw.WithRequestID(),
		mw.WithLogging(),
		mw.WithMetrics(),
		mw.WithSecurityHeaders(),
	)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	r.Get("/", c.Index.Get)
	r.Get("/readyz", c.Health.Ready)

	RegisterJWKSRoutes(r, c)
	RegisterAuthRoutes(r, c, deps.RateLimiter)
	RegisterAdminRoutes(r, c, deps.AdminAPIKey)

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}
	return r
}

// RegisterJWKSRoutes registra el documento JWKS en sus dos rutas.
func RegisterJWKSRoutes(r chi.Router, c *ctrl.Controllers) {
	r.Group(func(r chi.Router) {
		r.Use(mw.WithNoStore())
		for _, p := range []string{"/jwks", "/.well-known/jwks.json"} {
			r.Get(p, c.JWKS.Get)
			r.Head(p, c.JWKS.Get)
		}
	})
}

// RegisterAuthRoutes registra POST /auth con rate limit opcional.
func RegisterAuthRoutes(r chi.Router, c *ctrl.Controllers, limiter rate.Limiter) {
	r.With(mw.WithRateLimit(mw.RateLimitConfig{
		Limiter: limiter,
		KeyFunc: mw.IPPathRateKey,
	})).Post("/auth", c.Auth.Issue)
}

// RegisterAdminRoutes registra las operaciones de admin detrás de X-Admin-API-Key.
func RegisterAdminRoutes(r chi.Router, c *ctrl.Controllers, apiKey string) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(mw.RequireAdminKey(apiKey), mw.WithNoStore())
		r.Post("/keys/retire-oldest", c.Admin.RetireOldest)
	})
}

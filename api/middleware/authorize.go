package middleware

import (
	"net/http"

	"github.com/clinica-salud/pacientes-api/api/responses"
	"github.com/clinica-salud/pacientes-api/internal/access"
	pkgerrors "github.com/clinica-salud/pacientes-api/pkg/errors"
	"github.com/clinica-salud/pacientes-api/pkg/logger"
	"github.com/go-chi/chi/v5"
)

// Authorize enforces the requirement registered in table for the matched
// route. It must run after Auth and be mounted with r.With or r.Group so chi
// has resolved the route pattern. Routes missing from the table are denied.
func Authorize(engine *access.Engine, table access.Table, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			role := RoleFromContext(ctx)
			if _, ok := IdentityFromContext(ctx); !ok {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			pattern := routePattern(r)
			req, ok := table.Lookup(r.Method, pattern)
			if !ok {
				if logg != nil {
					logg.Warn(logg.WithField(ctx, "route", access.RouteKey(r.Method, pattern)), "authorize.route_unlisted")
				}
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "route not permitted"))
				return
			}

			if err := engine.Check(role, req); err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return r.URL.Path
	}
	if pattern := rctx.RoutePattern(); pattern != "" {
		return pattern
	}
	return r.URL.Path
}

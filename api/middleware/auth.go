package middleware

import (
	"errors"
	"net/http"

	"github.com/clinica-salud/pacientes-api/api/responses"
	"github.com/clinica-salud/pacientes-api/api/validators"
	pkgAuth "github.com/clinica-salud/pacientes-api/pkg/auth"
	"github.com/clinica-salud/pacientes-api/pkg/config"
	pkgerrors "github.com/clinica-salud/pacientes-api/pkg/errors"
	"github.com/clinica-salud/pacientes-api/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the claims.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := validators.BearerToken(r.Header.Get("Authorization"))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				message := "invalid token"
				if errors.Is(err, pkgAuth.ErrTokenExpired) {
					message = "token expired"
				}
				if logg != nil {
					logg.Debug(logg.WithField(r.Context(), "reason", err.Error()), "auth.token_rejected")
				}
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, message))
				return
			}

			ctx := WithIdentity(r.Context(), Identity{
				UserID:   claims.UserID,
				Username: claims.Username(),
				Role:     claims.Role,
			})

			if logg != nil {
				ctx = logg.WithUserID(ctx, claims.UserID)
				ctx = logg.WithUsername(ctx, claims.Username())
				ctx = logg.WithActorRole(ctx, claims.Role)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

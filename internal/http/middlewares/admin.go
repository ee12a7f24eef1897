package middlewares

import (
	"crypto/subtle"
	"net/http"

	"github.com/dropDatabas3/hellojohn-jwks/internal/http/errors"
)

// AdminKeyHeader es el header que lleva la API key de admin.
const AdminKeyHeader = "X-Admin-API-Key"

// RequireAdminKey exige X-Admin-API-Key == apiKey. Con apiKey vacía todo da 404:
// las rutas de admin quedan apagadas.
func RequireAdminKey(apiKey string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey == "" {
				errors.WriteError(w, errors.ErrNotFound)
				return
			}
			got := r.Header.Get(AdminKeyHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(apiKey)) != 1 {
				errors.WriteError(w, errors.ErrUnauthorized.WithDetail("missing or invalid admin key"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

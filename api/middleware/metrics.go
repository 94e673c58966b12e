package middleware

import (
	"net/http"
	"time"

	"github.com/clinica-salud/pacientes-api/pkg/metrics"
	"github.com/go-chi/chi/v5"
)

// Metrics records request counts and latency labelled by the chi route
// pattern, which is only complete once the handler chain has run.
func Metrics(m *metrics.HTTPMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w}
			start := time.Now()

			next.ServeHTTP(rec, r)

			route := ""
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				route = rctx.RoutePattern()
			}
			m.Observe(r.Method, route, rec.Status(), time.Since(start))
		})
	}
}

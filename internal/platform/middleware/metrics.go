package middleware

import (
	"net/http"
	"strconv"
	"time"

	"presence/internal/platform/metrics"
)

// Metrics records request latency per route and status code.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := newResponseWriter(w)

			next.ServeHTTP(rw, r)

			m.ObserveRequestDuration(r.URL.Path, strconv.Itoa(rw.statusCode), time.Since(start).Seconds())
		})
	}
}

package middleware

import (
	"net/http"
	"time"

	"gidersen/internal/metrics"
)

// Metrics records request counts and durations by route pattern. It must
// wrap the ServeMux without an intermediate r.WithContext, so the pattern
// the mux matched is visible on the request afterwards.
func Metrics(rec metrics.Recorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rw, r)

			rec.HTTPRequest(r.Method, r.Pattern, rw.statusCode, time.Since(start))
		})
	}
}

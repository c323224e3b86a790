// Package ops declares the operational HTTP surface.
package ops

import (
	"net/http"
	"strconv"

	"github.com/okian/podium/pkg/metrics"
)

// MetricsMiddleware wraps ops handlers to record Prometheus metrics.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		metrics.RecordOpsRequest(endpoint, r.Method, strconv.Itoa(wrapped.statusCode))
	}
}

// responseWriter captures the status code written by a handler.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

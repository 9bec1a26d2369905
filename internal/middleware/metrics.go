package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/llmbridge/llmbridge/internal/metrics"
)

// NewMetricsMiddleware records request counts and latency per surface path.
func NewMetricsMiddleware(collector *metrics.Collector) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := &statusWriter{
				ResponseWriter: w,
				status:         http.StatusOK,
			}

			next.ServeHTTP(wrapped, r)

			collector.RequestsTotal.WithLabelValues(r.URL.Path, strconv.Itoa(wrapped.status)).Inc()
			collector.RequestDuration.WithLabelValues(r.URL.Path).Observe(time.Since(start).Seconds())
		})
	}
}

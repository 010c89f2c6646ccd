package middleware

import (
	"log"
	"net/http"
	"time"

	"github.com/vedran77/circle/internal/metrics"
)

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Logger writes one log line per request and records its latency under the
// matched route pattern, so ids in paths do not create new series.
func Logger(recorder *metrics.LatencyRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(sw, r)

			elapsed := time.Since(start)
			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}
			if recorder != nil {
				recorder.Record(route, elapsed)
			}
			log.Printf("%s %s %d %s", r.Method, r.URL.Path, sw.status, elapsed)
		})
	}
}

package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/good-yellow-bee/logpulse/internal/metrics"
)

// Instrument records request counts and latency per chi route. Streaming
// responses (WebSocket upgrades and SSE) are counted but kept out of the
// latency histogram since they stay open for minutes.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		metrics.HTTPRequestsInFlight.Inc()
		defer metrics.HTTPRequestsInFlight.Dec()

		sw := newStatusWriter(w)
		start := time.Now()
		defer func() {
			route := routeLabel(r)
			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(sw.status)).Inc()
			if !isStreaming(sw) {
				metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
			}
		}()

		next.ServeHTTP(sw, r)
	})
}

// routeLabel is the matched chi pattern, or "unmatched" for 404s.
func routeLabel(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

func isStreaming(sw *statusWriter) bool {
	if sw.status == http.StatusSwitchingProtocols {
		return true
	}
	return sw.Header().Get("Content-Type") == "text/event-stream"
}

package middleware

import (
	"net/http"
	"regexp"
	"strconv"

	"github.com/felixge/httpsnoop"
	"github.com/go-chi/chi/v5"

	"github.com/faciam-dev/redisboard/internal/metrics"
)

// Metrics records request counts and latency per route pattern.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)
		route := routeOf(r)
		metrics.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(m.Code)).Inc()
		metrics.HTTPLatency.WithLabelValues(r.Method, route).Observe(m.Duration.Seconds())
	})
}

var idRe = regexp.MustCompile(`/\d+`)

// routeOf prefers the matched chi pattern so that key names and ids do not
// become label values.
func routeOf(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return idRe.ReplaceAllString(r.URL.Path, "/:id")
}

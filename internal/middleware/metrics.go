package middleware

import (
	"net/http"
	"strconv"

	"tush00nka/chato/internal/metrics"

	"github.com/felixge/httpsnoop"
	"github.com/gorilla/mux"
)

// Metrics считает запросы по шаблону маршрута, а не по фактическому пути,
// поэтому должен подключаться через Router.Use
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)

		route := "unmatched"
		if current := mux.CurrentRoute(r); current != nil {
			if tpl, err := current.GetPathTemplate(); err == nil {
				route = tpl
			}
		}

		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(m.Code)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(m.Duration.Seconds())
	})
}

package middleware

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/felixge/httpsnoop"
)

// Logging пишет строку access лога на каждый запрос
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)

		logger := log.Info
		switch {
		case m.Code >= http.StatusInternalServerError:
			logger = log.Error
		case m.Code >= http.StatusBadRequest:
			logger = log.Warn
		}
		logger("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", m.Code,
			"duration", m.Duration,
			"bytes", m.Written,
			"remote", r.RemoteAddr,
		)
	})
}

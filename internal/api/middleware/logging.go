package middleware

import (
	"net/http"
	"time"

	"github.com/zatekoja/hospitalpowermonitor/internal/infrastructure/observability"
)

// LoggingMiddleware logs one line per request. Server errors log at error
// level, streams that ended with the client log at debug.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := recordStatus(w)

		next.ServeHTTP(rec, r)

		logger := observability.LoggerFromContext(r.Context())
		event := logger.Info()
		switch {
		case rec.status >= http.StatusInternalServerError:
			event = logger.Error()
		case r.Context().Err() != nil:
			event = logger.Debug()
		}
		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("route", routeOf(r)).
			Int("status", rec.status).
			Dur("latency", time.Since(start)).
			Msg("HTTP request")
	})
}

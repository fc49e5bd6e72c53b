package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// RequestLogger returns a middleware that logs one line per completed request.
// It must run after RequestID; the session id is read from context when the
// session middleware attached one.
func RequestLogger(l zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			// session middleware runs deeper in the chain, so its id comes back
			// through this holder
			holder := &sidHolder{}
			next.ServeHTTP(ww, r.WithContext(withSIDHolder(r.Context(), holder)))

			latency := time.Since(start)

			event := l.Info()
			if ww.Status() >= 500 {
				event = l.Error()
			} else if ww.Status() >= 400 {
				event = l.Warn()
			}

			event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("latency", latency).
				Str("request_id", GetRequestID(r.Context())).
				Str("sid", holder.sid).
				Str("ip", r.RemoteAddr).
				Msg("http_request")
		})
	}
}

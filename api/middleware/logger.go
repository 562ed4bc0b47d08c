// Package middleware holds HTTP middleware for the API server.
package middleware

import (
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
)

// Logger returns a middleware that logs one line per request.
func Logger(logger log.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				entry := logger.WithFields(log.Fields{
					"method":   r.Method,
					"path":     r.URL.Path,
					"status":   ww.Status(),
					"bytes":    ww.BytesWritten(),
					"duration": time.Since(start).Round(time.Microsecond),
					"remote":   r.RemoteAddr,
				})
				if id := chimiddleware.GetReqID(r.Context()); id != "" {
					entry = entry.WithField("request_id", id)
				}
				switch {
				case ww.Status() >= 500:
					entry.Error("request failed")
				case ww.Status() >= 400:
					entry.Warn("request rejected")
				default:
					entry.Info("request served")
				}
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

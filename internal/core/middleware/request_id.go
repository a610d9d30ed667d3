package middleware

import (
	"net/http"

	"github.com/Pudd11ng/wallet/internal/core/logger"
)

// RequestLogging logs every request with its correlation id so storage
// failures surfaced as generic errors can still be traced.
func RequestLogging(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Info("HTTP request",
				logger.StringField("method", r.Method),
				logger.StringField("path", r.URL.Path),
				logger.StringField("request_id", r.Header.Get("X-Request-ID")),
				logger.StringField("remote_addr", r.RemoteAddr),
			)
			next.ServeHTTP(w, r)
		})
	}
}

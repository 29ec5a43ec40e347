// KaungMyatLinn | 2026
// logger.go

package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/kaungmyat1inn/digitalmartpos/internal/core"
)

// Logger emits one structured line per request. Principal fields are added
// when the Authenticator has already run for the route.
func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				attrs := []any{
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration_ms", time.Since(start).Milliseconds(),
					"request_id", GetRequestID(r.Context()),
					"remote_addr", r.RemoteAddr,
				}

				if principal, ok := GetPrincipal(r.Context()); ok {
					attrs = append(attrs,
						"user_id", principal.UserID,
						"tenant_id", principal.TenantID,
					)
				}

				if ww.Status() >= http.StatusInternalServerError {
					logger.Error("request", attrs...)
				} else {
					logger.Info("request", attrs...)
				}
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// Recoverer converts panics into 500 responses instead of killing the
// connection handler.
func Recoverer(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered",
						"panic", rec,
						"method", r.Method,
						"path", r.URL.Path,
						"request_id", GetRequestID(r.Context()),
					)
					core.InternalServerError(
						w,
						fmt.Errorf("panic: %v", rec),
					)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

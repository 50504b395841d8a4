package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/frahmantamala/medical-filemanager/internal"
)

// RecoveryMiddleware provides panic recovery with detailed logging. The panic
// value is logged but never sent to the client.
func RecoveryMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}
					logger.Error("panic recovered",
						"error", err,
						"method", r.Method,
						"url", r.URL.Path,
						"stack", string(debug.Stack()))

					writeAppError(w, internal.NewInternalError(internal.GenericInternalMessage, nil))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

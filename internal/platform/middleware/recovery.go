package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"registrations/pkg/apierrors"
	"registrations/pkg/platform/httputil"
	"registrations/pkg/requestcontext"
)

// Recovery turns a panic into the generic 500 envelope. The panic value and
// stack are logged, never sent.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				ctx := r.Context()
				logger.ErrorContext(ctx, "panic recovered",
					"error", fmt.Sprint(rec),
					"method", r.Method,
					"path", r.URL.Path,
					"stack", string(debug.Stack()),
				)
				if err := httputil.WriteError(w, apierrors.Internal(), requestcontext.CorrelationID(ctx)); err != nil {
					logger.ErrorContext(ctx, "failed to write error response", "error", err)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

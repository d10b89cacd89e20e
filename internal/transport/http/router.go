package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"registrations/internal/platform/metrics"
	"registrations/internal/platform/middleware"
	"registrations/pkg/apierrors"
	"registrations/pkg/platform/httputil"
	"registrations/pkg/requestcontext"
)

// APIPrefix is where the public API is mounted.
const APIPrefix = "/api/v1"

const healthTimeout = 2 * time.Second

// Messages for requests that never reach a handler.
const (
	MessageRouteNotFound    = "The requested resource does not exist"
	MessageMethodNotAllowed = "The method is not allowed for the requested resource"
)

// RouteRegistrar is implemented by handlers that own a set of routes.
type RouteRegistrar interface {
	Register(r chi.Router)
}

// HealthChecker reports whether a dependency is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the router wires together.
type Deps struct {
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Health   HealthChecker
	API      []RouteRegistrar
}

// NewRouter wires the global middleware, the API under APIPrefix, and the
// operational endpoints.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.CorrelationID)
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.LatencyMiddleware(d.Metrics))
	r.Use(middleware.Recovery(d.Logger))

	r.NotFound(writeAPIError(d.Logger, apierrors.NotFound(MessageRouteNotFound)))
	r.MethodNotAllowed(writeAPIError(d.Logger, &apierrors.Error{
		Status:  http.StatusMethodNotAllowed,
		Code:    apierrors.CodeValidationFailed,
		Message: ptr(MessageMethodNotAllowed),
	}))

	r.Get("/health", healthHandler(d.Logger, d.Health))
	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route(APIPrefix, func(api chi.Router) {
		for _, h := range d.API {
			h.Register(api)
		}
	})
	return r
}

func healthHandler(logger *slog.Logger, checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		correlationID := requestcontext.CorrelationID(r.Context())
		status, body := http.StatusOK, map[string]string{"status": "ok"}
		if checker != nil {
			ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
			defer cancel()
			if err := checker.Ping(ctx); err != nil {
				logger.WarnContext(ctx, "health check failed", "error", err)
				status, body = http.StatusServiceUnavailable, map[string]string{"status": "unavailable"}
			}
		}
		_ = httputil.JSON(status, body, correlationID).Write(w)
	}
}

func writeAPIError(logger *slog.Logger, apiErr *apierrors.Error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if err := httputil.WriteError(w, apiErr, requestcontext.CorrelationID(ctx)); err != nil {
			logger.ErrorContext(ctx, "failed to write error response", "error", err)
		}
	}
}

func ptr(s string) *string {
	return &s
}

package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"registrations/internal/audit"
	"registrations/internal/platform/metrics"
	"registrations/internal/registration/models"
	"registrations/internal/registration/pipeline"
	"registrations/pkg/apierrors"
	"registrations/pkg/platform/httputil"
	"registrations/pkg/platform/sentinel"
	"registrations/pkg/requestcontext"
)

// MessageNotFound is returned for every unsuccessful lookup, whether the id
// was malformed or simply unknown.
const MessageNotFound = "Registration with this ID is not present in the system"

// MaxBodyBytes caps a submission body.
const MaxBodyBytes = 1 << 20

// Store defines the registration persistence operations the handler needs.
type Store interface {
	GenerateAndStore(ctx context.Context, rec models.Record) (models.RegistrationID, error)
	Fetch(ctx context.Context, rawID string) (*models.Record, error)
}

// AuditPublisher receives an event per stored registration.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Handler serves the registration endpoints.
type Handler struct {
	logger  *slog.Logger
	store   Store
	metrics *metrics.Metrics
	auditor AuditPublisher
}

// New creates a registration Handler. metrics and auditor may be nil.
func New(store Store, logger *slog.Logger, metrics *metrics.Metrics, auditor AuditPublisher) *Handler {
	return &Handler{
		logger:  logger,
		store:   store,
		metrics: metrics,
		auditor: auditor,
	}
}

// Register registers the registration routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/registrations", h.handleCreate)
	// Catch-all so ids containing "/" or empty ids get the lookup 404.
	r.Get("/registrations/*", h.handleGet)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	correlationID := requestcontext.CorrelationID(ctx)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		h.logger.WarnContext(ctx, "failed to read registration body", "error", err)
		h.metrics.IncrementRejected("", string(apierrors.CodeValidationFailed))
		h.respond(ctx, w, httputil.ErrorResponse(apierrors.Body(pipeline.MessageBodyNotObject), correlationID))
		return
	}

	rec, err := pipeline.Validate(body)
	if err != nil {
		h.reject(ctx, err)
		h.respond(ctx, w, httputil.ErrorResponse(err, correlationID))
		return
	}

	id, err := h.store.GenerateAndStore(ctx, *rec)
	if err != nil {
		h.fault(ctx, w, "failed to store registration", err)
		return
	}
	h.metrics.IncrementRegistrationsCreated()
	h.logger.InfoContext(ctx, "registration stored", "registration_id", id.String())

	if h.auditor != nil {
		event := audit.Event{
			Action:         audit.EventRegistrationCreated,
			RegistrationID: id.String(),
			Locale:         rec.Locale,
		}
		if at, err := rec.RegisteredAt(); err == nil {
			event.RegisteredAt = at
		}
		if err := h.auditor.Emit(ctx, event); err != nil {
			h.logger.WarnContext(ctx, "failed to emit audit event",
				"registration_id", id.String(),
				"error", err,
			)
		}
	}

	h.respond(ctx, w, httputil.JSON(http.StatusCreated, models.CreatedResponse{RegistrationID: id}, correlationID))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	correlationID := requestcontext.CorrelationID(ctx)
	rawID := chi.URLParam(r, "*")

	rec, err := h.store.Fetch(ctx, rawID)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		h.metrics.IncrementLookup(metrics.LookupNotFound)
		h.logger.InfoContext(ctx, "registration not found", "registration_id", rawID)
		h.respond(ctx, w, httputil.ErrorResponse(apierrors.NotFound(MessageNotFound), correlationID))
	case err != nil:
		h.metrics.IncrementLookup(metrics.LookupError)
		h.fault(ctx, w, "failed to load registration", err)
	default:
		h.metrics.IncrementLookup(metrics.LookupFound)
		h.respond(ctx, w, httputil.JSON(http.StatusOK, rec, correlationID))
	}
}

func (h *Handler) reject(ctx context.Context, err error) {
	apiErr, ok := apierrors.As(err)
	if !ok {
		return
	}
	var field, code string
	if len(apiErr.FieldErrors) > 0 {
		field = apiErr.FieldErrors[0].FieldName()
		code = string(apiErr.FieldErrors[0].Code)
	} else {
		code = string(apiErr.Code)
	}
	h.metrics.IncrementRejected(field, code)
	h.logger.WarnContext(ctx, "registration rejected", "field", field, "code", code)
}

// fault logs err in full and answers with the generic internal error.
func (h *Handler) fault(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	h.logger.ErrorContext(ctx, msg, "error", err)
	h.respond(ctx, w, httputil.ErrorResponse(err, requestcontext.CorrelationID(ctx)))
}

func (h *Handler) respond(ctx context.Context, w http.ResponseWriter, resp httputil.Response) {
	if err := resp.Write(w); err != nil {
		h.logger.ErrorContext(ctx, "failed to write response", "error", err)
	}
}

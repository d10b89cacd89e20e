package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"registrations/internal/platform/metrics"
	"registrations/internal/registration/models"
	"registrations/pkg/platform/sentinel"
)

// ErrInvalidID is returned by Fetch for a candidate that is not a well-formed
// registration id. It wraps sentinel.ErrNotFound: callers see a malformed id
// and an unknown id as the same outcome.
var ErrInvalidID = fmt.Errorf("malformed registration id: %w", sentinel.ErrNotFound)

// Registrations stores accepted records under freshly generated identifiers.
type Registrations struct {
	backend Backend
	ttl     time.Duration
	newID   func() models.RegistrationID
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

// Option configures Registrations.
type Option func(*Registrations)

// WithTTL sets the lifetime of stored records. NoExpiry by default.
func WithTTL(ttl time.Duration) Option {
	return func(r *Registrations) {
		r.ttl = ttl
	}
}

// WithIDGenerator replaces the random identifier source.
func WithIDGenerator(gen func() models.RegistrationID) Option {
	return func(r *Registrations) {
		r.newID = gen
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Registrations) {
		r.metrics = m
	}
}

// NewRegistrations wraps backend.
func NewRegistrations(backend Backend, opts ...Option) *Registrations {
	r := &Registrations{
		backend: backend,
		ttl:     NoExpiry,
		newID:   models.NewRegistrationID,
		tracer:  otel.Tracer("registrations/store"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// GenerateAndStore draws identifiers until one is free, stores rec under it
// and returns it. There is no attempt limit: with 122 random bits a collision
// is a safety net, not a contention point.
//
// The free check is followed by a set-if-absent commit, so two callers that
// draw the same free id cannot both write; the loser draws again.
func (r *Registrations) GenerateAndStore(ctx context.Context, rec models.Record) (models.RegistrationID, error) {
	ctx, span := r.tracer.Start(ctx, "Registrations.GenerateAndStore")
	defer span.End()

	payload, err := json.Marshal(rec)
	if err != nil {
		return models.RegistrationID{}, r.fail(span, fmt.Errorf("encode registration: %w", err))
	}

	for attempt := 1; ; attempt++ {
		id := r.newID()
		key := id.String()

		_, err := r.backend.Get(ctx, key)
		switch {
		case err == nil:
			r.collision(span, attempt)
			continue
		case !errors.Is(err, sentinel.ErrNotFound):
			return models.RegistrationID{}, r.fail(span, fmt.Errorf("check registration id: %w", err))
		}

		stored, err := r.backend.SetIfAbsent(ctx, key, payload, r.ttl)
		if err != nil {
			return models.RegistrationID{}, r.fail(span, fmt.Errorf("store registration: %w", err))
		}
		if !stored {
			r.collision(span, attempt)
			continue
		}

		span.SetAttributes(
			attribute.String("registration.id", key),
			attribute.Int("registration.attempts", attempt),
		)
		return id, nil
	}
}

// Fetch returns the record stored under rawID. A malformed rawID is reported
// as ErrInvalidID without touching the backend; an absent one as
// sentinel.ErrNotFound. Both match errors.Is(err, sentinel.ErrNotFound).
func (r *Registrations) Fetch(ctx context.Context, rawID string) (*models.Record, error) {
	ctx, span := r.tracer.Start(ctx, "Registrations.Fetch")
	defer span.End()

	id, err := models.ParseRegistrationID(rawID)
	if err != nil {
		return nil, ErrInvalidID
	}
	key := id.String()
	span.SetAttributes(attribute.String("registration.id", key))

	payload, err := r.backend.Get(ctx, key)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, fmt.Errorf("registration %s: %w", key, sentinel.ErrNotFound)
		}
		return nil, r.fail(span, fmt.Errorf("load registration: %w", err))
	}

	var rec models.Record
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, r.fail(span, fmt.Errorf("decode registration %s: %w", key, err))
	}
	return &rec, nil
}

// Clear drops every stored registration.
func (r *Registrations) Clear(ctx context.Context) error {
	return r.backend.Clear(ctx)
}

// Ping checks that the backend is reachable.
func (r *Registrations) Ping(ctx context.Context) error {
	return r.backend.Ping(ctx)
}

func (r *Registrations) collision(span trace.Span, attempt int) {
	r.metrics.IncrementIDCollisions()
	span.AddEvent("registration id taken", trace.WithAttributes(attribute.Int("attempt", attempt)))
}

func (r *Registrations) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

package audit

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"registrations/pkg/requestcontext"
)

// ErrBufferFull is returned by Emit in async mode when the buffer is full and
// the event was dropped.
var ErrBufferFull = errors.New("audit buffer full")

// Sink persists or forwards audit events.
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// Publisher stamps events with request metadata and hands them to a Sink,
// either inline or through a bounded buffer drained by one goroutine.
type Publisher struct {
	sink   Sink
	logger *slog.Logger

	buffer chan Event
	wg     sync.WaitGroup
	once   sync.Once
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithAsyncBuffer makes Emit non-blocking with room for size pending events.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		if size > 0 {
			p.buffer = make(chan Event, size)
		}
	}
}

// WithLogger sets the logger used for async delivery failures.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func NewPublisher(sink Sink, opts ...Option) *Publisher {
	p := &Publisher{
		sink:   sink,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.buffer != nil {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

// Emit fills in the timestamp and correlation id from ctx when unset and
// delivers the event.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.CorrelationID == "" {
		event.CorrelationID = requestcontext.CorrelationID(ctx)
	}

	if p.buffer == nil {
		return p.sink.Append(ctx, event)
	}
	select {
	case p.buffer <- event:
		return nil
	default:
		return ErrBufferFull
	}
}

// Close stops accepting async events and waits for buffered ones to be
// delivered. Emit must not be called after Close.
func (p *Publisher) Close() {
	p.once.Do(func() {
		if p.buffer != nil {
			close(p.buffer)
			p.wg.Wait()
		}
	})
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for event := range p.buffer {
		ctx := requestcontext.WithCorrelationID(context.Background(), event.CorrelationID)
		if err := p.sink.Append(ctx, event); err != nil {
			p.logger.ErrorContext(ctx, "failed to deliver audit event",
				"action", event.Action,
				"registration_id", event.RegistrationID,
				"error", err,
			)
		}
	}
}

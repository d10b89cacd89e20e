package audit

import (
	"context"
	"log/slog"
	"sync"
)

// LogSink writes events to a structured logger. Used when no broker is
// configured.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Append(ctx context.Context, event Event) error {
	s.logger.InfoContext(ctx, "audit event",
		"action", event.Action,
		"registration_id", event.RegistrationID,
		"locale", event.Locale,
		"registered_at", event.RegisteredAt,
		"timestamp", event.Timestamp,
	)
	return nil
}

// MemorySink keeps events in memory.
type MemorySink struct {
	mu     sync.RWMutex
	events []Event
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// Events returns a copy of everything appended so far.
func (s *MemorySink) Events() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Event{}, s.events...)
}

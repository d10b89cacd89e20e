package audit

import "time"

// Action names what happened.
type Action string

const (
	EventRegistrationCreated Action = "registration_created"
)

// Event is emitted after a registration is committed. It carries no personal
// data from the record itself.
type Event struct {
	Action         Action    `json:"action"`
	Timestamp      time.Time `json:"timestamp"`
	RegistrationID string    `json:"registrationId"`
	Locale         string    `json:"locale"`
	RegisteredAt   time.Time `json:"registeredAt"`
	CorrelationID  string    `json:"correlationId"`
}

package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"registrations/internal/registration/validation"
)

// RegistrationID identifies a stored registration. It is always a random
// (version 4) UUID and renders in canonical lowercase hyphenated form.
type RegistrationID uuid.UUID

// NewRegistrationID draws a fresh random identifier.
func NewRegistrationID() RegistrationID {
	return RegistrationID(uuid.New())
}

// ParseRegistrationID accepts only the hyphenated version-4 layout, in either
// case. Other layouts uuid.Parse tolerates (braces, urn prefix, no hyphens)
// are rejected.
func ParseRegistrationID(s string) (RegistrationID, error) {
	if !validation.IsRegistrationID(s) {
		return RegistrationID{}, fmt.Errorf("invalid registration id %q", s)
	}
	u, err := uuid.Parse(strings.ToLower(s))
	if err != nil {
		return RegistrationID{}, fmt.Errorf("invalid registration id %q: %w", s, err)
	}
	return RegistrationID(u), nil
}

func (id RegistrationID) String() string {
	return uuid.UUID(id).String()
}

// IsNil reports whether id is the zero value.
func (id RegistrationID) IsNil() bool {
	return uuid.UUID(id) == uuid.Nil
}

func (id RegistrationID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *RegistrationID) UnmarshalText(b []byte) error {
	parsed, err := ParseRegistrationID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Person is the decoded form of the submitted "person" field.
type Person struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

// Record is an accepted, normalized registration. It is stored and returned
// verbatim; nothing re-validates it after acceptance.
type Record struct {
	RegistrationDate string `json:"registrationDate"`
	Locale           string `json:"locale"`
	Person           Person `json:"person"`
}

// RegisteredAt is the instant RegistrationDate denotes.
func (r Record) RegisteredAt() (time.Time, error) {
	return validation.ParseRegistrationDate(r.RegistrationDate)
}

// CreatedResponse is the body of a successful submission.
type CreatedResponse struct {
	RegistrationID RegistrationID `json:"registrationId"`
}

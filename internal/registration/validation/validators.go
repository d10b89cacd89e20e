// Package validation holds the per-field syntax rules for registrations.
//
// Each rule is a pure predicate over an already-extracted string value. Rules
// never normalize; that is the pipeline's job.
package validation

import (
	"fmt"
	"regexp"
	"time"
	"unicode/utf8"

	"github.com/tidwall/gjson"
)

// RegistrationDateLayout is YYYY-MM-DDTHH:MM:SS.ffffff±HH:MM.
const RegistrationDateLayout = "2006-01-02T15:04:05.000000-07:00"

// MaxNamePartLength bounds firstName and lastName, in characters.
const MaxNamePartLength = 150

var (
	registrationIDPattern = regexp.MustCompile(
		`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

	// time.Parse alone accepts a comma before the fraction, one-digit hours
	// and offsets up to +24:60.
	registrationDateShape = regexp.MustCompile(
		`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{6}[+-](?:[01]\d|2[0-3]):[0-5]\d$`)

	localePattern = regexp.MustCompile(`^[A-Za-z]{2}$`)

	namePartPattern = regexp.MustCompile(`^[\p{L}\p{N}_]{1,150}$`)

	// RFC 2822 mailbox: dot-atom or quoted-string local part, then a host name
	// or a bracketed IPv4 / general address literal.
	emailPattern = regexp.MustCompile(
		`^(?:[a-zA-Z0-9!#$%&'*+/=?^_` + "`" + `{|}~-]+(?:\.[a-zA-Z0-9!#$%&'*+/=?^_` + "`" + `{|}~-]+)*` +
			`|"(?:[\x01-\x08\x0b\x0c\x0e-\x1f\x21\x23-\x5b\x5d-\x7f]|\\[\x01-\x09\x0b\x0c\x0e-\x7f])*")` +
			`@(?:(?:[a-zA-Z0-9](?:[a-zA-Z0-9-]*[a-zA-Z0-9])?\.)+[a-zA-Z0-9](?:[a-zA-Z0-9-]*[a-zA-Z0-9])?` +
			`|\[(?:(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.){3}` +
			`(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?` +
			`|[a-zA-Z0-9-]*[a-zA-Z0-9]:(?:[\x01-\x08\x0b\x0c\x0e-\x1f\x21-\x5a\x53-\x7f]|\\[\x01-\x09\x0b\x0c\x0e-\x7f])+)\])$`)
)

// IsRegistrationID reports whether s is a version-4 UUID in hyphenated hex
// form. Case-insensitive.
func IsRegistrationID(s string) bool {
	return registrationIDPattern.MatchString(s)
}

// IsRegistrationDate reports whether s parses exactly under
// RegistrationDateLayout, including calendar validity.
func IsRegistrationDate(s string) bool {
	_, err := ParseRegistrationDate(s)
	return err == nil
}

// ParseRegistrationDate returns the instant s denotes. s must match
// RegistrationDateLayout digit for digit.
func ParseRegistrationDate(s string) (time.Time, error) {
	if !registrationDateShape.MatchString(s) {
		return time.Time{}, fmt.Errorf("registration date %q does not match %s", s, RegistrationDateLayout)
	}
	return time.Parse(RegistrationDateLayout, s)
}

// IsLocale reports whether s is exactly two ASCII letters.
func IsLocale(s string) bool {
	return localePattern.MatchString(s)
}

// IsPerson reports whether s is a JSON document whose top-level value is an
// object.
func IsPerson(s string) bool {
	return gjson.Valid(s) && gjson.Parse(s).IsObject()
}

// IsNamePart reports whether s is 1 to 150 word characters (Unicode letters,
// digits or underscore) and nothing else.
func IsNamePart(s string) bool {
	if !utf8.ValidString(s) {
		return false
	}
	return namePartPattern.MatchString(s)
}

// IsEmail reports whether s matches the RFC 2822 mailbox grammar.
func IsEmail(s string) bool {
	return emailPattern.MatchString(s)
}

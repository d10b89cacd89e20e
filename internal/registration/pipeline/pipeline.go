// Package pipeline turns a raw submission body into an accepted registration
// record or a single field-addressed rejection.
//
// Fields are checked in a fixed order and the first failure wins: a rejected
// submission is always described by exactly one report, even when several
// fields are wrong. The pipeline performs no I/O and does not log.
package pipeline

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"registrations/internal/registration/models"
	"registrations/internal/registration/validation"
	"registrations/pkg/apierrors"
)

// Payload field names, as reported in field errors.
const (
	FieldRegistrationDate = "registrationDate"
	FieldLocale           = "locale"
	FieldPerson           = "person"
	FieldFirstName        = "firstName"
	FieldLastName         = "lastName"
	FieldEmail            = "email"
)

// Body-level and field-level messages.
const (
	MessageEmptyBody     = "The request body must not be empty"
	MessageBodyNotObject = "The request body must be a valid JSON object"
	MessageIsRequired    = "The field is required"

	messageDate     = `The datetime string in the format "YYYY-MM-DDTHH:MM:SS.ffffff±HH:MM" is required`
	messageLocale   = "The string in the format according to standard ISO 639-1 is required"
	messagePerson   = "It must be a string holding a JSON-encoded object"
	messageNamePart = "Does not match format: at least 1 character string, 150 characters maximum"
	messageEmail    = "The string in the format according to standard RFC 2822 (or RFC 822) is required"
)

type rule struct {
	field    string
	valid    func(string) bool
	required string
	invalid  string
}

func nestedRequired(field string) string {
	return fmt.Sprintf(`The field "person" includes %q. %s`, field, MessageIsRequired)
}

var (
	submissionRules = []rule{
		{FieldRegistrationDate, validation.IsRegistrationDate, MessageIsRequired, messageDate},
		{FieldLocale, validation.IsLocale, MessageIsRequired, messageLocale},
		{FieldPerson, validation.IsPerson, MessageIsRequired, messagePerson},
	}

	personRules = []rule{
		{FieldFirstName, validation.IsNamePart, nestedRequired(FieldFirstName), messageNamePart},
		{FieldLastName, validation.IsNamePart, nestedRequired(FieldLastName), messageNamePart},
		{FieldEmail, validation.IsEmail, nestedRequired(FieldEmail), messageEmail},
	}
)

// FieldOrder is the order in which fields are checked.
var FieldOrder = []string{
	FieldRegistrationDate, FieldLocale, FieldPerson,
	FieldFirstName, FieldLastName, FieldEmail,
}

// Validate checks body and returns the normalized record. On rejection the
// error is always an *apierrors.Error.
func Validate(body []byte) (*models.Record, error) {
	if len(body) == 0 {
		return nil, apierrors.Body(MessageEmptyBody)
	}
	if !gjson.ValidBytes(body) {
		return nil, apierrors.Body(MessageBodyNotObject)
	}
	doc := gjson.ParseBytes(body)
	if !doc.IsObject() {
		return nil, apierrors.Body(MessageBodyNotObject)
	}

	top, err := apply(doc, submissionRules)
	if err != nil {
		return nil, err
	}

	// person arrives double-encoded: a JSON string holding a JSON object.
	person, err := apply(gjson.Parse(top[FieldPerson]), personRules)
	if err != nil {
		return nil, err
	}

	return &models.Record{
		RegistrationDate: top[FieldRegistrationDate],
		Locale:           strings.ToLower(top[FieldLocale]),
		Person: models.Person{
			FirstName: person[FieldFirstName],
			LastName:  person[FieldLastName],
			Email:     person[FieldEmail],
		},
	}, nil
}

func apply(obj gjson.Result, rules []rule) (map[string]string, error) {
	values := make(map[string]string, len(rules))
	for _, r := range rules {
		v, ok := member(obj, r.field)
		if !ok {
			return nil, apierrors.Field(r.field, apierrors.FieldIsRequired, r.required)
		}
		if v.Type != gjson.String || !r.valid(v.Str) {
			return nil, apierrors.Field(r.field, apierrors.FieldInvalidFormat, r.invalid)
		}
		values[r.field] = v.Str
	}
	return values, nil
}

// member looks key up in obj. Duplicate keys resolve to the last occurrence,
// as encoding/json does.
func member(obj gjson.Result, key string) (gjson.Result, bool) {
	var (
		found gjson.Result
		ok    bool
	)
	obj.ForEach(func(k, v gjson.Result) bool {
		if k.Str == key {
			found, ok = v, true
		}
		return true
	})
	return found, ok
}

package pipeline

import (
	"strings"
	"testing"
	"unicode"

	"pgregory.net/rapid"

	"registrations/pkg/apierrors"
)

var nestedFields = map[string]bool{
	FieldFirstName: true,
	FieldLastName:  true,
	FieldEmail:     true,
}

// invalidValues holds, per field, values that are present but malformed.
var invalidValues = map[string][]any{
	FieldRegistrationDate: {"2010-01-01", "2010-13-01T00:00:00.000000+01:00", 1, true, nil},
	FieldLocale:           {"eng", "e", "1a", 12, nil},
	FieldPerson:           {"[]", "42", "{", map[string]any{}, nil},
	FieldFirstName:        {"", "two words", strings.Repeat("x", 151), 3, nil},
	FieldLastName:         {"", "semi;colon", 4.5, false, nil},
	FieldEmail:            {"failed test", "no-at-sign", "a@b", 9, nil},
}

func drawSubmission(t *rapid.T) (map[string]any, map[string]any) {
	person := map[string]any{
		"firstName": rapid.StringOfN(rapid.RuneFrom(nil, unicode.Letter, unicode.Digit), 1, 150, -1).Draw(t, "firstName"),
		"lastName":  rapid.StringOfN(rapid.RuneFrom([]rune("abcXYZ_0123")), 1, 150, -1).Draw(t, "lastName"),
		"email":     rapid.StringMatching(`[a-z]{1,10}@[a-z]{1,10}\.(com|org|ru)`).Draw(t, "email"),
	}
	sub := map[string]any{
		"registrationDate": rapid.SampledFrom([]string{
			"2010-01-01T00:00:00.000000+01:00",
			"2015-02-02T00:00:00.000000+02:00",
			"2020-02-29T23:59:59.999999-11:30",
		}).Draw(t, "registrationDate"),
		"locale": rapid.StringMatching(`[a-zA-Z]{2}`).Draw(t, "locale"),
	}
	return sub, person
}

func fieldOf(t *rapid.T, err error) apierrors.FieldError {
	apiErr, ok := apierrors.As(err)
	if !ok {
		t.Fatalf("expected *apierrors.Error, got %v", err)
	}
	if len(apiErr.FieldErrors) != 1 {
		t.Fatalf("expected exactly one field error, got %d", len(apiErr.FieldErrors))
	}
	return apiErr.FieldErrors[0]
}

func TestProperty_ValidSubmissionsAreAccepted(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		sub, person := drawSubmission(t)
		sub["person"] = encode(person)

		rec, err := Validate([]byte(encode(sub)))
		if err != nil {
			t.Fatalf("valid submission rejected: %v", err)
		}
		if rec.Locale != strings.ToLower(sub["locale"].(string)) {
			t.Fatalf("locale %q not lowercased: %q", sub["locale"], rec.Locale)
		}
		if rec.Person.FirstName != person["firstName"] || rec.Person.Email != person["email"] {
			t.Fatalf("person not decoded verbatim: %+v", rec.Person)
		}

		// Normalization is idempotent.
		sub["locale"] = rec.Locale
		again, err := Validate([]byte(encode(sub)))
		if err != nil {
			t.Fatalf("normalized submission rejected: %v", err)
		}
		if *again != *rec {
			t.Fatalf("re-validation changed the record: %+v != %+v", again, rec)
		}
	})
}

func TestProperty_MissingFieldIsRequired(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		sub, person := drawSubmission(t)
		missing := rapid.SampledFrom(FieldOrder).Draw(t, "missing")
		if nestedFields[missing] {
			delete(person, missing)
		}
		sub["person"] = encode(person)
		if !nestedFields[missing] {
			delete(sub, missing)
		}

		_, err := Validate([]byte(encode(sub)))
		fe := fieldOf(t, err)
		if !apierrors.HasField(err, missing, apierrors.FieldIsRequired) {
			t.Fatalf("expected %s/IsRequired, got %s/%s", missing, fe.FieldName(), fe.Code)
		}
	})
}

func TestProperty_FirstFailureWins(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		sub, person := drawSubmission(t)

		broken := make(map[string]bool)
		for _, f := range FieldOrder {
			if rapid.Bool().Draw(t, "break_"+f) {
				broken[f] = true
			}
		}
		if len(broken) == 0 {
			broken[rapid.SampledFrom(FieldOrder).Draw(t, "forced")] = true
		}

		for _, f := range FieldOrder {
			if !broken[f] || f == FieldPerson {
				continue
			}
			bad := rapid.SampledFrom(invalidValues[f]).Draw(t, "bad_"+f)
			if nestedFields[f] {
				person[f] = bad
			} else {
				sub[f] = bad
			}
		}
		sub["person"] = encode(person)
		if broken[FieldPerson] {
			sub[FieldPerson] = rapid.SampledFrom(invalidValues[FieldPerson]).Draw(t, "bad_person")
		}

		var want string
		for _, f := range FieldOrder {
			if broken[f] {
				want = f
				break
			}
		}

		_, err := Validate([]byte(encode(sub)))
		fe := fieldOf(t, err)
		if !apierrors.HasField(err, want, apierrors.FieldInvalidFormat) {
			t.Fatalf("expected %s/InvalidFormat, got %s/%s", want, fe.FieldName(), fe.Code)
		}
	})
}

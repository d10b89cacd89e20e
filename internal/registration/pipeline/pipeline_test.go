package pipeline

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"registrations/internal/registration/models"
	"registrations/pkg/apierrors"
)

type PipelineSuite struct {
	suite.Suite
}

func TestPipelineSuite(t *testing.T) {
	suite.Run(t, new(PipelineSuite))
}

func validPerson() map[string]any {
	return map[string]any{
		"firstName": "First1",
		"lastName":  "Last1",
		"email":     "test1@test.com",
	}
}

func validSubmission(person map[string]any) map[string]any {
	return map[string]any{
		"registrationDate": "2010-01-01T00:00:00.000000+01:00",
		"locale":           "en",
		"person":           encode(person),
	}
}

func encode(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}

func (s *PipelineSuite) requireField(err error, field string, code apierrors.FieldCode) {
	s.T().Helper()
	apiErr, ok := apierrors.As(err)
	s.Require().True(ok, "expected *apierrors.Error, got %v", err)
	s.Equal(apierrors.CodeValidationFailed, apiErr.Code)
	s.Equal(400, apiErr.Status)
	s.Nil(apiErr.Message)
	s.Require().Len(apiErr.FieldErrors, 1)
	s.True(apierrors.HasField(err, field, code),
		"expected %s/%s, got %s/%s", field, code, apiErr.FieldErrors[0].FieldName(), apiErr.FieldErrors[0].Code)
	s.NotNil(apiErr.FieldErrors[0].Message)
}

func (s *PipelineSuite) TestAcceptsValidSubmissions() {
	cases := []struct {
		date, locale, wantLocale string
		person                   map[string]any
	}{
		{"2010-01-01T00:00:00.000000+01:00", "en", "en", map[string]any{"firstName": "First1", "lastName": "Last1", "email": "test1@test.com"}},
		{"2015-02-02T00:00:00.000000+02:00", "ro", "ro", map[string]any{"firstName": "First2", "lastName": "Last2", "email": "test2@test.com"}},
		{"2020-03-03T00:00:00.000000+03:00", "RU", "ru", map[string]any{"firstName": "First3", "lastName": "Last3", "email": "test3@test.com"}},
	}
	for _, tc := range cases {
		body := encode(map[string]any{
			"registrationDate": tc.date,
			"locale":           tc.locale,
			"person":           encode(tc.person),
		})
		rec, err := Validate([]byte(body))
		s.Require().NoError(err)
		s.Equal(&models.Record{
			RegistrationDate: tc.date,
			Locale:           tc.wantLocale,
			Person: models.Person{
				FirstName: tc.person["firstName"].(string),
				LastName:  tc.person["lastName"].(string),
				Email:     tc.person["email"].(string),
			},
		}, rec)
	}
}

func (s *PipelineSuite) TestBodyLevelErrors() {
	cases := map[string]struct {
		body    string
		message string
	}{
		"empty body":     {"", MessageEmptyBody},
		"malformed json": {`{"registrationDate":`, MessageBodyNotObject},
		"whitespace":     {"   ", MessageBodyNotObject},
		"array body":     {`[1,2]`, MessageBodyNotObject},
		"string body":    {`"text"`, MessageBodyNotObject},
		"null body":      {`null`, MessageBodyNotObject},
	}
	for name, tc := range cases {
		s.Run(name, func() {
			_, err := Validate([]byte(tc.body))
			apiErr, ok := apierrors.As(err)
			s.Require().True(ok)
			s.Equal(400, apiErr.Status)
			s.Equal(apierrors.CodeValidationFailed, apiErr.Code)
			s.Nil(apiErr.FieldErrors)
			s.Require().NotNil(apiErr.Message)
			s.Equal(tc.message, *apiErr.Message)
		})
	}
}

func (s *PipelineSuite) TestEmptyObjectReportsRegistrationDate() {
	_, err := Validate([]byte(`{}`))
	s.requireField(err, FieldRegistrationDate, apierrors.FieldIsRequired)
}

func (s *PipelineSuite) TestMissingFields() {
	for _, field := range []string{FieldRegistrationDate, FieldLocale, FieldPerson} {
		s.Run(field, func() {
			sub := validSubmission(validPerson())
			delete(sub, field)
			_, err := Validate([]byte(encode(sub)))
			s.requireField(err, field, apierrors.FieldIsRequired)
		})
	}
	for _, field := range []string{FieldFirstName, FieldLastName, FieldEmail} {
		s.Run(field, func() {
			person := validPerson()
			delete(person, field)
			_, err := Validate([]byte(encode(validSubmission(person))))
			s.requireField(err, field, apierrors.FieldIsRequired)

			apiErr, _ := apierrors.As(err)
			s.Contains(*apiErr.FieldErrors[0].Message, `includes "`+field+`"`)
		})
	}
}

func (s *PipelineSuite) TestInvalidFormats() {
	cases := []struct {
		name  string
		field string
		mut   func(sub, person map[string]any)
	}{
		{"date without offset", FieldRegistrationDate, func(sub, _ map[string]any) { sub["registrationDate"] = "2010-01-01T00:00:00.000000" }},
		{"date as number", FieldRegistrationDate, func(sub, _ map[string]any) { sub["registrationDate"] = 20100101 }},
		{"date null", FieldRegistrationDate, func(sub, _ map[string]any) { sub["registrationDate"] = nil }},
		{"locale three letters", FieldLocale, func(sub, _ map[string]any) { sub["locale"] = "eng" }},
		{"locale array", FieldLocale, func(sub, _ map[string]any) { sub["locale"] = []string{"en"} }},
		{"person not json", FieldPerson, func(sub, _ map[string]any) { sub["person"] = "not json" }},
		{"person json array", FieldPerson, func(sub, _ map[string]any) { sub["person"] = "[]" }},
		{"person as object", FieldPerson, func(sub, _ map[string]any) { sub["person"] = validPerson() }},
		{"empty first name", FieldFirstName, func(_, p map[string]any) { p["firstName"] = "" }},
		{"first name with space", FieldFirstName, func(_, p map[string]any) { p["firstName"] = "Anne Marie" }},
		{"empty last name", FieldLastName, func(_, p map[string]any) { p["lastName"] = "" }},
		{"last name as number", FieldLastName, func(_, p map[string]any) { p["lastName"] = 7 }},
		{"bad email", FieldEmail, func(_, p map[string]any) { p["email"] = "failed test" }},
		{"email null", FieldEmail, func(_, p map[string]any) { p["email"] = nil }},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			person := validPerson()
			sub := validSubmission(person)
			tc.mut(sub, person)
			if _, ok := sub["person"].(string); ok && tc.field != FieldPerson {
				sub["person"] = encode(person)
			}
			_, err := Validate([]byte(encode(sub)))
			s.requireField(err, tc.field, apierrors.FieldInvalidFormat)
		})
	}
}

func (s *PipelineSuite) TestFirstFailureWins() {
	person := validPerson()
	person["email"] = "failed test"
	person["firstName"] = ""
	sub := validSubmission(person)
	sub["locale"] = "english"

	_, err := Validate([]byte(encode(sub)))
	s.requireField(err, FieldLocale, apierrors.FieldInvalidFormat)
}

func (s *PipelineSuite) TestDropsUnknownFields() {
	person := validPerson()
	person["nickname"] = "ff"
	sub := validSubmission(person)
	sub["extra"] = true

	rec, err := Validate([]byte(encode(sub)))
	s.Require().NoError(err)

	b, err := json.Marshal(rec)
	s.Require().NoError(err)
	s.JSONEq(`{"registrationDate":"2010-01-01T00:00:00.000000+01:00","locale":"en",`+
		`"person":{"firstName":"First1","lastName":"Last1","email":"test1@test.com"}}`, string(b))
}

func (s *PipelineSuite) TestDuplicateKeysUseLastValue() {
	body := `{"registrationDate":"bad","registrationDate":"2010-01-01T00:00:00.000000+01:00",` +
		`"locale":"en","person":` + encode(encode(validPerson())) + `}`
	rec, err := Validate([]byte(body))
	s.Require().NoError(err)
	s.Equal("2010-01-01T00:00:00.000000+01:00", rec.RegistrationDate)
}

func TestValidate_UnicodeNames(t *testing.T) {
	person := map[string]any{"firstName": "Иван", "lastName": "李_2", "email": "ivan@example.ru"}
	rec, err := Validate([]byte(encode(validSubmission(person))))
	require.NoError(t, err)
	require.Equal(t, "Иван", rec.Person.FirstName)
	require.Equal(t, "李_2", rec.Person.LastName)
}

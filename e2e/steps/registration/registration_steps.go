package registration

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/cucumber/godog"
)

const apiPrefix = "/api/v1"

var uuidV4 = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POSTRaw(path, body string) error
	GET(path string, headers map[string]string) error
	GetResponseField(field string) (interface{}, error)
	GetLastResponseStatus() int
	GetLastResponseBody() []byte
	GetLastResponseHeader(name string) string
	Set(key, value string)
	Get(key string) string
}

// RegisterSteps registers registration step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &registrationSteps{tc: tc}

	ctx.Step(`^I submit the registration:$`, steps.submitRegistration)
	ctx.Step(`^I submit a registration whose person is:$`, steps.submitWithPerson)
	ctx.Step(`^I fetch the registration "([^"]*)"$`, steps.fetchRegistration)
	ctx.Step(`^I fetch the registration I just created$`, steps.fetchCreated)

	ctx.Step(`^the response status should be (\d+)$`, steps.statusShouldBe)
	ctx.Step(`^the response should carry a correlation id$`, steps.shouldCarryCorrelationID)
	ctx.Step(`^the response should contain a registration id$`, steps.shouldContainRegistrationID)
	ctx.Step(`^the error code should be "([^"]*)"$`, steps.errorCodeShouldBe)
	ctx.Step(`^the field error should be "([^"]*)" with code "([^"]*)"$`, steps.fieldErrorShouldBe)
	ctx.Step(`^there should be no field errors$`, steps.noFieldErrors)
	ctx.Step(`^the registration should have locale "([^"]*)"$`, steps.localeShouldBe)
	ctx.Step(`^the registration person should have email "([^"]*)"$`, steps.personEmailShouldBe)
}

type registrationSteps struct {
	tc TestContext
}

type envelope struct {
	Error struct {
		Code    string  `json:"code"`
		Message *string `json:"message"`
	} `json:"error"`
	FieldErrors []struct {
		Field *string `json:"field"`
		Code  string  `json:"code"`
	} `json:"fieldErrors"`
}

func (s *registrationSteps) submitRegistration(ctx context.Context, doc *godog.DocString) error {
	if err := s.tc.POSTRaw(apiPrefix+"/registrations", doc.Content); err != nil {
		return err
	}
	if id, err := s.tc.GetResponseField("registrationId"); err == nil {
		s.tc.Set("registrationId", fmt.Sprint(id))
	}
	return nil
}

func (s *registrationSteps) submitWithPerson(ctx context.Context, doc *godog.DocString) error {
	body, err := json.Marshal(map[string]string{
		"registrationDate": "2010-01-01T00:00:00.000000+01:00",
		"locale":           "en",
		"person":           doc.Content,
	})
	if err != nil {
		return err
	}
	return s.tc.POSTRaw(apiPrefix+"/registrations", string(body))
}

func (s *registrationSteps) fetchRegistration(ctx context.Context, id string) error {
	return s.tc.GET(apiPrefix+"/registrations/"+id, nil)
}

func (s *registrationSteps) fetchCreated(ctx context.Context) error {
	id := s.tc.Get("registrationId")
	if id == "" {
		return fmt.Errorf("no registration was created in this scenario")
	}
	return s.tc.GET(apiPrefix+"/registrations/"+id, nil)
}

func (s *registrationSteps) statusShouldBe(ctx context.Context, want int) error {
	if got := s.tc.GetLastResponseStatus(); got != want {
		return fmt.Errorf("expected status %d, got %d: %s", want, got, s.tc.GetLastResponseBody())
	}
	return nil
}

func (s *registrationSteps) shouldCarryCorrelationID(ctx context.Context) error {
	if s.tc.GetLastResponseHeader("X-CorrelationID") == "" {
		return fmt.Errorf("response has no X-CorrelationID header")
	}
	return nil
}

func (s *registrationSteps) shouldContainRegistrationID(ctx context.Context) error {
	id, err := s.tc.GetResponseField("registrationId")
	if err != nil {
		return err
	}
	str, ok := id.(string)
	if !ok || !uuidV4.MatchString(str) {
		return fmt.Errorf("registrationId %v is not a version-4 UUID", id)
	}
	return nil
}

func (s *registrationSteps) decodeEnvelope() (envelope, error) {
	var env envelope
	if err := json.Unmarshal(s.tc.GetLastResponseBody(), &env); err != nil {
		return env, fmt.Errorf("response is not an error envelope: %w", err)
	}
	return env, nil
}

func (s *registrationSteps) errorCodeShouldBe(ctx context.Context, code string) error {
	env, err := s.decodeEnvelope()
	if err != nil {
		return err
	}
	if env.Error.Code != code {
		return fmt.Errorf("expected error code %q, got %q", code, env.Error.Code)
	}
	return nil
}

func (s *registrationSteps) fieldErrorShouldBe(ctx context.Context, field, code string) error {
	env, err := s.decodeEnvelope()
	if err != nil {
		return err
	}
	if len(env.FieldErrors) != 1 {
		return fmt.Errorf("expected exactly one field error, got %d", len(env.FieldErrors))
	}
	fe := env.FieldErrors[0]
	if fe.Field == nil || *fe.Field != field || fe.Code != code {
		return fmt.Errorf("expected field error %s/%s, got %s", field, code, s.tc.GetLastResponseBody())
	}
	return nil
}

func (s *registrationSteps) noFieldErrors(ctx context.Context) error {
	env, err := s.decodeEnvelope()
	if err != nil {
		return err
	}
	if env.FieldErrors != nil {
		return fmt.Errorf("expected fieldErrors to be null, got %s", s.tc.GetLastResponseBody())
	}
	return nil
}

func (s *registrationSteps) localeShouldBe(ctx context.Context, locale string) error {
	got, err := s.tc.GetResponseField("locale")
	if err != nil {
		return err
	}
	if got != locale {
		return fmt.Errorf("expected locale %q, got %v", locale, got)
	}
	return nil
}

func (s *registrationSteps) personEmailShouldBe(ctx context.Context, email string) error {
	person, err := s.tc.GetResponseField("person")
	if err != nil {
		return err
	}
	obj, ok := person.(map[string]interface{})
	if !ok {
		return fmt.Errorf("person is %T, want an object", person)
	}
	if obj["email"] != email {
		return fmt.Errorf("expected email %q, got %v", email, obj["email"])
	}
	return nil
}

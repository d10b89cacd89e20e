package e2e

import (
	"github.com/cucumber/godog"

	"registrations/e2e/steps/registration"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	registration.RegisterSteps(ctx, tc)
}

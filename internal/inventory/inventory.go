// Package inventory talks to the external inventory service that computes and
// applies requirements for a scenario.
package inventory

import (
	"context"
	"fmt"

	"github.com/intelliment/puppet-integration/internal/domain"
)

// Service defines the interface for interacting with the inventory service.
type Service interface {
	ListScenarios(ctx context.Context) ([]domain.Scenario, error)
	GetRequirements(ctx context.Context, scenarioID domain.Identifier, endpointURL string) (*domain.RequirementSet, error)
	// ApplyRequirements submits full requirement objects.
	ApplyRequirements(ctx context.Context, scenarioID domain.Identifier, endpointURL string, reqs []domain.Requirement) (*domain.RequirementSet, error)
	// RemoveRequirements submits requirement ids only.
	RemoveRequirements(ctx context.Context, scenarioID domain.Identifier, endpointURL string, ids []domain.Identifier) (*domain.RequirementSet, error)
}

// StatusError is a non-2xx answer from the inventory service.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

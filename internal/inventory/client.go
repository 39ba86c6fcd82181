package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"go.uber.org/zap"

	"github.com/intelliment/puppet-integration/internal/domain"
	"github.com/intelliment/puppet-integration/internal/validation"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 16 << 20

// Paths of the inventory service.
const (
	PathScenarios    = "/scenarios"
	PathRequirements = "/requirements"
	PathApply        = "/apply"
	PathRemove       = "/remove"
)

// Client is the HTTP client of the inventory service.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	schemas *schemas
	logger  *zap.Logger
}

// Ensure Client implements Service.
var _ Service = (*Client)(nil)

// New creates a new inventory client for the service at baseURL. The http
// client owns timeout policy; nil uses http.DefaultClient.
func New(baseURL string, httpClient *http.Client, logger *zap.Logger) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing inventory URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("inventory URL must be http or https, got %q", baseURL)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s, err := loadSchemas()
	if err != nil {
		return nil, err
	}

	return &Client{baseURL: u, http: httpClient, schemas: s, logger: logger}, nil
}

// ListScenarios gets the scenario catalog.
func (c *Client) ListScenarios(ctx context.Context) ([]domain.Scenario, error) {
	var scenarios []domain.Scenario
	if err := c.do(ctx, http.MethodGet, PathScenarios, nil, nil, c.schemas.scenarios, &scenarios); err != nil {
		return nil, err
	}
	if errs := validation.ValidateScenarios(scenarios); errs.HasErrors() {
		return nil, fmt.Errorf("invalid scenario catalog: %w", errs)
	}
	if scenarios == nil {
		scenarios = []domain.Scenario{}
	}
	return scenarios, nil
}

// GetRequirements gets the existing and new requirements of a scenario.
func (c *Client) GetRequirements(ctx context.Context, scenarioID domain.Identifier, endpointURL string) (*domain.RequirementSet, error) {
	return c.requirementSet(ctx, http.MethodGet, PathRequirements, scenarioID, endpointURL, nil)
}

// ApplyRequirements asks the service to create the given requirements.
func (c *Client) ApplyRequirements(ctx context.Context, scenarioID domain.Identifier, endpointURL string, reqs []domain.Requirement) (*domain.RequirementSet, error) {
	if reqs == nil {
		reqs = []domain.Requirement{}
	}
	return c.requirementSet(ctx, http.MethodPost, PathApply, scenarioID, endpointURL, reqs)
}

// RemoveRequirements asks the service to delete the requirements with the given ids.
func (c *Client) RemoveRequirements(ctx context.Context, scenarioID domain.Identifier, endpointURL string, ids []domain.Identifier) (*domain.RequirementSet, error) {
	if ids == nil {
		ids = []domain.Identifier{}
	}
	return c.requirementSet(ctx, http.MethodPost, PathRemove, scenarioID, endpointURL, ids)
}

func (c *Client) requirementSet(ctx context.Context, method, path string, scenarioID domain.Identifier, endpointURL string, body any) (*domain.RequirementSet, error) {
	query := url.Values{}
	query.Set("id", scenarioID.String())
	query.Set("url", endpointURL)

	var set domain.RequirementSet
	if err := c.do(ctx, method, path, query, body, c.schemas.requirementSet, &set); err != nil {
		return nil, err
	}
	if errs := validation.ValidateRequirementSet(&set); errs.HasErrors() {
		return nil, fmt.Errorf("invalid requirement set: %w", errs)
	}
	if notes := validation.CheckRequirementSet(&set); notes.HasErrors() {
		c.logger.Warn("unusual services in requirement set",
			zap.String("path", path),
			zap.Int("count", len(notes)),
			zap.Error(notes),
		)
	}
	return &set, nil
}

// do performs one request. The response must be 2xx and match schema before
// it is decoded into out.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, schema *jsonschema.Schema, out any) error {
	u := c.baseURL.JoinPath(path)
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("inventory request", zap.String("method", method), zap.String("url", u.String()))

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("reading %s response: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       truncate(strings.TrimSpace(string(raw)), 512),
		}
	}

	if err := validateBody(schema, raw); err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

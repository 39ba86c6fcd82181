package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sigs.k8s.io/yaml"

	"github.com/intelliment/puppet-integration/internal/domain"
)

const fixture = `{
	"scenarios": [{"id": 1, "name": "prod", "description": "production"}, {"id": 2, "name": "staging"}],
	"requirements": {
		"1": {
			"existingRequirements": [{"id": 10, "name": "ssh", "action": "allow", "services": [{"name": "tcp", "ports": [22]}]}],
			"newRequirements": [
				{"id": 20, "name": "web", "action": "allow", "applications": ["nginx", "envoy"]},
				{"id": 21, "name": "telnet", "action": "deny"}
			]
		}
	}
}`

type result struct {
	stdout string
	stderr string
	err    error
}

func execute(t *testing.T, shim string, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCommand(&stdout, &stderr)
	cmd.SetArgs(append([]string{"--file-shim", shim, "--endpoint-url", "https://host.example.com"}, args...))
	err := cmd.Execute()
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

// newInventoryServer serves the scenario catalog and fails every other call.
func newInventoryServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/scenarios" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[{"id": 1, "name": "prod", "owner": "ops"}]`))
			return
		}
		http.Error(w, "puppetdb unreachable", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "inventory.json")
	require.NoError(t, os.WriteFile(path, []byte(fixture), 0644))
	return path
}

func decodeSet(t *testing.T, out string) domain.RequirementSet {
	t.Helper()
	var set domain.RequirementSet
	require.NoError(t, json.Unmarshal([]byte(out), &set))
	return set
}

func names(reqs []domain.Requirement) []string {
	out := make([]string, len(reqs))
	for i, r := range reqs {
		out[i] = r.Name
	}
	return out
}

func TestScenariosTable(t *testing.T) {
	res := execute(t, newFixture(t), "scenarios")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "NAME")
	assert.Contains(t, res.stdout, "prod")
	assert.Contains(t, res.stdout, "production")
	assert.Contains(t, res.stdout, "staging")
}

func TestScenariosYAML(t *testing.T) {
	res := execute(t, newFixture(t), "scenarios", "-o", "yaml")
	require.NoError(t, res.err)

	var scenarios []domain.Scenario
	require.NoError(t, yaml.Unmarshal([]byte(res.stdout), &scenarios))
	require.Len(t, scenarios, 2)
	assert.Equal(t, domain.Identifier("1"), scenarios[0].ID)
	assert.Equal(t, "staging", scenarios[1].Name)
}

func TestRequirementsTable(t *testing.T) {
	res := execute(t, newFixture(t), "requirements", "--scenario", "1")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "tcp -> 22")
	assert.Contains(t, res.stdout, "nginx, envoy")
	assert.Contains(t, res.stdout, "telnet")
	assert.Empty(t, res.stderr)
}

func TestApplySelectedIDs(t *testing.T) {
	shim := newFixture(t)

	res := execute(t, shim, "apply", "--scenario", "1", "--id", "20", "-o", "json")
	require.NoError(t, res.err)
	set := decodeSet(t, res.stdout)
	assert.Equal(t, []string{"ssh", "web"}, names(set.ExistingRequirements))
	assert.Equal(t, []string{"telnet"}, names(set.NewRequirements))

	res = execute(t, shim, "requirements", "--scenario", "1", "-o", "json")
	require.NoError(t, res.err)
	assert.Equal(t, []string{"ssh", "web"}, names(decodeSet(t, res.stdout).ExistingRequirements))
}

func TestStringIDsByDisplayedText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inventory.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"scenarios": [{"id": "prod", "name": "prod"}],
		"requirements": {"prod": {"existingRequirements": [], "newRequirements": [{"id": "5", "name": "web", "action": "allow"}]}}
	}`), 0644))

	res := execute(t, path, "apply", "--scenario", "prod", "--id", "5", "-o", "json")
	require.NoError(t, res.err)
	assert.JSONEq(t, `{"existingRequirements": [{"id": "5", "name": "web", "action": "allow"}], "newRequirements": []}`, res.stdout)
}

func TestApplyReportsUnknownIDs(t *testing.T) {
	res := execute(t, newFixture(t), "apply", "--scenario", "1", "--id", "20", "--id", "99", "-o", "json")
	require.NoError(t, res.err)
	assert.Contains(t, res.stderr, "1 of 2 ids are not new requirements")
}

func TestRemoveAll(t *testing.T) {
	res := execute(t, newFixture(t), "remove", "--scenario", "1", "--all", "-o", "json")
	require.NoError(t, res.err)
	set := decodeSet(t, res.stdout)
	assert.Empty(t, set.ExistingRequirements)
	assert.Equal(t, []string{"web", "telnet", "ssh"}, names(set.NewRequirements))
}

func TestChangeNeedsExactlyOneSelector(t *testing.T) {
	shim := newFixture(t)

	res := execute(t, shim, "apply", "--scenario", "1")
	assert.Error(t, res.err)

	res = execute(t, shim, "apply", "--scenario", "1", "--all", "--id", "20")
	assert.Error(t, res.err)
}

func TestUnknownScenarioIsNotified(t *testing.T) {
	res := execute(t, newFixture(t), "requirements", "--scenario", "99")
	require.Error(t, res.err)
	assert.True(t, domain.IsUserInput(res.err))
	assert.Contains(t, res.stderr, domain.ErrUnknownScenario.Message)
}

func TestFetchFailureIsReportedOnce(t *testing.T) {
	srv := newInventoryServer(t)

	var stdout, stderr bytes.Buffer
	code := run([]string{"--inventory-url", srv.URL, "--endpoint-url", "https://host.example.com",
		"requirements", "--scenario", "1"}, &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Empty(t, stdout.String())
	assert.Equal(t, domain.MsgFetchFailed+"\n", stderr.String())
}

func TestUsageErrorsArePrinted(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"--file-shim", newFixture(t), "--endpoint-url", "https://host.example.com",
		"apply", "--scenario", "1"}, &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Equal(t, "Error: exactly one of --id or --all is required\n", stderr.String())
}

func TestScenariosKeepServerFields(t *testing.T) {
	srv := newInventoryServer(t)

	var stdout, stderr bytes.Buffer
	code := run([]string{"--inventory-url", srv.URL, "--endpoint-url", "https://host.example.com",
		"scenarios", "-o", "json"}, &stdout, &stderr)

	require.Equal(t, 0, code, stderr.String())
	assert.JSONEq(t, `[{"id": 1, "name": "prod", "owner": "ops"}]`, stdout.String())
}

func TestRejectsUnknownOutput(t *testing.T) {
	res := execute(t, newFixture(t), "scenarios", "-o", "xml")
	assert.ErrorContains(t, res.err, "unknown output format")
}

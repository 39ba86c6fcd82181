package inventory

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/intelliment/puppet-integration/internal/domain"
)

const endpoint = "http://puppetdb.example:8080/pdb"

const setBody = `{
	"existingRequirements": [{"id": 5, "name": "ssh", "services": [{"name": "ssh", "ports": [22]}], "applications": ["sshd"], "action": "allow"}],
	"newRequirements": [{"id": "n-1", "name": "web", "services": null, "applications": null, "action": "deny", "zone": "dmz"}]
}`

type recorded struct {
	method string
	path   string
	query  map[string]string
	body   string
}

func newServer(t *testing.T, status int, body string) (*httptest.Server, *[]recorded) {
	t.Helper()
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		q := map[string]string{}
		for k := range r.URL.Query() {
			q[k] = r.URL.Query().Get(k)
		}
		calls = append(calls, recorded{method: r.Method, path: r.URL.Path, query: q, body: string(raw)})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := New(srv.URL, srv.Client(), zap.NewNop())
	require.NoError(t, err)
	return c
}

func TestNewRejectsNonHTTPURL(t *testing.T) {
	_, err := New("ftp://inventory", nil, nil)
	assert.Error(t, err)
}

func TestListScenarios(t *testing.T) {
	srv, calls := newServer(t, http.StatusOK, `[{"id": 1, "name": "prod"}, {"id": "qa", "name": "qa"}]`)
	c := newClient(t, srv)

	scenarios, err := c.ListScenarios(context.Background())
	require.NoError(t, err)
	require.Len(t, scenarios, 2)
	assert.Equal(t, domain.Identifier("1"), scenarios[0].ID)
	assert.Equal(t, "qa", scenarios[1].Name)

	require.Len(t, *calls, 1)
	assert.Equal(t, http.MethodGet, (*calls)[0].method)
	assert.Equal(t, "/scenarios", (*calls)[0].path)
}

func TestGetRequirements(t *testing.T) {
	srv, calls := newServer(t, http.StatusOK, setBody)
	c := newClient(t, srv)

	set, err := c.GetRequirements(context.Background(), "42", endpoint)
	require.NoError(t, err)

	require.Len(t, set.ExistingRequirements, 1)
	require.Len(t, set.NewRequirements, 1)
	assert.Equal(t, domain.Identifier("5"), set.ExistingRequirements[0].ID)
	zone, ok := set.NewRequirements[0].Field("zone")
	require.True(t, ok)
	assert.Equal(t, `"dmz"`, string(zone))

	call := (*calls)[0]
	assert.Equal(t, http.MethodGet, call.method)
	assert.Equal(t, "/requirements", call.path)
	assert.Equal(t, map[string]string{"id": "42", "url": endpoint}, call.query)
}

func TestApplySendsFullObjects(t *testing.T) {
	srv, calls := newServer(t, http.StatusOK, setBody)
	c := newClient(t, srv)

	reqs := []domain.Requirement{{
		ID:       "1",
		Name:     "web",
		Action:   "allow",
		Selected: true,
		Services: []domain.Service{{Name: "http", Ports: []domain.Port{"80"}}},
	}}
	_, err := c.ApplyRequirements(context.Background(), "42", endpoint, reqs)
	require.NoError(t, err)

	call := (*calls)[0]
	assert.Equal(t, http.MethodPost, call.method)
	assert.Equal(t, "/apply", call.path)
	assert.Equal(t, "42", call.query["id"])
	assert.JSONEq(t, `[{"id":1,"name":"web","services":[{"name":"http","ports":[80]}],"action":"allow"}]`, call.body)
}

func TestRemoveSendsIdentifiersOnly(t *testing.T) {
	srv, calls := newServer(t, http.StatusOK, setBody)
	c := newClient(t, srv)

	_, err := c.RemoveRequirements(context.Background(), "42", endpoint, []domain.Identifier{"5"})
	require.NoError(t, err)

	call := (*calls)[0]
	assert.Equal(t, http.MethodPost, call.method)
	assert.Equal(t, "/remove", call.path)
	assert.Equal(t, endpoint, call.query["url"])
	assert.JSONEq(t, `[5]`, call.body)
}

func TestEmptySelectionsSendEmptyArrays(t *testing.T) {
	srv, calls := newServer(t, http.StatusOK, setBody)
	c := newClient(t, srv)

	_, err := c.ApplyRequirements(context.Background(), "1", endpoint, nil)
	require.NoError(t, err)
	_, err = c.RemoveRequirements(context.Background(), "1", endpoint, nil)
	require.NoError(t, err)

	assert.Equal(t, `[]`, (*calls)[0].body)
	assert.Equal(t, `[]`, (*calls)[1].body)
}

func TestNon2xxIsStatusError(t *testing.T) {
	srv, _ := newServer(t, http.StatusBadGateway, `puppetdb unreachable`)
	c := newClient(t, srv)

	_, err := c.GetRequirements(context.Background(), "1", endpoint)
	require.Error(t, err)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadGateway, se.StatusCode)
	assert.Equal(t, "puppetdb unreachable", se.Body)
}

func TestMalformedResponsesAreRejected(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `<html>`},
		{"missing list", `{"existingRequirements": []}`},
		{"bad action", `{"existingRequirements": [], "newRequirements": [{"id": 1, "action": "maybe"}]}`},
		{"missing id", `{"existingRequirements": [{"action": "allow"}], "newRequirements": []}`},
		{"object id", `{"existingRequirements": [{"id": {}, "action": "allow"}], "newRequirements": []}`},
		{"object port", `{"existingRequirements": [{"id": 1, "action": "allow", "services": [{"name": "x", "ports": [{}]}]}], "newRequirements": []}`},
		{"duplicate id", `{"existingRequirements": [{"id": 1, "action": "allow"}], "newRequirements": [{"id": 1, "action": "deny"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newServer(t, http.StatusOK, tt.body)
			c := newClient(t, srv)

			_, err := c.GetRequirements(context.Background(), "1", endpoint)
			assert.Error(t, err)
		})
	}
}

func TestNullListsDecodeAsEmpty(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, `{"existingRequirements": null, "newRequirements": []}`)
	c := newClient(t, srv)

	set, err := c.GetRequirements(context.Background(), "1", endpoint)
	require.NoError(t, err)
	assert.Empty(t, set.ExistingRequirements)
	assert.Empty(t, set.NewRequirements)
}

func TestCancelledContext(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, `[]`)
	c := newClient(t, srv)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ListScenarios(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScenarioSchemaRejectsMissingName(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, `[{"id": 1}]`)
	c := newClient(t, srv)

	_, err := c.ListScenarios(context.Background())
	assert.Error(t, err)
}

func TestRequirementPayloadRoundTrip(t *testing.T) {
	var set domain.RequirementSet
	require.NoError(t, json.Unmarshal([]byte(setBody), &set))

	srv, calls := newServer(t, http.StatusOK, setBody)
	c := newClient(t, srv)

	_, err := c.ApplyRequirements(context.Background(), "1", endpoint, set.NewRequirements)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"n-1","name":"web","services":null,"applications":null,"action":"deny","zone":"dmz"}]`, (*calls)[0].body)
}

func TestPayloadsEchoServerValues(t *testing.T) {
	const (
		existing = `{"id":"5","name":"a","services":[{"ports":["22"]}],"action":"allow"}`
		proposed = `{"id":"6","name":"b","services":[{"name":"ssh","ports":["22",23]}],"action":"deny","zone":"dmz"}`
	)
	srv, calls := newServer(t, http.StatusOK, `{"existingRequirements":[`+existing+`],"newRequirements":[`+proposed+`]}`)
	c := newClient(t, srv)
	ctx := context.Background()

	set, err := c.GetRequirements(ctx, "1", endpoint)
	require.NoError(t, err)
	assert.Equal(t, domain.StringIdentifier("5"), set.ExistingRequirements[0].ID)
	assert.Equal(t, "22", set.ExistingRequirements[0].Services[0].Ports[0].String())

	_, err = c.ApplyRequirements(ctx, "1", endpoint, set.NewRequirements)
	require.NoError(t, err)
	_, err = c.RemoveRequirements(ctx, "1", endpoint, []domain.Identifier{set.ExistingRequirements[0].ID})
	require.NoError(t, err)

	require.Len(t, *calls, 3)
	assert.Equal(t, `[`+proposed+`]`, (*calls)[1].body)
	assert.Equal(t, `["5"]`, (*calls)[2].body)
}

func TestDisplayOnlyPortsAreAccepted(t *testing.T) {
	for _, ports := range []string{`[0]`, `["http"]`, `["80/tcp"]`, `["80,443"]`} {
		t.Run(ports, func(t *testing.T) {
			body := `{"existingRequirements": [{"id": 1, "action": "allow", "services": [{"name": "x", "ports": ` + ports + `}]}], "newRequirements": []}`
			srv, _ := newServer(t, http.StatusOK, body)
			c := newClient(t, srv)

			set, err := c.GetRequirements(context.Background(), "1", endpoint)
			require.NoError(t, err)
			require.Len(t, set.ExistingRequirements, 1)
		})
	}
}

func TestMixedIDKindsAreNotDuplicates(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, `[{"id": 1, "name": "prod"}, {"id": "1", "name": "qa"}]`)
	c := newClient(t, srv)

	scenarios, err := c.ListScenarios(context.Background())
	require.NoError(t, err)
	assert.Len(t, scenarios, 2)
}

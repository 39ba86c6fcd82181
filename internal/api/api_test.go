package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/intelliment/puppet-integration/internal/api"
	"github.com/intelliment/puppet-integration/internal/domain"
	"github.com/intelliment/puppet-integration/internal/inventory"
	"github.com/intelliment/puppet-integration/internal/service"
	"github.com/intelliment/puppet-integration/internal/session"
	"github.com/intelliment/puppet-integration/internal/storage/memory"
	"github.com/intelliment/puppet-integration/internal/web"
)

// testServer creates a test server with in-memory storage
type testServer struct {
	handler http.Handler
	history *service.HistoryService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	history := service.NewHistoryService(memory.New(), zap.NewNop())
	shim := inventory.NewFileShim(t.TempDir()+"/inventory.json", nil)

	registry := session.NewRegistry(func(operator string, n session.Notifier) (*session.Session, error) {
		return session.New(session.Config{Inventory: shim, EndpointURL: "http://puppetdb:8080", Notifier: n, Recorder: history})
	}, time.Hour, nil)

	// OIDC disabled for tests
	handler := api.NewRouter(history, web.Config{Registry: registry}, zap.NewNop())
	return &testServer{handler: handler, history: history}
}

func (ts *testServer) request(method, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func (ts *testServer) record(t *testing.T, action domain.ChangeAction, ids ...string) *domain.ChangeRecord {
	t.Helper()
	c := &domain.ChangeRecord{
		ScenarioID:     "1",
		ScenarioName:   "prod",
		EndpointURL:    "http://puppetdb:8080",
		Action:         action,
		RequirementIDs: ids,
		Status:         domain.ChangeStatusSuccess,
	}
	require.NoError(t, ts.history.RecordChange(context.Background(), c))
	return c
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestListChanges(t *testing.T) {
	ts := newTestServer(t)
	ts.record(t, domain.ChangeApply, "20", "21")
	time.Sleep(time.Millisecond)
	ts.record(t, domain.ChangeRemove, "10")

	rr := ts.request(http.MethodGet, "/api/v1/changes?limit=1", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var page service.ChangePage
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &page))
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, 1, page.Limit)
	require.Len(t, page.Changes, 1)
	assert.Equal(t, domain.ChangeRemove, page.Changes[0].Action)

	rr = ts.request(http.MethodGet, "/api/v1/changes?offset=1", nil)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &page))
	require.Len(t, page.Changes, 1)
	assert.Equal(t, []string{"20", "21"}, page.Changes[0].RequirementIDs)
}

func TestListChangesRejectsBadPaging(t *testing.T) {
	ts := newTestServer(t)

	for _, q := range []string{"limit=abc", "offset=-1"} {
		rr := ts.request(http.MethodGet, "/api/v1/changes?"+q, nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code, q)

		var resp domain.StandardErrorResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, domain.ErrCodeInvalidInput, resp.Error.Code)
	}
}

func TestGetChange(t *testing.T) {
	ts := newTestServer(t)
	c := ts.record(t, domain.ChangeApply, "20")

	rr := ts.request(http.MethodGet, "/api/v1/changes/"+c.ID, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	etag := rr.Header().Get("ETag")
	assert.NotEmpty(t, etag)

	var got domain.ChangeRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, c.ID, got.ID)
	assert.Equal(t, "prod", got.ScenarioName)

	rr = ts.request(http.MethodGet, "/api/v1/changes/"+c.ID, http.Header{"If-None-Match": {etag}})
	assert.Equal(t, http.StatusNotModified, rr.Code)
	assert.Empty(t, rr.Body.String())
}

func TestGetChangeNotFound(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/changes/missing", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	var resp domain.StandardErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, domain.ErrCodeResourceNotFound, resp.Error.Code)
}

func TestPanelMounted(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rr.Body.String(), "Get requirements")
}

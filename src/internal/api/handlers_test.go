package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maksimkurb/proxycfg/src/internal/config"
	"github.com/maksimkurb/proxycfg/src/internal/engine"
	"github.com/maksimkurb/proxycfg/src/internal/log"
	"github.com/maksimkurb/proxycfg/src/internal/store"
)

func init() {
	log.DisableLogs()
}

func newTestStore() *store.MemoryStore {
	s := store.NewMemoryStore()
	s.AddRecord(config.CollectionNode, store.Record{Name: "hk", Fields: map[string][]string{
		"type": {"shadowsocks"}, "label": {"HK"}, "server": {"1.1.1.1"}, "server_port": {"8388"},
	}})
	s.AddRecord(config.CollectionNode, store.Record{Name: "jp", Fields: map[string][]string{
		"type": {"shadowsocks"}, "label": {"JP"}, "server": {"2.2.2.2"}, "server_port": {"8388"},
	}})
	s.AddRecord(config.CollectionRoutingNode, store.Record{Name: "A", Fields: map[string][]string{
		"label": {"Hong Kong"}, "enabled": {"1"}, "node": {"hk-out"},
	}})
	s.AddRecord(config.CollectionRoutingNode, store.Record{Name: "B", Fields: map[string][]string{
		"label": {"Japan"}, "enabled": {"1"}, "node": {"jp-out"}, "outbound": {"hk-out"},
	}})
	s.AddRecord(config.CollectionRoutingRule, store.Record{Name: "rule1", Fields: map[string][]string{
		"label": {"Streaming"}, "enabled": {"1"}, "outbound": {"jp-out"},
	}})
	return s
}

func newTestServer(t *testing.T) (http.Handler, *store.MemoryStore) {
	t.Helper()
	s := newTestStore()
	h := NewHandler(s, engine.New(), nil)
	return NewRouter(h), s
}

func do(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "127.0.0.1:40000"
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	var resp struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	require.NoError(t, json.Unmarshal(resp.Data, v))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) APIError {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp.Error
}

func TestGetRecords(t *testing.T) {
	router, _ := newTestServer(t)

	rec := do(t, router, http.MethodGet, "/api/v1/routing_node", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp RecordsResponse
	decodeData(t, rec, &resp)
	require.Len(t, resp.Records, 2)
	assert.Equal(t, "A", resp.Records[0].ID)
	assert.Equal(t, []string{"hk-out"}, resp.Records[0].Fields["node"])

	rec = do(t, router, http.MethodGet, "/api/v1/nonsense", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestValidateEdit(t *testing.T) {
	router, s := newTestServer(t)
	before := s.Dump()

	rec := do(t, router, http.MethodPost, "/api/v1/validate", ValidateRequest{
		Collection: config.CollectionRoutingNode,
		ID:         "A",
		Field:      "outbound",
		Values:     []string{"jp-out"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp VerdictResponse
	decodeData(t, rec, &resp)
	assert.False(t, resp.Valid)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "RECURSIVE_OUTBOUND", resp.Error.Code)
	assert.False(t, resp.Committed)
	assert.Equal(t, before, s.Dump())

	rec = do(t, router, http.MethodPost, "/api/v1/validate", ValidateRequest{
		Collection: config.CollectionRoutingNode,
		ID:         "A",
		Field:      "enabled",
		Values:     []string{"true"},
	})
	decodeData(t, rec, &resp)
	assert.True(t, resp.Valid)
	assert.Equal(t, []string{"1"}, resp.Values)

	rec = do(t, router, http.MethodPost, "/api/v1/validate", map[string]string{"collection": "bogus"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateField(t *testing.T) {
	router, s := newTestServer(t)

	rec := do(t, router, http.MethodPut, "/api/v1/routing_rule/rule1/outbound", EditRequest{Values: []string{"hk-out"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	values, _, err := s.GetField(config.CollectionRoutingRule, "rule1", "outbound")
	require.NoError(t, err)
	assert.Equal(t, []string{"hk-out"}, values)

	rec = do(t, router, http.MethodPut, "/api/v1/routing_node/A/outbound", EditRequest{Values: []string{"jp-out"}})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	apiErr := decodeError(t, rec)
	assert.Equal(t, ErrCodeValidationFailed, apiErr.Code)
	assert.Equal(t, "RECURSIVE_OUTBOUND", apiErr.Details["code"])
	assert.Equal(t, "Recursive outbound detected!", apiErr.Message)

	_, found, err := s.GetField(config.CollectionRoutingNode, "A", "outbound")
	require.NoError(t, err)
	assert.False(t, found, "rejected edit must not be committed")
}

func TestUpdateField_CommitsPendingValues(t *testing.T) {
	router, s := newTestServer(t)

	// B still points at hk-out in the store: taking hk-out alone would
	// loop onto itself.
	rec := do(t, router, http.MethodPut, "/api/v1/routing_node/B/node", EditRequest{Values: []string{"hk-out"}})
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Equal(t, "RECURSIVE_OUTBOUND", decodeError(t, rec).Details["code"])

	// A sibling that fails its own rules rejects the whole commit.
	before := s.Dump()
	rec = do(t, router, http.MethodPut, "/api/v1/routing_node/B/node", EditRequest{
		Values:  []string{"hk-out"},
		Pending: map[string][]string{"outbound": {"gone-out"}},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	apiErr := decodeError(t, rec)
	assert.Equal(t, "REFERENCE_NOT_FOUND", apiErr.Details["code"])
	assert.Equal(t, "outbound", apiErr.Details["field"])
	assert.Equal(t, before, s.Dump())

	rec = do(t, router, http.MethodPut, "/api/v1/routing_node/B/node", EditRequest{
		Values:  []string{"hk-out"},
		Pending: map[string][]string{"outbound": {"direct-out"}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp VerdictResponse
	decodeData(t, rec, &resp)
	assert.True(t, resp.Committed)
	assert.Equal(t, []engine.Reference{
		{Collection: config.CollectionRoutingRule, ID: "rule1", Field: "outbound", Value: "jp-out"},
	}, resp.Dependents)

	node, _, _ := s.GetField(config.CollectionRoutingNode, "B", "node")
	assert.Equal(t, []string{"hk-out"}, node)
	outbound, _, _ := s.GetField(config.CollectionRoutingNode, "B", "outbound")
	assert.Equal(t, []string{"direct-out"}, outbound)
}

func TestUpdateField_NewRecord(t *testing.T) {
	router, s := newTestServer(t)

	rec := do(t, router, http.MethodPut, "/api/v1/dns_server/-/label", EditRequest{Values: []string{"Google"}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp VerdictResponse
	decodeData(t, rec, &resp)
	assert.True(t, resp.Committed)
	assert.Equal(t, "cfg000001", resp.ID)

	records, err := s.ListRecords(config.CollectionDNSServer)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, resp.ID, records[0].Name)

	rec = do(t, router, http.MethodPut, "/api/v1/dns_server/-/label", EditRequest{Values: []string{"Google"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "DUPLICATE_LABEL", decodeError(t, rec).Details["code"])
}

func TestDeleteRecord(t *testing.T) {
	router, s := newTestServer(t)

	rec := do(t, router, http.MethodDelete, "/api/v1/routing_node/A", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp DeleteResponse
	decodeData(t, rec, &resp)
	assert.True(t, resp.Deleted)
	require.Len(t, resp.Report.Dependents, 1)
	assert.Equal(t, "B", resp.Report.Dependents[0].ID)

	records, err := s.ListRecords(config.CollectionRoutingNode)
	require.NoError(t, err)
	assert.Len(t, records, 1)

	rec = do(t, router, http.MethodDelete, "/api/v1/routing_node/A", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetCandidates(t *testing.T) {
	router, _ := newTestServer(t)

	rec := do(t, router, http.MethodGet, "/api/v1/routing_rule/rule1/outbound/candidates", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp CandidatesResponse
	decodeData(t, rec, &resp)
	var values []string
	for _, c := range resp.Candidates {
		values = append(values, c.Value)
	}
	assert.Equal(t, []string{"direct-out", "block-out", "hk-out", "jp-out"}, values)

	// A new routing node may not point at anything that points back at it,
	// but without a node it has no identity yet.
	rec = do(t, router, http.MethodGet, "/api/v1/routing_node/-/outbound/candidates", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/v1/routing_rule/rule1/bogus/candidates", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "UNKNOWN_FIELD", decodeError(t, rec).Details["code"])
}

func TestCheckStore(t *testing.T) {
	router, s := newTestServer(t)

	rec := do(t, router, http.MethodGet, "/api/v1/check", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp CheckResponse
	decodeData(t, rec, &resp)
	assert.True(t, resp.Valid, "%+v", resp.Problems)

	require.NoError(t, s.SetField(config.CollectionRoutingRule, "rule1", "outbound", []string{"gone-out"}))
	rec = do(t, router, http.MethodGet, "/api/v1/check", nil)
	decodeData(t, rec, &resp)
	assert.False(t, resp.Valid)
	require.Len(t, resp.Problems, 1)
	assert.Equal(t, "routing_rule.outbound", resp.Problems[0].Field)
	assert.Equal(t, "Streaming", resp.Problems[0].Item)
}

func TestMetricsEndpoint(t *testing.T) {
	router, _ := newTestServer(t)

	do(t, router, http.MethodPut, "/api/v1/routing_node/A/outbound", EditRequest{Values: []string{"jp-out"}})

	rec := do(t, router, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body,
		`proxycfg_edit_verdicts_total{code="RECURSIVE_OUTBOUND",collection="routing_node",field="outbound"} 1`), body)
	assert.Contains(t, body, "proxycfg_http_requests_total")
}

func TestPrivateSubnetOnly(t *testing.T) {
	router, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/check", nil)
	req.RemoteAddr = "8.8.8.8:1234"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/check", nil)
	req.RemoteAddr = "[::1]:1234"
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestJSONContentType(t *testing.T) {
	router, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/validate", strings.NewReader("collection=node"))
	req.RemoteAddr = "127.0.0.1:40000"
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRevisionPrecondition(t *testing.T) {
	router, _ := newTestServer(t)

	rec := do(t, router, http.MethodGet, "/api/v1/routing_rule", nil)
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	put := func(etag string, value string) *httptest.ResponseRecorder {
		data, err := json.Marshal(EditRequest{Values: []string{value}})
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPut, "/api/v1/routing_rule/rule1/label", bytes.NewReader(data))
		req.RemoteAddr = "127.0.0.1:40000"
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("If-Match", etag)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	rec = put(etag, "Video")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEqual(t, etag, rec.Header().Get("ETag"))

	// A second writer still holding the old revision.
	rec = put(etag, "Music")
	assert.Equal(t, http.StatusPreconditionFailed, rec.Code)
	assert.Equal(t, ErrCodeConflict, decodeError(t, rec).Code)
}

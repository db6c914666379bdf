package routes

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"apidocs-admin/apierrors"
	"apidocs-admin/controllers"
	"apidocs-admin/middlewares"
	"apidocs-admin/models"
	"apidocs-admin/proxy"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryStore keeps records in insertion order and counts every call.
type memoryStore struct {
	mu      sync.Mutex
	order   []string
	records map[string]models.Endpoint
	calls   int
	err     error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{records: map[string]models.Endpoint{}}
}

func (m *memoryStore) List(ctx context.Context) ([]models.Endpoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, &apierrors.StoreError{Message: "Failed to fetch endpoints", Err: m.err}
	}
	out := make([]models.Endpoint, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.records[id])
	}
	return out, nil
}

func (m *memoryStore) Upsert(ctx context.Context, e *models.Endpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return &apierrors.StoreError{Message: "Failed to save endpoint", Err: m.err}
	}
	e.FillDefaults()
	if _, ok := m.records[e.Id]; !ok {
		m.order = append(m.order, e.Id)
	}
	m.records[e.Id] = *e
	return nil
}

// upstream answers proxied calls in-process and counts them.
type upstream struct {
	mu       sync.Mutex
	requests []*http.Request
	bodies   []string
	status   int
	body     string
}

func (u *upstream) RoundTrip(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		body, _ = io.ReadAll(req.Body)
	}
	u.mu.Lock()
	u.requests = append(u.requests, req)
	u.bodies = append(u.bodies, string(body))
	u.mu.Unlock()

	status := u.status
	if status == 0 {
		status = http.StatusOK
	}
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Header:     http.Header{"Content-Type": {"application/json"}},
		Body:       io.NopCloser(strings.NewReader(u.body)),
		Request:    req,
	}, nil
}

func (u *upstream) calls() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.requests)
}

type harness struct {
	app      *fiber.App
	store    *memoryStore
	upstream *upstream
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	st := newMemoryStore()
	up := &upstream{body: `{"ok":true}`}
	hc := &http.Client{Transport: up}
	allow := proxy.NewAllowList(proxy.DefaultAllowedHosts...)
	rts, err := proxy.NewRoutes(allow, "https://uat-platform.bankkaro.com",
		proxy.Route{Prefix: "partner/", Base: "https://uat-platform.bankkaro.com"},
		proxy.Route{Prefix: "cardgenius/", Base: "https://bk-api.bankkaro.com"},
		proxy.Route{Prefix: "v1/", Base: "https://api.bankkaro.com"},
	)
	require.NoError(t, err)

	app := fiber.New(fiber.Config{ErrorHandler: middlewares.ErrorHandler(log)})
	app.Use(middlewares.CORS("*"))
	app.Use(middlewares.RequestLogger(log))
	Register(app,
		&controllers.EndpointController{Store: st, Log: log},
		&controllers.ProxyController{
			Explicit: proxy.NewLenientForwarder(hc, allow, log),
			Routed:   proxy.NewStrictForwarder(hc, allow, log),
			Routes:   rts,
			Log:      log,
		},
	)
	return &harness{app: app, store: st, upstream: up}
}

func (h *harness) do(t *testing.T, method, path, body string, headers ...string) (*http.Response, string) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(raw)
}

func assertCORS(t *testing.T, resp *http.Response) {
	t.Helper()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, resp.Header.Get("Access-Control-Allow-Methods"))
	assert.NotEmpty(t, resp.Header.Get("Access-Control-Allow-Headers"))
}

func TestPreflightShortCircuits(t *testing.T) {
	h := newHarness(t)

	for _, path := range []string{"/api/endpoints", "/api/proxy", "/api/proxy/partner/token", "/api/proxy/v1/cards"} {
		resp, body := h.do(t, http.MethodOptions, path, "")
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Empty(t, body, path)
		assertCORS(t, resp)
	}
	assert.Zero(t, h.store.calls)
	assert.Zero(t, h.upstream.calls())
}

func TestListEndpointsEmpty(t *testing.T) {
	h := newHarness(t)

	resp, body := h.do(t, http.MethodGet, "/api/endpoints", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, body)
	assertCORS(t, resp)
}

func TestListEndpointsStoreFailure(t *testing.T) {
	h := newHarness(t)
	h.store.err = errors.New("connection refused")

	resp, body := h.do(t, http.MethodGet, "/api/endpoints", "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Failed to fetch endpoints","details":"connection refused"}`, body)
	assertCORS(t, resp)
}

func TestUpsertThenList(t *testing.T) {
	h := newHarness(t)

	payload := `{
		"endpointKey": "card-recommendation",
		"data": {
			"name": "Card recommendation",
			"endpoint": "/cardgenius/recommend",
			"description": "Ranks cards for O'Brien",
			"category": "cardgenius",
			"purpose": "recommendations",
			"methods": ["POST"],
			"status": "live",
			"rank": 4,
			"requestSchema": {"type": "object", "properties": {"spend": {"type": "number"}}},
			"sampleResponses": [{"status": 200}],
			"curlExample": "curl -X POST https://bk-api.bankkaro.com/cardgenius/recommend",
			"products": ["cardgenius"],
			"uiState": {"expanded": true},
			"lastEditedBy": "someone"
		}
	}`
	resp, body := h.do(t, http.MethodPost, "/api/endpoints", payload)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.JSONEq(t, `{"success":true,"message":"Endpoint saved successfully"}`, body)
	assertCORS(t, resp)

	resp, body = h.do(t, http.MethodGet, "/api/endpoints", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list []map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(body), &list))
	require.Len(t, list, 1)
	rec := list[0]

	assert.JSONEq(t, `"card-recommendation"`, string(rec["id"]))
	assert.JSONEq(t, `"Card recommendation"`, string(rec["name"]))
	assert.JSONEq(t, `"Ranks cards for O'Brien"`, string(rec["description"]))
	assert.JSONEq(t, `["POST"]`, string(rec["methods"]))
	assert.JSONEq(t, `4`, string(rec["rank"]))
	assert.JSONEq(t, `{"type":"object","properties":{"spend":{"type":"number"}}}`, string(rec["requestSchema"]))
	assert.JSONEq(t, `[{"status":200}]`, string(rec["sampleResponses"]))
	assert.JSONEq(t, `{"curl":"curl -X POST https://bk-api.bankkaro.com/cardgenius/recommend"}`, string(rec["curlExample"]))
	assert.JSONEq(t, `["cardgenius"]`, string(rec["products"]))
	assert.NotContains(t, rec, "uiState")
	assert.NotContains(t, rec, "lastEditedBy")
}

func TestUpsertReplacesWholeRecord(t *testing.T) {
	h := newHarness(t)

	resp, _ := h.do(t, http.MethodPost, "/api/endpoints",
		`{"endpointKey":"login","data":{"name":"Login","category":"auth","rank":1}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = h.do(t, http.MethodPost, "/api/endpoints",
		`{"endpointKey":"login","data":{"name":"Partner login","rank":2}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, body := h.do(t, http.MethodGet, "/api/endpoints", "")
	var list []models.Endpoint
	require.NoError(t, json.Unmarshal([]byte(body), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Partner login", list[0].Name)
	assert.Equal(t, "", list[0].Category)
	assert.Equal(t, 2, list[0].Rank)
}

func TestUpsertMissingFields(t *testing.T) {
	h := newHarness(t)

	for name, payload := range map[string]string{
		"missing data":  `{"endpointKey":"login"}`,
		"missing key":   `{"data":{"name":"Login"}}`,
		"blank key":     `{"endpointKey":"  ","data":{"name":"Login"}}`,
		"empty payload": `{}`,
	} {
		t.Run(name, func(t *testing.T) {
			resp, body := h.do(t, http.MethodPost, "/api/endpoints", payload)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Contains(t, body, `"error"`)
			assertCORS(t, resp)
		})
	}
	assert.Zero(t, h.store.calls)
}

func TestUpsertStoreFailure(t *testing.T) {
	h := newHarness(t)
	h.store.err = errors.New("duplicate key")

	resp, body := h.do(t, http.MethodPost, "/api/endpoints", `{"endpointKey":"login","data":{}}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Failed to save endpoint","details":"duplicate key"}`, body)
}

func TestMethodNotAllowed(t *testing.T) {
	h := newHarness(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodDelete, "/api/endpoints"},
		{http.MethodPut, "/api/endpoints"},
		{http.MethodGet, "/api/proxy"},
	} {
		resp, body := h.do(t, tc.method, tc.path, "")
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode, tc.path)
		assert.JSONEq(t, `{"error":"Method not allowed"}`, body)
		assertCORS(t, resp)
	}
}

func TestExplicitProxyRejectsForeignHost(t *testing.T) {
	h := newHarness(t)

	resp, body := h.do(t, http.MethodPost, "/api/proxy", `{"targetUrl":"https://attacker.example.com/steal","method":"POST","body":{"a":1}}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "Domain not allowed")
	assertCORS(t, resp)
	assert.Zero(t, h.upstream.calls())
}

func TestExplicitProxyRequiresTarget(t *testing.T) {
	h := newHarness(t)

	resp, _ := h.do(t, http.MethodPost, "/api/proxy", `{"method":"GET"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Zero(t, h.upstream.calls())
}

func TestExplicitProxyRelaysRawText(t *testing.T) {
	h := newHarness(t)
	h.upstream.body = "not json"

	resp, body := h.do(t, http.MethodPost, "/api/proxy",
		`{"targetUrl":"https://uat-platform.bankkaro.com/partner/ping","environment":"uat"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var env struct {
		Status     int               `json:"status"`
		StatusText string            `json:"statusText"`
		Headers    map[string]string `json:"headers"`
		Data       any               `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &env))
	assert.Equal(t, 200, env.Status)
	assert.Equal(t, "OK", env.StatusText)
	assert.Equal(t, "not json", env.Data)
	assert.Equal(t, "application/json", env.Headers["content-type"])
}

func TestExplicitProxyGetDropsBodyAndRelaysStatus(t *testing.T) {
	h := newHarness(t)
	h.upstream.status = http.StatusNotFound
	h.upstream.body = `{"message":"no such card"}`

	resp, body := h.do(t, http.MethodPost, "/api/proxy",
		`{"targetUrl":"https://api.bankkaro.com/v1/cards/x","method":"GET","headers":{"x-api-key":"k"},"body":{"ignored":true}}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, "no such card")

	require.Equal(t, 1, h.upstream.calls())
	assert.Empty(t, h.upstream.bodies[0])
	assert.Equal(t, "k", h.upstream.requests[0].Header.Get("X-Api-Key"))
}

func TestRoutedProxyForwardsSelectedHeaders(t *testing.T) {
	h := newHarness(t)
	h.upstream.status = http.StatusCreated
	h.upstream.body = `{"token":"t"}`

	resp, body := h.do(t, http.MethodPost, "/api/proxy/partner/token?env=uat", `{"mobile":"9999999999"}`,
		"Authorization", "Bearer abc",
		"partner-token", "pt",
		"X-Other", "dropped",
	)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.JSONEq(t, `{"token":"t"}`, body)
	assertCORS(t, resp)

	require.Equal(t, 1, h.upstream.calls())
	out := h.upstream.requests[0]
	assert.Equal(t, "https://uat-platform.bankkaro.com/partner/token?env=uat", out.URL.String())
	assert.Equal(t, "Bearer abc", out.Header.Get("Authorization"))
	assert.Equal(t, "pt", out.Header.Get("Partner-Token"))
	assert.Empty(t, out.Header.Get("X-Api-Key"))
	assert.Empty(t, out.Header.Get("X-Other"))
	assert.JSONEq(t, `{"mobile":"9999999999"}`, h.upstream.bodies[0])
}

func TestRoutedProxyRoutesByPrefix(t *testing.T) {
	h := newHarness(t)

	h.do(t, http.MethodGet, "/api/proxy/cardgenius/cards", "")
	h.do(t, http.MethodGet, "/api/proxy/v1/banks", "")

	require.Equal(t, 2, h.upstream.calls())
	assert.Equal(t, "https://bk-api.bankkaro.com/cardgenius/cards", h.upstream.requests[0].URL.String())
	assert.Equal(t, "https://api.bankkaro.com/v1/banks", h.upstream.requests[1].URL.String())
}

func TestRoutedProxyRejectsNonJSON(t *testing.T) {
	h := newHarness(t)
	h.upstream.body = "not json"

	resp, body := h.do(t, http.MethodGet, "/api/proxy/v1/health", "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var out map[string]string
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	assert.Equal(t, "Proxy request failed", out["error"])
	assert.NotEmpty(t, out["message"])
	assert.Equal(t, "https://api.bankkaro.com/v1/health", out["targetUrl"])
	assertCORS(t, resp)
}

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saas-tenancy/internal/auth"
	"saas-tenancy/internal/catalog"
	"saas-tenancy/internal/config"
	"saas-tenancy/internal/messaging"
	"saas-tenancy/internal/model"
	"saas-tenancy/internal/store"
	"saas-tenancy/internal/tenancy"
)

type fakeJobs struct {
	mu   sync.Mutex
	jobs []messaging.Job
}

func (f *fakeJobs) PublishJob(_ context.Context, job messaging.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = append(f.jobs, job)
	return nil
}

type testServer struct {
	*httptest.Server
	t     *testing.T
	token string
}

func newTestServer(t *testing.T, rateLimit int, opts ...Option) *testServer {
	t.Helper()
	auth.SetSecret("api-test-secret")
	token, err := auth.GenerateToken("ops", "")
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Server.RateLimit = rateLimit
	cfg.Tenancy.Header = tenancy.DefaultHeader

	engine := store.NewMemoryEngine().Unique(store.TenantsCollection, "identifier")
	dir := store.NewDirectory(engine, nil)
	reg := store.NewRegistry()
	products := catalog.RegisterProducts(reg)
	svc := catalog.NewService(store.New(store.Shared(engine), reg), products, nil)
	resolver := tenancy.NewResolver(dir)

	opts = append(opts, WithHealthCheck("engine", engine.Ping))
	a := NewAPI(cfg, dir, svc, resolver, nil, opts...)

	srv := httptest.NewServer(a.Router())
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, t: t, token: token}
}

// admin is do with the operator token.
func (s *testServer) admin(method, path, tenant string, body any) (*http.Response, []byte) {
	s.t.Helper()
	return s.do(method, path, tenant, body, "Authorization", "Bearer "+s.token)
}

func (s *testServer) do(method, path, tenant string, body any, headers ...string) (*http.Response, []byte) {
	s.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, s.URL+path, &buf)
	require.NoError(s.t, err)
	if tenant != "" {
		req.Header.Set(tenancy.DefaultHeader, tenant)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(s.t, err)
	defer resp.Body.Close()

	var out bytes.Buffer
	_, err = out.ReadFrom(resp.Body)
	require.NoError(s.t, err)
	return resp, out.Bytes()
}

func (s *testServer) createTenant(identifier string) TenantResponse {
	s.t.Helper()
	resp, body := s.admin(http.MethodPost, "/tenants", "", CreateTenantRequest{Identifier: identifier, Name: identifier})
	require.Equal(s.t, http.StatusCreated, resp.StatusCode, string(body))
	var t TenantResponse
	require.NoError(s.t, json.Unmarshal(body, &t))
	return t
}

func TestTenantEndpoints(t *testing.T) {
	s := newTestServer(t, 1000)

	acme := s.createTenant("acme")
	assert.True(t, acme.Active)
	assert.Equal(t, model.PlanFree, acme.Plan)

	resp, _ := s.admin(http.MethodPost, "/tenants", "", CreateTenantRequest{Identifier: "acme", Name: "Again"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = s.admin(http.MethodPost, "/tenants", "", CreateTenantRequest{Identifier: "Bad Id", Name: "x"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = s.admin(http.MethodPost, "/tenants", "", map[string]string{"unknown": "field"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body := s.admin(http.MethodGet, "/tenants/"+acme.ID.String(), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"identifier":"acme"`)

	resp, _ = s.admin(http.MethodGet, "/tenants/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	plan := model.PlanPro
	resp, body = s.admin(http.MethodPatch, "/tenants/"+acme.ID.String(), "", UpdateTenantRequest{Plan: &plan})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"plan":"pro"`)

	resp, body = s.admin(http.MethodDelete, "/tenants/"+acme.ID.String(), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"active":false`)

	resp, body = s.admin(http.MethodGet, "/tenants?active=true", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(body))

	resp, _ = s.admin(http.MethodPut, "/tenants/"+acme.ID.String()+"/config/concurrency", "", ConcurrencyConfig{Workers: 2})
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestProductsAreScopedToTenant(t *testing.T) {
	s := newTestServer(t, 1000)
	s.createTenant("acme")
	s.createTenant("globex")

	resp, body := s.do(http.MethodPost, "/products", "globex", catalog.ProductInput{Name: "Widget", Price: 5})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var globexWidget model.Product
	require.NoError(t, json.Unmarshal(body, &globexWidget))
	assert.Equal(t, "globex", globexWidget.TenantID)

	resp, body = s.do(http.MethodGet, "/products?name=Widget", "acme", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(body))

	resp, _ = s.do(http.MethodGet, "/products/"+globexWidget.ID.String(), "acme", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = s.do(http.MethodPut, "/products/"+globexWidget.ID.String(), "acme", catalog.ProductInput{Name: "Mine"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = s.do(http.MethodDelete, "/products/"+globexWidget.ID.String(), "acme", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = s.do(http.MethodPost, "/products", "acme", catalog.ProductInput{Name: "Widget", TenantID: "globex"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body = s.do(http.MethodGet, "/products", "globex", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []model.Product
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Widget", list[0].Name)
}

func TestRequestsWithoutTenant(t *testing.T) {
	s := newTestServer(t, 1000)
	s.createTenant("acme")
	resp, _ := s.do(http.MethodPost, "/products", "acme", catalog.ProductInput{Name: "Widget"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	for _, tenant := range []string{"", "unknown"} {
		resp, body := s.do(http.MethodGet, "/products", tenant, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `[]`, string(body), "reads fail closed")

		resp, _ = s.do(http.MethodPost, "/products", tenant, catalog.ProductInput{Name: "Widget"})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		resp, body = s.admin(http.MethodGet, "/export", tenant, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(body), `"products":[]`)
	}
}

func TestDeactivatedTenantIsNotBound(t *testing.T) {
	s := newTestServer(t, 1000)
	acme := s.createTenant("acme")

	resp, _ := s.admin(http.MethodDelete, "/tenants/"+acme.ID.String(), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = s.do(http.MethodPost, "/products", "acme", catalog.ProductInput{Name: "Widget"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAuditActorFromToken(t *testing.T) {
	s := newTestServer(t, 1000)
	s.createTenant("acme")

	token, err := auth.GenerateToken("alice", "acme")
	require.NoError(t, err)

	resp, body := s.do(http.MethodPost, "/products", "acme", catalog.ProductInput{Name: "Widget"}, "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var p model.Product
	require.NoError(t, json.Unmarshal(body, &p))
	assert.Equal(t, "alice", p.CreatedBy)

	resp, _ = s.do(http.MethodPost, "/products", "globex", catalog.ProductInput{Name: "Widget"}, "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = s.do(http.MethodGet, "/products", "acme", nil, "Authorization", "Bearer nope")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestImportAndExport(t *testing.T) {
	s := newTestServer(t, 1000)
	s.createTenant("acme")

	items := []catalog.ProductInput{{Name: "Widget"}, {Name: "Gadget", Price: 2}}
	resp, body := s.do(http.MethodPost, "/products/import", "acme", items)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	assert.JSONEq(t, `{"status":"imported","imported":2}`, string(body))

	resp, body = s.admin(http.MethodGet, "/export", "acme", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var exp catalog.Export
	require.NoError(t, json.Unmarshal(body, &exp))
	require.NotNil(t, exp.Tenant)
	assert.Equal(t, "acme", exp.Tenant.Identifier)
	assert.Len(t, exp.Products, 2)
}

func TestImportQueuesJob(t *testing.T) {
	jobs := &fakeJobs{}
	s := newTestServer(t, 1000, WithJobs(jobs))
	s.createTenant("acme")

	resp, _ := s.do(http.MethodPost, "/products/import", "acme", []catalog.ProductInput{{Name: "Widget"}})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	require.Len(t, jobs.jobs, 1)
	assert.Equal(t, "acme", jobs.jobs[0].Tenant)
	assert.Equal(t, catalog.JobImport, jobs.jobs[0].Type)
	assert.Equal(t, "system", jobs.jobs[0].Actor)

	resp, body := s.do(http.MethodGet, "/products", "acme", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(body), "nothing imported until the job runs")
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, 2)
	s.createTenant("acme")

	for i := 0; i < 2; i++ {
		resp, _ := s.do(http.MethodGet, "/products", "acme", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	resp, _ := s.do(http.MethodGet, "/products", "acme", nil)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))

	resp, _ = s.do(http.MethodGet, "/products", "globex", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, 1000)
	resp, body := s.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok","checks":{"engine":"ok"}}`, string(body))

	failing := newTestServer(t, 1000, WithHealthCheck("redis", func(context.Context) error { return errors.New("down") }))
	resp, _ = failing.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestAdminAndExportRequireToken(t *testing.T) {
	s := newTestServer(t, 1000)
	acme := s.createTenant("acme")
	resp, _ := s.do(http.MethodPost, "/products", "acme", catalog.ProductInput{Name: "Widget"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	unauthenticated := []struct {
		method, path, tenant string
		body                 any
	}{
		{http.MethodPost, "/tenants", "", CreateTenantRequest{Identifier: "globex", Name: "Globex"}},
		{http.MethodGet, "/tenants", "", nil},
		{http.MethodGet, "/tenants/" + acme.ID.String(), "", nil},
		{http.MethodPatch, "/tenants/" + acme.ID.String(), "", UpdateTenantRequest{}},
		{http.MethodDelete, "/tenants/" + acme.ID.String(), "", nil},
		{http.MethodGet, "/export", "acme", nil},
	}
	for _, tc := range unauthenticated {
		resp, body := s.do(tc.method, tc.path, tc.tenant, tc.body)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "%s %s", tc.method, tc.path)
		assert.NotContains(t, string(body), "Widget")
	}

	pinned, err := auth.GenerateToken("alice", "acme")
	require.NoError(t, err)
	resp, _ = s.do(http.MethodGet, "/tenants", "", nil, "Authorization", "Bearer "+pinned)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body := s.do(http.MethodGet, "/export", "acme", nil, "Authorization", "Bearer "+pinned)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Widget")

	resp, _ = s.do(http.MethodGet, "/export", "globex", nil, "Authorization", "Bearer "+pinned)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestTenantResponsesHideIsolationTarget(t *testing.T) {
	const dsn = "postgres://admin:s3cret@db/initech"
	s := newTestServer(t, 1000)

	resp, body := s.admin(http.MethodPost, "/tenants", "", CreateTenantRequest{Identifier: "initech", Name: "Initech", IsolationTarget: dsn})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	assert.NotContains(t, string(body), "s3cret")
	var created TenantResponse
	require.NoError(t, json.Unmarshal(body, &created))
	assert.True(t, created.Isolated)

	for _, path := range []string{"/tenants", "/tenants/" + created.ID.String()} {
		resp, body = s.admin(http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.NotContains(t, string(body), "s3cret", path)
		assert.NotContains(t, string(body), "isolation_target", path)
	}

	resp, body = s.admin(http.MethodGet, "/export", "initech", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotContains(t, string(body), "s3cret")

	resp, _ = s.admin(http.MethodPatch, "/tenants/"+created.ID.String(), "", map[string]string{"isolation_target": "postgres://elsewhere"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTenantRoutesAreRateLimited(t *testing.T) {
	s := newTestServer(t, 2)

	for i := 0; i < 2; i++ {
		resp, _ := s.admin(http.MethodGet, "/tenants", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	resp, _ := s.admin(http.MethodGet, "/tenants", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/prospector/internal/artifact"
	"github.com/sells-group/prospector/internal/config"
	"github.com/sells-group/prospector/internal/fault"
	"github.com/sells-group/prospector/internal/model"
)

type mockStages struct {
	mock.Mock
}

func (m *mockStages) Crawl(ctx context.Context, targetURL string) (*model.CrawlResult, error) {
	args := m.Called(ctx, targetURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CrawlResult), args.Error(1)
}

func (m *mockStages) Profile(ctx context.Context, inputPath string) (*model.ProfileResult, error) {
	args := m.Called(ctx, inputPath)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ProfileResult), args.Error(1)
}

func (m *mockStages) FindEvents(ctx context.Context, profilePath string) (*model.EventsResult, error) {
	args := m.Called(ctx, profilePath)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.EventsResult), args.Error(1)
}

func (m *mockStages) ExtractCompanies(ctx context.Context, eventsPath string) (*model.CompaniesResult, error) {
	args := m.Called(ctx, eventsPath)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CompaniesResult), args.Error(1)
}

func (m *mockStages) Prioritize(ctx context.Context, candidatesPath, profilePath string) (*model.PrioritizeResult, error) {
	args := m.Called(ctx, candidatesPath, profilePath)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PrioritizeResult), args.Error(1)
}

func (m *mockStages) Outreach(ctx context.Context, record model.PrioritizedCustomer) (*model.OutreachResult, error) {
	args := m.Called(ctx, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OutreachResult), args.Error(1)
}

func (m *mockStages) Run(ctx context.Context, targetURL string) (*model.RunReport, error) {
	args := m.Called(ctx, targetURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RunReport), args.Error(1)
}

type mockLoader struct {
	mock.Mock
}

func (m *mockLoader) LoadEvents(ctx context.Context, path, rootURL string) (*model.LoadResult, error) {
	args := m.Called(ctx, path, rootURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.LoadResult), args.Error(1)
}

func (m *mockLoader) LoadCustomers(ctx context.Context, path string) (*model.LoadResult, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.LoadResult), args.Error(1)
}

func testConfig() config.ServerConfig {
	return config.ServerConfig{Port: 8000, AllowedOrigins: []string{"*"}}
}

func newTestServer(t *testing.T, loader *mockLoader) (*Server, *mockStages, *artifact.Store) {
	t.Helper()
	store := artifact.NewStore(t.TempDir())
	stages := new(mockStages)
	var s *Server
	if loader != nil {
		s = New(testConfig(), stages, loader, artifact.NewViewer(store))
	} else {
		s = New(testConfig(), stages, nil, artifact.NewViewer(store))
	}
	return s, stages, store
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	s, _, _ := newTestServer(t, nil)
	rec := do(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestRequestIDPropagated(t *testing.T) {
	s, _, _ := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "req-123", rec.Header().Get(requestIDHeader))
}

func TestGenerateKnowledgeBase(t *testing.T) {
	s, stages, _ := newTestServer(t, nil)
	stages.On("Crawl", mock.Anything, "https://acme.com").Return(&model.CrawlResult{
		Message:  "Knowledge base generated.",
		FilePath: "data/knowledge_base/knowledge_base.md",
	}, nil)

	rec := do(t, s, http.MethodPost, "/generate_knowledge_base", `{"target_url": "https://acme.com", "file_name": "ignored"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "data/knowledge_base/knowledge_base.md", decode(t, rec)["file_path"])
	stages.AssertExpectations(t)
}

func TestGenerateKnowledgeBase_MissingURL(t *testing.T) {
	s, stages, _ := newTestServer(t, nil)
	rec := do(t, s, http.MethodPost, "/generate_knowledge_base", `{}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "target_url is required.", decode(t, rec)["detail"])
	stages.AssertNotCalled(t, "Crawl", mock.Anything, mock.Anything)
}

func TestInvalidBody(t *testing.T) {
	s, _, _ := newTestServer(t, nil)
	rec := do(t, s, http.MethodPost, "/process_knowledge_base", `{not json`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestStageFailureMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		kind   string
	}{
		{name: "not found", err: fault.Missing("data/x.md"), status: http.StatusNotFound, kind: "not_found"},
		{name: "invalid input", err: fault.New(fault.InvalidInput, "empty"), status: http.StatusBadRequest, kind: "invalid_input"},
		{name: "malformed", err: fault.New(fault.MalformedResponse, "not JSON"), status: http.StatusBadGateway, kind: "malformed_response"},
		{name: "upstream", err: fault.Wrap(fault.UpstreamFailure, errors.New("503"), "anthropic"), status: http.StatusBadGateway, kind: "upstream_failure"},
		{name: "unclassified", err: errors.New("disk full"), status: http.StatusInternalServerError, kind: "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, stages, _ := newTestServer(t, nil)
			stages.On("Profile", mock.Anything, "kb.md").Return(nil, tt.err)

			rec := do(t, s, http.MethodPost, "/process_knowledge_base", `{"file_path": "kb.md"}`)
			assert.Equal(t, tt.status, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, tt.kind, body["status"])
			assert.NotEmpty(t, body["detail"])
		})
	}
}

func TestStageRoutesPassParameters(t *testing.T) {
	s, stages, _ := newTestServer(t, nil)
	stages.On("FindEvents", mock.Anything, "").Return(&model.EventsResult{Message: "events"}, nil)
	stages.On("ExtractCompanies", mock.Anything, "events.json").Return(&model.CompaniesResult{Message: "companies"}, nil)
	stages.On("Prioritize", mock.Anything, "c.json", "p.md").Return(&model.PrioritizeResult{Message: "prioritized"}, nil)

	rec := do(t, s, http.MethodPost, "/find_potential_events", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodPost, "/extract_companies", `{"json_file_path": "events.json"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodPost, "/prioritize_companies", `{"potential_customer_path": "c.json", "company_profile_path": "p.md"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "prioritized", decode(t, rec)["message"])

	stages.AssertExpectations(t)
}

func TestGenerateOutreachEmail(t *testing.T) {
	s, stages, _ := newTestServer(t, nil)
	stages.On("Outreach", mock.Anything, mock.MatchedBy(func(rec model.PrioritizedCustomer) bool {
		return rec.CompanyName == "Honeywell" && rec.StakeholderName == "James Carter"
	})).Return(&model.OutreachResult{Message: "Personalized outreach email generated.", Email: "Dear James"}, nil)

	rec := do(t, s, http.MethodPost, "/generate_outreach_email",
		`{"company_name": "Honeywell", "industry": "Aerospace", "stakeholder_name": "James Carter"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Dear James", decode(t, rec)["email"])
}

func TestRun(t *testing.T) {
	s, stages, _ := newTestServer(t, nil)
	report := &model.RunReport{RunID: "r1", TargetURL: "https://acme.com", Stages: []model.StageReport{
		{Name: "crawl", Status: model.StageStatusComplete},
		{Name: "profile", Status: model.StageStatusFailed, Error: "boom"},
	}}
	stages.On("Run", mock.Anything, "https://acme.com").Return(report, fault.Wrap(fault.UpstreamFailure, errors.New("boom"), "profile"))

	rec := do(t, s, http.MethodPost, "/run", `{"target_url": "https://acme.com"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	body := decode(t, rec)
	require.Contains(t, body, "report")
	assert.Equal(t, "r1", body["report"].(map[string]any)["run_id"])
}

func TestStoreEvents(t *testing.T) {
	loader := new(mockLoader)
	loader.On("LoadEvents", mock.Anything, "events.json", "https://acme.com").Return(&model.LoadResult{
		Message:  "Inserted 3 events into the database.",
		Inserted: 3,
	}, nil)
	s, _, _ := newTestServer(t, loader)

	rec := do(t, s, http.MethodPost, "/store_events_in_db?file_path=events.json&root_url=https://acme.com", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Inserted 3 events into the database.", decode(t, rec)["message"])
}

func TestStoreEvents_BodyParamsAndMissing(t *testing.T) {
	loader := new(mockLoader)
	loader.On("LoadEvents", mock.Anything, "events.json", "https://acme.com").Return(&model.LoadResult{Inserted: 1}, nil)
	s, _, _ := newTestServer(t, loader)

	rec := do(t, s, http.MethodPost, "/store_events_in_db", `{"file_path": "events.json", "root_url": "https://acme.com"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodPost, "/store_events_in_db", `{"file_path": "events.json"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	loader.AssertNumberOfCalls(t, "LoadEvents", 1)
}

func TestStoreCustomers_RollbackIsUpstream(t *testing.T) {
	loader := new(mockLoader)
	loader.On("LoadCustomers", mock.Anything, "p.json").Return(nil,
		fault.Wrap(fault.UpstreamFailure, errors.New("commit failed"), "error inserting records into database"))
	s, _, _ := newTestServer(t, loader)

	rec := do(t, s, http.MethodPost, "/store_prioritized_companies_in_db?file_path=p.json", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, decode(t, rec)["detail"], "error inserting records into database")
}

func TestStore_NoLoader(t *testing.T) {
	s, _, _ := newTestServer(t, nil)
	rec := do(t, s, http.MethodPost, "/store_prioritized_companies_in_db?file_path=p.json", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestViewEndpoints(t *testing.T) {
	s, _, store := newTestServer(t, nil)
	path := store.Path(artifact.CompanyProfile)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("# Acme\n"), 0o644))

	rec := do(t, s, http.MethodGet, "/view_company_profile", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "# Acme\n", decode(t, rec)["content"])

	rec = do(t, s, http.MethodGet, "/view_potential_events", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestArtifactByKind(t *testing.T) {
	s, _, store := newTestServer(t, nil)
	path := store.Path(artifact.OutreachEmail)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(`{"email": "hi"}`), 0o644))

	rec := do(t, s, http.MethodGet, "/artifacts/outreach", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "outreach", body["kind"])
	assert.Equal(t, `{"email": "hi"}`, body["content"])

	rec = do(t, s, http.MethodGet, "/artifacts/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitRPS = 0.001
	cfg.RateLimitBurst = 1
	store := artifact.NewStore(t.TempDir())
	s := New(cfg, new(mockStages), nil, artifact.NewViewer(store))

	rec := do(t, s, http.MethodGet, "/view_company_profile", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodGet, "/view_company_profile", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = do(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	s, _, _ := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodOptions, "/run", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecoverer(t *testing.T) {
	s, stages, _ := newTestServer(t, nil)
	stages.On("Profile", mock.Anything, "").Run(func(mock.Arguments) { panic("boom") })

	rec := do(t, s, http.MethodPost, "/process_knowledge_base", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	s, _, _ := newTestServer(t, nil)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

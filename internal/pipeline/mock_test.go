package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/sells-group/prospector/internal/artifact"
	"github.com/sells-group/prospector/internal/config"
	"github.com/sells-group/prospector/internal/model"
	"github.com/sells-group/prospector/pkg/firecrawl"
)

// --- Reasoner Mock ---

type mockReasoner struct {
	mock.Mock
}

func (m *mockReasoner) Complete(ctx context.Context, call Call) (string, error) {
	args := m.Called(ctx, call)
	return args.String(0), args.Error(1)
}

// failingReasoner fails the test if it is ever called.
type failingReasoner struct {
	t *testing.T
}

func (f failingReasoner) Complete(_ context.Context, call Call) (string, error) {
	f.t.Fatalf("reasoning service called in stage %s", call.Stage)
	return "", nil
}

// --- Firecrawl Mock ---

type mockFirecrawlClient struct {
	mock.Mock
}

func (m *mockFirecrawlClient) Crawl(ctx context.Context, req firecrawl.CrawlRequest) (*firecrawl.CrawlResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*firecrawl.CrawlResponse), args.Error(1)
}

func (m *mockFirecrawlClient) GetCrawlStatus(ctx context.Context, id string) (*firecrawl.CrawlStatusResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*firecrawl.CrawlStatusResponse), args.Error(1)
}

func (m *mockFirecrawlClient) Extract(ctx context.Context, req firecrawl.ExtractRequest) (*firecrawl.ExtractResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*firecrawl.ExtractResponse), args.Error(1)
}

func (m *mockFirecrawlClient) GetExtractStatus(ctx context.Context, id string) (*firecrawl.ExtractStatusResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*firecrawl.ExtractStatusResponse), args.Error(1)
}

// failingFirecrawl fails the test on any call.
type failingFirecrawl struct {
	t *testing.T
}

func (f failingFirecrawl) Crawl(context.Context, firecrawl.CrawlRequest) (*firecrawl.CrawlResponse, error) {
	f.t.Fatal("crawl service called")
	return nil, nil
}

func (f failingFirecrawl) GetCrawlStatus(context.Context, string) (*firecrawl.CrawlStatusResponse, error) {
	f.t.Fatal("crawl service called")
	return nil, nil
}

func (f failingFirecrawl) Extract(context.Context, firecrawl.ExtractRequest) (*firecrawl.ExtractResponse, error) {
	f.t.Fatal("extraction service called")
	return nil, nil
}

func (f failingFirecrawl) GetExtractStatus(context.Context, string) (*firecrawl.ExtractStatusResponse, error) {
	f.t.Fatal("extraction service called")
	return nil, nil
}

// --- Loader Mock ---

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

// --- helpers ---

func testConfig(debug bool) *config.Config {
	return &config.Config{
		Debug:     debug,
		Firecrawl: config.FirecrawlConfig{CrawlLimit: 10},
		Stages: config.StagesConfig{
			Profile:    config.StageConfig{Temperature: 0.2, MaxTokens: 3000},
			Events:     config.StageConfig{Temperature: 0.2, MaxTokens: 3000},
			Prioritize: config.StageConfig{Temperature: 0.2, MaxTokens: 8000},
			Outreach:   config.StageConfig{Temperature: 0.3, MaxTokens: 1000},
		},
	}
}

func newTestPipeline(t *testing.T, debug bool, r Reasoner, fc firecrawl.Client) (*Pipeline, *artifact.Store) {
	t.Helper()
	store := artifact.NewStore(t.TempDir())
	return New(testConfig(debug), store, r, fc, nil), store
}

func seed(t *testing.T, store *artifact.Store, kind artifact.Kind, content string) string {
	t.Helper()
	path := store.Path(kind)
	if err := store.WriteString(path, content); err != nil {
		t.Fatalf("seed %s: %v", kind, err)
	}
	return path
}

func stageCall(stage string) any {
	return mock.MatchedBy(func(c Call) bool { return c.Stage == stage })
}

// observeWarnings swaps the global logger for one that records warnings and
// above until the test ends.
func observeWarnings(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.WarnLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	t.Cleanup(restore)
	return logs
}

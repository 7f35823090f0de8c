package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/prospector/internal/artifact"
	"github.com/sells-group/prospector/internal/ingest"
	"github.com/sells-group/prospector/internal/pipeline"
	"github.com/sells-group/prospector/internal/store"
	anthropicpkg "github.com/sells-group/prospector/pkg/anthropic"
	"github.com/sells-group/prospector/pkg/firecrawl"
	"github.com/sells-group/prospector/pkg/notion"
	sfpkg "github.com/sells-group/prospector/pkg/salesforce"
)

// appEnv holds the initialized store, artifacts and pipeline shared by the
// stage, run and serve commands.
type appEnv struct {
	Store     store.Store // nil when no store is wired
	Artifacts *artifact.Store
	Loader    *ingest.Loader // nil when Store is nil
	Pipeline  *pipeline.Pipeline
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// pipelineLoader returns the loader as a pipeline.Loader, or a nil interface
// when there is no store.
func (e *appEnv) pipelineLoader() pipeline.Loader {
	if e.Loader == nil {
		return nil
	}
	return e.Loader
}

// initEnv builds the pipeline. withStore opens and migrates the configured
// store; otherwise the store stages of a full run are skipped.
func initEnv(ctx context.Context, withStore bool) (*appEnv, error) {
	if err := cfg.Validate("crawl", "reasoning"); err != nil {
		return nil, err
	}

	env := &appEnv{Artifacts: artifact.NewStore(cfg.Data.Root)}
	if withStore {
		st, err := openStore(ctx)
		if err != nil {
			return nil, err
		}
		env.Store = st
		env.Loader = ingest.NewLoader(env.Artifacts, st)
	}

	anthropicClient := anthropicpkg.NewClient(cfg.Anthropic.Key)
	reasoner := pipeline.NewAnthropicReasoner(anthropicClient, cfg.Anthropic.Model,
		time.Duration(cfg.Stages.CallTimeoutSecs)*time.Second)
	firecrawlClient := firecrawl.NewClient(cfg.Firecrawl.Key, firecrawl.WithBaseURL(cfg.Firecrawl.BaseURL))

	env.Pipeline = pipeline.New(cfg, env.Artifacts, reasoner, firecrawlClient, env.pipelineLoader())
	if cfg.Debug {
		zap.L().Info("debug mode: replaying cached artifacts")
	}
	return env, nil
}

// openStore opens the configured store and applies migrations.
func openStore(ctx context.Context) (store.Store, error) {
	if err := cfg.Validate("store"); err != nil {
		return nil, err
	}
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "prospector.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func initNotion() (notion.Client, error) {
	if err := cfg.Validate("notion"); err != nil {
		return nil, err
	}
	return notion.NewClient(cfg.Notion.Token), nil
}

func initSalesforce() (sfpkg.Client, error) {
	if err := cfg.Validate("salesforce"); err != nil {
		return nil, err
	}
	pemData, err := os.ReadFile(cfg.Salesforce.KeyPath)
	if err != nil {
		return nil, eris.Wrap(err, "read salesforce JWT private key")
	}
	return sfpkg.Connect(sfpkg.Creds{
		LoginURL:   cfg.Salesforce.LoginURL,
		Username:   cfg.Salesforce.Username,
		ClientID:   cfg.Salesforce.ClientID,
		PrivateKey: string(pemData),
	}, sfpkg.WithRateLimit(5))
}

// printJSON writes v to w as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

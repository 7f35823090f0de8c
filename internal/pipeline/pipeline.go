// Package pipeline implements the sales-intelligence stages: crawl, profile,
// event discovery, company extraction, prioritization and outreach. Each
// stage reads a staged artifact, calls an external service once and writes a
// new artifact.
package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sells-group/prospector/internal/artifact"
	"github.com/sells-group/prospector/internal/config"
	"github.com/sells-group/prospector/internal/model"
	"github.com/sells-group/prospector/pkg/firecrawl"
)

// Stage names used in logs and run reports.
const (
	StageCrawl         = "crawl"
	StageProfile       = "profile"
	StageEvents        = "events"
	StageStoreEvents   = "store_events"
	StageCompanies     = "companies"
	StagePrioritize    = "prioritize"
	StageStoreCustomer = "store_customers"
	StageOutreach      = "outreach"
)

const (
	// maxExtractURLs caps the event URLs sent to the extraction service.
	maxExtractURLs = 10
	// maxPrioritized is the record ceiling requested from the reasoning
	// service. Longer responses are kept and logged.
	maxPrioritized = 50
)

// Loader persists JSON-list artifacts. It is satisfied by ingest.Loader.
type Loader interface {
	LoadEvents(ctx context.Context, path, rootURL string) (*model.LoadResult, error)
	LoadCustomers(ctx context.Context, path string) (*model.LoadResult, error)
}

// Pipeline runs the stages against one artifact store.
type Pipeline struct {
	artifacts  *artifact.Store
	reasoner   Reasoner
	firecrawl  firecrawl.Client
	loader     Loader
	validate   *validator.Validate
	stages     config.StagesConfig
	crawlLimit int
	pollOpts   []firecrawl.PollOption
	// debug replays cached artifacts instead of calling any service. Fixed
	// at construction.
	debug bool
}

// New creates a Pipeline. The debug flag and stage settings are copied from
// cfg once; later changes to cfg have no effect. loader may be nil, in which
// case Run skips the store stages.
func New(cfg *config.Config, artifacts *artifact.Store, reasoner Reasoner, fc firecrawl.Client, loader Loader) *Pipeline {
	limit := cfg.Firecrawl.CrawlLimit
	if limit <= 0 {
		limit = 10
	}
	return &Pipeline{
		artifacts:  artifacts,
		reasoner:   reasoner,
		firecrawl:  fc,
		loader:     loader,
		validate:   validator.New(),
		stages:     cfg.Stages,
		crawlLimit: limit,
		pollOpts: []firecrawl.PollOption{
			firecrawl.WithPollInterval(time.Duration(cfg.Firecrawl.PollIntervalSecs) * time.Second),
			firecrawl.WithPollTimeout(time.Duration(cfg.Firecrawl.PollTimeoutSecs) * time.Second),
			firecrawl.WithPollCap(time.Duration(cfg.Firecrawl.PollCapSecs) * time.Second),
		},
		debug: cfg.Debug,
	}
}

// Debug reports whether the pipeline replays cached artifacts.
func (p *Pipeline) Debug() bool {
	return p.debug
}

// Artifacts returns the artifact store the stages read and write.
func (p *Pipeline) Artifacts() *artifact.Store {
	return p.artifacts
}

// cached returns the content at path for a debug replay. A missing file
// yields ok == false and no error.
func (p *Pipeline) cached(path string) (content string, ok bool, err error) {
	if !p.artifacts.Exists(path) {
		return "", false, nil
	}
	content, err = p.artifacts.ReadRaw(path)
	if err != nil {
		return "", false, err
	}
	return content, true, nil
}

func stageLogger(stage string) *zap.Logger {
	return zap.L().With(zap.String("stage", stage))
}

func logComplete(log *zap.Logger, start time.Time, outputFile string) {
	log.Info("pipeline: stage complete",
		zap.String("output_file", outputFile),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
}

// encodeJSON renders v with two-space indentation and without HTML escaping.
func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

package ingest

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/sells-group/prospector/internal/artifact"
	"github.com/sells-group/prospector/internal/fault"
	"github.com/sells-group/prospector/internal/model"
)

// Sink receives accepted batches. store.Store satisfies it.
type Sink interface {
	InsertEvents(ctx context.Context, events []model.CandidateEvent, rootURL string) (int, error)
	InsertCustomers(ctx context.Context, customers []model.PrioritizedCustomer) (int, error)
}

// Loader bulk-loads JSON-list artifacts into a Sink.
type Loader struct {
	artifacts *artifact.Store
	sink      Sink
}

// NewLoader creates a Loader reading files through artifacts.
func NewLoader(artifacts *artifact.Store, sink Sink) *Loader {
	return &Loader{artifacts: artifacts, sink: sink}
}

// LoadEvents stores every complete event in the list at path, tagged with
// rootURL.
func (l *Loader) LoadEvents(ctx context.Context, path, rootURL string) (*model.LoadResult, error) {
	items, err := l.readList(path)
	if err != nil {
		return nil, err
	}

	events, sum := CheckEvents(items)
	logSummary("events", path, sum)

	n, err := l.sink.InsertEvents(ctx, events, rootURL)
	if err != nil {
		return nil, fault.Wrap(fault.UpstreamFailure, err, "error inserting records into database")
	}
	return &model.LoadResult{
		Message:  fmt.Sprintf("Inserted %d events into the database.", n),
		Inserted: n,
		Skipped:  sum.Skipped(),
	}, nil
}

// LoadCustomers stores every complete prioritized customer in the list at
// path. The list is stored in full; no ceiling is applied here.
func (l *Loader) LoadCustomers(ctx context.Context, path string) (*model.LoadResult, error) {
	items, err := l.readList(path)
	if err != nil {
		return nil, err
	}

	customers, sum := CheckCustomers(items)
	logSummary("customers", path, sum)

	n, err := l.sink.InsertCustomers(ctx, customers)
	if err != nil {
		return nil, fault.Wrap(fault.UpstreamFailure, err, "error inserting records into potential_customer table")
	}
	return &model.LoadResult{
		Message:  fmt.Sprintf("Inserted %d records into the potential_customer table.", n),
		Inserted: n,
		Skipped:  sum.Skipped(),
	}, nil
}

func (l *Loader) readList(path string) ([]json.RawMessage, error) {
	if path == "" {
		return nil, fault.New(fault.InvalidInput, "file path is required")
	}
	content, err := l.artifacts.Read(path)
	if err != nil {
		return nil, err
	}
	var items []json.RawMessage
	// A JSON null decodes into a nil slice without error.
	if err := json.Unmarshal([]byte(content), &items); err != nil || items == nil {
		return nil, fault.New(fault.InvalidInput, "JSON content of %q is not a list", path)
	}
	return items, nil
}

func logSummary(kind, path string, sum Summary) {
	if sum.Skipped() == 0 {
		return
	}
	zap.L().Info("ingest: skipped incomplete records",
		zap.String("kind", kind),
		zap.String("file", path),
		zap.Int("skipped", sum.Skipped()),
		zap.Int("accepted", sum.Accepted),
	)
}

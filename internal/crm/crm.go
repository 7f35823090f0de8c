// Package crm pushes prioritized customers to downstream lead systems.
package crm

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/prospector/internal/artifact"
	"github.com/sells-group/prospector/internal/fault"
	"github.com/sells-group/prospector/internal/ingest"
	"github.com/sells-group/prospector/internal/model"
)

// Sink creates one lead per customer in an external system.
type Sink interface {
	Name() string
	Push(ctx context.Context, customers []model.PrioritizedCustomer) (*Result, error)
}

// Result counts the outcome of a push.
type Result struct {
	Target     string   `json:"target"`
	Accepted   int      `json:"accepted"`
	Skipped    int      `json:"skipped"`
	Created    int      `json:"created"`
	Duplicates int      `json:"duplicates"`
	Failed     int      `json:"failed"`
	Errors     []string `json:"errors,omitempty"`
}

// Push reads the prioritized list at path (default: the prioritized
// artifact), applies the persistence field check and sends the accepted
// records to sink.
func Push(ctx context.Context, artifacts *artifact.Store, sink Sink, path string) (*Result, error) {
	if path == "" {
		path = artifacts.Path(artifact.PrioritizedCompanies)
	}
	content, err := artifacts.Read(path)
	if err != nil {
		return nil, err
	}
	var items []json.RawMessage
	// A JSON null decodes into a nil slice without error.
	if err := json.Unmarshal([]byte(content), &items); err != nil || items == nil {
		return nil, fault.New(fault.InvalidInput, "JSON content of %q is not a list", path)
	}

	customers, sum := ingest.CheckCustomers(items)
	log := zap.L().With(zap.String("target", sink.Name()), zap.String("file", path))
	log.Info("crm: push started", zap.Int("accepted", sum.Accepted), zap.Int("skipped", sum.Skipped()))

	res, err := sink.Push(ctx, customers)
	if err != nil {
		return nil, fault.Wrap(fault.UpstreamFailure, err, "crm: push to %s", sink.Name())
	}
	res.Target = sink.Name()
	res.Accepted = sum.Accepted
	res.Skipped = sum.Skipped()

	log.Info("crm: push complete",
		zap.Int("created", res.Created),
		zap.Int("duplicates", res.Duplicates),
		zap.Int("failed", res.Failed),
	)
	return res, nil
}

// splitName returns first and last name. An empty name yields last name
// "Unknown".
func splitName(full string) (first, last string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", "Unknown"
	case 1:
		return "", parts[0]
	default:
		return strings.Join(parts[:len(parts)-1], " "), parts[len(parts)-1]
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

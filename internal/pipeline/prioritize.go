package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/prospector/internal/artifact"
	"github.com/sells-group/prospector/internal/fault"
	"github.com/sells-group/prospector/internal/model"
	"github.com/sells-group/prospector/internal/prompts"
)

// Prioritize ranks the extracted companies at candidatesPath against the
// profile at profilePath (defaults: the fixed artifact paths). The response
// array order is rank order, highest priority first, and is preserved.
func (p *Pipeline) Prioritize(ctx context.Context, candidatesPath, profilePath string) (*model.PrioritizeResult, error) {
	if candidatesPath == "" {
		candidatesPath = p.artifacts.Path(artifact.PotentialCustomer)
	}
	if profilePath == "" {
		profilePath = p.artifacts.Path(artifact.CompanyProfile)
	}

	candidates, err := p.artifacts.Read(candidatesPath)
	if err != nil {
		return nil, err
	}
	profile, err := p.artifacts.Read(profilePath)
	if err != nil {
		return nil, err
	}

	var indented bytes.Buffer
	if err := json.Indent(&indented, []byte(candidates), "", "  "); err != nil {
		return nil, fault.New(fault.InvalidInput, "content of %q is not valid JSON", candidatesPath)
	}

	out := p.artifacts.Path(artifact.PrioritizedCompanies)
	if p.debug {
		cached, ok, err := p.cached(out)
		if err != nil {
			return nil, err
		}
		if !ok {
			return &model.PrioritizeResult{
				Message:    "(DEBUG) Prioritized companies file not found. No modification performed.",
				OutputFile: out,
			}, nil
		}
		return &model.PrioritizeResult{
			Message:    fmt.Sprintf("(DEBUG) Using existing prioritized companies file: %s", out),
			OutputFile: out,
			ParsedData: parseCachedList(cached),
			RawResult:  cached,
		}, nil
	}

	log := stageLogger(StagePrioritize)
	start := time.Now()
	log.Info("pipeline: stage started")

	text, err := p.reason(ctx, StagePrioritize, prompts.Prioritize, map[string]any{
		"Profile":    profile,
		"Candidates": indented.String(),
		"MaxRecords": maxPrioritized,
	}, p.stages.Prioritize)
	if err != nil {
		return nil, err
	}

	cleaned := UnwrapFence(text)
	ranked, err := ParseList(cleaned)
	if err != nil {
		return nil, err
	}
	if len(ranked) > maxPrioritized {
		log.Warn("pipeline: prioritized list exceeds requested ceiling",
			zap.Int("records", len(ranked)),
			zap.Int("ceiling", maxPrioritized),
		)
	}

	if err := p.artifacts.WriteString(out, cleaned); err != nil {
		return nil, err
	}

	logComplete(log.With(zap.Int("records", len(ranked))), start, out)
	return &model.PrioritizeResult{
		Message:    fmt.Sprintf("Prioritized companies saved to %s", out),
		OutputFile: out,
		ParsedData: ranked,
		RawResult:  cleaned,
	}, nil
}

package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/prospector/internal/artifact"
	"github.com/sells-group/prospector/internal/model"
	"github.com/sells-group/prospector/internal/prompts"
)

// FindEvents asks the reasoning service for associations, exhibitions and
// news sources relevant to the profile at profilePath (default: the profile
// artifact). The cleaned JSON array is written verbatim.
func (p *Pipeline) FindEvents(ctx context.Context, profilePath string) (*model.EventsResult, error) {
	if profilePath == "" {
		profilePath = p.artifacts.Path(artifact.CompanyProfile)
	}
	profile, err := p.artifacts.Read(profilePath)
	if err != nil {
		return nil, err
	}

	out := p.artifacts.Path(artifact.PotentialEvents)
	if p.debug {
		content, ok, err := p.cached(out)
		if err != nil {
			return nil, err
		}
		if !ok {
			return &model.EventsResult{
				Message:    "(DEBUG) Potential events file not found. No modification performed.",
				OutputFile: out,
			}, nil
		}
		return &model.EventsResult{
			Message:    fmt.Sprintf("(DEBUG) Potential events not modified. Using existing file: %s", out),
			OutputFile: out,
			ParsedData: parseCachedList(content),
		}, nil
	}

	log := stageLogger(StageEvents)
	start := time.Now()
	log.Info("pipeline: stage started")

	text, err := p.reason(ctx, StageEvents, prompts.Events, map[string]any{"Profile": profile}, p.stages.Events)
	if err != nil {
		return nil, err
	}

	cleaned := UnwrapFence(text)
	events, err := ParseList(cleaned)
	if err != nil {
		return nil, err
	}

	if err := p.artifacts.WriteString(out, cleaned); err != nil {
		return nil, err
	}

	logComplete(log.With(zap.Int("events", len(events))), start, out)
	return &model.EventsResult{
		Message:    fmt.Sprintf("Potential events information saved to %s", out),
		OutputFile: out,
		ParsedData: events,
	}, nil
}

package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sells-group/prospector/internal/artifact"
	"github.com/sells-group/prospector/internal/fault"
	"github.com/sells-group/prospector/internal/model"
	"github.com/sells-group/prospector/internal/prompts"
)

// Profile turns the knowledge base at inputPath (default: the crawl
// artifact) into a sectioned company profile document.
func (p *Pipeline) Profile(ctx context.Context, inputPath string) (*model.ProfileResult, error) {
	if inputPath == "" {
		inputPath = p.artifacts.Path(artifact.KnowledgeBase)
	}
	content, err := p.artifacts.Read(inputPath)
	if err != nil {
		return nil, err
	}

	out := p.artifacts.Path(artifact.CompanyProfile)
	if p.debug {
		if p.artifacts.Exists(out) {
			return &model.ProfileResult{
				Message:    fmt.Sprintf("(DEBUG) Standardized company profile not modified. Using existing file: %s", out),
				OutputFile: out,
			}, nil
		}
		return &model.ProfileResult{
			Message:    "(DEBUG) Company profile file not found. No modification performed.",
			OutputFile: out,
		}, nil
	}

	log := stageLogger(StageProfile)
	start := time.Now()
	log.Info("pipeline: stage started")

	text, err := p.reason(ctx, StageProfile, prompts.Profile, map[string]any{"Content": content}, p.stages.Profile)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, fault.New(fault.MalformedResponse, "profile: reasoning service returned no text")
	}

	if err := p.artifacts.WriteString(out, text); err != nil {
		return nil, err
	}

	logComplete(log, start, out)
	return &model.ProfileResult{
		Message:    fmt.Sprintf("Standardized company profile created: %s", out),
		OutputFile: out,
	}, nil
}

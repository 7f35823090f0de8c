package pipeline

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/prospector/internal/artifact"
	"github.com/sells-group/prospector/internal/fault"
	"github.com/sells-group/prospector/internal/model"
	"github.com/sells-group/prospector/internal/prompts"
)

// Outreach drafts a plain-text email to one prioritized customer using the
// fixed company profile artifact.
func (p *Pipeline) Outreach(ctx context.Context, record model.PrioritizedCustomer) (*model.OutreachResult, error) {
	if err := p.validate.Struct(record); err != nil {
		return nil, fault.Wrap(fault.InvalidInput, err, "outreach: invalid customer record")
	}

	profile, err := p.artifacts.Read(p.artifacts.Path(artifact.CompanyProfile))
	if err != nil {
		return nil, err
	}

	out := p.artifacts.Path(artifact.OutreachEmail)
	if p.debug {
		cached, ok, err := p.cached(out)
		if err != nil {
			return nil, err
		}
		if !ok {
			return &model.OutreachResult{
				Message:    "(DEBUG) Outreach email file not found. No modification performed.",
				OutputFile: out,
			}, nil
		}
		var prev model.OutreachEmail
		if err := json.Unmarshal([]byte(cached), &prev); err != nil {
			stageLogger(StageOutreach).Warn("pipeline: cached artifact unreadable",
				zap.String("file", out), zap.Error(err))
		}
		return &model.OutreachResult{
			Message:    "(DEBUG) Using existing outreach email file: " + out,
			Email:      prev.Email,
			OutputFile: out,
		}, nil
	}

	log := stageLogger(StageOutreach).With(zap.String("company", record.CompanyName))
	start := time.Now()
	log.Info("pipeline: stage started")

	recordJSON, err := encodeJSON(record)
	if err != nil {
		return nil, fault.Wrap(fault.InvalidInput, err, "outreach: encode customer record")
	}

	text, err := p.reason(ctx, StageOutreach, prompts.Outreach, map[string]any{
		"Profile": profile,
		"Record":  string(recordJSON),
	}, p.stages.Outreach)
	if err != nil {
		return nil, err
	}

	email := strings.TrimSpace(text)
	if email == "" {
		return nil, fault.New(fault.MalformedResponse, "outreach: reasoning service returned no text")
	}

	doc := model.OutreachEmail{
		Message: "Personalized outreach email generated.",
		Email:   email,
	}
	buf, err := encodeJSON(doc)
	if err != nil {
		return nil, fault.Wrap(fault.MalformedResponse, err, "outreach: encode email")
	}
	if err := p.artifacts.Write(out, buf); err != nil {
		return nil, err
	}

	logComplete(log, start, out)
	return &model.OutreachResult{
		Message:    doc.Message,
		Email:      email,
		OutputFile: out,
	}, nil
}

package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/prospector/internal/config"
	"github.com/sells-group/prospector/internal/fault"
	"github.com/sells-group/prospector/internal/prompts"
	"github.com/sells-group/prospector/pkg/anthropic"
)

// Call is a single reasoning request.
type Call struct {
	Stage    string
	Prompt   prompts.Prompt
	Settings config.StageConfig
}

// Reasoner turns a rendered prompt into text. Implementations make exactly
// one attempt per call.
type Reasoner interface {
	Complete(ctx context.Context, call Call) (string, error)
}

type anthropicReasoner struct {
	client  anthropic.Client
	model   string
	timeout time.Duration
}

// NewAnthropicReasoner adapts an anthropic.Client. A zero timeout leaves the
// call bounded only by ctx.
func NewAnthropicReasoner(client anthropic.Client, model string, timeout time.Duration) Reasoner {
	return &anthropicReasoner{client: client, model: model, timeout: timeout}
}

func (r *anthropicReasoner) Complete(ctx context.Context, call Call) (string, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	temp := call.Settings.Temperature
	req := anthropic.MessageRequest{
		Model:       r.model,
		MaxTokens:   call.Settings.MaxTokens,
		Messages:    []anthropic.Message{{Role: "user", Content: call.Prompt.User}},
		Temperature: &temp,
	}
	if call.Prompt.System != "" {
		req.System = []anthropic.SystemBlock{{Text: call.Prompt.System}}
	}

	resp, err := r.client.CreateMessage(ctx, req)
	if err != nil {
		return "", eris.Wrapf(err, "reasoner: %s", call.Stage)
	}
	resp.Usage.LogCost(r.model, call.Stage)
	return resp.Text(), nil
}

// reason renders the named template and calls the reasoner once.
func (p *Pipeline) reason(ctx context.Context, stage, template string, data any, settings config.StageConfig) (string, error) {
	prompt, err := prompts.Render(template, data)
	if err != nil {
		return "", err
	}
	text, err := p.reasoner.Complete(ctx, Call{Stage: stage, Prompt: prompt, Settings: settings})
	if err != nil {
		return "", fault.Wrap(fault.UpstreamFailure, err, "%s: reasoning call failed", stage)
	}
	return text, nil
}

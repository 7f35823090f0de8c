package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/prospector/internal/artifact"
	"github.com/sells-group/prospector/internal/fault"
	"github.com/sells-group/prospector/internal/model"
	"github.com/sells-group/prospector/internal/prompts"
	"github.com/sells-group/prospector/pkg/firecrawl"
)

// ExtractCompanies collects the event URLs from the list at eventsPath
// (default: the events artifact), keeps the first ten distinct ones and asks
// the extraction service for the company names on those pages. Web search is
// disabled for the extraction job.
func (p *Pipeline) ExtractCompanies(ctx context.Context, eventsPath string) (*model.CompaniesResult, error) {
	if eventsPath == "" {
		eventsPath = p.artifacts.Path(artifact.PotentialEvents)
	}
	content, err := p.artifacts.Read(eventsPath)
	if err != nil {
		return nil, err
	}

	var events []json.RawMessage
	if err := json.Unmarshal([]byte(content), &events); err != nil {
		return nil, fault.New(fault.InvalidInput, "content of %q is not a JSON list", eventsPath)
	}

	urls := EventURLs(events, maxExtractURLs)
	if len(urls) == 0 {
		return nil, fault.New(fault.InvalidInput, "no valid URLs found in %q", eventsPath)
	}

	out := p.artifacts.Path(artifact.PotentialCustomer)
	if p.debug {
		cached, ok, err := p.cached(out)
		if err != nil {
			return nil, err
		}
		if !ok {
			return &model.CompaniesResult{
				Message:    "(DEBUG) Potential customer file not found. No modification performed.",
				OutputFile: out,
				URLs:       urls,
			}, nil
		}
		data, err := parseCompanies([]byte(cached))
		if err != nil {
			stageLogger(StageCompanies).Warn("pipeline: cached artifact unreadable",
				zap.String("file", out), zap.Error(err))
		}
		return &model.CompaniesResult{
			Message:    "(DEBUG) Using existing potential customer file: " + out,
			OutputFile: out,
			URLs:       urls,
			Data:       data,
		}, nil
	}

	log := stageLogger(StageCompanies).With(zap.Int("urls", len(urls)))
	start := time.Now()
	log.Info("pipeline: stage started")

	data, err := p.extract(ctx, urls)
	if err != nil {
		return nil, err
	}

	buf, err := encodeJSON(data)
	if err != nil {
		return nil, fault.Wrap(fault.MalformedResponse, err, "companies: encode extraction result")
	}
	if err := p.artifacts.Write(out, buf); err != nil {
		return nil, err
	}

	logComplete(log.With(zap.Int("companies", len(data.Companies))), start, out)
	return &model.CompaniesResult{
		Message:    "Extraction completed.",
		OutputFile: out,
		URLs:       urls,
		Data:       data,
	}, nil
}

func (p *Pipeline) extract(ctx context.Context, urls []string) (*model.CompanyCandidates, error) {
	prompt, err := prompts.Render(prompts.Extract, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.firecrawl.Extract(ctx, firecrawl.ExtractRequest{
		URLs:            urls,
		Prompt:          prompt.User,
		Schema:          json.RawMessage(companiesSchema),
		EnableWebSearch: false,
	})
	if err != nil {
		return nil, fault.Wrap(fault.UpstreamFailure, err, "companies: start extraction")
	}
	if !resp.Success || resp.ID == "" {
		return nil, fault.New(fault.UpstreamFailure, "companies: extraction job was not accepted")
	}

	status, err := firecrawl.PollExtract(ctx, p.firecrawl, resp.ID, p.pollOpts...)
	if err != nil {
		return nil, fault.Wrap(fault.UpstreamFailure, err, "companies: extraction job %s did not complete", resp.ID)
	}

	return parseCompanies(status.Data)
}

// EventURLs returns the distinct non-empty "url" values of events in
// first-seen order, truncated to limit. Elements that are not objects or
// whose url is not a string are ignored.
func EventURLs(events []json.RawMessage, limit int) []string {
	seen := make(map[string]struct{}, len(events))
	urls := make([]string, 0, limit)
	for _, raw := range events {
		var ev struct {
			URL any `json:"url"`
		}
		if err := json.Unmarshal(raw, &ev); err != nil {
			continue
		}
		u, ok := ev.URL.(string)
		if !ok || u == "" {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		urls = append(urls, u)
		if len(urls) == limit {
			break
		}
	}
	return urls
}

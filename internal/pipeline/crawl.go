package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/prospector/internal/artifact"
	"github.com/sells-group/prospector/internal/fault"
	"github.com/sells-group/prospector/internal/model"
	"github.com/sells-group/prospector/pkg/firecrawl"
)

// Crawl fetches up to the configured page limit of main-domain content from
// targetURL and writes the pages' markdown, joined by newlines, to the
// knowledge base artifact. It waits for the crawl job without a ceiling
// unless ctx or the configured poll timeout bounds it.
func (p *Pipeline) Crawl(ctx context.Context, targetURL string) (*model.CrawlResult, error) {
	if err := p.validate.Var(targetURL, "required,url"); err != nil {
		return nil, fault.New(fault.InvalidInput, "target_url %q is not a valid URL", targetURL)
	}

	log := stageLogger(StageCrawl).With(zap.String("url", targetURL))
	out := p.artifacts.Path(artifact.KnowledgeBase)

	if p.debug {
		if p.artifacts.Exists(out) {
			return &model.CrawlResult{
				Message:  fmt.Sprintf("(DEBUG) Knowledge base not modified. Using existing file: %s", out),
				FilePath: out,
			}, nil
		}
		return &model.CrawlResult{
			Message:  "(DEBUG) Knowledge base file not found. No crawl performed.",
			FilePath: out,
		}, nil
	}

	start := time.Now()
	log.Info("pipeline: stage started")

	crawl, err := p.crawlSite(ctx, targetURL)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(crawl.Content) == "" {
		return nil, fault.New(fault.InvalidInput, "the crawled markdown content of %s is empty", targetURL)
	}

	if err := p.artifacts.WriteString(out, crawl.Content); err != nil {
		return nil, err
	}

	logComplete(log.With(zap.Int("pages", crawl.Pages)), start, out)
	return &model.CrawlResult{
		Message:  fmt.Sprintf("The target website content has been successfully saved to %s", out),
		FilePath: out,
		Pages:    crawl.Pages,
	}, nil
}

func (p *Pipeline) crawlSite(ctx context.Context, targetURL string) (*model.CrawlArtifact, error) {
	resp, err := p.firecrawl.Crawl(ctx, firecrawl.CrawlRequest{
		URL:   targetURL,
		Limit: p.crawlLimit,
		ScrapeOptions: &firecrawl.ScrapeOptions{
			Formats:         []string{"markdown"},
			OnlyMainContent: true,
		},
	})
	if err != nil {
		return nil, fault.Wrap(fault.UpstreamFailure, err, "crawl: start job for %s", targetURL)
	}
	if !resp.Success || resp.ID == "" {
		return nil, fault.New(fault.UpstreamFailure, "crawl: job for %s was not accepted", targetURL)
	}

	status, err := firecrawl.PollCrawl(ctx, p.firecrawl, resp.ID, p.pollOpts...)
	if err != nil {
		return nil, fault.Wrap(fault.UpstreamFailure, err, "crawl: job %s did not complete", resp.ID)
	}

	parts := make([]string, 0, len(status.Data))
	for _, page := range status.Data {
		parts = append(parts, page.Markdown)
	}

	return &model.CrawlArtifact{
		URL:     targetURL,
		Path:    p.artifacts.Path(artifact.KnowledgeBase),
		Content: strings.Join(parts, "\n"),
		Pages:   len(status.Data),
	}, nil
}

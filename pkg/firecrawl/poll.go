package firecrawl

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
)

const defaultPollInterval = 10 * time.Second

// PollOption configures polling behavior.
type PollOption func(*pollConfig)

type pollConfig struct {
	interval time.Duration
	cap      time.Duration
	timeout  time.Duration
}

func defaultPollConfig() pollConfig {
	return pollConfig{interval: defaultPollInterval}
}

// WithPollInterval overrides the poll interval. Values <= 0 are ignored.
func WithPollInterval(d time.Duration) PollOption {
	return func(c *pollConfig) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithPollCap lets the interval double after each poll up to d. Without it
// the interval stays fixed.
func WithPollCap(d time.Duration) PollOption {
	return func(c *pollConfig) {
		c.cap = d
	}
}

// WithPollTimeout bounds the wait when the parent context has no deadline.
// Zero, the default, waits until the job reaches a terminal state.
func WithPollTimeout(d time.Duration) PollOption {
	return func(c *pollConfig) {
		c.timeout = d
	}
}

// PollCrawl polls GetCrawlStatus until the crawl completes, fails, is
// cancelled, or the context expires.
func PollCrawl(ctx context.Context, client Client, id string, opts ...PollOption) (*CrawlStatusResponse, error) {
	return poll(ctx, "crawl", id, func(ctx context.Context) (*CrawlStatusResponse, string, error) {
		status, err := client.GetCrawlStatus(ctx, id)
		if err != nil {
			return nil, "", err
		}
		return status, status.Status, nil
	}, opts)
}

// PollExtract polls GetExtractStatus until the extraction completes, fails,
// is cancelled, or the context expires.
func PollExtract(ctx context.Context, client Client, id string, opts ...PollOption) (*ExtractStatusResponse, error) {
	return poll(ctx, "extract", id, func(ctx context.Context) (*ExtractStatusResponse, string, error) {
		status, err := client.GetExtractStatus(ctx, id)
		if err != nil {
			return nil, "", err
		}
		return status, status.Status, nil
	}, opts)
}

func poll[T any](ctx context.Context, job, id string, fetch func(context.Context) (T, string, error), opts []PollOption) (T, error) {
	var zero T

	cfg := defaultPollConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if _, ok := ctx.Deadline(); !ok && cfg.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.timeout)
		defer cancel()
	}

	interval := cfg.interval
	for {
		result, state, err := fetch(ctx)
		if err != nil {
			return zero, eris.Wrapf(err, "firecrawl: poll %s %s", job, id)
		}

		switch state {
		case StatusCompleted:
			return result, nil
		case StatusFailed, StatusCancelled:
			return zero, eris.Errorf("firecrawl: %s %s %s", job, id, state)
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, eris.Wrapf(ctx.Err(), "firecrawl: poll %s %s timed out", job, id)
		case <-timer.C:
		}

		if cfg.cap > interval {
			interval *= 2
			if interval > cfg.cap {
				interval = cfg.cap
			}
		}
	}
}

package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Surajan01/daily-news-analysis/internal/logger"
	"github.com/Surajan01/daily-news-analysis/internal/metrics"
	"github.com/Surajan01/daily-news-analysis/internal/retry"
	"github.com/Surajan01/daily-news-analysis/internal/sources"
	"github.com/Surajan01/daily-news-analysis/internal/storage"
)

// Error categories for per-unit failure isolation. Tests assert on these
// with errors.Is.
var (
	ErrRetrieval = errors.New("retrieval failed")
	ErrParse     = errors.New("parse failed")
)

// Link is a raw (title, href) pair discovered on a source.
type Link struct {
	Title string
	URL   string
}

// Candidate is a new, relevant, deduplicated article ready for enrichment.
// It lives for one run only.
type Candidate struct {
	Title       string
	URL         string
	Content     string
	Source      string
	Discovered  time.Time
	Fingerprint string
}

// Fetcher retrieves candidate links and article content for one source
// kind. HTML sources are backed by the goquery scraper, RSS sources by
// gofeed; both hide behind this interface so the pipeline never touches
// site-specific extraction code.
type Fetcher interface {
	Links(ctx context.Context, src sources.Source) ([]Link, error)
	Content(ctx context.Context, url string) (string, error)
}

// Pipeline turns due sources into deduplicated candidates. It never marks
// anything as seen: that is the orchestrator's job, after enrichment and
// publication have actually succeeded.
type Pipeline struct {
	fetchers map[string]Fetcher
	relevant func(string) bool
	retry    retry.Config

	// Polite pause between article fetches within one source.
	delay  time.Duration
	jitter time.Duration

	now func() time.Time
}

type Options struct {
	Fetchers map[string]Fetcher
	Relevant func(string) bool
	Retry    retry.Config
	Delay    time.Duration
	Jitter   time.Duration
	Now      func() time.Time
}

func NewPipeline(opts Options) *Pipeline {
	p := &Pipeline{
		fetchers: opts.Fetchers,
		relevant: opts.Relevant,
		retry:    opts.Retry,
		delay:    opts.Delay,
		jitter:   opts.Jitter,
		now:      opts.Now,
	}
	if p.relevant == nil {
		p.relevant = func(string) bool { return true }
	}
	if p.retry.MaxAttempts <= 0 {
		p.retry.MaxAttempts = 1
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p
}

// Ingest fetches one due source and returns up to maxItems new candidates in
// extraction order. Failures of individual articles are logged and skipped;
// only a failure to retrieve the source itself returns an error, and even
// that is meant to be absorbed by the caller so other sources still run.
func (p *Pipeline) Ingest(ctx context.Context, src sources.Source, seen storage.SeenStore, maxItems int) ([]Candidate, error) {
	fetcher, ok := p.fetchers[src.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: no fetcher for source kind %q", ErrRetrieval, src.Kind)
	}

	var links []Link
	err := retry.WithRetry(ctx, p.retry, func() error {
		var ferr error
		links, ferr = fetcher.Links(ctx, src)
		return ferr
	})
	if err != nil {
		return nil, fmt.Errorf("%w: source %s: %v", ErrRetrieval, src.Name, err)
	}

	var out []Candidate
	inRun := make(map[string]struct{})

	for _, link := range links {
		if maxItems > 0 && len(out) >= maxItems {
			break
		}
		if ctx.Err() != nil {
			break
		}

		absURL, ok := NormalizeURL(src.URL, link.URL)
		if !ok {
			logger.Debug("dropping non-article link", "source", src.Name, "href", link.URL)
			continue
		}
		if link.Title == "" {
			continue
		}

		fp := storage.Fingerprint(link.Title, absURL)
		if _, dup := inRun[fp]; dup {
			continue
		}
		inRun[fp] = struct{}{}

		if seen.Contains(fp) {
			metrics.Global.IncrementDuplicatesSkipped()
			logger.Debug("skipping already-processed article", "source", src.Name, "title", link.Title)
			continue
		}

		content, err := p.fetchContent(ctx, fetcher, absURL)
		if err != nil {
			logger.Warn("cannot fetch article content, skipping",
				"source", src.Name, "url", absURL, "error", err)
			continue
		}

		if !p.relevant(link.Title + " " + content) {
			logger.Debug("article not relevant", "source", src.Name, "title", link.Title)
			continue
		}

		out = append(out, Candidate{
			Title:       link.Title,
			URL:         absURL,
			Content:     content,
			Source:      src.Name,
			Discovered:  p.now(),
			Fingerprint: fp,
		})
		metrics.Global.IncrementArticlesDiscovered()

		retry.Sleep(ctx, p.delay, p.jitter)
	}

	return out, nil
}

func (p *Pipeline) fetchContent(ctx context.Context, fetcher Fetcher, url string) (string, error) {
	var content string
	err := retry.WithRetry(ctx, p.retry, func() error {
		var ferr error
		content, ferr = fetcher.Content(ctx, url)
		return ferr
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRetrieval, err)
	}
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("%w: empty article body", ErrParse)
	}
	return content, nil
}

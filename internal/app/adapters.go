package app

import (
	"context"
	"fmt"
	"time"

	"github.com/Surajan01/daily-news-analysis/internal/ingest"
	"github.com/Surajan01/daily-news-analysis/internal/rss"
	"github.com/Surajan01/daily-news-analysis/internal/scraper"
	"github.com/Surajan01/daily-news-analysis/internal/sources"
)

// htmlFetcher adapts the goquery scraper to the pipeline's fetcher contract.
type htmlFetcher struct {
	client   *scraper.Client
	maxLinks int
}

func newHTMLFetcher(timeout time.Duration, maxLinks int) *htmlFetcher {
	return &htmlFetcher{
		client:   scraper.NewClient(timeout),
		maxLinks: maxLinks,
	}
}

func (h *htmlFetcher) Links(ctx context.Context, src sources.Source) ([]ingest.Link, error) {
	found, err := h.client.ExtractLinks(ctx, src.URL, src.Selectors, h.maxLinks)
	if err != nil {
		return nil, err
	}

	links := make([]ingest.Link, 0, len(found))
	for _, l := range found {
		links = append(links, ingest.Link{Title: l.Title, URL: l.Href})
	}
	return links, nil
}

func (h *htmlFetcher) Content(ctx context.Context, url string) (string, error) {
	return h.client.ExtractContent(ctx, url)
}

// rssFetcher adapts gofeed. Feed entries carry their own body, so Content
// answers from the descriptions remembered during the last Links call
// instead of fetching the page again. The map is keyed by the normalized
// link because that is the form Content is later asked for.
type rssFetcher struct {
	fetcher      *rss.Fetcher
	descriptions map[string]string
}

func newRSSFetcher(timeout time.Duration) *rssFetcher {
	return &rssFetcher{
		fetcher:      rss.NewFetcher(timeout),
		descriptions: make(map[string]string),
	}
}

func (r *rssFetcher) Links(ctx context.Context, src sources.Source) ([]ingest.Link, error) {
	items, err := r.fetcher.Fetch(ctx, src.URL)
	if err != nil {
		return nil, err
	}

	links := make([]ingest.Link, 0, len(items))
	for _, it := range items {
		key := it.Link
		if norm, ok := ingest.NormalizeURL(src.URL, it.Link); ok {
			key = norm
		}
		r.descriptions[key] = it.Description
		links = append(links, ingest.Link{Title: it.Title, URL: it.Link})
	}
	return links, nil
}

func (r *rssFetcher) Content(ctx context.Context, url string) (string, error) {
	desc, ok := r.descriptions[url]
	if !ok || desc == "" {
		return "", fmt.Errorf("no feed content for %s", url)
	}
	return desc, nil
}

package rss

import (
	"context"
	"fmt"
	"time"

	"github.com/mmcdole/gofeed"
)

// Item is one entry from a feed, reduced to what the pipeline needs.
type Item struct {
	Title       string
	Link        string
	Description string
}

// Fetcher downloads and parses RSS/Atom feeds for sources of kind "rss".
type Fetcher struct {
	parser  *gofeed.Parser
	timeout time.Duration
}

func NewFetcher(timeout time.Duration) *Fetcher {
	return &Fetcher{
		parser:  gofeed.NewParser(),
		timeout: timeout,
	}
}

// Fetch parses the feed at url and returns its items in feed order.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]Item, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	feed, err := f.parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", url, err)
	}

	items := make([]Item, 0, len(feed.Items))
	for _, it := range feed.Items {
		if it == nil || it.Link == "" || it.Title == "" {
			continue
		}
		items = append(items, Item{
			Title:       it.Title,
			Link:        it.Link,
			Description: it.Description,
		})
	}
	return items, nil
}

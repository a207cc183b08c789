package ingest

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Surajan01/daily-news-analysis/internal/relevance"
	"github.com/Surajan01/daily-news-analysis/internal/retry"
	"github.com/Surajan01/daily-news-analysis/internal/sources"
	"github.com/Surajan01/daily-news-analysis/internal/storage"
)

// fakeFetcher serves canned links and content, counting calls.
type fakeFetcher struct {
	links        []Link
	linksErr     error
	content      map[string]string
	contentErr   map[string]error
	contentCalls int
}

func (f *fakeFetcher) Links(ctx context.Context, src sources.Source) ([]Link, error) {
	if f.linksErr != nil {
		return nil, f.linksErr
	}
	return f.links, nil
}

func (f *fakeFetcher) Content(ctx context.Context, url string) (string, error) {
	f.contentCalls++
	if err, ok := f.contentErr[url]; ok {
		return "", err
	}
	if c, ok := f.content[url]; ok {
		return c, nil
	}
	return "", fmt.Errorf("no content for %s", url)
}

func testSource() sources.Source {
	return sources.Source{
		Name:      "PYMNTS",
		URL:       "https://www.pymnts.com/",
		Frequency: sources.FrequencyDaily,
		Kind:      sources.KindHTML,
	}
}

func newTestPipeline(f Fetcher) *Pipeline {
	return NewPipeline(Options{
		Fetchers: map[string]Fetcher{sources.KindHTML: f},
		Relevant: relevance.Matches,
		Retry:    retry.Config{MaxAttempts: 1},
	})
}

func TestIngestDeduplicatesAgainstSeenSet(t *testing.T) {
	fetcher := &fakeFetcher{
		links: []Link{
			{Title: "Visa signs cross-border deal", URL: "/news/visa-deal"},
			{Title: "Stripe trims payment fees", URL: "/news/stripe-fees"},
			{Title: "Banks adopt new settlement rails", URL: "/news/settlement"},
		},
		content: map[string]string{
			"https://www.pymnts.com/news/visa-deal":   "Visa expands its payment network.",
			"https://www.pymnts.com/news/stripe-fees": "Stripe lowers transaction pricing.",
			"https://www.pymnts.com/news/settlement":  "Settlement infrastructure is changing.",
		},
	}

	seen := storage.NewMemoryStore()
	seen.Add(storage.Fingerprint("Visa signs cross-border deal", "https://www.pymnts.com/news/visa-deal"))

	p := newTestPipeline(fetcher)
	got, err := p.Ingest(context.Background(), testSource(), seen, 10)
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "Stripe trims payment fees", got[0].Title)
	assert.Equal(t, "Banks adopt new settlement rails", got[1].Title)
	for _, c := range got {
		assert.Equal(t, "PYMNTS", c.Source)
		assert.NotEmpty(t, c.Fingerprint)
		assert.NotEmpty(t, c.Content)
	}
}

func TestIngestIdempotentAfterFlushAndReload(t *testing.T) {
	fetcher := &fakeFetcher{
		links: []Link{
			{Title: "Visa signs cross-border deal", URL: "/news/visa-deal"},
			{Title: "Stripe trims payment fees", URL: "/news/stripe-fees"},
		},
		content: map[string]string{
			"https://www.pymnts.com/news/visa-deal":   "Payments content one.",
			"https://www.pymnts.com/news/stripe-fees": "Payments content two.",
		},
	}

	p := newTestPipeline(fetcher)
	seen := storage.NewMemoryStore()

	first, err := p.Ingest(context.Background(), testSource(), seen, 10)
	require.NoError(t, err)
	require.Len(t, first, 2)

	// Simulate the orchestrator committing all items after a successful run.
	for _, c := range first {
		seen.Add(c.Fingerprint)
	}

	second, err := p.Ingest(context.Background(), testSource(), seen, 10)
	require.NoError(t, err)
	assert.Empty(t, second)
}

func TestIngestCapsOutput(t *testing.T) {
	var links []Link
	content := map[string]string{}
	for i := 0; i < 5; i++ {
		u := fmt.Sprintf("/news/payments-%d", i)
		links = append(links, Link{Title: fmt.Sprintf("Payments story %d", i), URL: u})
		content["https://www.pymnts.com"+u] = "payment industry content"
	}
	fetcher := &fakeFetcher{links: links, content: content}

	p := newTestPipeline(fetcher)
	got, err := p.Ingest(context.Background(), testSource(), storage.NewMemoryStore(), 2)
	require.NoError(t, err)

	// Exactly maxItems, chosen in extraction order.
	require.Len(t, got, 2)
	assert.Equal(t, "Payments story 0", got[0].Title)
	assert.Equal(t, "Payments story 1", got[1].Title)
}

func TestIngestRetrievalFailureIsCategorized(t *testing.T) {
	fetcher := &fakeFetcher{linksErr: errors.New("connection refused")}

	p := newTestPipeline(fetcher)
	_, err := p.Ingest(context.Background(), testSource(), storage.NewMemoryStore(), 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRetrieval)
}

func TestIngestSkipsItemsWithFailingContent(t *testing.T) {
	fetcher := &fakeFetcher{
		links: []Link{
			{Title: "Broken payments article", URL: "/news/broken"},
			{Title: "Working payments article", URL: "/news/working"},
		},
		content: map[string]string{
			"https://www.pymnts.com/news/working": "transaction volumes grow",
		},
		contentErr: map[string]error{
			"https://www.pymnts.com/news/broken": errors.New("timeout"),
		},
	}

	p := newTestPipeline(fetcher)
	got, err := p.Ingest(context.Background(), testSource(), storage.NewMemoryStore(), 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Working payments article", got[0].Title)
}

func TestIngestSkipsArticlesWithEmptyBody(t *testing.T) {
	fetcher := &fakeFetcher{
		links: []Link{
			{Title: "Blank payments article", URL: "/news/blank"},
			{Title: "Full payments article", URL: "/news/full"},
		},
		content: map[string]string{
			"https://www.pymnts.com/news/blank": "   ",
			"https://www.pymnts.com/news/full":  "cross-border settlement news",
		},
	}

	p := newTestPipeline(fetcher)
	got, err := p.Ingest(context.Background(), testSource(), storage.NewMemoryStore(), 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Full payments article", got[0].Title)

	_, ferr := p.fetchContent(context.Background(), fetcher, "https://www.pymnts.com/news/blank")
	assert.ErrorIs(t, ferr, ErrParse)
}

func TestIngestFiltersIrrelevantContent(t *testing.T) {
	fetcher := &fakeFetcher{
		links: []Link{
			{Title: "Cup final report", URL: "/news/sports"},
			{Title: "Visa quarterly results", URL: "/news/visa"},
		},
		content: map[string]string{
			"https://www.pymnts.com/news/sports": "the match ended two nil",
			"https://www.pymnts.com/news/visa":   "payment volumes grew nine percent",
		},
	}

	p := newTestPipeline(fetcher)
	got, err := p.Ingest(context.Background(), testSource(), storage.NewMemoryStore(), 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Visa quarterly results", got[0].Title)
}

func TestIngestDropsListingLinks(t *testing.T) {
	fetcher := &fakeFetcher{
		links: []Link{
			{Title: "All payments", URL: "/category/payments/"},
			{Title: "Page two", URL: "/news/page/2"},
			{Title: "Visa story", URL: "/news/visa"},
		},
		content: map[string]string{
			"https://www.pymnts.com/news/visa": "payments coverage",
		},
	}

	p := newTestPipeline(fetcher)
	got, err := p.Ingest(context.Background(), testSource(), storage.NewMemoryStore(), 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Visa story", got[0].Title)
	// Only the surviving link's content was fetched.
	assert.Equal(t, 1, fetcher.contentCalls)
}

func TestIngestUnknownKind(t *testing.T) {
	p := newTestPipeline(&fakeFetcher{})
	src := testSource()
	src.Kind = "carrier-pigeon"

	_, err := p.Ingest(context.Background(), src, storage.NewMemoryStore(), 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRetrieval)
}

func TestNormalizeURL(t *testing.T) {
	base := "https://www.pymnts.com/"

	tests := []struct {
		name string
		href string
		want string
		ok   bool
	}{
		{"relative", "/news/visa-deal", "https://www.pymnts.com/news/visa-deal", true},
		{"absolute other host", "https://other.example/story/fx", "https://other.example/story/fx", true},
		{"fragment stripped", "/news/visa-deal#comments", "https://www.pymnts.com/news/visa-deal", true},
		{"bare fragment", "#top", "", false},
		{"mailto", "mailto:tips@pymnts.com", "", false},
		{"javascript", "javascript:void(0)", "", false},
		{"landing page", "/", "", false},
		{"pagination", "/news/page/3", "", false},
		{"category listing", "/category/fintech/", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeURL(base, tt.href)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPipelineDoesNotMarkSeen(t *testing.T) {
	fetcher := &fakeFetcher{
		links: []Link{{Title: "Visa story", URL: "/news/visa"}},
		content: map[string]string{
			"https://www.pymnts.com/news/visa": "payments coverage",
		},
	}

	seen := storage.NewMemoryStore()
	p := newTestPipeline(fetcher)

	got, err := p.Ingest(context.Background(), testSource(), seen, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)

	// The pipeline itself must leave marking to the caller: a transient
	// enrichment failure downstream must not lose the article forever.
	assert.Equal(t, 0, seen.Len())

	again, err := p.Ingest(context.Background(), testSource(), seen, 10)
	require.NoError(t, err)
	assert.Len(t, again, 1)
}

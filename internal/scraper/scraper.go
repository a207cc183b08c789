package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Link is one headline candidate found on a source's landing page.
type Link struct {
	Title string
	Href  string
}

// Default selectors for article links on landing pages. Sites that need
// something else override these per source in the catalog.
var defaultLinkSelectors = []string{
	`a[href*="article"]`,
	`a[href*="/news/"]`,
	`a[href*="/story/"]`,
	".article-title a",
	".headline a",
	"h2 a",
	"h3 a",
}

// Selectors tried in order when extracting the main article text.
var contentSelectors = []string{
	".article-content",
	".post-content",
	".entry-content",
	"article",
	".content",
	"main",
}

const maxContentChars = 3000

// Client fetches and parses pages from news sites.
type Client struct {
	httpClient *http.Client
}

func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) get(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer func(body io.ReadCloser) {
		_ = body.Close()
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: HTTP %d", url, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", url, err)
	}
	return doc, nil
}

// ExtractLinks pulls headline links from the source landing page. Selectors
// are tried in order and results keep document order; duplicates by href are
// collapsed. max bounds how many raw candidates come back.
func (c *Client) ExtractLinks(ctx context.Context, pageURL string, selectors []string, max int) ([]Link, error) {
	doc, err := c.get(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return ExtractLinksFromDocument(doc, selectors, max), nil
}

// ExtractLinksFromDocument is the parse-only half of ExtractLinks, split out
// so tests can feed fixture HTML without a server.
func ExtractLinksFromDocument(doc *goquery.Document, selectors []string, max int) []Link {
	if len(selectors) == 0 {
		selectors = defaultLinkSelectors
	}

	var links []Link
	seen := make(map[string]struct{})

	for _, selector := range selectors {
		doc.Find(selector).Each(func(i int, s *goquery.Selection) {
			if max > 0 && len(links) >= max {
				return
			}
			href, ok := s.Attr("href")
			if !ok {
				return
			}
			title := strings.TrimSpace(s.Text())
			if href == "" || title == "" {
				return
			}
			if _, dup := seen[href]; dup {
				return
			}
			seen[href] = struct{}{}
			links = append(links, Link{Title: title, Href: href})
		})
		if max > 0 && len(links) >= max {
			break
		}
	}

	return links
}

// ExtractContent fetches an article page and returns its main text, capped
// to keep AI prompts bounded.
func (c *Client) ExtractContent(ctx context.Context, url string) (string, error) {
	doc, err := c.get(ctx, url)
	if err != nil {
		return "", err
	}
	return ExtractContentFromDocument(doc), nil
}

// ExtractContentFromDocument strips boilerplate elements and returns the
// first content-selector match, falling back to the whole body text.
func ExtractContentFromDocument(doc *goquery.Document) string {
	doc.Find("script, style, nav, header, footer, aside").Remove()

	var content string
	for _, selector := range contentSelectors {
		if el := doc.Find(selector).First(); el.Length() > 0 {
			content = el.Text()
			break
		}
	}
	if content == "" {
		content = doc.Text()
	}

	content = strings.Join(strings.Fields(content), " ")
	if len(content) > maxContentChars {
		// Back up to a rune boundary so the cut never leaves invalid UTF-8.
		cut := maxContentChars
		for cut > 0 && !utf8.RuneStart(content[cut]) {
			cut--
		}
		content = content[:cut]
	}
	return content
}

package ingest

import (
	"net/url"
	"regexp"
	"strings"
)

// Path patterns that point at listings rather than articles.
var nonArticlePatterns = []*regexp.Regexp{
	regexp.MustCompile(`/page/\d+`),
	regexp.MustCompile(`/category/`),
	regexp.MustCompile(`/tag/`),
	regexp.MustCompile(`/topics?/$`),
	regexp.MustCompile(`/author/`),
}

// NormalizeURL resolves href against the source base URL and reports whether
// the result looks like an article worth fetching. Relative links become
// absolute; anything that is not http(s), is bare (a naked host), or matches
// a known listing pattern is rejected.
func NormalizeURL(base, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "javascript:") {
		return "", false
	}

	baseURL, err := url.Parse(base)
	if err != nil {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}

	abs := baseURL.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", false
	}
	if abs.Host == "" {
		return "", false
	}

	// A naked host or "/" is the landing page itself, not an article.
	if abs.Path == "" || abs.Path == "/" {
		return "", false
	}

	for _, re := range nonArticlePatterns {
		if re.MatchString(abs.Path) {
			return "", false
		}
	}

	abs.Fragment = ""
	return abs.String(), true
}

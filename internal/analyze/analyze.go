package analyze

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/Surajan01/daily-news-analysis/internal/cache"
	"github.com/Surajan01/daily-news-analysis/internal/ingest"
	"github.com/Surajan01/daily-news-analysis/internal/logger"
	"github.com/Surajan01/daily-news-analysis/internal/ratelimit"
)

// ErrEnrichment marks AI analysis failures. Items hitting it are excluded
// from the digest but not marked as seen, so they get another chance on the
// next run.
var ErrEnrichment = errors.New("enrichment failed")

// Analysis is the business-relevance read on one article.
type Analysis struct {
	Title         string
	URL           string
	Source        string
	PublishedDate string

	SummaryBullets     []string `json:"summary_bullets"`
	SoWhatBullets      []string `json:"so_what_bullets"`
	SentimentCategory  string   `json:"sentiment_category"`
	SentimentDirection string   `json:"sentiment_direction"` // up | down | neutral
	ImpactScore        int      `json:"business_impact_score"`
	KeyTopics          []string `json:"key_topics"`
	FullAnalysis       string   `json:"full_analysis"`
}

var sentimentCategories = []string{
	"Cross-Border Payment Trends",
	"Currency & FX Market",
	"Multi-Currency Solutions",
	"International Commerce",
	"Payment Cost Pressures",
	"Regulatory Changes",
	"Fintech Competition",
}

const businessContext = `The company simplifies global payments by removing borders, barriers, and burdens for businesses.

Key value propositions:
- Accept multi-currency payments and settle in like-for-like currency accounts
- Minimize domestic and international transaction fees
- Support 75+ currencies and 200+ countries
- Multi-currency IBAN accounts and local currency accounts (USD, GBP, EUR)
- Bulk payment integration

Pain points addressed:
- Complexity of cross-border transactions
- High costs of international payments
- Difficulty managing multiple currencies
- Inefficient global payment processes`

// Prompts stay bounded regardless of how much text the scraper found.
const maxPromptChars = 6000

type Client struct {
	client   *genai.Client
	model    string
	budget   *ratelimit.Budget
	cache    *cache.Cache
	cacheTTL time.Duration
}

func NewClient(ctx context.Context, apiKey, model string, budget *ratelimit.Budget) (*Client, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Client{
		client:   client,
		model:    model,
		budget:   budget,
		cache:    cache.New(),
		cacheTTL: 48 * time.Hour,
	}, nil
}

func (c *Client) Close() {
	if c.client != nil {
		c.client.Close()
	}
}

// CleanupCache drops expired memoized analyses. The orchestrator calls it at
// the start of each run so a long-lived cron process doesn't accumulate
// stale entries between lazy evictions.
func (c *Client) CleanupCache() {
	c.cache.Cleanup()
}

// Analyze enriches one candidate with the business-impact read. Identical
// article text within the cache TTL is served from memory without spending
// the request budget.
func (c *Client) Analyze(ctx context.Context, cand ingest.Candidate) (*Analysis, error) {
	key := cache.Key(cand.Title, cand.Content)
	if cached, ok := c.cache.Get(key); ok {
		if a, ok := cached.(*Analysis); ok {
			c.budget.RecordCacheHit()
			logger.Debug("analysis served from cache", "title", cand.Title)
			out := *a
			return &out, nil
		}
	}

	if !c.budget.Allow() {
		return nil, fmt.Errorf("%w: AI request budget exhausted", ErrEnrichment)
	}
	if err := c.budget.Use(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEnrichment, err)
	}

	model := c.client.GenerativeModel(c.model)
	resp, err := model.GenerateContent(ctx, genai.Text(buildPrompt(cand)))
	if err != nil {
		return nil, fmt.Errorf("%w: generate content: %v", ErrEnrichment, err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("%w: empty model response", ErrEnrichment)
	}

	raw := fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0])
	analysis, err := parseAnalysis(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEnrichment, err)
	}

	analysis.Title = cand.Title
	analysis.URL = cand.URL
	analysis.Source = cand.Source
	analysis.PublishedDate = cand.Discovered.Format("2006-01-02")

	c.cache.Set(key, analysis, c.cacheTTL)
	return analysis, nil
}

func buildPrompt(cand ingest.Candidate) string {
	content := strings.Join(strings.Fields(cand.Content), " ")
	if utf8.RuneCountInString(content) > maxPromptChars {
		runes := []rune(content)
		trimmed := string(runes[:maxPromptChars])
		if idx := strings.LastIndex(trimmed, ". "); idx > 1200 {
			trimmed = trimmed[:idx+1]
		}
		content = trimmed + "\n[TRUNCATED]"
	}

	return fmt.Sprintf(`You are a business analyst for a global payments company. Analyze this payments industry article.

BUSINESS CONTEXT:
%s

ARTICLE:
Title: %s
Source: %s
Content: %s

Respond with ONLY a JSON object in exactly this shape:
{
  "summary_bullets": ["bullet 1", "bullet 2", "bullet 3"],
  "so_what_bullets": ["why this matters", "business implications", "strategic considerations"],
  "sentiment_category": "one of: %s",
  "sentiment_direction": "up, down or neutral",
  "business_impact_score": 1,
  "key_topics": ["topic1", "topic2", "topic3"],
  "full_analysis": "detailed paragraph on what this means for the business"
}

business_impact_score is an integer from 1 to 5.

Focus on:
- How this impacts cross-border payments
- Opportunities or threats for multi-currency solutions
- Market trends affecting international commerce
- Regulatory changes impacting global payments`,
		businessContext, cand.Title, cand.Source, content, strings.Join(sentimentCategories, ", "))
}

// parseAnalysis pulls the JSON object out of a model response. Models wrap
// JSON in markdown fences or chatter often enough that we cut from the first
// '{' to the last '}' before unmarshalling.
func parseAnalysis(raw string) (*Analysis, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in model response")
	}

	var analysis Analysis
	if err := json.Unmarshal([]byte(raw[start:end+1]), &analysis); err != nil {
		return nil, fmt.Errorf("unmarshal model response: %v", err)
	}

	if len(analysis.SummaryBullets) == 0 {
		return nil, fmt.Errorf("model response missing summary_bullets")
	}

	switch analysis.SentimentDirection {
	case "up", "down", "neutral":
	default:
		analysis.SentimentDirection = "neutral"
	}

	if analysis.ImpactScore < 1 {
		analysis.ImpactScore = 1
	}
	if analysis.ImpactScore > 5 {
		analysis.ImpactScore = 5
	}

	return &analysis, nil
}

package teams

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Surajan01/daily-news-analysis/internal/analyze"
	"github.com/Surajan01/daily-news-analysis/internal/logger"
	"github.com/Surajan01/daily-news-analysis/internal/retry"
)

// Teams truncates very large cards, so the digest shows at most this many
// items per run.
const maxDigestItems = 3

// Element is one Adaptive Card body block.
type Element map[string]any

type Card struct {
	Type    string    `json:"type"`
	Version string    `json:"version"`
	Schema  string    `json:"$schema"`
	Body    []Element `json:"body"`
}

type attachment struct {
	ContentType string `json:"contentType"`
	Content     Card   `json:"content"`
}

type message struct {
	Type        string       `json:"type"`
	Attachments []attachment `json:"attachments"`
}

// Client posts Adaptive Card digests to a Teams incoming webhook.
type Client struct {
	webhookURL string
	httpClient *http.Client
	retry      retry.Config
	now        func() time.Time
}

func NewClient(webhookURL string, timeout time.Duration, retryCfg retry.Config) *Client {
	return &Client{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: timeout},
		retry:      retryCfg,
		now:        time.Now,
	}
}

// SendDigest builds and posts the daily card. An empty analyses slice still
// sends a card, so the channel knows the run happened.
func (c *Client) SendDigest(ctx context.Context, analyses []*analyze.Analysis) error {
	payload, err := json.Marshal(message{
		Type: "message",
		Attachments: []attachment{{
			ContentType: "application/vnd.microsoft.card.adaptive",
			Content:     BuildCard(analyses, c.now()),
		}},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal Teams payload: %w", err)
	}

	err = retry.WithRetry(ctx, c.retry, func() error {
		return c.post(ctx, payload)
	})
	if err != nil {
		return fmt.Errorf("failed to send Teams digest: %w", err)
	}

	logger.Info("Teams digest sent", "articles", len(analyses))
	return nil
}

func (c *Client) post(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	// Teams webhooks answer 200, some connector variants 202.
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// BuildCard renders the Adaptive Card for one run. Items arrive already
// sorted by impact; only the top maxDigestItems make the card.
func BuildCard(analyses []*analyze.Analysis, now time.Time) Card {
	body := []Element{
		{
			"type":   "TextBlock",
			"size":   "Large",
			"weight": "Bolder",
			"text":   "📰 Daily Payments Analysis",
		},
		{
			"type":     "TextBlock",
			"text":     now.Format("Monday, January 2, 2006"),
			"isSubtle": true,
			"spacing":  "None",
		},
	}

	if len(analyses) == 0 {
		body = append(body, Element{
			"type":    "TextBlock",
			"text":    "No new relevant payments articles found today.",
			"wrap":    true,
			"spacing": "Medium",
		})
		return newCard(body)
	}

	shown := analyses
	if len(shown) > maxDigestItems {
		shown = shown[:maxDigestItems]
	}

	// Count everything analyzed this run, not just what fits the card.
	body = append(body, Element{
		"type":     "TextBlock",
		"text":     fmt.Sprintf("%d new article(s) analyzed", len(analyses)),
		"isSubtle": true,
		"spacing":  "None",
	})

	for i, a := range shown {
		body = append(body, itemElements(i+1, a)...)
	}

	return newCard(body)
}

func itemElements(n int, a *analyze.Analysis) []Element {
	els := []Element{
		{
			"type":      "TextBlock",
			"text":      fmt.Sprintf("%d. %s", n, a.Title),
			"weight":    "Bolder",
			"wrap":      true,
			"separator": true,
			"spacing":   "Medium",
		},
		{
			"type":     "TextBlock",
			"text":     fmt.Sprintf("%s | %s %s | %s", a.Source, a.SentimentCategory, directionArrow(a.SentimentDirection), impactStars(a.ImpactScore)),
			"isSubtle": true,
			"wrap":     true,
			"spacing":  "None",
		},
	}

	if len(a.SummaryBullets) > 0 {
		els = append(els, Element{
			"type": "TextBlock",
			"text": "**Summary:** " + bulletText(a.SummaryBullets),
			"wrap": true,
		})
	}
	if len(a.SoWhatBullets) > 0 {
		els = append(els, Element{
			"type": "TextBlock",
			"text": "**So what:** " + bulletText(a.SoWhatBullets),
			"wrap": true,
		})
	}

	els = append(els, Element{
		"type":     "TextBlock",
		"text":     fmt.Sprintf("[Read article](%s)", a.URL),
		"wrap":     true,
		"isSubtle": true,
	})

	return els
}

func bulletText(bullets []string) string {
	return strings.Join(bullets, " • ")
}

func directionArrow(direction string) string {
	switch direction {
	case "up":
		return "⬆️"
	case "down":
		return "⬇️"
	default:
		return "↔️"
	}
}

func impactStars(score int) string {
	if score < 1 {
		score = 1
	}
	if score > 5 {
		score = 5
	}
	return strings.Repeat("⭐", score)
}

func newCard(body []Element) Card {
	return Card{
		Type:    "AdaptiveCard",
		Version: "1.4",
		Schema:  "http://adaptivecards.io/schemas/adaptive-card.json",
		Body:    body,
	}
}

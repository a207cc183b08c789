package relevance

import (
	"regexp"
	"strings"
)

// Vocabulary of payments/fintech terms an article must touch before it is
// worth an AI analysis call. Phrases match as substrings; short tokens match
// whole words only (so "fx" doesn't fire inside "suffix").
var paymentsKeywords = []string{
	"payment", "fintech", "financial", "banking", "currency", "cross-border",
	"transaction", "money", "digital wallet", "cryptocurrency", "blockchain",
	"remittance", "foreign exchange", "forex", "settlement", "clearing",
	"card", "visa", "mastercard", "paypal", "stripe", "regulation", "compliance",
	"iban", "swift", "fx",
}

// Matches reports whether the text is topically relevant to payments.
func Matches(text string) bool {
	return containsAny(text, paymentsKeywords)
}

// containsAny distinguishes phrases and short words so that tiny keywords
// don't match inside unrelated longer words.
func containsAny(text string, keywords []string) bool {
	text = strings.ToLower(text)

	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}

		// Phrase keyword -> substring match
		if strings.Contains(k, " ") {
			if strings.Contains(text, k) {
				return true
			}
			continue
		}

		// Short tokens (<=3) -> whole word match using word boundary regexp
		if len(k) <= 3 {
			re := regexp.MustCompile(`\b` + regexp.QuoteMeta(k) + `\b`)
			if re.MatchString(text) {
				return true
			}
			continue
		}

		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

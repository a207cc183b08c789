package relevance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatches(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"plain keyword", "Visa launches new payment rails in Europe", true},
		{"case insensitive", "CROSS-BORDER settlement volumes are up", true},
		{"phrase keyword", "banks bet big on the digital wallet race", true},
		{"irrelevant", "local football team wins the cup final", false},
		{"short token needs word boundary", "the suffix of this word is harmless", false},
		{"short token as whole word", "FX desks reprice after the rate decision", true},
		{"empty text", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(tt.text))
		})
	}
}

package sources

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsDueDaily(t *testing.T) {
	src := Source{Name: "PYMNTS", URL: "https://www.pymnts.com/", Frequency: FrequencyDaily}

	// Monday 2026-03-02 through the following Sunday.
	day := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		assert.True(t, IsDue(src, day.AddDate(0, 0, i)), "daily source must be due on %s", day.AddDate(0, 0, i).Weekday())
	}
}

func TestIsDueWeekly(t *testing.T) {
	src := Source{Name: "Fintech Brain Food", URL: "https://www.fintechbrainfood.com/", Frequency: FrequencyWeekly}

	monday := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	require.Equal(t, time.Monday, monday.Weekday())
	assert.True(t, IsDue(src, monday))

	for i := 1; i < 7; i++ {
		day := monday.AddDate(0, 0, i)
		assert.False(t, IsDue(src, day), "weekly source must not be due on %s", day.Weekday())
	}
}

func TestIsDueUnknownFrequencyFailsOpen(t *testing.T) {
	src := Source{Name: "X", URL: "https://x.example/", Frequency: "fortnightly"}
	assert.True(t, IsDue(src, time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)))
}

func TestLoadCatalog(t *testing.T) {
	raw := `
sources:
  - name: PYMNTS
    url: https://www.pymnts.com/
    frequency: daily
  - name: Fintech Brain Food
    url: https://www.fintechbrainfood.com/
    frequency: weekly
    kind: rss
`
	path := filepath.Join(t.TempDir(), "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	catalog, err := Load(path)
	require.NoError(t, err)
	require.Len(t, catalog, 2)

	// Order is preserved and defaults are applied.
	assert.Equal(t, "PYMNTS", catalog[0].Name)
	assert.Equal(t, KindHTML, catalog[0].Kind)
	assert.Equal(t, "Fintech Brain Food", catalog[1].Name)
	assert.Equal(t, KindRSS, catalog[1].Kind)
}

func TestLoadCatalogRejectsMissingURL(t *testing.T) {
	raw := `
sources:
  - name: Broken
`
	path := filepath.Join(t.TempDir(), "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "url is required")
}

func TestDefaultCatalog(t *testing.T) {
	catalog := Default()
	require.NotEmpty(t, catalog)
	for _, src := range catalog {
		assert.NotEmpty(t, src.Name)
		assert.NotEmpty(t, src.URL)
		assert.NotEmpty(t, src.Frequency)
		assert.Equal(t, KindHTML, src.Kind)
	}
}

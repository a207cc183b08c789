package sources

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	FrequencyDaily  = "daily"
	FrequencyWeekly = "weekly"

	KindHTML = "html"
	KindRSS  = "rss"
)

// Source is one configured publication. Immutable after load.
type Source struct {
	Name      string   `yaml:"name"`
	URL       string   `yaml:"url"`
	Frequency string   `yaml:"frequency"`
	Kind      string   `yaml:"kind"`
	Selectors []string `yaml:"selectors"`
}

// Catalog preserves the configured order; the pipeline processes sources in
// exactly this order.
type Catalog []Source

type catalogFile struct {
	Sources []Source `yaml:"sources"`
}

// Load reads the YAML source catalog from path.
func Load(path string) (Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg catalogFile
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse source catalog %s: %w", path, err)
	}

	catalog := Catalog(cfg.Sources)
	if err := catalog.validate(); err != nil {
		return nil, err
	}
	catalog.applyDefaults()
	return catalog, nil
}

// Default returns the built-in payments publication catalog, used when no
// catalog file is configured.
func Default() Catalog {
	catalog := Catalog{
		{Name: "PYMNTS", URL: "https://www.pymnts.com/", Frequency: FrequencyDaily},
		{Name: "Finextra", URL: "https://www.finextra.com/", Frequency: FrequencyDaily},
		{Name: "Payments Journal", URL: "https://www.paymentsjournal.com/", Frequency: FrequencyDaily},
		{Name: "Fintech Brain Food", URL: "https://www.fintechbrainfood.com/", Frequency: FrequencyWeekly},
		{Name: "Fintech Magazine", URL: "https://fintechmagazine.com/articles", Frequency: FrequencyDaily},
	}
	catalog.applyDefaults()
	return catalog
}

func (c Catalog) validate() error {
	for i, src := range c {
		if src.Name == "" {
			return fmt.Errorf("source %d: name is required", i)
		}
		if src.URL == "" {
			return fmt.Errorf("source %q: url is required", src.Name)
		}
	}
	return nil
}

func (c Catalog) applyDefaults() {
	for i := range c {
		if c[i].Frequency == "" {
			c[i].Frequency = FrequencyDaily
		}
		if c[i].Kind == "" {
			c[i].Kind = KindHTML
		}
	}
}

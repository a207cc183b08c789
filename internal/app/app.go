package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/Surajan01/daily-news-analysis/internal/analyze"
	"github.com/Surajan01/daily-news-analysis/internal/config"
	"github.com/Surajan01/daily-news-analysis/internal/ingest"
	"github.com/Surajan01/daily-news-analysis/internal/logger"
	"github.com/Surajan01/daily-news-analysis/internal/metrics"
	"github.com/Surajan01/daily-news-analysis/internal/ratelimit"
	"github.com/Surajan01/daily-news-analysis/internal/relevance"
	"github.com/Surajan01/daily-news-analysis/internal/retry"
	"github.com/Surajan01/daily-news-analysis/internal/sources"
	"github.com/Surajan01/daily-news-analysis/internal/storage"
	"github.com/Surajan01/daily-news-analysis/internal/teams"
)

// Ingester produces new candidates for one due source.
type Ingester interface {
	Ingest(ctx context.Context, src sources.Source, seen storage.SeenStore, maxItems int) ([]ingest.Candidate, error)
}

// Analyzer enriches one candidate.
type Analyzer interface {
	Analyze(ctx context.Context, cand ingest.Candidate) (*analyze.Analysis, error)
}

// Publisher delivers the finished digest.
type Publisher interface {
	SendDigest(ctx context.Context, analyses []*analyze.Analysis) error
}

// App wires catalog, state, pipeline, analyzer and publisher into one run.
type App struct {
	cfg       *config.Config
	catalog   sources.Catalog
	store     storage.SeenStore
	pipeline  Ingester
	analyzer  Analyzer
	publisher Publisher
	budget    *ratelimit.Budget

	now     func() time.Time
	cleanup []func()
}

// New assembles the production wiring from config.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	catalog, err := sources.Load(cfg.SourcesConfigPath)
	if err != nil {
		logger.Warn("cannot load source catalog, using built-in defaults",
			"path", cfg.SourcesConfigPath, "error", err)
		catalog = sources.Default()
	}

	store, cleanup, err := newStore(cfg)
	if err != nil {
		return nil, err
	}

	budget := ratelimit.NewBudget(cfg.MaxAIRequests)

	analyzer, err := analyze.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, budget)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to create analyzer: %w", err)
	}

	retryCfg := retryConfigFrom(cfg)

	pipeline := ingest.NewPipeline(ingest.Options{
		Fetchers: map[string]ingest.Fetcher{
			sources.KindHTML: newHTMLFetcher(cfg.RequestTimeout, 30),
			sources.KindRSS:  newRSSFetcher(cfg.RequestTimeout),
		},
		Relevant: relevance.Matches,
		Retry:    retryCfg,
		Delay:    cfg.ScrapeDelay,
		Jitter:   cfg.ScrapeDelay / 2,
	})

	return &App{
		cfg:       cfg,
		catalog:   catalog,
		store:     store,
		pipeline:  pipeline,
		analyzer:  analyzer,
		publisher: teams.NewClient(cfg.TeamsWebhookURL, cfg.RequestTimeout, retryCfg),
		budget:    budget,
		now:       time.Now,
		cleanup:   []func(){cleanup, analyzer.Close},
	}, nil
}

func retryConfigFrom(cfg *config.Config) retry.Config {
	return retry.Config{
		MaxAttempts: cfg.RetryAttempts,
		Delay:       cfg.RetryDelay,
		Backoff:     true,
		Jitter:      cfg.RetryDelay / 2,
	}
}

func newStore(cfg *config.Config) (storage.SeenStore, func(), error) {
	if cfg.DatabaseURL != "" {
		ps, err := storage.NewPostgresStore(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open state database: %w", err)
		}
		logger.Info("using Postgres state store")
		return ps, func() { ps.Close() }, nil
	}
	return storage.NewFileStore(cfg.StateFilePath), func() {}, nil
}

// Close releases store and analyzer resources.
func (a *App) Close() {
	for _, fn := range a.cleanup {
		fn()
	}
}

type enriched struct {
	analysis    *analyze.Analysis
	fingerprint string
}

// Run executes one full pass: due sources, ingest, enrich, publish, and only
// then mark everything that made the digest as seen. A failed publish leaves
// the state untouched so the next run retries the same articles.
func (a *App) Run(ctx context.Context) error {
	started := a.now()
	a.budget.Reset()
	if c, ok := a.analyzer.(interface{ CleanupCache() }); ok {
		c.CleanupCache()
	}

	if err := a.store.Load(); err != nil {
		return fmt.Errorf("failed to load processed state: %w", err)
	}
	logger.Info("run started", "known_articles", a.store.Len(), "sources", len(a.catalog))

	var results []enriched
	for _, src := range a.catalog {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !sources.IsDue(src, a.now()) {
			logger.Debug("source not due today", "source", src.Name)
			continue
		}

		metrics.Global.IncrementSourcesChecked()
		candidates, err := a.pipeline.Ingest(ctx, src, a.store, a.cfg.MaxArticlesPerSource)
		if err != nil {
			// One broken source must not sink the run.
			metrics.Global.IncrementSourcesFailed()
			logger.Error("source ingest failed", "source", src.Name, "error", err)
			continue
		}
		logger.Info("source ingested", "source", src.Name, "new_articles", len(candidates))

		for _, cand := range candidates {
			analysis, err := a.analyzer.Analyze(ctx, cand)
			if err != nil {
				metrics.Global.IncrementAnalysesFailed()
				logger.Warn("analysis failed, article stays unseen",
					"source", cand.Source, "title", cand.Title, "error", err)
				continue
			}
			metrics.Global.IncrementAnalysesSucceeded()
			results = append(results, enriched{analysis: analysis, fingerprint: cand.Fingerprint})

			retry.Sleep(ctx, a.cfg.ScrapeDelay, a.cfg.ScrapeDelay/2)
		}
	}

	// Highest impact first; ties keep discovery order.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].analysis.ImpactScore > results[j].analysis.ImpactScore
	})

	analyses := make([]*analyze.Analysis, 0, len(results))
	for _, r := range results {
		analyses = append(analyses, r.analysis)
	}

	if err := a.publisher.SendDigest(ctx, analyses); err != nil {
		metrics.Global.SetError(err.Error())
		return fmt.Errorf("failed to publish digest: %w", err)
	}
	metrics.Global.IncrementDigestsSent()

	for _, r := range results {
		a.store.Add(r.fingerprint)
	}
	a.flushState()

	metrics.Global.RecordRunDuration(a.now().Sub(started))
	metrics.Global.SetLastRun()
	logger.Info("run finished",
		"analyzed", len(results),
		"duration", a.now().Sub(started).Round(time.Millisecond),
		"budget", a.budget.Stats())
	return nil
}

// flushState persists the seen set. Persistence trouble downgrades to a
// warning: the digest is already out, and a re-send tomorrow beats a crash
// today.
func (a *App) flushState() {
	err := a.store.Flush()
	if err != nil && errors.Is(err, storage.ErrPersist) {
		logger.Warn("state flush failed, retrying once", "error", err)
		err = a.store.Flush()
	}
	if err != nil {
		logger.Warn("cannot persist processed state, duplicates possible next run", "error", err)
	}
}

package metrics

import (
	"sync"
	"time"
)

type Metrics struct {
	mu sync.RWMutex

	// Counters
	SourcesChecked     int64
	SourcesFailed      int64
	ArticlesDiscovered int64
	DuplicatesSkipped  int64
	AnalysesSucceeded  int64
	AnalysesFailed     int64
	DigestsSent        int64

	// Timings
	LastRunDuration    time.Duration
	AverageRunDuration time.Duration
	TotalRunDuration   time.Duration
	RunCount           int64

	// Status
	LastRunTime   time.Time
	LastErrorTime time.Time
	LastError     string
	IsHealthy     bool
}

var Global = &Metrics{IsHealthy: true}

func (m *Metrics) IncrementSourcesChecked() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SourcesChecked++
}

func (m *Metrics) IncrementSourcesFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SourcesFailed++
}

func (m *Metrics) IncrementArticlesDiscovered() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ArticlesDiscovered++
}

func (m *Metrics) IncrementDuplicatesSkipped() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DuplicatesSkipped++
}

func (m *Metrics) IncrementAnalysesSucceeded() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AnalysesSucceeded++
}

func (m *Metrics) IncrementAnalysesFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AnalysesFailed++
}

func (m *Metrics) IncrementDigestsSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DigestsSent++
}

func (m *Metrics) RecordRunDuration(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastRunDuration = duration
	m.TotalRunDuration += duration
	m.RunCount++

	if m.RunCount > 0 {
		m.AverageRunDuration = m.TotalRunDuration / time.Duration(m.RunCount)
	}
}

func (m *Metrics) SetLastRun() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastRunTime = time.Now()
	m.IsHealthy = true
}

func (m *Metrics) SetError(err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = err
	m.LastErrorTime = time.Now()
	m.IsHealthy = false
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"sources_checked":         m.SourcesChecked,
		"sources_failed":          m.SourcesFailed,
		"articles_discovered":     m.ArticlesDiscovered,
		"duplicates_skipped":      m.DuplicatesSkipped,
		"analyses_succeeded":      m.AnalysesSucceeded,
		"analyses_failed":         m.AnalysesFailed,
		"digests_sent":            m.DigestsSent,
		"last_run_duration_ms":    m.LastRunDuration.Milliseconds(),
		"average_run_duration_ms": m.AverageRunDuration.Milliseconds(),
		"last_run_time":           m.LastRunTime.Format(time.RFC3339),
		"last_error_time":         m.LastErrorTime.Format(time.RFC3339),
		"last_error":              m.LastError,
		"is_healthy":              m.IsHealthy,
	}
}

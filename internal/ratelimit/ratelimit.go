package ratelimit

import (
	"fmt"
	"sync"

	"github.com/Surajan01/daily-news-analysis/internal/logger"
)

// Budget caps how many AI requests a run may spend. Zero max means
// unlimited. It also tracks cache hits so the logs show what memoization
// saved.
type Budget struct {
	mu          sync.Mutex
	used        int
	max         int
	cacheHits   int
	cacheMisses int
}

func NewBudget(max int) *Budget {
	return &Budget{max: max}
}

// Allow reports whether another request fits the budget.
func (b *Budget) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.max > 0 && b.used >= b.max {
		logger.Warn("AI request budget exhausted", "used", b.used, "max", b.max)
		return false
	}
	return true
}

// Use consumes one request from the budget.
func (b *Budget) Use() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.max > 0 && b.used >= b.max {
		return fmt.Errorf("AI request budget exceeded (%d/%d)", b.used, b.max)
	}

	b.used++
	b.cacheMisses++
	logger.Debug("AI request spent", "used", b.used, "max", b.max)
	return nil
}

// RecordCacheHit notes that a cached analysis was served instead of a
// request.
func (b *Budget) RecordCacheHit() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cacheHits++
}

// Reset clears counters for the next scheduled run.
func (b *Budget) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.used = 0
	b.cacheHits = 0
	b.cacheMisses = 0
}

func (b *Budget) Stats() map[string]int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return map[string]int{
		"used":         b.used,
		"max":          b.max,
		"cache_hits":   b.cacheHits,
		"cache_misses": b.cacheMisses,
	}
}

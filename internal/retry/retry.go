package retry

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// Config describes a fixed-attempt retry policy. Delay grows linearly per
// attempt when Backoff is set; Jitter adds up to that much random extra wait
// so repeated failures don't hit remote sources in lockstep.
type Config struct {
	MaxAttempts int
	Delay       time.Duration
	Backoff     bool
	Jitter      time.Duration
}

func WithRetry(ctx context.Context, config Config, fn func() error) error {
	// A non-positive attempt count must still invoke fn once; reporting
	// success without calling it would let callers commit work that never
	// happened.
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}

	var lastErr error

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		if err := fn(); err != nil {
			lastErr = err

			if attempt == config.MaxAttempts {
				return fmt.Errorf("failed after %d attempts: %w", config.MaxAttempts, err)
			}

			delay := config.Delay
			if config.Backoff {
				delay = time.Duration(attempt) * config.Delay
			}
			if config.Jitter > 0 {
				delay += time.Duration(rand.Int63n(int64(config.Jitter)))
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				continue
			}
		}
		return nil
	}

	return lastErr
}

// Sleep waits for base plus up to jitter of random extra time, or until the
// context is cancelled. Used for the polite pauses between scrape requests.
func Sleep(ctx context.Context, base, jitter time.Duration) {
	if base <= 0 && jitter <= 0 {
		return
	}
	d := base
	if jitter > 0 {
		d += time.Duration(rand.Int63n(int64(jitter)))
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

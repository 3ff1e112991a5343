// Package retry provides a bounded retry-with-backoff helper for transient
// failures at external boundaries (database, message broker). Logically
// invalid operations must not be retried; callers decide what is transient.
package retry

import (
	"context"
	"time"
)

type Config struct {
	Attempts int           // total attempts, including the first
	Delay    time.Duration // delay before the first retry
	MaxDelay time.Duration // cap on the doubling backoff
}

func DefaultConfig() Config {
	return Config{
		Attempts: 3,
		Delay:    200 * time.Millisecond,
		MaxDelay: 2 * time.Second,
	}
}

// Do runs fn up to cfg.Attempts times, doubling the delay between attempts.
// It returns nil as soon as fn succeeds, the last error once attempts are
// exhausted, or ctx.Err() if the context is cancelled while waiting.
func Do(ctx context.Context, cfg Config, fn func() error) error {
	if cfg.Attempts < 1 {
		cfg.Attempts = 1
	}

	delay := cfg.Delay
	var err error
	for attempt := 0; attempt < cfg.Attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
			delay *= 2
			if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
				delay = cfg.MaxDelay
			}
		}
		if err = fn(); err == nil {
			return nil
		}
	}
	return err
}

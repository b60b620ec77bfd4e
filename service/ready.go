package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Probe reports whether a collaborator is usable
type Probe func(ctx context.Context) error

// WaitReady polls probe up to attempts times, pausing interval between
// failures. Running out of attempts returns ErrNotReady wrapping the last
// probe error.
func WaitReady(ctx context.Context, name string, attempts int, interval time.Duration, probe Probe) error {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("%s: %w: %v", name, ErrNotReady, ctx.Err())
			case <-time.After(interval):
			}
		}

		if lastErr = probe(ctx); lastErr == nil {
			slog.Debug("collaborator ready", "name", name, "attempt", i+1)
			return nil
		}
		slog.Debug("readiness probe failed", "name", name, "attempt", i+1, "error", lastErr)
	}

	return fmt.Errorf("%s: %w after %d attempts: %v", name, ErrNotReady, attempts, lastErr)
}

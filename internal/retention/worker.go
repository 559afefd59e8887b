// Package retention deletes notifications past their retention period.
package retention

import (
	"context"
	"log/slog"
	"time"
)

// Purger deletes notifications created before a cutoff.
type Purger interface {
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Worker runs a purge every interval. It purges once immediately on Run.
type Worker struct {
	purger   Purger
	maxAge   time.Duration
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

func NewWorker(purger Purger, maxAge, interval time.Duration, logger *slog.Logger) *Worker {
	return &Worker{
		purger:   purger,
		maxAge:   maxAge,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// Run purges until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info("retention worker started",
		slog.Duration("max_age", w.maxAge),
		slog.Duration("interval", w.interval),
	)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.purge(ctx)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("retention worker stopped")
			return
		case <-ticker.C:
			w.purge(ctx)
		}
	}
}

// purge failures are logged by the store and retried on the next tick.
func (w *Worker) purge(ctx context.Context) {
	cutoff := w.now().Add(-w.maxAge)
	deleted, err := w.purger.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		return
	}
	if deleted > 0 {
		w.logger.Info("expired notifications purged", slog.Int64("deleted", deleted))
	}
}

package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/ashureev/softsell/internal/shared"
)

// TTLWorkerInterval is how often stale visitors are purged.
const TTLWorkerInterval = time.Hour

// StartTTLWorker runs a background goroutine that periodically deletes
// visitors, and their preferences, not seen within ttl.
func StartTTLWorker(ctx context.Context, repo Repository, ttl time.Duration) {
	startTTLWorker(ctx, repo, ttl, TTLWorkerInterval)
}

func startTTLWorker(ctx context.Context, repo Repository, ttl, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		slog.Info("TTL worker started", "interval", interval, "ttl", ttl)

		for {
			select {
			case <-ticker.C:
				cleanupStaleVisitors(ctx, repo, ttl)
			case <-ctx.Done():
				slog.Info("TTL worker shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

func cleanupStaleVisitors(ctx context.Context, repo Repository, ttl time.Duration) {
	var deleted int64
	err := shared.RetryOnConflict(ctx, 3, 100*time.Millisecond, func() error {
		var err error
		deleted, err = repo.DeleteStaleVisitors(ctx, ttl)
		return err
	})
	if err != nil {
		if ctx.Err() != nil {
			slog.Debug("TTL worker: context canceled during cleanup", "error", err)
			return
		}
		slog.Error("TTL worker failed to delete stale visitors", "error", err)
		return
	}
	if deleted > 0 {
		slog.Info("TTL worker removed stale visitors", "count", deleted)
	}
}

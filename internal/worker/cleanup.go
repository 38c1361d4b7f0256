package worker

import (
	"context"
	"time"

	"github.com/imageforge/imageforge/internal/logger"
	"github.com/imageforge/imageforge/internal/metrics"
	"github.com/imageforge/imageforge/internal/storage"
)

type CleanupDependencies struct {
	Storage storage.Storage
	TTL     time.Duration
}

type CleanupStats struct {
	Removed int
	Errors  int
}

// RunCleanup sweeps storage for objects older than the TTL. Sidecar removal
// happens inside the storage layer and is best-effort; a sidecar left behind
// is not an error.
func RunCleanup(ctx context.Context, deps *CleanupDependencies) (*CleanupStats, error) {
	log := logger.FromContext(ctx)
	log.Info("starting cleanup sweep", "ttl", deps.TTL.String())
	start := time.Now()

	stats := &CleanupStats{}

	removed, err := deps.Storage.RemoveOlderThan(ctx, deps.TTL)
	stats.Removed = removed
	if err != nil {
		stats.Errors++
		log.Error("cleanup sweep failed", "removed", removed, "error", err)
		return stats, err
	}

	metrics.RecordCleanupRemovals(removed)
	log.Info("cleanup sweep completed",
		"removed", removed,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return stats, nil
}

// RunCleanupLoop repeats the sweep on an interval until the context ends.
func RunCleanupLoop(ctx context.Context, deps *CleanupDependencies, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := RunCleanup(ctx, deps); err != nil && ctx.Err() == nil {
				logger.FromContext(ctx).Warn("scheduled cleanup failed", "error", err)
			}
		}
	}
}

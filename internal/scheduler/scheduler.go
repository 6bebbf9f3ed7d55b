// Package scheduler runs the background refresh: a cron-driven directory
// sync plus a feed warm-up so the mirror stays useful offline.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"

	"mirrorsync/pkg/logger"
	"mirrorsync/pkg/sync"
)

// Start validates the cron expression and launches the scheduler goroutine.
// Returns a cancel func that stops it.
func Start(ctx context.Context, eng *sync.Engine, cronExpr string, pageLimit int) (context.CancelFunc, error) {
	if cronExpr == "" {
		cronExpr = "*/5 * * * *"
	}
	if !gronx.IsValid(cronExpr) {
		return nil, fmt.Errorf("invalid sync cron expression: %s", cronExpr)
	}
	ctx2, cancel := context.WithCancel(ctx)
	go run(ctx2, eng, cronExpr, pageLimit)
	logger.Info("sync_scheduler_started", "cron", cronExpr)
	return cancel, nil
}

// run computes the next tick with gronx and sleeps until then. Overlapping
// runs are harmless: every sync is an idempotent upsert pass.
func run(ctx context.Context, eng *sync.Engine, cronExpr string, pageLimit int) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("sync_scheduler_stopping")
			return
		default:
		}

		now := time.Now().UTC()
		next, err := gronx.NextTickAfter(cronExpr, now, false)
		if err != nil {
			logger.Error("sync_nexttick_failed", "cron", cronExpr, "error", err)
			select {
			case <-time.After(30 * time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}

		select {
		case <-time.After(time.Until(next)):
			runOnce(ctx, eng, pageLimit)
		case <-ctx.Done():
			logger.Info("sync_scheduler_stopping")
			return
		}
	}
}

func runOnce(ctx context.Context, eng *sync.Engine, pageLimit int) {
	start := time.Now()
	n := eng.SyncDirectory(ctx)
	page := eng.GetFeed(ctx, pageLimit, "")
	logger.Info("background_sync_done",
		"users_synced", n,
		"feed_page", len(page.Data),
		"duration_ms", time.Since(start).Milliseconds())
}

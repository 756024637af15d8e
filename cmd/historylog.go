package cmd

import (
	"context"
	"time"

	"github.com/ziadkadry99/pagebuild/internal/assets"
	"github.com/ziadkadry99/pagebuild/internal/build"
	"github.com/ziadkadry99/pagebuild/internal/config"
	"github.com/ziadkadry99/pagebuild/internal/ctxlog"
	"github.com/ziadkadry99/pagebuild/internal/db"
	"github.com/ziadkadry99/pagebuild/internal/history"
)

// buildLog records builds in the history database. A nil *buildLog records
// nothing, so callers need not check whether history is enabled.
type buildLog struct {
	database *db.DB
	store    *history.Store
	mode     assets.Mode
	keep     int
}

// openHistory opens the build history. History is best-effort: failures are
// logged and nil is returned.
func openHistory(ctx context.Context, cfg *config.Config) *buildLog {
	if !cfg.History.Enabled {
		return nil
	}
	database, err := db.Open(cfg.History.Path)
	if err != nil {
		ctxlog.FromContext(ctx).Warn("build history unavailable", "path", cfg.History.Path, "error", err)
		return nil
	}
	return &buildLog{
		database: database,
		store:    history.NewStore(database),
		mode:     cfg.Mode,
		keep:     cfg.History.Keep,
	}
}

func (l *buildLog) record(ctx context.Context, res *build.Result, buildErr error, trigger history.Trigger, d time.Duration) {
	if l == nil {
		return
	}
	logger := ctxlog.FromContext(ctx)

	var entry history.Entry
	if buildErr != nil {
		entry = history.Failed(buildErr, l.mode, trigger, d)
	} else {
		entry = history.FromResult(res, l.mode, trigger)
	}
	if _, err := l.store.Record(ctx, entry); err != nil {
		logger.Warn("recording build history", "error", err)
		return
	}
	if l.keep > 0 {
		if _, err := l.store.Prune(ctx, l.keep); err != nil {
			logger.Warn("pruning build history", "error", err)
		}
	}
}

func (l *buildLog) Close() error {
	return l.database.Close()
}

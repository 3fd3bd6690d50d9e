package cleanup

import (
	"context"

	"github.com/sandevgo/mnemo/internal/core"
	"github.com/sandevgo/mnemo/pkg/log"
)

// Executor applies or simulates item removal.
type Executor struct {
	repo core.ItemsRepository
}

func NewExecutor(repo core.ItemsRepository) *Executor {
	return &Executor{repo: repo}
}

// DeleteItems removes the given ids. In dry-run the intended deletions are
// logged and the full count is returned without mutating the store. A live
// run returns the count the store reports as actually removed; no per-id
// diagnosis is attempted when that is fewer than requested.
func (e *Executor) DeleteItems(ctx context.Context, ids []string, dryRun bool) (int, error) {
	logger := log.FromCtx(ctx)
	if len(ids) == 0 {
		return 0, nil
	}

	if dryRun {
		logger.Info().Strs("ids", ids).Msg("dry run: would delete items")
		return len(ids), nil
	}

	deleted, err := e.repo.Delete(ctx, ids)
	if err != nil {
		return 0, err
	}
	if int(deleted) < len(ids) {
		logger.Warn().
			Int("requested", len(ids)).
			Int64("deleted", deleted).
			Msg("store removed fewer items than requested")
	}
	return int(deleted), nil
}

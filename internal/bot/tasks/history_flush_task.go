package tasks

import (
	"context"
	"fmt"
)

// newHistoryFlushTask creates the task that re-saves the history snapshot.
// Appends already flush synchronously; this periodic pass exists so that a
// previously failed write catches up without waiting for traffic.
func newHistoryFlushTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "history_flush")

	return func(ctx context.Context) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if err := deps.History.Flush(); err != nil {
			log.ErrorContext(ctx, "History flush task failed", "error", err)
			return fmt.Errorf("history flush failed: %w", err)
		}

		log.DebugContext(ctx, "History flushed")
		return nil
	}
}

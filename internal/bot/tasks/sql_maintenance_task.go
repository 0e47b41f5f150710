package tasks

import (
	"context"
	"fmt"
	"time"
)

// newSQLMaintenanceTask creates the scheduled task for archive maintenance.
func newSQLMaintenanceTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "sql_maintenance")

	return func(ctx context.Context) error {
		log.InfoContext(ctx, "Starting scheduled archive maintenance...")
		startTime := time.Now()

		err := deps.Archive.RunSQLMaintenance(ctx)
		duration := time.Since(startTime)

		if err != nil {
			log.ErrorContext(ctx, "Archive maintenance task failed", "error", err, "duration", duration)
			return fmt.Errorf("archive maintenance failed: %w", err)
		}

		log.InfoContext(ctx, "Scheduled archive maintenance completed", "duration", duration)
		return nil
	}
}

// Package tasks implements the scheduled background tasks of the bot:
// periodic history flushing and archive maintenance.
package tasks

import (
	"log/slog"

	"github.com/rgachev/personabot/internal/archive"
	"github.com/rgachev/personabot/internal/config"
	"github.com/rgachev/personabot/internal/history"
)

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger  *slog.Logger
	Config  *config.Config
	History *history.Manager
	Archive archive.Store
}

// Package handlers contains Telegram bot command and message handlers,
// along with their registration logic and middleware.
package handlers

import (
	"log/slog"

	"github.com/rgachev/personabot/internal/archive"
	"github.com/rgachev/personabot/internal/config"
	"github.com/rgachev/personabot/internal/dispatch"
	"github.com/rgachev/personabot/internal/history"
	"github.com/rgachev/personabot/internal/responder"
)

// HandlerDeps provides dependencies for Telegram handlers.
type HandlerDeps struct {
	Logger    *slog.Logger
	Config    *config.Config
	History   *history.Manager
	Responder *responder.Responder
	Archive   archive.Store

	// Policy is shared by pointer because the bot identity it needs is only
	// known after the Telegram client fetches its own info at startup.
	Policy *dispatch.Policy
}

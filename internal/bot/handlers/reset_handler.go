package handlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const resetTimeout = 30 * time.Second

// NewResetHandler returns a handler for the /reset command. It clears the
// conversation history file and the exchange archive.
func NewResetHandler(deps HandlerDeps) bot.HandlerFunc {
	return resetHandler{deps}.Handle
}

type resetHandler struct {
	deps HandlerDeps
}

func (h resetHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "reset")

	if update.Message == nil || update.Message.From == nil {
		log.ErrorContext(ctx, "Reset handler called with nil message or sender", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID
	log.InfoContext(ctx, "Admin requested history reset", "chat_id", chatID, "user_id", update.Message.From.ID)

	if err := h.deps.History.Reset(); err != nil {
		log.ErrorContext(ctx, "Failed to reset conversation history", "error", err, "chat_id", chatID)
		h.send(ctx, b, chatID, h.deps.Config.Messages.ResetError, log)
		return
	}

	if h.deps.Archive != nil {
		timeoutCtx, cancel := context.WithTimeout(ctx, resetTimeout)
		defer cancel()
		if err := h.deps.Archive.DeleteAll(timeoutCtx); err != nil {
			log.ErrorContext(ctx, "Failed to clear exchange archive", "error", err, "chat_id", chatID)
			h.send(ctx, b, chatID, h.deps.Config.Messages.ResetError, log)
			return
		}
	}

	h.send(ctx, b, chatID, h.deps.Config.Messages.HistoryReset, log)
}

func (h resetHandler) send(ctx context.Context, b *bot.Bot, chatID int64, text string, log *slog.Logger) {
	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		log.ErrorContext(ctx, "Failed to send reset status message", "error", err, "chat_id", chatID)
	}
}

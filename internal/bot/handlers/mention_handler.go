package handlers

import (
	"context"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/rgachev/personabot/internal/archive"
	"github.com/rgachev/personabot/internal/history"
)

const (
	sendMessageTimeout = 10 * time.Second
	archiveSaveTimeout = 5 * time.Second
)

type mentionHandler struct {
	deps HandlerDeps
}

// NewMentionHandler creates the default handler that responds to messages
// addressing the bot. Relevance is decided by the dispatch policy; relevant
// messages go through the responder, which owns history recording and the
// fallback behavior.
func NewMentionHandler(deps HandlerDeps) bot.HandlerFunc {
	return mentionHandler{deps}.Handle
}

func (h mentionHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	deps := h.deps
	log := deps.Logger.With("handler", "mention")

	msg := update.Message
	if msg == nil || msg.From == nil {
		log.DebugContext(ctx, "Ignoring update with nil message or sender", "update_id", update.ID)
		return
	}

	if !deps.Policy.Relevant(msg) {
		log.DebugContext(ctx, "Message not addressed to the bot, skipping", "chat_id", msg.Chat.ID)
		return
	}

	chatID := msg.Chat.ID
	userID := msg.From.ID
	username := msg.From.Username
	if username == "" {
		username = "unknown"
	}

	log.InfoContext(ctx, "Handling mention", "chat_id", chatID, "user_id", userID, "message_id", msg.ID)

	_, _ = b.SendChatAction(ctx, &bot.SendChatActionParams{ChatID: chatID, Action: models.ChatActionTyping})

	archiveExchange(ctx, deps, &archive.Record{
		ChatID:    chatID,
		UserID:    userID,
		Role:      history.RoleUser,
		Username:  username,
		Content:   msg.Text,
		Timestamp: time.Unix(int64(msg.Date), 0),
	})

	reply := deps.Responder.Respond(ctx, chatID, userID, username, msg.Text)

	sendCtx, cancel := context.WithTimeout(ctx, sendMessageTimeout)
	defer cancel()
	sent, err := b.SendMessage(sendCtx, &bot.SendMessageParams{
		ChatID:          chatID,
		Text:            reply,
		ReplyParameters: &models.ReplyParameters{MessageID: msg.ID},
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send reply message", "error", err, "chat_id", chatID)
		return
	}

	log.InfoContext(ctx, "Sent reply", "chat_id", chatID, "message_id", sent.ID)

	archiveExchange(ctx, deps, &archive.Record{
		ChatID:    chatID,
		UserID:    deps.Policy.BotID,
		Role:      history.RoleAssistant,
		Username:  deps.Policy.BotUsername,
		Content:   reply,
		Timestamp: time.Now().UTC(),
	})
}

// archiveExchange records one turn in the archive. The archive is
// best-effort: failures are logged and never interrupt the message flow.
func archiveExchange(ctx context.Context, deps HandlerDeps, rec *archive.Record) {
	if deps.Archive == nil {
		return
	}
	log := deps.Logger.With("handler", "mention")

	saveCtx, cancel := context.WithTimeout(ctx, archiveSaveTimeout)
	defer cancel()
	if err := deps.Archive.SaveExchange(saveCtx, rec); err != nil {
		log.WarnContext(ctx, "Failed to archive exchange", "error", err, "chat_id", rec.ChatID, "user_id", rec.UserID)
	}
}

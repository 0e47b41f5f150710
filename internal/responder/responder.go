// Package responder composes completion prompts from persona configuration
// and per-user conversation history, performs the single completion attempt,
// and degrades to a fixed fallback reply on any failure.
package responder

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/rgachev/personabot/internal/ai"
	"github.com/rgachev/personabot/internal/config"
	"github.com/rgachev/personabot/internal/history"
	"github.com/rgachev/personabot/internal/persona"
)

// Responder turns an incoming message into a reply. It owns the prompt
// shape handed to the completion service but delegates the transport to the
// ai.Client.
type Responder struct {
	logger  *slog.Logger
	history *history.Manager
	persona *persona.Config
	client  ai.Client
	cfg     config.AIConfig
}

// New creates a Responder.
func New(logger *slog.Logger, hist *history.Manager, pers *persona.Config, client ai.Client, cfg config.AIConfig) *Responder {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Responder{
		logger:  logger.With("component", "responder"),
		history: hist,
		persona: pers,
		client:  client,
		cfg:     cfg,
	}
}

// Compose assembles the ordered message list for one completion request:
// three system turns (persona, resolved participant profile, constraints),
// the stored history replayed in chronological order, and finally the new
// incoming text as a user turn. Stored entries whose role is not exactly
// "assistant" are replayed as user turns. The history passed in must not yet
// contain the new message.
func Compose(pers *persona.Config, hist []history.Entry, userID int64, username, text string) []ai.Message {
	messages := make([]ai.Message, 0, len(hist)+4)
	messages = append(messages,
		ai.Message{Role: ai.RoleSystem, Content: pers.System()},
		ai.Message{Role: ai.RoleSystem, Content: pers.Profile(username, userID)},
		ai.Message{Role: ai.RoleSystem, Content: pers.Constraints()},
	)

	for _, e := range hist {
		role := ai.RoleUser
		if e.Role == history.RoleAssistant {
			role = ai.RoleAssistant
		}
		messages = append(messages, ai.Message{Role: role, Content: e.Content})
	}

	return append(messages, ai.Message{Role: ai.RoleUser, Content: text})
}

// Respond handles one relevant message end to end: it serializes on the
// conversation key, records the user turn, performs exactly one completion
// attempt under the configured timeout, records the trimmed reply as an
// assistant turn, and returns it. Any failure (transport, timeout, malformed
// or empty response) returns the configured fallback reply instead; the
// fallback is not recorded and no retry is attempted.
func (r *Responder) Respond(ctx context.Context, chatID, userID int64, username, text string) string {
	unlock := r.history.Lock(chatID, userID)
	defer unlock()

	hist := r.history.HistoryFor(chatID, userID)
	messages := Compose(r.persona, hist, userID, username, text)

	r.history.Record(chatID, userID, username, text, history.RoleUser)

	callCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	reply, err := r.client.Complete(callCtx, ai.Request{
		Model:            r.cfg.Model,
		Messages:         messages,
		MaxOutputTokens:  r.cfg.MaxOutputTokens,
		Temperature:      r.cfg.Temperature,
		TopP:             r.cfg.TopP,
		PresencePenalty:  r.cfg.PresencePenalty,
		FrequencyPenalty: r.cfg.FrequencyPenalty,
	})
	if err != nil {
		r.logger.ErrorContext(ctx, "Completion failed, using fallback reply",
			"chat_id", chatID, "user_id", userID, "error", err)
		return r.cfg.FallbackReply
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		r.logger.WarnContext(ctx, "Empty completion result, using fallback reply",
			"chat_id", chatID, "user_id", userID)
		return r.cfg.FallbackReply
	}

	r.history.Record(chatID, userID, username, reply, history.RoleAssistant)
	return reply
}

// Package dispatch implements the pure relevance policy deciding whether an
// inbound message addresses the bot at all. The policy has no side effects
// and performs no I/O, which keeps it trivially testable.
package dispatch

import (
	"strings"

	"github.com/go-telegram/bot/models"
)

// Policy decides whether the bot should respond to a message. Any one of
// three independent triggers makes a message relevant: the invocation
// keyword appears anywhere in the text (case-insensitive), the text starts
// with the bot's @handle (case-insensitive), or the message replies to a
// message the bot itself sent.
//
// The policy only fires in group and supergroup chats; private chats are
// served by explicit commands instead.
type Policy struct {
	Keyword     string
	BotUsername string
	BotID       int64
}

// Relevant reports whether the message warrants a response. Messages with no
// text content are never relevant.
func (p Policy) Relevant(msg *models.Message) bool {
	if msg == nil || msg.Text == "" {
		return false
	}
	if msg.Chat.Type != models.ChatTypeGroup && msg.Chat.Type != models.ChatTypeSupergroup {
		return false
	}

	text := strings.ToLower(msg.Text)

	if p.Keyword != "" && strings.Contains(text, strings.ToLower(p.Keyword)) {
		return true
	}

	if p.BotUsername != "" && strings.HasPrefix(text, "@"+strings.ToLower(p.BotUsername)) {
		return true
	}

	if msg.ReplyToMessage != nil && msg.ReplyToMessage.From != nil && msg.ReplyToMessage.From.ID == p.BotID {
		return true
	}

	return false
}

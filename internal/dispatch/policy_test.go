package dispatch_test

import (
	"testing"

	"github.com/go-telegram/bot/models"

	"github.com/rgachev/personabot/internal/dispatch"
)

func TestPolicyRelevant(t *testing.T) {
	t.Parallel()

	policy := dispatch.Policy{
		Keyword:     "куф",
		BotUsername: "kufar_bot",
		BotID:       424242,
	}

	groupMsg := func(text string) *models.Message {
		return &models.Message{
			Text: text,
			Chat: models.Chat{ID: -100, Type: models.ChatTypeGroup},
		}
	}

	tests := []struct {
		name string
		msg  *models.Message
		want bool
	}{
		{name: "nil message", msg: nil, want: false},
		{name: "empty text", msg: groupMsg(""), want: false},
		{name: "unrelated text", msg: groupMsg("обычное сообщение"), want: false},
		{name: "keyword anywhere in text", msg: groupMsg("привет куф как дела"), want: true},
		{name: "keyword inside a longer word", msg: groupMsg("закуфало"), want: true},
		{name: "keyword different case", msg: groupMsg("КУФ проснись"), want: true},
		{name: "handle prefix", msg: groupMsg("@kufar_bot привет"), want: true},
		{name: "handle prefix different case", msg: groupMsg("@Kufar_Bot привет"), want: true},
		{name: "handle not at start", msg: groupMsg("привет @kufar_bot"), want: false},
		{name: "different handle", msg: groupMsg("@other_bot привет"), want: false},
		{
			name: "reply to bot message",
			msg: &models.Message{
				Text: "обычный текст",
				Chat: models.Chat{ID: -100, Type: models.ChatTypeSupergroup},
				ReplyToMessage: &models.Message{
					From: &models.User{ID: 424242},
				},
			},
			want: true,
		},
		{
			name: "reply to someone else",
			msg: &models.Message{
				Text: "обычный текст",
				Chat: models.Chat{ID: -100, Type: models.ChatTypeGroup},
				ReplyToMessage: &models.Message{
					From: &models.User{ID: 1},
				},
			},
			want: false,
		},
		{
			name: "keyword in private chat",
			msg: &models.Message{
				Text: "куф привет",
				Chat: models.Chat{ID: 5, Type: models.ChatTypePrivate},
			},
			want: false,
		},
		{
			name: "keyword in channel",
			msg: &models.Message{
				Text: "куф привет",
				Chat: models.Chat{ID: -200, Type: models.ChatTypeChannel},
			},
			want: false,
		},
		{
			name: "supergroup keyword",
			msg: &models.Message{
				Text: "куф привет",
				Chat: models.Chat{ID: -100200, Type: models.ChatTypeSupergroup},
			},
			want: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := policy.Relevant(tc.msg); got != tc.want {
				t.Errorf("Relevant(%q) = %v, want %v", textOf(tc.msg), got, tc.want)
			}
		})
	}
}

func TestPolicyEmptyKeywordNeverKeywordMatches(t *testing.T) {
	t.Parallel()

	policy := dispatch.Policy{BotUsername: "kufar_bot", BotID: 424242}
	msg := &models.Message{
		Text: "any text at all",
		Chat: models.Chat{ID: -100, Type: models.ChatTypeGroup},
	}

	if policy.Relevant(msg) {
		t.Error("Relevant() = true with empty keyword and no handle or reply trigger")
	}
}

func textOf(msg *models.Message) string {
	if msg == nil {
		return "<nil>"
	}
	return msg.Text
}

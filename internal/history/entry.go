// Package history maintains the per-(chat, user) conversation history that
// feeds the completion prompts. Each chat partitions its history by user so
// the bot never mixes the contexts of different participants, and every list
// is capped to the most recent entries.
package history

// Roles recorded in history entries. Any role other than RoleAssistant is
// replayed as a user turn when a prompt is composed.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Entry is one recorded conversation turn. Entries are immutable once
// recorded; lists only grow at the back and evict from the front.
type Entry struct {
	Role     string `json:"role"`
	UserID   int64  `json:"user_id,omitempty"`
	Username string `json:"username"`
	Content  string `json:"content"`
}

// Key identifies one conversation: a user within a chat. Two users in the
// same chat, or one user across two chats, never share a history list.
type Key struct {
	ChatID int64
	UserID int64
}

// Snapshot is the full in-memory structure: chat id to user id to the
// chronologically ordered entry list.
type Snapshot map[int64]map[int64][]Entry

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for chatID, users := range s {
		cu := make(map[int64][]Entry, len(users))
		for userID, entries := range users {
			ce := make([]Entry, len(entries))
			copy(ce, entries)
			cu[userID] = ce
		}
		out[chatID] = cu
	}
	return out
}

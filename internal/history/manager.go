package history

import (
	"io"
	"log/slog"
	"sync"
)

// DefaultMaxEntries is the retention cap applied when none is configured.
const DefaultMaxEntries = 10

// Manager owns the in-memory mirror of the history store. Every append trims
// the touched (chat, user) list to the retention cap and synchronously
// flushes the full snapshot to the store. Persist failures are logged and
// swallowed; the in-memory state stays authoritative and the next successful
// flush catches up.
type Manager struct {
	store      Store
	logger     *slog.Logger
	maxEntries int

	mu       sync.Mutex
	data     Snapshot
	keyLocks map[Key]*sync.Mutex
}

// NewManager creates a manager and loads the current snapshot from the store.
func NewManager(store Store, maxEntries int, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Manager{
		store:      store,
		logger:     logger.With("component", "history_manager"),
		maxEntries: maxEntries,
		data:       store.Load(),
		keyLocks:   make(map[Key]*sync.Mutex),
	}
}

// Lock acquires the exclusive section for one conversation key and returns
// its release function. Callers handling a message hold this for the whole
// detect-append-compose-append sequence so concurrent messages for the same
// (chat, user) pair are serialized rather than racing.
func (m *Manager) Lock(chatID, userID int64) func() {
	m.mu.Lock()
	key := Key{ChatID: chatID, UserID: userID}
	l, ok := m.keyLocks[key]
	if !ok {
		l = &sync.Mutex{}
		m.keyLocks[key] = l
	}
	m.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// Record appends an entry to the (chatID, userID) list, creating intermediate
// maps on first use, trims the list to the retention cap, and flushes the
// snapshot. An empty text appends nothing but still trims and flushes; this
// is intentional bookkeeping, not an error.
func (m *Manager) Record(chatID, userID int64, username, text, role string) {
	m.mu.Lock()

	if text != "" {
		if m.data[chatID] == nil {
			m.data[chatID] = make(map[int64][]Entry)
		}
		entry := Entry{Role: role, Username: username, Content: text}
		if role != RoleAssistant {
			entry.UserID = userID
		}
		m.data[chatID][userID] = append(m.data[chatID][userID], entry)
	}

	if entries := m.data[chatID][userID]; len(entries) > m.maxEntries {
		m.data[chatID][userID] = entries[len(entries)-m.maxEntries:]
	}

	snap := m.data.Clone()
	m.mu.Unlock()

	if err := m.store.Save(snap); err != nil {
		m.logger.Error("Failed to persist history, in-memory state retained",
			"chat_id", chatID, "user_id", userID, "error", err)
	}
}

// HistoryFor returns a copy of the current capped list for the key, or an
// empty slice if none exists. It never mutates state.
func (m *Manager) HistoryFor(chatID, userID int64) []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := m.data[chatID][userID]
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}

// Flush re-saves the current snapshot. Used by the periodic flush task and
// at shutdown so a previously failed synchronous write catches up.
func (m *Manager) Flush() error {
	m.mu.Lock()
	snap := m.data.Clone()
	m.mu.Unlock()

	return m.store.Save(snap)
}

// Reset discards all history and flushes the empty snapshot.
func (m *Manager) Reset() error {
	m.mu.Lock()
	m.data = make(Snapshot)
	m.mu.Unlock()

	return m.store.Save(make(Snapshot))
}

package history

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
)

// Store persists history snapshots. Load never fails: any unreadable or
// malformed state degrades to an empty snapshot.
type Store interface {
	Load() Snapshot
	Save(Snapshot) error
}

// FileStore keeps the whole history in a single JSON document. The top level
// maps chat ids (as text keys) to user ids (as text keys) to entry arrays.
// Every Save rewrites the file in full via a temp file and atomic rename.
type FileStore struct {
	path   string
	logger *slog.Logger
}

// NewFileStore creates a file-backed store at the given path.
func NewFileStore(path string, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &FileStore{
		path:   path,
		logger: logger.With("component", "history_store"),
	}
}

// Load reads the backing file and returns the parsed snapshot. A missing
// file or a malformed document yields an empty snapshot. Chat or user keys
// that do not parse as integers are skipped individually, as are entry lists
// that fail to decode; unknown fields inside entries are tolerated.
func (s *FileStore) Load() Snapshot {
	snap := make(Snapshot)

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("Failed to read history file, starting empty", "path", s.path, "error", err)
		}
		return snap
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		s.logger.Warn("Malformed history file, starting empty", "path", s.path, "error", err)
		return snap
	}

	for chatKey, usersRaw := range raw {
		chatID, err := strconv.ParseInt(chatKey, 10, 64)
		if err != nil {
			s.logger.Warn("Skipping history chat with non-numeric key", "key", chatKey)
			continue
		}

		var users map[string]json.RawMessage
		if err := json.Unmarshal(usersRaw, &users); err != nil {
			s.logger.Warn("Skipping malformed chat record in history file", "chat_id", chatID, "error", err)
			continue
		}

		for userKey, entriesRaw := range users {
			userID, err := strconv.ParseInt(userKey, 10, 64)
			if err != nil {
				s.logger.Warn("Skipping history user with non-numeric key", "chat_id", chatID, "key", userKey)
				continue
			}

			var entries []Entry
			if err := json.Unmarshal(entriesRaw, &entries); err != nil {
				s.logger.Warn("Skipping malformed entry list in history file", "chat_id", chatID, "user_id", userID, "error", err)
				continue
			}

			if snap[chatID] == nil {
				snap[chatID] = make(map[int64][]Entry)
			}
			snap[chatID][userID] = entries
		}
	}

	s.logger.Info("History loaded", "path", s.path, "chats", len(snap))
	return snap
}

// Save serializes the snapshot, with all identifiers rendered as text keys,
// and atomically replaces the backing file.
func (s *FileStore) Save(snap Snapshot) error {
	out := make(map[string]map[string][]Entry, len(snap))
	for chatID, users := range snap {
		cu := make(map[string][]Entry, len(users))
		for userID, entries := range users {
			cu[strconv.FormatInt(userID, 10)] = entries
		}
		out[strconv.FormatInt(chatID, 10)] = cu
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("failed to create temp history file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync history file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close history file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("failed to replace history file: %w", err)
	}

	return nil
}

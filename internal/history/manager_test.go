package history_test

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/rgachev/personabot/internal/history"
)

// memStore is an in-memory Store for manager tests.
type memStore struct {
	snap    history.Snapshot
	saves   int
	saveErr error
}

func (s *memStore) Load() history.Snapshot {
	if s.snap == nil {
		return make(history.Snapshot)
	}
	return s.snap
}

func (s *memStore) Save(snap history.Snapshot) error {
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	s.snap = snap
	return nil
}

func TestManagerRecordCapsAtMaxEntries(t *testing.T) {
	t.Parallel()

	store := &memStore{}
	m := history.NewManager(store, 10, nil)

	for i := 1; i <= 11; i++ {
		m.Record(555, 101, "alice", fmt.Sprintf("message %d", i), history.RoleUser)
	}

	got := m.HistoryFor(555, 101)
	if len(got) != 10 {
		t.Fatalf("HistoryFor() returned %d entries after 11 appends, want 10", len(got))
	}
	if got[0].Content != "message 2" {
		t.Errorf("oldest entry content = %q, want %q (first append evicted)", got[0].Content, "message 2")
	}
	if got[9].Content != "message 11" {
		t.Errorf("newest entry content = %q, want %q", got[9].Content, "message 11")
	}

	// Every append flushes the snapshot.
	if store.saves != 11 {
		t.Errorf("store.saves = %d, want 11", store.saves)
	}
	if persisted := store.snap[555][101]; len(persisted) != 10 {
		t.Errorf("persisted %d entries, want 10", len(persisted))
	}
}

func TestManagerKeysAreIndependent(t *testing.T) {
	t.Parallel()

	m := history.NewManager(&memStore{}, 10, nil)

	m.Record(555, 101, "alice", "from alice", history.RoleUser)
	m.Record(555, 102, "bob", "from bob", history.RoleUser)
	m.Record(556, 101, "alice", "other chat", history.RoleUser)

	if got := m.HistoryFor(555, 101); len(got) != 1 || got[0].Content != "from alice" {
		t.Errorf("HistoryFor(555, 101) = %+v, want single alice entry", got)
	}
	if got := m.HistoryFor(555, 102); len(got) != 1 || got[0].Content != "from bob" {
		t.Errorf("HistoryFor(555, 102) = %+v, want single bob entry", got)
	}
	if got := m.HistoryFor(556, 101); len(got) != 1 || got[0].Content != "other chat" {
		t.Errorf("HistoryFor(556, 101) = %+v, want single entry", got)
	}
}

func TestManagerRecordRoles(t *testing.T) {
	t.Parallel()

	m := history.NewManager(&memStore{}, 10, nil)

	m.Record(1, 2, "alice", "question", history.RoleUser)
	m.Record(1, 2, "bot", "answer", history.RoleAssistant)

	got := m.HistoryFor(1, 2)
	if len(got) != 2 {
		t.Fatalf("HistoryFor() returned %d entries, want 2", len(got))
	}
	if got[0].Role != history.RoleUser || got[0].UserID != 2 {
		t.Errorf("user entry = %+v, want role %q with user id 2", got[0], history.RoleUser)
	}
	if got[1].Role != history.RoleAssistant || got[1].UserID != 0 {
		t.Errorf("assistant entry = %+v, want role %q without user id", got[1], history.RoleAssistant)
	}
}

func TestManagerRecordEmptyTextAppendsNothing(t *testing.T) {
	t.Parallel()

	store := &memStore{}
	m := history.NewManager(store, 10, nil)

	m.Record(1, 2, "alice", "", history.RoleUser)

	if got := m.HistoryFor(1, 2); len(got) != 0 {
		t.Errorf("HistoryFor() returned %d entries after empty append, want 0", len(got))
	}
	if store.saves != 1 {
		t.Errorf("store.saves = %d, want 1 (empty append still flushes)", store.saves)
	}
}

func TestManagerPersistFailureKeepsMemoryState(t *testing.T) {
	t.Parallel()

	store := &memStore{saveErr: errors.New("disk full")}
	m := history.NewManager(store, 10, nil)

	m.Record(1, 2, "alice", "survives", history.RoleUser)

	if got := m.HistoryFor(1, 2); len(got) != 1 || got[0].Content != "survives" {
		t.Fatalf("HistoryFor() = %+v, want entry retained despite persist failure", got)
	}

	// Once the store recovers, Flush writes the retained state.
	store.saveErr = nil
	if err := m.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if persisted := store.snap[1][2]; len(persisted) != 1 {
		t.Errorf("persisted %d entries after Flush(), want 1", len(persisted))
	}
}

func TestManagerHistoryForReturnsCopy(t *testing.T) {
	t.Parallel()

	m := history.NewManager(&memStore{}, 10, nil)
	m.Record(1, 2, "alice", "original", history.RoleUser)

	got := m.HistoryFor(1, 2)
	got[0].Content = "mutated"

	if again := m.HistoryFor(1, 2); again[0].Content != "original" {
		t.Errorf("HistoryFor() entry content = %q, caller mutation leaked into manager state", again[0].Content)
	}
}

func TestManagerReset(t *testing.T) {
	t.Parallel()

	store := &memStore{}
	m := history.NewManager(store, 10, nil)

	m.Record(1, 2, "alice", "gone", history.RoleUser)
	m.Record(3, 4, "bob", "also gone", history.RoleUser)

	if err := m.Reset(); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if got := m.HistoryFor(1, 2); len(got) != 0 {
		t.Errorf("HistoryFor() returned %d entries after Reset(), want 0", len(got))
	}
	if len(store.snap) != 0 {
		t.Errorf("persisted snapshot has %d chats after Reset(), want 0", len(store.snap))
	}
}

func TestManagerLoadsExistingState(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "chat_history.json")
	store := history.NewFileStore(path, nil)
	if err := store.Save(history.Snapshot{
		9: {8: {{Role: history.RoleUser, UserID: 8, Username: "carol", Content: "persisted"}}},
	}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	m := history.NewManager(store, 10, nil)
	if got := m.HistoryFor(9, 8); len(got) != 1 || got[0].Content != "persisted" {
		t.Errorf("HistoryFor() = %+v, want state restored from file", got)
	}
}

func TestManagerLockSerializesKey(t *testing.T) {
	t.Parallel()

	m := history.NewManager(&memStore{}, 10, nil)

	unlock := m.Lock(1, 2)
	acquired := make(chan struct{})
	go func() {
		u := m.Lock(1, 2)
		close(acquired)
		u()
	}()

	time.Sleep(50 * time.Millisecond)
	select {
	case <-acquired:
		t.Fatal("second Lock() acquired while first still held")
	default:
	}

	// A different key is not blocked.
	otherUnlock := m.Lock(1, 3)
	otherUnlock()

	unlock()
	<-acquired
}

package archive_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rgachev/personabot/internal/archive"
)

func newTestStore(t *testing.T) archive.Store {
	t.Helper()

	db, err := archive.NewDB(filepath.Join(t.TempDir(), "archive.db"))
	if err != nil {
		t.Fatalf("NewDB() error = %v", err)
	}
	t.Cleanup(func() { archive.CloseDB(db) })

	return archive.NewStore(db, nil)
}

func TestPing(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	if err := store.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
}

func TestSaveAndRecentExchanges(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	turns := []archive.Record{
		{ChatID: 555, UserID: 101, Role: "user", Username: "alice", Content: "first", Timestamp: base},
		{ChatID: 555, UserID: 0, Role: "assistant", Username: "bot", Content: "reply", Timestamp: base.Add(time.Second)},
		{ChatID: 777, UserID: 1, Role: "user", Username: "bob", Content: "other chat", Timestamp: base},
	}
	for i := range turns {
		if err := store.SaveExchange(ctx, &turns[i]); err != nil {
			t.Fatalf("SaveExchange(%d) error = %v", i, err)
		}
		if turns[i].ID == 0 {
			t.Errorf("record %d has zero ID after save", i)
		}
	}

	got, err := store.RecentExchanges(ctx, 555, 10)
	if err != nil {
		t.Fatalf("RecentExchanges() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("RecentExchanges() returned %d records, want 2", len(got))
	}

	// Oldest first.
	if got[0].Content != "first" || got[1].Content != "reply" {
		t.Errorf("RecentExchanges() order = [%q, %q], want oldest first", got[0].Content, got[1].Content)
	}
	if got[1].Role != "assistant" || got[1].Username != "bot" {
		t.Errorf("assistant record = %+v", got[1])
	}
}

func TestRecentExchangesLimit(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		rec := archive.Record{
			ChatID:    42,
			UserID:    1,
			Role:      "user",
			Username:  "alice",
			Content:   string(rune('a' + i)),
			Timestamp: base.Add(time.Duration(i) * time.Second),
		}
		if err := store.SaveExchange(ctx, &rec); err != nil {
			t.Fatalf("SaveExchange() error = %v", err)
		}
	}

	got, err := store.RecentExchanges(ctx, 42, 3)
	if err != nil {
		t.Fatalf("RecentExchanges() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("RecentExchanges() returned %d records, want 3", len(got))
	}

	// The 3 most recent, still oldest first.
	if got[0].Content != "c" || got[2].Content != "e" {
		t.Errorf("RecentExchanges() = [%q .. %q], want most recent window oldest first", got[0].Content, got[2].Content)
	}
}

func TestSaveExchangeValidation(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name string
		rec  *archive.Record
	}{
		{name: "nil record", rec: nil},
		{name: "zero chat id", rec: &archive.Record{UserID: 1, Content: "x"}},
		{name: "empty content", rec: &archive.Record{ChatID: 1, UserID: 1}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := store.SaveExchange(ctx, tc.rec); err == nil {
				t.Error("SaveExchange() error = nil, want rejection")
			}
		})
	}
}

func TestDeleteAll(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	rec := archive.Record{ChatID: 1, UserID: 2, Role: "user", Username: "alice", Content: "ephemeral"}
	if err := store.SaveExchange(ctx, &rec); err != nil {
		t.Fatalf("SaveExchange() error = %v", err)
	}

	if err := store.DeleteAll(ctx); err != nil {
		t.Fatalf("DeleteAll() error = %v", err)
	}

	got, err := store.RecentExchanges(ctx, 1, 10)
	if err != nil {
		t.Fatalf("RecentExchanges() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("RecentExchanges() returned %d records after DeleteAll(), want 0", len(got))
	}
}

func TestRunSQLMaintenance(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	if err := store.RunSQLMaintenance(context.Background()); err != nil {
		t.Fatalf("RunSQLMaintenance() error = %v", err)
	}
}

package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// Record is one archived conversation turn.
type Record struct {
	ID        uint      `db:"id"`
	CreatedAt time.Time `db:"created_at"`

	ChatID    int64     `db:"chat_id"`
	UserID    int64     `db:"user_id"`
	Role      string    `db:"role"`
	Username  string    `db:"username"`
	Content   string    `db:"content"`
	Timestamp time.Time `db:"timestamp"`
}

// Store defines the archive data access layer. Methods accept a
// context.Context for cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// SaveExchange inserts one archived turn.
	SaveExchange(ctx context.Context, rec *Record) error

	// RecentExchanges retrieves the most recent 'limit' turns for a chat,
	// oldest first.
	RecentExchanges(ctx context.Context, chatID int64, limit int) ([]Record, error)

	// DeleteAll removes every archived turn.
	DeleteAll(ctx context.Context) error

	// RunSQLMaintenance performs maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a Store implementation backed by sqlx.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "archive_store"),
	}
}

func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlxStore) SaveExchange(ctx context.Context, rec *Record) error {
	if rec == nil {
		return fmt.Errorf("cannot save nil record")
	}
	if rec.ChatID == 0 {
		return fmt.Errorf("record must have a non-zero chat_id")
	}
	if rec.Content == "" {
		return fmt.Errorf("record must have non-empty content")
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	rec.CreatedAt = time.Now().UTC()

	query := `
        INSERT INTO exchanges (chat_id, user_id, role, username, content, timestamp, created_at)
        VALUES (:chat_id, :user_id, :role, :username, :content, :timestamp, :created_at);
    `

	result, err := s.db.NamedExecContext(ctx, query, rec)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving exchange", "chat_id", rec.ChatID, "user_id", rec.UserID, "error", err)
		return fmt.Errorf("failed to save exchange (chat %d, user %d): %w", rec.ChatID, rec.UserID, err)
	}

	if id, err := result.LastInsertId(); err == nil {
		//nolint:gosec // integer overflow conversion is acceptable here
		rec.ID = uint(id)
	} else {
		s.logger.WarnContext(ctx, "Could not retrieve last insert ID after saving exchange",
			"chat_id", rec.ChatID, "error", err)
	}

	s.logger.DebugContext(ctx, "Exchange archived", "chat_id", rec.ChatID, "user_id", rec.UserID, "record_id", rec.ID)
	return nil
}

func (s *sqlxStore) RecentExchanges(ctx context.Context, chatID int64, limit int) ([]Record, error) {
	if chatID == 0 {
		return nil, fmt.Errorf("chat_id cannot be zero")
	}
	if limit <= 0 {
		limit = 50
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var records []Record
	query := `
        SELECT id, chat_id, user_id, role, username, content, timestamp, created_at
        FROM (
            SELECT id, chat_id, user_id, role, username, content, timestamp, created_at
            FROM exchanges
            WHERE chat_id = ?
            ORDER BY timestamp DESC, id DESC
            LIMIT ?
        )
        ORDER BY timestamp ASC, id ASC;
    `

	err := s.db.SelectContext(ctx, &records, query, chatID, limit)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		s.logger.WarnContext(ctx, "Context timeout or cancellation while fetching exchanges",
			"chat_id", chatID, "error", err)
		return nil, err
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "Error getting recent exchanges", "chat_id", chatID, "limit", limit, "error", err)
		return nil, fmt.Errorf("failed to get recent exchanges for chat %d: %w", chatID, err)
	}

	return records, nil
}

func (s *sqlxStore) DeleteAll(ctx context.Context) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM exchanges`)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error deleting archived exchanges", "error", err)
		return fmt.Errorf("failed to delete archived exchanges: %w", err)
	}

	count, _ := result.RowsAffected()
	s.logger.InfoContext(ctx, "Deleted archived exchanges", "count", count)
	return nil
}

// RunSQLMaintenance executes VACUUM. SQLite requires it to run outside a
// transaction.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting archive maintenance (VACUUM)...")

	_, err := s.db.ExecContext(ctx, "VACUUM;")
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "VACUUM timed out or was cancelled", "error", err)
		return fmt.Errorf("archive maintenance (VACUUM) timed out: %w", err)
	case err != nil:
		s.logger.ErrorContext(ctx, "Archive maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)
	}

	s.logger.InfoContext(ctx, "Archive maintenance (VACUUM) completed successfully")
	return nil
}

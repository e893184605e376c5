package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ashureev/softsell/internal/domain"
	"github.com/ashureev/softsell/internal/shared"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db           *sql.DB
	preferenceMu sync.Mutex // serializes preference writes to avoid SQLITE_BUSY
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS visitors (
		visitor_id TEXT PRIMARY KEY,
		last_seen_at INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_visitors_last_seen ON visitors(last_seen_at);

	CREATE TABLE IF NOT EXISTS preferences (
		visitor_id TEXT NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (visitor_id, key)
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// GetVisitor retrieves a visitor by ID.
func (s *SQLiteStore) GetVisitor(ctx context.Context, visitorID string) (*domain.Visitor, error) {
	query := `
		SELECT visitor_id, last_seen_at, created_at, updated_at
		FROM visitors WHERE visitor_id = ?`

	row := s.db.QueryRowContext(ctx, query, visitorID)

	var visitor domain.Visitor
	var lastSeen, createdAt, updatedAt int64

	err := row.Scan(&visitor.VisitorID, &lastSeen, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan visitor row: %w", err)
	}

	visitor.LastSeenAt = time.Unix(lastSeen, 0)
	visitor.CreatedAt = time.Unix(createdAt, 0)
	visitor.UpdatedAt = time.Unix(updatedAt, 0)

	return &visitor, nil
}

// UpsertVisitor creates or updates a visitor record.
func (s *SQLiteStore) UpsertVisitor(ctx context.Context, visitor *domain.Visitor) error {
	query := `
	INSERT INTO visitors (visitor_id, last_seen_at, created_at, updated_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(visitor_id) DO UPDATE SET
		last_seen_at = excluded.last_seen_at,
		updated_at = excluded.updated_at`

	_, err := s.db.ExecContext(ctx, query,
		visitor.VisitorID, visitor.LastSeenAt.Unix(),
		visitor.CreatedAt.Unix(), visitor.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert visitor: %w", err)
	}
	return nil
}

// UpdateLastSeen updates the last_seen_at timestamp for a visitor.
func (s *SQLiteStore) UpdateLastSeen(ctx context.Context, visitorID string, lastSeen time.Time) error {
	query := `UPDATE visitors SET last_seen_at = ?, updated_at = ? WHERE visitor_id = ?`
	result, err := s.db.ExecContext(ctx, query, lastSeen.Unix(), time.Now().Unix(), visitorID)
	if err != nil {
		return fmt.Errorf("update last_seen: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		slog.Warn("UpdateLastSeen affected 0 rows", "visitor_id", visitorID)
	}

	return nil
}

// DeleteStaleVisitors removes visitors not seen within ttl together with
// their preferences.
func (s *SQLiteStore) DeleteStaleVisitors(ctx context.Context, ttl time.Duration) (int64, error) {
	threshold := time.Now().Add(-ttl).Unix()

	s.preferenceMu.Lock()
	defer s.preferenceMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin stale visitor cleanup: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			slog.Warn("failed to rollback stale visitor cleanup", "error", rbErr)
		}
	}()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM preferences WHERE visitor_id IN (
			SELECT visitor_id FROM visitors WHERE last_seen_at < ?
		)`, threshold); err != nil {
		return 0, fmt.Errorf("delete stale preferences: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM visitors WHERE last_seen_at < ?`, threshold)
	if err != nil {
		return 0, fmt.Errorf("delete stale visitors: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("stale visitors rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit stale visitor cleanup: %w", err)
	}
	return deleted, nil
}

// GetPreference returns a stored preference value.
func (s *SQLiteStore) GetPreference(ctx context.Context, visitorID, key string) (string, bool, error) {
	query := `SELECT value FROM preferences WHERE visitor_id = ? AND key = ?`

	var value string
	err := s.db.QueryRowContext(ctx, query, visitorID, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get preference %s: %w", key, err)
	}
	return value, true, nil
}

// SetPreference stores a preference value, retrying with exponential
// backoff while the database is locked.
func (s *SQLiteStore) SetPreference(ctx context.Context, visitorID, key, value string) error {
	err := shared.RetryOnConflict(ctx, 3, 50*time.Millisecond, func() error {
		return s.setPreferenceOnce(ctx, visitorID, key, value)
	})
	if err != nil {
		return fmt.Errorf("set preference %s for %s: %w", key, visitorID, err)
	}
	return nil
}

func (s *SQLiteStore) setPreferenceOnce(ctx context.Context, visitorID, key, value string) error {
	s.preferenceMu.Lock()
	defer s.preferenceMu.Unlock()

	query := `
		INSERT INTO preferences (visitor_id, key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(visitor_id, key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at`
	if _, err := s.db.ExecContext(ctx, query, visitorID, key, value, time.Now().Unix()); err != nil {
		return fmt.Errorf("upsert preference: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/adithyag/studytoolsgpt/internal/domain"
	"github.com/adithyag/studytoolsgpt/internal/shared"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements PackRepository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed pack repository.
func NewSQLite(dbPath string) (PackRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// WAL mode keeps concurrent reads cheap while a save is in flight.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
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
	CREATE TABLE IF NOT EXISTS packs (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		mode TEXT NOT NULL,
		messages_json TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_packs_updated ON packs(updated_at);
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

// ListPacks returns all saved packs ordered by most recent update.
func (s *SQLiteStore) ListPacks(ctx context.Context) ([]*domain.Pack, error) {
	query := `
		SELECT id, title, mode, messages_json, created_at, updated_at
		FROM packs ORDER BY updated_at DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query packs: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close pack rows", "error", closeErr)
		}
	}()

	var packs []*domain.Pack
	for rows.Next() {
		pack, err := scanPack(rows.Scan)
		if err != nil {
			return nil, err
		}
		packs = append(packs, pack)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate packs: %w", err)
	}

	return packs, nil
}

// GetPack retrieves a pack by ID.
func (s *SQLiteStore) GetPack(ctx context.Context, id string) (*domain.Pack, error) {
	query := `
		SELECT id, title, mode, messages_json, created_at, updated_at
		FROM packs WHERE id = ?`

	row := s.db.QueryRowContext(ctx, query, id)
	pack, err := scanPack(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return pack, nil
}

// scanPack decodes one pack row. Malformed stored messages are treated as
// an empty conversation rather than an error.
func scanPack(scan func(dest ...any) error) (*domain.Pack, error) {
	var pack domain.Pack
	var messagesJSON string
	var createdAt, updatedAt int64

	if err := scan(&pack.ID, &pack.Title, &pack.Mode, &messagesJSON, &createdAt, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scan pack row: %w", err)
	}

	pack.CreatedAt = time.Unix(createdAt, 0)
	pack.UpdatedAt = time.Unix(updatedAt, 0)

	if err := json.Unmarshal([]byte(messagesJSON), &pack.Messages); err != nil || pack.Messages == nil {
		if err != nil {
			slog.Warn("Discarding malformed pack messages", "pack_id", pack.ID, "error", err)
		}
		pack.Messages = []domain.Message{}
	}

	return &pack, nil
}

// SavePack creates or updates a pack record. SQLITE_BUSY conflicts are
// retried with exponential backoff.
func (s *SQLiteStore) SavePack(ctx context.Context, pack *domain.Pack) error {
	const maxRetries = 3
	baseDelay := 100 * time.Millisecond

	var err error
	for i := 0; i < maxRetries; i++ {
		err = s.savePackOnce(ctx, pack)
		if err == nil {
			return nil
		}
		if !shared.IsSQLiteConflictError(err) || i == maxRetries-1 {
			break
		}
		delay := baseDelay * time.Duration(1<<i)
		slog.Debug("SavePack hit a busy database, retrying", "pack_id", pack.ID, "attempt", i+1, "delay", delay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return err
}

func (s *SQLiteStore) savePackOnce(ctx context.Context, pack *domain.Pack) error {
	messagesJSON, err := json.Marshal(pack.Messages)
	if err != nil {
		return fmt.Errorf("marshal pack messages: %w", err)
	}

	query := `
	INSERT INTO packs (id, title, mode, messages_json, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		title = excluded.title,
		mode = excluded.mode,
		messages_json = excluded.messages_json,
		updated_at = excluded.updated_at`

	_, err = s.db.ExecContext(ctx, query,
		pack.ID, pack.Title, pack.Mode, string(messagesJSON),
		pack.CreatedAt.Unix(), pack.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert pack: %w", err)
	}
	return nil
}

// DeletePack removes a pack record.
func (s *SQLiteStore) DeletePack(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM packs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete pack: %w", err)
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

package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/history"
)

const defaultSQLitePath = "data/history.db"

// SQLiteStore keeps turns in a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at path.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		path = defaultSQLitePath
	}
	if path != ":memory:" {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("resolve history db path: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			return nil, fmt.Errorf("ensure history db dir: %w", err)
		}
		path = abs
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	// One writer; also keeps ":memory:" on a single connection.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, turnsSchema(sqlDialectSQLite)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create history schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Record upserts turn.
func (s *SQLiteStore) Record(ctx context.Context, turn *history.Turn) error {
	return recordSQL(ctx, s.db, sqlDialectSQLite, turn)
}

// Recent returns up to limit turns, newest first.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]*history.Turn, error) {
	return recentSQL(ctx, s.db, sqlDialectSQLite, limit)
}

// Count returns the number of stored turns.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	return countSQL(ctx, s.db)
}

// Clear removes all turns.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	return clearSQL(ctx, s.db)
}

// Close closes the database.
func (s *SQLiteStore) Close(ctx context.Context) error {
	return s.db.Close()
}

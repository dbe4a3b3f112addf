package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/history"
)

// sqlDialect captures the differences between the PostgreSQL and SQLite
// backends: placeholder syntax and timestamp storage.
type sqlDialect struct {
	name        string
	placeholder func(n int) string
	timeType    string
	encodeTime  func(time.Time) any
	decodeTime  func(any) (time.Time, error)
}

var sqlDialectPostgres = sqlDialect{
	name:        "postgres",
	placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
	timeType:    "TIMESTAMPTZ",
	encodeTime:  func(t time.Time) any { return t },
	decodeTime: func(v any) (time.Time, error) {
		t, ok := v.(time.Time)
		if !ok {
			return time.Time{}, fmt.Errorf("unexpected timestamp type %T", v)
		}
		return t, nil
	},
}

// SQLite keeps timestamps as RFC 3339 text so ordering stays lexical.
var sqlDialectSQLite = sqlDialect{
	name:        "sqlite",
	placeholder: func(int) string { return "?" },
	timeType:    "TEXT",
	encodeTime:  func(t time.Time) any { return t.UTC().Format(sqliteTimeLayout) },
	decodeTime: func(v any) (time.Time, error) {
		switch s := v.(type) {
		case string:
			return time.Parse(sqliteTimeLayout, s)
		case []byte:
			return time.Parse(sqliteTimeLayout, string(s))
		case time.Time:
			return s, nil
		}
		return time.Time{}, fmt.Errorf("unexpected timestamp type %T", v)
	},
}

// Fixed width so text comparison matches time order.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

var turnColumns = []string{
	"id", "question", "intent", "query", "query_source", "row_count", "answer",
	"verdict", "reason", "attempts", "error", "duration_ms", "created_at",
}

func turnsSchema(d sqlDialect) string {
	return fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS advisor_turns (
		id VARCHAR(64) PRIMARY KEY,
		question TEXT NOT NULL,
		intent VARCHAR(64) NOT NULL DEFAULT '',
		query TEXT NOT NULL DEFAULT '',
		query_source VARCHAR(32) NOT NULL DEFAULT '',
		row_count INTEGER NOT NULL DEFAULT 0,
		answer TEXT NOT NULL DEFAULT '',
		verdict VARCHAR(32) NOT NULL DEFAULT '',
		reason TEXT NOT NULL DEFAULT '',
		attempts INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT '',
		duration_ms BIGINT NOT NULL DEFAULT 0,
		created_at %s NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_advisor_turns_created_at ON advisor_turns(created_at);
	`, d.timeType)
}

func recordSQL(ctx context.Context, db *sql.DB, d sqlDialect, turn *history.Turn) error {
	if turn == nil {
		return fmt.Errorf("turn cannot be nil")
	}
	history.Prepare(turn)

	placeholders := make([]string, len(turnColumns))
	updates := make([]string, 0, len(turnColumns)-1)
	for i, col := range turnColumns {
		placeholders[i] = d.placeholder(i + 1)
		if col != "id" {
			updates = append(updates, col+" = EXCLUDED."+col)
		}
	}
	query := fmt.Sprintf("INSERT INTO advisor_turns (%s) VALUES (%s) ON CONFLICT (id) DO UPDATE SET %s",
		strings.Join(turnColumns, ", "), strings.Join(placeholders, ", "), strings.Join(updates, ", "))

	_, err := db.ExecContext(ctx, query,
		turn.ID, turn.Question, turn.Intent, turn.Query, turn.QuerySource, turn.RowCount, turn.Answer,
		turn.Verdict, turn.Reason, turn.Attempts, turn.Error, turn.DurationMS, d.encodeTime(turn.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to record turn in %s: %w", d.name, err)
	}
	return nil
}

func recentSQL(ctx context.Context, db *sql.DB, d sqlDialect, limit int) ([]*history.Turn, error) {
	query := fmt.Sprintf("SELECT %s FROM advisor_turns ORDER BY created_at DESC", strings.Join(turnColumns, ", "))
	var args []any
	if limit > 0 {
		query += " LIMIT " + d.placeholder(1)
		args = append(args, limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list turns: %w", err)
	}
	defer rows.Close()

	turns := make([]*history.Turn, 0)
	for rows.Next() {
		turn := &history.Turn{}
		var created any
		if err := rows.Scan(&turn.ID, &turn.Question, &turn.Intent, &turn.Query, &turn.QuerySource,
			&turn.RowCount, &turn.Answer, &turn.Verdict, &turn.Reason, &turn.Attempts, &turn.Error,
			&turn.DurationMS, &created); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		if turn.CreatedAt, err = d.decodeTime(created); err != nil {
			return nil, fmt.Errorf("failed to decode created_at: %w", err)
		}
		turns = append(turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating turns: %w", err)
	}
	return turns, nil
}

func countSQL(ctx context.Context, db *sql.DB) (int, error) {
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM advisor_turns").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count turns: %w", err)
	}
	return count, nil
}

func clearSQL(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, "DELETE FROM advisor_turns"); err != nil {
		return fmt.Errorf("failed to clear turns: %w", err)
	}
	return nil
}

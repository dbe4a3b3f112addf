package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/history"
)

// PostgresStore keeps turns in the advisor_turns table.
type PostgresStore struct {
	db *sql.DB
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DefaultPostgresConfig returns default PostgreSQL configuration
func DefaultPostgresConfig() *PostgresConfig {
	return &PostgresConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "postgres",
		DBName:   "course_advisor",
		SSLMode:  "disable",
	}
}

// DSN renders the lib/pq connection string.
func (c *PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// NewPostgresStore connects and ensures the schema.
func NewPostgresStore(ctx context.Context, config *PostgresConfig) (*PostgresStore, error) {
	if config == nil {
		config = DefaultPostgresConfig()
	}
	db, err := sql.Open("postgres", config.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	store := &PostgresStore{db: db}
	if _, err := db.ExecContext(ctx, turnsSchema(sqlDialectPostgres)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	return store, nil
}

// Record upserts turn.
func (s *PostgresStore) Record(ctx context.Context, turn *history.Turn) error {
	return recordSQL(ctx, s.db, sqlDialectPostgres, turn)
}

// Recent returns up to limit turns, newest first.
func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]*history.Turn, error) {
	return recentSQL(ctx, s.db, sqlDialectPostgres, limit)
}

// Count returns the number of stored turns.
func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	return countSQL(ctx, s.db)
}

// Clear removes all turns.
func (s *PostgresStore) Clear(ctx context.Context) error {
	return clearSQL(ctx, s.db)
}

// Ping checks if the PostgreSQL connection is alive
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the PostgreSQL connection
func (s *PostgresStore) Close(ctx context.Context) error {
	return s.db.Close()
}

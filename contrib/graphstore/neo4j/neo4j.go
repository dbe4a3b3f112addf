package neo4j

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/config"

	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/graphstore"
)

var _ graphstore.Store = (*Store)(nil)

// Store implements graphstore.Store over the Bolt protocol.
type Store struct {
	driver    neo4j.DriverWithContext
	database  string
	txTimeout time.Duration
}

// Config holds Neo4j connection settings.
type Config struct {
	URI         string
	User        string
	Password    string
	Database    string        // Empty selects the server default database
	TxTimeout   time.Duration // Per-transaction timeout enforced by the server
	MaxPoolSize int
	SkipVerify  bool // Skip the connectivity check on startup
}

// DefaultConfig returns local development settings.
func DefaultConfig() *Config {
	return &Config{
		URI:         "neo4j://localhost:7687",
		User:        "neo4j",
		Password:    "password",
		TxTimeout:   30 * time.Second,
		MaxPoolSize: 10,
	}
}

// New connects to Neo4j and verifies connectivity.
func New(ctx context.Context, cfg *Config) (*Store, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.URI == "" {
		return nil, fmt.Errorf("neo4j: URI is required")
	}

	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.User, cfg.Password, ""),
		func(c *config.Config) {
			if cfg.MaxPoolSize > 0 {
				c.MaxConnectionPoolSize = cfg.MaxPoolSize
			}
		})
	if err != nil {
		return nil, fmt.Errorf("neo4j: create driver: %w", err)
	}
	if !cfg.SkipVerify {
		if err := driver.VerifyConnectivity(ctx); err != nil {
			_ = driver.Close(ctx)
			return nil, fmt.Errorf("neo4j: verify connectivity: %w", err)
		}
	}
	return &Store{driver: driver, database: cfg.Database, txTimeout: cfg.TxTimeout}, nil
}

// RunRead runs query in a managed read transaction.
func (s *Store) RunRead(ctx context.Context, query string, params map[string]any) ([]graphstore.Row, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: s.database,
	})
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		rows := make([]graphstore.Row, 0, len(records))
		for _, record := range records {
			row := make(graphstore.Row, len(record.Keys))
			for k, v := range record.AsMap() {
				row[k] = convertValue(v)
			}
			rows = append(rows, row)
		}
		return rows, nil
	}, s.txConfig()...)
	if err != nil {
		return nil, fmt.Errorf("neo4j: read: %w", err)
	}
	return out.([]graphstore.Row), nil
}

// RunWrite runs query in a managed write transaction.
func (s *Store) RunWrite(ctx context.Context, query string, params map[string]any) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: s.database,
	})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		return res.Consume(ctx)
	}, s.txConfig()...)
	if err != nil {
		return fmt.Errorf("neo4j: write: %w", err)
	}
	return nil
}

// Close releases the driver and its connection pool.
func (s *Store) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

func (s *Store) txConfig() []func(*neo4j.TransactionConfig) {
	if s.txTimeout <= 0 {
		return nil
	}
	return []func(*neo4j.TransactionConfig){neo4j.WithTxTimeout(s.txTimeout)}
}

// convertValue flattens driver graph types into plain maps so rows can be
// formatted and JSON encoded: nodes and relationships become their
// properties, paths become {"nodes": [...], "relationships": [...]}.
func convertValue(v any) any {
	switch val := v.(type) {
	case neo4j.Node:
		return convertProps(val.Props)
	case neo4j.Relationship:
		props := convertProps(val.Props)
		props["_type"] = val.Type
		return props
	case neo4j.Path:
		nodes := make([]any, len(val.Nodes))
		for i, n := range val.Nodes {
			nodes[i] = convertValue(n)
		}
		rels := make([]any, len(val.Relationships))
		for i, r := range val.Relationships {
			rels[i] = convertValue(r)
		}
		return map[string]any{"nodes": nodes, "relationships": rels}
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = convertValue(item)
		}
		return out
	case map[string]any:
		return convertProps(val)
	default:
		return v
	}
}

func convertProps(props map[string]any) map[string]any {
	out := make(map[string]any, len(props))
	for k, v := range props {
		out[k] = convertValue(v)
	}
	return out
}

package store

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/history"
)

// exerciseStore runs the shared contract against any backend.
func exerciseStore(t *testing.T, s history.Store) {
	t.Helper()
	ctx := context.Background()
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear error: %v", err)
	}

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		turn := &history.Turn{
			Question:  "question " + strconv.Itoa(i),
			Intent:    "direct_prereqs",
			Verdict:   "pass",
			RowCount:  i,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := s.Record(ctx, turn); err != nil {
			t.Fatalf("Record error: %v", err)
		}
		if turn.ID == "" {
			t.Fatal("Record should assign an ID")
		}
	}
	if err := s.Record(ctx, nil); err == nil {
		t.Fatal("expected error for nil turn")
	}

	n, err := s.Count(ctx)
	if err != nil || n != 3 {
		t.Fatalf("Count = %d, %v", n, err)
	}

	recent, err := s.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent error: %v", err)
	}
	if len(recent) != 2 || recent[0].Question != "question 2" || recent[1].Question != "question 1" {
		t.Fatalf("unexpected recent order: %+v", recent)
	}
	if !recent[0].CreatedAt.Equal(base.Add(2 * time.Minute)) {
		t.Fatalf("created_at round trip: %v", recent[0].CreatedAt)
	}

	// Re-recording an ID updates in place.
	updated := *recent[0]
	updated.Verdict = "fail"
	if err := s.Record(ctx, &updated); err != nil {
		t.Fatalf("Record update error: %v", err)
	}
	all, _ := s.Recent(ctx, 0)
	if len(all) != 3 || all[0].Verdict != "fail" {
		t.Fatalf("upsert failed: %+v", all)
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	if n, _ := s.Count(ctx); n != 0 {
		t.Fatalf("Count after clear = %d", n)
	}
}

func TestInMemoryStore(t *testing.T) {
	exerciseStore(t, NewInMemoryStore(0))
}

func TestInMemoryStoreCapacity(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore(2)
	for i := 0; i < 5; i++ {
		_ = s.Record(ctx, &history.Turn{Question: strconv.Itoa(i)})
	}
	recent, _ := s.Recent(ctx, 10)
	if len(recent) != 2 || recent[0].Question != "4" || recent[1].Question != "3" {
		t.Fatalf("unexpected turns %+v", recent)
	}
	recent[0].Question = "mutated"
	again, _ := s.Recent(ctx, 1)
	if again[0].Question != "4" {
		t.Fatal("Recent must return copies")
	}
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLiteStore(ctx, filepath.Join(t.TempDir(), "nested", "history.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore error: %v", err)
	}
	defer s.Close(ctx)
	exerciseStore(t, s)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set, skipping Redis history tests")
	}
	s := NewRedisStore(&RedisConfig{Addr: addr, Prefix: "course-advisor:test:"})
	defer s.Close(context.Background())
	if err := s.Ping(context.Background()); err != nil {
		t.Skipf("Failed to connect to Redis: %v", err)
	}
	exerciseStore(t, s)
}

func TestPostgresStore(t *testing.T) {
	if os.Getenv("POSTGRES_HOST") == "" {
		t.Skip("POSTGRES_HOST not set, skipping PostgreSQL history tests")
	}
	s, err := NewPostgresStore(context.Background(), PostgresConfigFromEnv())
	if err != nil {
		t.Skipf("Failed to connect to PostgreSQL: %v", err)
	}
	defer s.Close(context.Background())
	exerciseStore(t, s)
}

func TestMongoStore(t *testing.T) {
	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		t.Skip("MONGODB_URI not set, skipping MongoDB history tests")
	}
	s, err := NewMongoStore(context.Background(), &MongoConfig{
		URI:        uri,
		Database:   "course_advisor_test",
		Collection: "turns_test",
	})
	if err != nil {
		t.Skipf("Failed to connect to MongoDB: %v", err)
	}
	defer s.Close(context.Background())
	exerciseStore(t, s)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, Options{Backend: "none"})
	if err != nil || s != nil {
		t.Fatalf("none backend: %v %v", s, err)
	}
	s, err = Open(ctx, Options{Backend: "Memory", MaxTurns: 4})
	if err != nil {
		t.Fatalf("memory backend error: %v", err)
	}
	if _, ok := s.(*InMemoryStore); !ok {
		t.Fatalf("unexpected store %T", s)
	}
	s, err = Open(ctx, Options{Backend: BackendSQLite, SQLitePath: filepath.Join(t.TempDir(), "h.db")})
	if err != nil {
		t.Fatalf("sqlite backend error: %v", err)
	}
	_ = s.Close(ctx)
	if _, err := Open(ctx, Options{Backend: "cassandra"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("POSTGRES_PORT", "6543")
	t.Setenv("REDIS_TTL", "90s")
	t.Setenv("REDIS_DB", "not-a-number")
	if got := PostgresConfigFromEnv().Port; got != 6543 {
		t.Errorf("port = %d", got)
	}
	rc := RedisConfigFromEnv()
	if rc.TTL != 90*time.Second || rc.DB != 0 {
		t.Errorf("unexpected redis config %+v", rc)
	}
	if MongoConfigFromEnv().Collection == "" {
		t.Error("expected default collection")
	}
}

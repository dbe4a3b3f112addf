package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/history"
)

// InMemoryStore keeps turns in a bounded slice.
type InMemoryStore struct {
	turns []*history.Turn
	max   int
	mu    sync.RWMutex
}

// NewInMemoryStore creates a store holding at most max turns; max <= 0
// keeps everything.
func NewInMemoryStore(max int) *InMemoryStore {
	return &InMemoryStore{max: max}
}

// Record stores a copy of turn, replacing one with the same ID, and evicts
// the oldest beyond capacity.
func (s *InMemoryStore) Record(ctx context.Context, turn *history.Turn) error {
	if turn == nil {
		return fmt.Errorf("turn cannot be nil")
	}
	history.Prepare(turn)
	cp := *turn

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.turns {
		if existing.ID == cp.ID {
			s.turns[i] = &cp
			return nil
		}
	}
	s.turns = append(s.turns, &cp)
	if s.max > 0 && len(s.turns) > s.max {
		s.turns = append([]*history.Turn(nil), s.turns[len(s.turns)-s.max:]...)
	}
	return nil
}

// Recent returns up to limit turns, newest first; limit <= 0 returns all.
func (s *InMemoryStore) Recent(ctx context.Context, limit int) ([]*history.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.turns)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]*history.Turn, 0, n)
	for i := len(s.turns) - 1; i >= 0 && len(out) < n; i-- {
		cp := *s.turns[i]
		out = append(out, &cp)
	}
	return out, nil
}

// Count returns the number of stored turns.
func (s *InMemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns), nil
}

// Clear removes all turns.
func (s *InMemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = nil
	return nil
}

// Close is a no-op.
func (s *InMemoryStore) Close(ctx context.Context) error {
	return nil
}

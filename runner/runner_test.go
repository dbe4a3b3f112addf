package runner

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	errorskg "github.com/nehamaheshh/neo4j-agentic-academic-advisor/errors"
	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/history/store"
	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/middleware"
	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/middleware/errorhandler"
	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/middleware/recorder"
	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/middleware/validator"
	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/rag/agentic"
)

// fakePipeline tracks how many runs overlap.
type fakePipeline struct {
	active  int32
	maxSeen int32
	delay   time.Duration
	fail    map[string]error
	calls   int32
}

func (f *fakePipeline) Run(ctx context.Context, question string) (*agentic.Response, error) {
	atomic.AddInt32(&f.calls, 1)
	n := atomic.AddInt32(&f.active, 1)
	defer atomic.AddInt32(&f.active, -1)
	for {
		seen := atomic.LoadInt32(&f.maxSeen)
		if n <= seen || atomic.CompareAndSwapInt32(&f.maxSeen, seen, n) {
			break
		}
	}
	time.Sleep(f.delay)
	if err := f.fail[question]; err != nil {
		return nil, err
	}
	return &agentic.Response{TurnID: "t-" + question, Question: question, Answer: "answer to " + question}, nil
}

func (f *fakePipeline) CheckEligibility(ctx context.Context, target string, completed []string) (*agentic.EligibilityResult, error) {
	return agentic.ComputeEligibility(target, nil, completed), nil
}

func TestAskSerializesQuestions(t *testing.T) {
	p := &fakePipeline{delay: 5 * time.Millisecond}
	r := New(p, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.Ask(context.Background(), "q"); err != nil {
				t.Errorf("Ask error: %v", err)
			}
		}()
	}
	wg.Wait()

	if p.maxSeen != 1 {
		t.Fatalf("expected one question at a time, saw %d concurrently", p.maxSeen)
	}
	if p.calls != 8 {
		t.Fatalf("calls = %d", p.calls)
	}
}

func TestAskHonoursCancellationWhileWaiting(t *testing.T) {
	p := &fakePipeline{delay: 200 * time.Millisecond}
	r := New(p, nil)

	go func() { _, _ = r.Ask(context.Background(), "slow") }()
	time.Sleep(20 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := r.Ask(ctx, "waiting"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestAskRunsChain(t *testing.T) {
	p := &fakePipeline{fail: map[string]error{"broken": &errorskg.StoreExecutionError{Err: errors.New("down")}}}
	history := store.NewInMemoryStore(0)
	chain := middleware.NewChain(
		errorhandler.NewErrorHandler(nil),
		validator.NewInputValidator(validator.QuestionRules(100)...),
		recorder.New(history),
	)
	r := New(p, chain)

	resp, err := r.Ask(context.Background(), "  ok  ")
	if err != nil || resp.Question != "ok" {
		t.Fatalf("resp=%+v err=%v", resp, err)
	}

	mctx := middleware.NewContext(context.Background(), "broken")
	if err := r.Do(mctx); !errors.Is(err, errorskg.ErrStoreExecution) {
		t.Fatalf("expected store error, got %v", err)
	}
	if mctx.Metadata["error_kind"] != errorhandler.KindStore {
		t.Fatalf("error_kind = %v", mctx.Metadata["error_kind"])
	}

	if _, err := r.Ask(context.Background(), "   "); !errors.Is(err, errorskg.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if p.calls != 2 {
		t.Fatalf("pipeline should not run for invalid input, calls = %d", p.calls)
	}

	if n, _ := history.Count(context.Background()); n != 2 {
		t.Fatalf("recorded %d turns, want 2", n)
	}
}

func TestRunBatch(t *testing.T) {
	p := &fakePipeline{fail: map[string]error{"b": errors.New("boom")}}
	r := New(p, nil)

	results := r.RunBatch(context.Background(), []string{"a", "b", "c"})
	if len(results) != 3 || Failed(results) != 1 {
		t.Fatalf("unexpected results %+v", results)
	}
	if results[0].Response.Answer != "answer to a" || results[1].Error == nil || results[2].Response == nil {
		t.Fatalf("unexpected results %+v", results)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results = r.RunBatch(ctx, []string{"x", "y"})
	if Failed(results) != 2 || !errors.Is(results[1].Error, context.Canceled) {
		t.Fatalf("cancelled batch: %+v", results)
	}
}

func TestCheckEligibility(t *testing.T) {
	r := New(&fakePipeline{}, nil)
	res, err := r.CheckEligibility(context.Background(), "MTH101", nil)
	if err != nil || !res.Eligible {
		t.Fatalf("res=%+v err=%v", res, err)
	}
}

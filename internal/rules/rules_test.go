package rules

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"shopql.org/internal/auth"
)

func countingRule(name string, cache CachePolicy, result bool, calls *atomic.Int64) *Leaf {
	return New(name, cache, func(_ context.Context, _ *RequestContext, _ map[string]any) (bool, error) {
		calls.Add(1)
		return result, nil
	})
}

func evalOK(t *testing.T, r Rule, rc *RequestContext, args map[string]any) bool {
	t.Helper()
	ok, err := Evaluate(context.Background(), r, rc, args)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	return ok
}

func TestTerminalRules(t *testing.T) {
	rc := NewRequestContext(nil, "test")
	if !evalOK(t, Allow, rc, nil) {
		t.Fatal("Allow denied")
	}
	if evalOK(t, Deny, rc, nil) {
		t.Fatal("Deny allowed")
	}
}

func TestAndShortCircuits(t *testing.T) {
	var first, second atomic.Int64
	rc := NewRequestContext(nil, "test")
	r := And(
		countingRule("first", NoCache, false, &first),
		countingRule("second", NoCache, true, &second),
	)
	if evalOK(t, r, rc, nil) {
		t.Fatal("And allowed despite failing child")
	}
	if first.Load() != 1 || second.Load() != 0 {
		t.Fatalf("expected short circuit, calls: first=%d second=%d", first.Load(), second.Load())
	}
}

func TestOrShortCircuits(t *testing.T) {
	var first, second atomic.Int64
	rc := NewRequestContext(nil, "test")
	r := Or(
		countingRule("first", NoCache, true, &first),
		countingRule("second", NoCache, true, &second),
	)
	if !evalOK(t, r, rc, nil) {
		t.Fatal("Or denied despite passing child")
	}
	if first.Load() != 1 || second.Load() != 0 {
		t.Fatalf("expected short circuit, calls: first=%d second=%d", first.Load(), second.Load())
	}
}

func TestNotInverts(t *testing.T) {
	rc := NewRequestContext(nil, "test")
	if evalOK(t, Not(Allow), rc, nil) {
		t.Fatal("Not(Allow) allowed")
	}
	if !evalOK(t, Not(Deny), rc, nil) {
		t.Fatal("Not(Deny) denied")
	}
}

func TestPredicateErrorPropagates(t *testing.T) {
	boom := errors.New("predicate exploded")
	failing := New("failing", NoCache, func(_ context.Context, _ *RequestContext, _ map[string]any) (bool, error) {
		return false, boom
	})
	rc := NewRequestContext(nil, "test")

	if _, err := Evaluate(context.Background(), failing, rc, nil); !errors.Is(err, boom) {
		t.Fatalf("expected predicate error, got %v", err)
	}
	// The error also surfaces through combinators.
	if _, err := Evaluate(context.Background(), And(Allow, failing), rc, nil); !errors.Is(err, boom) {
		t.Fatalf("And swallowed predicate error: %v", err)
	}
	if _, err := Evaluate(context.Background(), Not(failing), rc, nil); !errors.Is(err, boom) {
		t.Fatalf("Not swallowed predicate error: %v", err)
	}
}

func TestNoCacheReEvaluates(t *testing.T) {
	var calls atomic.Int64
	r := countingRule("every-time", NoCache, true, &calls)
	rc := NewRequestContext(nil, "test")

	for i := 0; i < 3; i++ {
		evalOK(t, r, rc, nil)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 invocations, got %d", calls.Load())
	}
}

func TestContextualCachesWithinOperation(t *testing.T) {
	var calls atomic.Int64
	r := countingRule("contextual", Contextual, true, &calls)
	rc := NewRequestContext(nil, "test")

	// Multiple field references within one operation: one invocation.
	for i := 0; i < 5; i++ {
		evalOK(t, r, rc, map[string]any{"i": i})
	}
	if calls.Load() != 1 {
		t.Fatalf("expected 1 invocation within operation, got %d", calls.Load())
	}

	// A second operation gets a fresh cache: no cross-operation reuse.
	rc2 := NewRequestContext(nil, "test")
	evalOK(t, r, rc2, nil)
	if calls.Load() != 2 {
		t.Fatalf("expected fresh evaluation in new operation, got %d calls", calls.Load())
	}
}

func TestStrictCachesPerArgumentSet(t *testing.T) {
	var calls atomic.Int64
	r := countingRule("strict", Strict, true, &calls)
	rc := NewRequestContext(nil, "test")

	evalOK(t, r, rc, map[string]any{"id": "a"})
	evalOK(t, r, rc, map[string]any{"id": "a"})
	evalOK(t, r, rc, map[string]any{"id": "b"})

	if calls.Load() != 2 {
		t.Fatalf("expected one invocation per distinct args, got %d", calls.Load())
	}
}

func TestContextualCacheSafeUnderConcurrency(t *testing.T) {
	var calls atomic.Int64
	r := countingRule("concurrent", Contextual, true, &calls)
	rc := NewRequestContext(nil, "test")

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = Evaluate(context.Background(), r, rc, nil)
		}()
	}
	wg.Wait()
	if calls.Load() != 1 {
		t.Fatalf("expected exactly one invocation under concurrency, got %d", calls.Load())
	}
}

func TestDistinctLeavesDoNotShareCache(t *testing.T) {
	var a, b atomic.Int64
	ra := countingRule("same-name", Contextual, true, &a)
	rb := countingRule("same-name", Contextual, false, &b)
	rc := NewRequestContext(nil, "test")

	if !evalOK(t, ra, rc, nil) {
		t.Fatal("ra denied")
	}
	if evalOK(t, rb, rc, nil) {
		t.Fatal("rb allowed")
	}
	if a.Load() != 1 || b.Load() != 1 {
		t.Fatalf("cache keyed by name collided: a=%d b=%d", a.Load(), b.Load())
	}
}

func TestAuthenticatedHelper(t *testing.T) {
	if NewRequestContext(nil, "op").Authenticated() {
		t.Fatal("anonymous context reported authenticated")
	}
	p := &auth.Principal{UserID: "u1"}
	if !NewRequestContext(p, "op").Authenticated() {
		t.Fatal("principal-bearing context reported anonymous")
	}
}

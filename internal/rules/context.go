package rules

import (
	"context"
	"encoding/json"
	"sync"

	"shopql.org/internal/auth"
)

// RequestContext carries the request principal (or its absence) and the
// rule cache for exactly one operation. A fresh context must be created
// per inbound operation and discarded afterwards; reusing one across
// operations would leak authorization decisions between requests.
type RequestContext struct {
	Principal *auth.Principal
	Operation string

	mu    sync.Mutex
	cache map[cacheKey]*cacheEntry
}

// NewRequestContext builds the per-operation context. principal is nil
// for anonymous requests.
func NewRequestContext(principal *auth.Principal, operation string) *RequestContext {
	return &RequestContext{
		Principal: principal,
		Operation: operation,
		cache:     make(map[cacheKey]*cacheEntry),
	}
}

// Authenticated reports whether a principal is attached.
func (rc *RequestContext) Authenticated() bool {
	return rc != nil && rc.Principal != nil
}

type cacheKey struct {
	leaf *Leaf
	args string
}

type cacheEntry struct {
	once sync.Once
	ok   bool
	err  error
}

func (rc *RequestContext) evaluateLeaf(ctx context.Context, leaf *Leaf, args map[string]any) (bool, error) {
	if leaf.cache == NoCache || rc == nil {
		return leaf.fn(ctx, rc, args)
	}

	key := cacheKey{leaf: leaf}
	if leaf.cache == Strict {
		fp, ok := fingerprintArgs(args)
		if !ok {
			// Uncacheable arguments; evaluate directly.
			return leaf.fn(ctx, rc, args)
		}
		key.args = fp
	}

	rc.mu.Lock()
	entry, exists := rc.cache[key]
	if !exists {
		entry = &cacheEntry{}
		rc.cache[key] = entry
	}
	rc.mu.Unlock()

	// Concurrent field resolvers referencing the same rule share one
	// predicate invocation per key.
	entry.once.Do(func() {
		entry.ok, entry.err = leaf.fn(ctx, rc, args)
	})
	return entry.ok, entry.err
}

// fingerprintArgs derives a canonical key from the argument values. Go's
// JSON encoder emits map keys in sorted order, which makes the encoding a
// stable fingerprint.
func fingerprintArgs(args map[string]any) (string, bool) {
	if len(args) == 0 {
		return "", true
	}
	data, err := json.Marshal(args)
	if err != nil {
		return "", false
	}
	return string(data), true
}

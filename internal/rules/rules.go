// Package rules implements the declarative authorization rule tree: a
// closed set of variants (Allow, Deny, predicate leaves and the and/or/not
// combinators) evaluated by one recursive interpreter with per-operation
// caching.
package rules

import (
	"context"
)

// CachePolicy controls how often a leaf predicate runs within one
// operation.
type CachePolicy int

const (
	// NoCache re-invokes the predicate on every reference.
	NoCache CachePolicy = iota
	// Contextual evaluates at most once per request context; every other
	// reference within the same operation reuses the result.
	Contextual
	// Strict evaluates once per distinct argument set within the
	// operation.
	Strict
)

// Predicate is a pure boolean check over the request context and the
// operation arguments. It must not touch storage.
type Predicate func(ctx context.Context, rc *RequestContext, args map[string]any) (bool, error)

// Rule is the closed variant type of the permission tree.
type Rule interface {
	isRule()
}

type allowRule struct{}
type denyRule struct{}

// Allow is the terminal rule that always permits. It never consults the
// context and costs nothing.
var Allow Rule = allowRule{}

// Deny is the terminal rule that always refuses.
var Deny Rule = denyRule{}

func (allowRule) isRule() {}
func (denyRule) isRule()  {}

// Leaf is a named predicate rule with a cache policy.
type Leaf struct {
	name  string
	cache CachePolicy
	fn    Predicate
}

func (*Leaf) isRule() {}

// Name returns the rule's name, used in cache keys and diagnostics.
func (l *Leaf) Name() string { return l.name }

// New builds a named leaf rule.
func New(name string, cache CachePolicy, fn Predicate) *Leaf {
	if fn == nil {
		panic("rules: nil predicate for rule " + name)
	}
	return &Leaf{name: name, cache: cache, fn: fn}
}

type andRule struct{ rules []Rule }
type orRule struct{ rules []Rule }
type notRule struct{ rule Rule }

func (andRule) isRule() {}
func (orRule) isRule()  {}
func (notRule) isRule() {}

// And permits only when every child permits; evaluation is left-to-right
// and stops at the first deny.
func And(rs ...Rule) Rule { return andRule{rules: rs} }

// Or permits when any child permits; evaluation is left-to-right and stops
// at the first allow.
func Or(rs ...Rule) Rule { return orRule{rules: rs} }

// Not inverts the child's boolean outcome. A predicate error is not
// inverted; it stays an error.
func Not(r Rule) Rule { return notRule{rule: r} }

// Evaluate interprets the rule tree against the request context. A false
// result with a nil error is a plain deny; a non-nil error is a
// denial-with-error raised by a predicate and must surface to the caller
// rather than being folded into the fallback message.
func Evaluate(ctx context.Context, r Rule, rc *RequestContext, args map[string]any) (bool, error) {
	switch rule := r.(type) {
	case allowRule:
		return true, nil
	case denyRule:
		return false, nil
	case *Leaf:
		return rc.evaluateLeaf(ctx, rule, args)
	case andRule:
		for _, child := range rule.rules {
			ok, err := Evaluate(ctx, child, rc, args)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil
	case orRule:
		var firstErr error
		for _, child := range rule.rules {
			ok, err := Evaluate(ctx, child, rc, args)
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			if ok {
				return true, nil
			}
		}
		return false, firstErr
	case notRule:
		ok, err := Evaluate(ctx, rule.rule, rc, args)
		if err != nil {
			return false, err
		}
		return !ok, nil
	default:
		return false, nil
	}
}

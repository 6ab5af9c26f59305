// Package permissions binds the GraphQL schema positions to authorization
// rules. The map is immutable after construction so the whole security
// posture can be audited by reading it once; anything not listed falls
// through to the fallback rule, which denies.
package permissions

import (
	"context"

	"shopql.org/internal/gqlerr"
	"shopql.org/internal/obs"
	"shopql.org/internal/rules"
)

// TypePermissions configures one schema type. All, when set, applies to
// every field of the type; Fields overrides per field.
type TypePermissions struct {
	All    rules.Rule
	Fields map[string]rules.Rule
}

// Map is the static permission tree.
type Map struct {
	Types               map[string]TypePermissions
	FallbackRule        rules.Rule
	FallbackError       string
	AllowExternalErrors bool
}

// Resolve returns the rule bound to (typeName, field): the field entry if
// present, the type-wide rule otherwise, the fallback rule when the
// position is not listed at all.
func (m *Map) Resolve(typeName, field string) rules.Rule {
	tp, ok := m.Types[typeName]
	if !ok {
		return m.fallback()
	}
	if r, ok := tp.Fields[field]; ok {
		return r
	}
	if tp.All != nil {
		return tp.All
	}
	return m.fallback()
}

func (m *Map) fallback() rules.Rule {
	if m.FallbackRule != nil {
		return m.FallbackRule
	}
	return rules.Deny
}

// Check resolves and evaluates the rule for (typeName, field). A nil
// return means the access is permitted. Denials are classified: with no
// principal the caller is unauthenticated (401), with a principal they
// are forbidden (403). A predicate error surfaces as-is when it is an
// external error and the map allows those; otherwise it is wrapped.
func (m *Map) Check(ctx context.Context, rc *rules.RequestContext, typeName, field string, args map[string]any) error {
	ok, err := rules.Evaluate(ctx, m.Resolve(typeName, field), rc, args)
	if err != nil {
		if ge, isTagged := gqlerr.As(err); isTagged && m.AllowExternalErrors {
			return ge
		}
		return gqlerr.Internal(err)
	}
	if ok {
		return nil
	}

	obs.ObserveDenial(typeName, field)
	if !rc.Authenticated() {
		return gqlerr.Authentication(m.FallbackError)
	}
	return gqlerr.Forbidden(m.FallbackError)
}

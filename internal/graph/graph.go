// Package graph implements the operation boundary of the API: a fixed set
// of named query and mutation operations dispatched by an executor that
// authenticates the caller, consults the permission map before any data
// access, runs the resolver, and applies field-level permissions while
// rendering the result.
package graph

import (
	"context"
	"time"

	"shopql.org/internal/auth"
	"shopql.org/internal/gqlerr"
	"shopql.org/internal/obs"
	"shopql.org/internal/permissions"
	"shopql.org/internal/rules"
	"shopql.org/internal/store"
)

// OpKind names the schema root a resolver hangs off.
type OpKind string

const (
	KindQuery    OpKind = "Query"
	KindMutation OpKind = "Mutation"
)

// Transport is the per-request surface the executor needs from the HTTP
// layer: the bearer token and the refresh-token cookie jar.
type Transport interface {
	BearerToken() (string, bool)
	RefreshToken() (string, bool)
	SetRefreshCookie(token string, maxAge time.Duration)
	ClearRefreshCookie()
}

// Resolver executes one operation. The returned value is either nil, a
// bool, an *object or a []*object.
type Resolver func(ctx context.Context, rc *rules.RequestContext, t Transport, args map[string]any) (any, error)

type operation struct {
	kind    OpKind
	resolve Resolver
}

// Executor dispatches operations and enforces the permission map.
type Executor struct {
	perms    *permissions.Map
	sessions *auth.Service
	stores   store.Stores
	ops      map[string]operation
}

// NewExecutor wires the resolver registry.
func NewExecutor(perms *permissions.Map, sessions *auth.Service, stores store.Stores) *Executor {
	e := &Executor{perms: perms, sessions: sessions, stores: stores}
	e.registerOperations()
	return e
}

// Response is the wire result of one operation.
type Response struct {
	Data   map[string]any  `json:"data"`
	Errors []*gqlerr.Error `json:"errors,omitempty"`
}

// Execute runs the named operation. The permission check happens before
// the resolver touches any repository; a denial therefore never leaks
// whether the underlying data exists.
func (e *Executor) Execute(ctx context.Context, t Transport, name string, args map[string]any) Response {
	op, ok := e.ops[name]
	if !ok {
		obs.ObserveOperation(name, "error")
		return errorResponse(name, gqlerr.Validation("unknown operation: "+name))
	}
	if args == nil {
		args = map[string]any{}
	}

	rc := e.authenticate(ctx, t, name)
	if rc.Authenticated() {
		ctx = auth.ContextWithPrincipal(ctx, *rc.Principal)
	}

	if err := e.perms.Check(ctx, rc, string(op.kind), name, args); err != nil {
		obs.ObserveOperation(name, "denied")
		return errorResponse(name, e.normalize(err))
	}

	result, err := op.resolve(ctx, rc, t, args)
	if err != nil {
		obs.ObserveOperation(name, "error")
		return errorResponse(name, e.normalize(err))
	}

	data, fieldErrs := e.render(ctx, rc, []string{name}, result)
	obs.ObserveOperation(name, "ok")
	return Response{Data: map[string]any{name: data}, Errors: fieldErrs}
}

// authenticate derives the request principal from the bearer token. An
// absent or invalid token degrades to an anonymous context; the
// permission map decides what anonymous callers may do.
func (e *Executor) authenticate(_ context.Context, t Transport, operationName string) *rules.RequestContext {
	token, ok := t.BearerToken()
	if !ok {
		return rules.NewRequestContext(nil, operationName)
	}
	principal, err := e.sessions.Authenticate(token)
	if err != nil {
		obs.ObserveAuthFailure("bearer_token")
		return rules.NewRequestContext(nil, operationName)
	}
	return rules.NewRequestContext(&principal, operationName)
}

// normalize maps any resolver or rule error onto the wire taxonomy.
// Tagged errors pass through when the map allows external errors;
// everything else collapses to the generic fallback so storage internals
// never leak.
func (e *Executor) normalize(err error) *gqlerr.Error {
	if ge, ok := gqlerr.As(err); ok {
		if e.perms.AllowExternalErrors || ge.Code == gqlerr.CodeUnauthenticated || ge.Code == gqlerr.CodeForbidden {
			return ge
		}
		return gqlerr.Forbidden(e.perms.FallbackError)
	}
	return gqlerr.Internal(err)
}

func errorResponse(name string, err *gqlerr.Error) Response {
	return Response{
		Data:   map[string]any{name: nil},
		Errors: []*gqlerr.Error{err.WithPath(name)},
	}
}

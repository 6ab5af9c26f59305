package auth

import "context"

type principalContextKey struct{}

// ContextWithPrincipal records the customer identity resolved from a bearer
// token. The executor attaches it before dispatching an operation so that
// audit logging and resolvers see the same principal the rule engine ruled
// on.
func ContextWithPrincipal(ctx context.Context, principal Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, principal)
}

// PrincipalFromContext reports the principal attached by
// ContextWithPrincipal. The second return is false for anonymous requests.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	principal, ok := ctx.Value(principalContextKey{}).(Principal)
	return principal, ok
}

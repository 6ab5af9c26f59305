package permissions

import (
	"context"

	"shopql.org/internal/rules"
)

// IsAuthenticated permits any request carrying a verified principal.
// Contextual cache: one evaluation per operation regardless of how many
// fields reference it.
var IsAuthenticated = rules.New("isAuthenticated", rules.Contextual,
	func(_ context.Context, rc *rules.RequestContext, _ map[string]any) (bool, error) {
		return rc.Authenticated(), nil
	})

// IsAdmin permits principals carrying the admin role.
var IsAdmin = rules.New("isAdmin", rules.Contextual,
	func(_ context.Context, rc *rules.RequestContext, _ map[string]any) (bool, error) {
		return rc.Authenticated() && rc.Principal.IsAdmin(), nil
	})

// IsOwner permits a principal operating on its own record: the id
// argument must equal the principal's subject. Strict cache: re-evaluated
// per distinct argument set.
var IsOwner = rules.New("isOwner", rules.Strict,
	func(_ context.Context, rc *rules.RequestContext, args map[string]any) (bool, error) {
		if !rc.Authenticated() {
			return false, nil
		}
		id, _ := args["id"].(string)
		return id != "" && id == rc.Principal.UserID, nil
	})

// FallbackError is the message reported for any denial that reaches the
// fallback.
const FallbackError = "Not authorized to access this resource"

// Default returns the permission tree for the schema. Catalog reads and
// the auth mutations are public; everything else requires authentication;
// Order.totalPrice is admin-only. Unlisted positions deny.
func Default() *Map {
	return &Map{
		Types: map[string]TypePermissions{
			"Query": {Fields: map[string]rules.Rule{
				"products":   rules.Allow,
				"product":    rules.Allow,
				"categories": rules.Allow,
				"category":   rules.Allow,
				"orders":     rules.Allow,
				"me":         rules.Allow,

				"users":     IsAuthenticated,
				"user":      IsAuthenticated,
				"order":     IsAuthenticated,
				"customers": IsAuthenticated,
				"customer":  IsAuthenticated,
			}},
			"Mutation": {Fields: map[string]rules.Rule{
				"register": rules.Allow,
				"login":    rules.Allow,
				"refresh":  rules.Allow,
				"logout":   rules.Allow,

				"createUser": IsAuthenticated,
				"updateUser": IsAuthenticated,
				"deleteUser": IsAuthenticated,

				"createProduct": IsAuthenticated,
				"updateProduct": IsAuthenticated,
				"deleteProduct": IsAuthenticated,

				"createOrder":       IsAuthenticated,
				"updateOrderStatus": IsAuthenticated,
				"deleteOrder":       IsAuthenticated,

				"createCategory": IsAuthenticated,
				"updateCategory": IsAuthenticated,
				"deleteCategory": IsAuthenticated,

				"createCustomer": IsAuthenticated,
				"updateCustomer": IsAuthenticated,
				"deleteCustomer": IsAuthenticated,
			}},

			"AuthPayload":    {All: rules.Allow},
			"RefreshPayload": {All: rules.Allow},
			"User":           {All: rules.Allow},
			"Product":        {All: rules.Allow},
			"Category":       {All: rules.Allow},
			"Customer":       {All: rules.Allow},

			"Order": {Fields: map[string]rules.Rule{
				"id":         rules.Allow,
				"user":       rules.Allow,
				"product":    rules.Allow,
				"quantity":   rules.Allow,
				"status":     rules.Allow,
				"createdAt":  rules.Allow,
				"totalPrice": IsAdmin,
			}},
		},
		FallbackRule:        rules.Deny,
		FallbackError:       FallbackError,
		AllowExternalErrors: true,
	}
}

package graph

import (
	"context"
	"errors"
	"testing"
	"time"

	"shopql.org/internal/auth"
	"shopql.org/internal/gqlerr"
	"shopql.org/internal/ids"
	"shopql.org/internal/permissions"
	"shopql.org/internal/store"
	"shopql.org/internal/store/memstore"
)

type fakeTransport struct {
	bearer      string
	refresh     string
	cookieSets  int
	cookieClear int
}

func (t *fakeTransport) BearerToken() (string, bool) {
	return t.bearer, t.bearer != ""
}

func (t *fakeTransport) RefreshToken() (string, bool) {
	return t.refresh, t.refresh != ""
}

func (t *fakeTransport) SetRefreshCookie(token string, _ time.Duration) {
	t.refresh = token
	t.cookieSets++
}

func (t *fakeTransport) ClearRefreshCookie() {
	t.refresh = ""
	t.cookieClear++
}

type testEnv struct {
	exec     *Executor
	sessions *auth.Service
	stores   store.Stores
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	tokens, err := auth.NewTokenService("test-access-secret", "test-refresh-secret")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	stores := memstore.New().Stores()
	sessions, err := auth.NewService(tokens, stores.Customers)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return &testEnv{
		exec:     NewExecutor(permissions.Default(), sessions, stores),
		sessions: sessions,
		stores:   stores,
	}
}

// bearerFor seeds a customer with the given role and mints an access token
// for it.
func (env *testEnv) bearerFor(t *testing.T, email, role string) string {
	t.Helper()
	c, err := env.stores.Customers.Create(context.Background(), store.Customer{
		Name: "Test", Email: email, Role: role,
	})
	if err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	token, _, err := env.sessions.Tokens().IssueAccess(auth.Principal{
		UserID: c.ID, Email: c.Email, Role: c.Role,
	})
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	return token
}

func singleError(t *testing.T, resp Response) *gqlerr.Error {
	t.Helper()
	if len(resp.Errors) != 1 {
		t.Fatalf("expected exactly one error, got %d: %+v", len(resp.Errors), resp.Errors)
	}
	return resp.Errors[0]
}

func TestExecuteUnknownOperation(t *testing.T) {
	env := newTestEnv(t)

	resp := env.exec.Execute(context.Background(), &fakeTransport{}, "dropAllTables", nil)
	ge := singleError(t, resp)
	if ge.Code != gqlerr.CodeBadUserInput {
		t.Fatalf("code = %s, want %s", ge.Code, gqlerr.CodeBadUserInput)
	}
}

func TestPublicQueriesAllowAnonymous(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	if _, err := env.stores.Products.Create(ctx, store.Product{Name: "Widget", Price: 9.5, Stock: 3}); err != nil {
		t.Fatalf("seed product: %v", err)
	}

	for _, op := range []string{"products", "categories", "orders", "me"} {
		resp := env.exec.Execute(ctx, &fakeTransport{}, op, nil)
		if len(resp.Errors) != 0 {
			t.Errorf("%s: unexpected errors: %+v", op, resp.Errors)
		}
	}

	resp := env.exec.Execute(ctx, &fakeTransport{}, "products", nil)
	list, ok := resp.Data["products"].([]any)
	if !ok || len(list) != 1 {
		t.Fatalf("products data = %#v, want one-element list", resp.Data["products"])
	}
}

func TestProtectedQueryAnonymousDenied(t *testing.T) {
	env := newTestEnv(t)

	resp := env.exec.Execute(context.Background(), &fakeTransport{}, "users", nil)
	ge := singleError(t, resp)
	if ge.Code != gqlerr.CodeUnauthenticated {
		t.Fatalf("code = %s, want %s", ge.Code, gqlerr.CodeUnauthenticated)
	}
	if ge.StatusCode != 401 {
		t.Fatalf("status = %d, want 401", ge.StatusCode)
	}
	if ge.Message != permissions.FallbackError {
		t.Fatalf("message = %q, want %q", ge.Message, permissions.FallbackError)
	}
	if resp.Data["users"] != nil {
		t.Fatalf("data leaked through a denial: %#v", resp.Data["users"])
	}
}

func TestProtectedMutationAnonymousDenied(t *testing.T) {
	env := newTestEnv(t)

	resp := env.exec.Execute(context.Background(), &fakeTransport{}, "deleteProduct", map[string]any{"id": ids.New()})
	ge := singleError(t, resp)
	if ge.Code != gqlerr.CodeUnauthenticated {
		t.Fatalf("code = %s, want %s", ge.Code, gqlerr.CodeUnauthenticated)
	}
}

func TestInvalidBearerDegradesToAnonymous(t *testing.T) {
	env := newTestEnv(t)
	garbage := &fakeTransport{bearer: "not.a.jwt"}

	resp := env.exec.Execute(context.Background(), garbage, "products", nil)
	if len(resp.Errors) != 0 {
		t.Fatalf("public op with bad bearer: %+v", resp.Errors)
	}

	resp = env.exec.Execute(context.Background(), garbage, "users", nil)
	if ge := singleError(t, resp); ge.Code != gqlerr.CodeUnauthenticated {
		t.Fatalf("code = %s, want %s", ge.Code, gqlerr.CodeUnauthenticated)
	}
}

func TestOrderTotalPriceAdminOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	u, err := env.stores.Users.Create(ctx, store.User{Name: "Buyer", Email: "buyer@example.com"})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	p, err := env.stores.Products.Create(ctx, store.Product{Name: "Widget", Price: 12.5, Stock: 4})
	if err != nil {
		t.Fatalf("seed product: %v", err)
	}
	o, err := env.stores.Orders.Create(ctx, store.Order{
		UserID: u.ID, ProductID: p.ID, Quantity: 2, TotalPrice: 25.0,
	})
	if err != nil {
		t.Fatalf("seed order: %v", err)
	}
	args := map[string]any{"id": o.ID}

	// A regular authenticated customer sees the order but not totalPrice.
	member := &fakeTransport{bearer: env.bearerFor(t, "member@example.com", auth.RoleDefault)}
	resp := env.exec.Execute(ctx, member, "order", args)
	ge := singleError(t, resp)
	if ge.Code != gqlerr.CodeForbidden || ge.StatusCode != 403 {
		t.Fatalf("denial = %s/%d, want FORBIDDEN/403", ge.Code, ge.StatusCode)
	}
	if want := []string{"order", "totalPrice"}; len(ge.Path) != 2 || ge.Path[0] != want[0] || ge.Path[1] != want[1] {
		t.Fatalf("path = %v, want %v", ge.Path, want)
	}
	order, ok := resp.Data["order"].(map[string]any)
	if !ok {
		t.Fatalf("order data = %#v", resp.Data["order"])
	}
	if order["totalPrice"] != nil {
		t.Fatalf("totalPrice = %#v, want nil", order["totalPrice"])
	}
	if order["status"] != store.OrderStatusPending || order["quantity"] != 2 {
		t.Fatalf("sibling fields affected by the denial: %#v", order)
	}

	// An admin sees the full order with no errors.
	admin := &fakeTransport{bearer: env.bearerFor(t, "admin@example.com", auth.RoleAdmin)}
	resp = env.exec.Execute(ctx, admin, "order", args)
	if len(resp.Errors) != 0 {
		t.Fatalf("admin errors: %+v", resp.Errors)
	}
	order = resp.Data["order"].(map[string]any)
	if order["totalPrice"] != 25.0 {
		t.Fatalf("totalPrice = %#v, want 25.0", order["totalPrice"])
	}
}

func TestAuthLifecycleThroughExecutor(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tr := &fakeTransport{}

	resp := env.exec.Execute(ctx, tr, "register", map[string]any{
		"name": "Alice", "email": "alice@example.com", "password": "s3cret!",
	})
	if len(resp.Errors) != 0 {
		t.Fatalf("register: %+v", resp.Errors)
	}

	resp = env.exec.Execute(ctx, tr, "login", map[string]any{
		"email": "alice@example.com", "password": "s3cret!",
	})
	if len(resp.Errors) != 0 {
		t.Fatalf("login: %+v", resp.Errors)
	}
	if tr.cookieSets != 1 || tr.refresh == "" {
		t.Fatalf("login did not set the refresh cookie: sets=%d", tr.cookieSets)
	}
	payload := resp.Data["login"].(map[string]any)
	if payload["accessToken"] == "" || payload["accessToken"] == nil {
		t.Fatalf("login payload = %#v", payload)
	}
	if _, ok := payload["user"].(map[string]any); !ok {
		t.Fatalf("login payload user = %#v", payload["user"])
	}

	// Refresh rotates the cookie to a new token and the old one dies.
	old := tr.refresh
	resp = env.exec.Execute(ctx, tr, "refresh", nil)
	if len(resp.Errors) != 0 {
		t.Fatalf("refresh: %+v", resp.Errors)
	}
	if tr.refresh == old {
		t.Fatal("refresh did not rotate the cookie token")
	}
	if resp.Data["refresh"].(map[string]any)["accessToken"] == "" {
		t.Fatal("refresh returned no access token")
	}

	stale := &fakeTransport{refresh: old}
	resp = env.exec.Execute(ctx, stale, "refresh", nil)
	if ge := singleError(t, resp); ge.Code != gqlerr.CodeUnauthenticated {
		t.Fatalf("stale refresh code = %s, want %s", ge.Code, gqlerr.CodeUnauthenticated)
	}

	// Logout clears the cookie and revokes the session.
	current := tr.refresh
	resp = env.exec.Execute(ctx, tr, "logout", nil)
	if len(resp.Errors) != 0 {
		t.Fatalf("logout: %+v", resp.Errors)
	}
	if resp.Data["logout"] != true {
		t.Fatalf("logout = %#v, want true", resp.Data["logout"])
	}
	if tr.cookieClear != 1 || tr.refresh != "" {
		t.Fatalf("logout did not clear the cookie: clears=%d", tr.cookieClear)
	}

	revoked := &fakeTransport{refresh: current}
	resp = env.exec.Execute(ctx, revoked, "refresh", nil)
	if ge := singleError(t, resp); ge.Code != gqlerr.CodeUnauthenticated {
		t.Fatalf("revoked refresh code = %s, want %s", ge.Code, gqlerr.CodeUnauthenticated)
	}
}

func TestLogoutWithoutSessionSucceeds(t *testing.T) {
	env := newTestEnv(t)
	tr := &fakeTransport{}

	resp := env.exec.Execute(context.Background(), tr, "logout", nil)
	if len(resp.Errors) != 0 || resp.Data["logout"] != true {
		t.Fatalf("logout = %#v / %+v", resp.Data["logout"], resp.Errors)
	}
	if tr.cookieClear != 1 {
		t.Fatal("logout must clear the cookie even without a session")
	}
}

func TestMeReflectsPrincipal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp := env.exec.Execute(ctx, &fakeTransport{}, "me", nil)
	if len(resp.Errors) != 0 || resp.Data["me"] != nil {
		t.Fatalf("anonymous me = %#v / %+v", resp.Data["me"], resp.Errors)
	}

	tr := &fakeTransport{bearer: env.bearerFor(t, "me@example.com", auth.RoleDefault)}
	resp = env.exec.Execute(ctx, tr, "me", nil)
	if len(resp.Errors) != 0 {
		t.Fatalf("me: %+v", resp.Errors)
	}
	me, ok := resp.Data["me"].(map[string]any)
	if !ok || me["name"] != "Test" {
		t.Fatalf("me = %#v", resp.Data["me"])
	}
}

func TestLookupErrorTaxonomy(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tr := &fakeTransport{bearer: env.bearerFor(t, "reader@example.com", auth.RoleDefault)}

	tests := []struct {
		name string
		op   string
		args map[string]any
		code gqlerr.Code
	}{
		{"malformed id", "user", map[string]any{"id": "not-a-ulid"}, gqlerr.CodeBadUserInput},
		{"unknown id", "user", map[string]any{"id": ids.New()}, gqlerr.CodeNotFound},
		{"missing argument", "user", nil, gqlerr.CodeBadUserInput},
		{"unknown product", "product", map[string]any{"id": ids.New()}, gqlerr.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.exec.Execute(ctx, tr, tt.op, tt.args)
			if ge := singleError(t, resp); ge.Code != tt.code {
				t.Fatalf("code = %s, want %s", ge.Code, tt.code)
			}
		})
	}
}

func TestCreateOrderComputesTotal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := &fakeTransport{bearer: env.bearerFor(t, "admin@example.com", auth.RoleAdmin)}

	u, err := env.stores.Users.Create(ctx, store.User{Name: "Buyer", Email: "b@example.com"})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	p, err := env.stores.Products.Create(ctx, store.Product{Name: "Widget", Price: 7.25, Stock: 10})
	if err != nil {
		t.Fatalf("seed product: %v", err)
	}

	resp := env.exec.Execute(ctx, admin, "createOrder", map[string]any{
		"userId": u.ID, "productId": p.ID, "quantity": float64(3),
	})
	if len(resp.Errors) != 0 {
		t.Fatalf("createOrder: %+v", resp.Errors)
	}
	order := resp.Data["createOrder"].(map[string]any)
	if order["totalPrice"] != 7.25*3 {
		t.Fatalf("totalPrice = %#v, want %v", order["totalPrice"], 7.25*3)
	}
	if order["status"] != store.OrderStatusPending {
		t.Fatalf("status = %#v, want pending", order["status"])
	}
	user := order["user"].(map[string]any)
	if user["id"] != u.ID {
		t.Fatalf("order user = %#v", order["user"])
	}

	resp = env.exec.Execute(ctx, admin, "createOrder", map[string]any{
		"userId": u.ID, "productId": p.ID, "quantity": float64(0),
	})
	if ge := singleError(t, resp); ge.Code != gqlerr.CodeBadUserInput {
		t.Fatalf("zero quantity code = %s, want %s", ge.Code, gqlerr.CodeBadUserInput)
	}
}

func TestUpdateOrderStatusValidatesEnum(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tr := &fakeTransport{bearer: env.bearerFor(t, "ops@example.com", auth.RoleDefault)}

	o, err := env.stores.Orders.Create(ctx, store.Order{Quantity: 1})
	if err != nil {
		t.Fatalf("seed order: %v", err)
	}

	resp := env.exec.Execute(ctx, tr, "updateOrderStatus", map[string]any{"id": o.ID, "status": "shipped"})
	if ge := singleError(t, resp); ge.Code != gqlerr.CodeBadUserInput {
		t.Fatalf("code = %s, want %s", ge.Code, gqlerr.CodeBadUserInput)
	}

	resp = env.exec.Execute(ctx, tr, "updateOrderStatus", map[string]any{"id": o.ID, "status": store.OrderStatusCompleted})
	if len(resp.Errors) != 0 {
		t.Fatalf("updateOrderStatus: %+v", resp.Errors)
	}
	if got := resp.Data["updateOrderStatus"].(map[string]any)["status"]; got != store.OrderStatusCompleted {
		t.Fatalf("status = %#v, want completed", got)
	}
}

func TestCrudRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tr := &fakeTransport{bearer: env.bearerFor(t, "crud@example.com", auth.RoleDefault)}

	resp := env.exec.Execute(ctx, tr, "createCategory", map[string]any{"name": "Tools", "description": "Hand tools"})
	if len(resp.Errors) != 0 {
		t.Fatalf("createCategory: %+v", resp.Errors)
	}
	id := resp.Data["createCategory"].(map[string]any)["id"].(string)

	resp = env.exec.Execute(ctx, tr, "updateCategory", map[string]any{"id": id, "name": "Power Tools"})
	if len(resp.Errors) != 0 {
		t.Fatalf("updateCategory: %+v", resp.Errors)
	}
	if got := resp.Data["updateCategory"].(map[string]any)["name"]; got != "Power Tools" {
		t.Fatalf("name = %#v", got)
	}

	// Category reads are public.
	resp = env.exec.Execute(ctx, &fakeTransport{}, "category", map[string]any{"id": id})
	if len(resp.Errors) != 0 {
		t.Fatalf("category: %+v", resp.Errors)
	}

	resp = env.exec.Execute(ctx, tr, "deleteCategory", map[string]any{"id": id})
	if len(resp.Errors) != 0 || resp.Data["deleteCategory"] != true {
		t.Fatalf("deleteCategory = %#v / %+v", resp.Data["deleteCategory"], resp.Errors)
	}

	resp = env.exec.Execute(ctx, tr, "deleteCategory", map[string]any{"id": id})
	if len(resp.Errors) != 0 || resp.Data["deleteCategory"] != false {
		t.Fatalf("repeat delete = %#v / %+v", resp.Data["deleteCategory"], resp.Errors)
	}
}

// Customers created through the CRUD mutation carry no email, so two of them
// must not collide on the blank value.
func TestCreateCustomersWithoutEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tr := &fakeTransport{bearer: env.bearerFor(t, "staff@example.com", auth.RoleDefault)}

	for i, name := range []string{"Ana", "Bek"} {
		resp := env.exec.Execute(ctx, tr, "createCustomer", map[string]any{
			"name": name, "age": float64(30 + i), "phone": "+7700000000" + name,
		})
		if len(resp.Errors) != 0 {
			t.Fatalf("createCustomer %q: %+v", name, resp.Errors)
		}
		got := resp.Data["createCustomer"].(map[string]any)
		if got["name"] != name {
			t.Fatalf("name = %#v, want %q", got["name"], name)
		}
	}

	customers, err := env.stores.Customers.FindMany(ctx)
	if err != nil {
		t.Fatalf("FindMany: %v", err)
	}
	// Two CRUD-created customers plus the seeded staff account.
	if len(customers) != 3 {
		t.Fatalf("customer count = %d, want 3", len(customers))
	}
}

func TestStoreErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		code gqlerr.Code
	}{
		{store.ErrMalformedID, gqlerr.CodeBadUserInput},
		{store.ErrNotFound, gqlerr.CodeNotFound},
		{store.ErrDuplicate, gqlerr.CodeBadUserInput},
		{errors.New("connection reset"), gqlerr.CodeDatabase},
	}
	for _, tc := range tests {
		var ge *gqlerr.Error
		if !errors.As(storeError("customer", tc.err), &ge) {
			t.Fatalf("storeError(%v) is not a *gqlerr.Error", tc.err)
		}
		if ge.Code != tc.code {
			t.Errorf("storeError(%v) code = %s, want %s", tc.err, ge.Code, tc.code)
		}
	}
}

package graph

import (
	"context"
	"errors"
	"fmt"

	"shopql.org/internal/auth"
	"shopql.org/internal/gqlerr"
	"shopql.org/internal/rules"
	"shopql.org/internal/store"
)

func (e *Executor) registerOperations() {
	e.ops = map[string]operation{
		// Queries.
		"me":         {KindQuery, e.resolveMe},
		"users":      {KindQuery, e.resolveUsers},
		"user":       {KindQuery, e.resolveUser},
		"products":   {KindQuery, e.resolveProducts},
		"product":    {KindQuery, e.resolveProduct},
		"orders":     {KindQuery, e.resolveOrders},
		"order":      {KindQuery, e.resolveOrder},
		"categories": {KindQuery, e.resolveCategories},
		"category":   {KindQuery, e.resolveCategory},
		"customers":  {KindQuery, e.resolveCustomers},
		"customer":   {KindQuery, e.resolveCustomer},

		// Auth mutations.
		"register": {KindMutation, e.resolveRegister},
		"login":    {KindMutation, e.resolveLogin},
		"refresh":  {KindMutation, e.resolveRefresh},
		"logout":   {KindMutation, e.resolveLogout},

		// CRUD mutations.
		"createUser": {KindMutation, e.resolveCreateUser},
		"updateUser": {KindMutation, e.resolveUpdateUser},
		"deleteUser": {KindMutation, e.resolveDeleteUser},

		"createProduct": {KindMutation, e.resolveCreateProduct},
		"updateProduct": {KindMutation, e.resolveUpdateProduct},
		"deleteProduct": {KindMutation, e.resolveDeleteProduct},

		"createOrder":       {KindMutation, e.resolveCreateOrder},
		"updateOrderStatus": {KindMutation, e.resolveUpdateOrderStatus},
		"deleteOrder":       {KindMutation, e.resolveDeleteOrder},

		"createCategory": {KindMutation, e.resolveCreateCategory},
		"updateCategory": {KindMutation, e.resolveUpdateCategory},
		"deleteCategory": {KindMutation, e.resolveDeleteCategory},

		"createCustomer": {KindMutation, e.resolveCreateCustomer},
		"updateCustomer": {KindMutation, e.resolveUpdateCustomer},
		"deleteCustomer": {KindMutation, e.resolveDeleteCustomer},
	}
}

// storeError maps repository failures onto the wire taxonomy: a malformed
// identifier is the client's fault, a missing record is not-found, and
// anything else is a wrapped storage fault that never leaks internals.
func storeError(entity string, err error) error {
	switch {
	case errors.Is(err, store.ErrMalformedID):
		return gqlerr.Validation(entity + " id is malformed")
	case errors.Is(err, store.ErrNotFound):
		return gqlerr.NotFound(entity + " not found")
	case errors.Is(err, store.ErrDuplicate):
		return gqlerr.Validation(entity + " already exists")
	default:
		return gqlerr.Database("failed to query "+entity, err)
	}
}

// --- Queries ---

func (e *Executor) resolveMe(ctx context.Context, rc *rules.RequestContext, _ Transport, _ map[string]any) (any, error) {
	if !rc.Authenticated() {
		return nil, nil
	}
	c, err := e.stores.Customers.FindByID(ctx, rc.Principal.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrMalformedID) {
			return nil, nil
		}
		return nil, storeError("customer", err)
	}
	return customerObject(c), nil
}

func (e *Executor) resolveUsers(ctx context.Context, _ *rules.RequestContext, _ Transport, _ map[string]any) (any, error) {
	users, err := e.stores.Users.FindMany(ctx)
	if err != nil {
		return nil, storeError("users", err)
	}
	out := make([]*object, 0, len(users))
	for _, u := range users {
		out = append(out, userObject(u))
	}
	return out, nil
}

func (e *Executor) resolveUser(ctx context.Context, _ *rules.RequestContext, _ Transport, args map[string]any) (any, error) {
	id, err := stringArg(args, "id")
	if err != nil {
		return nil, err
	}
	u, err := e.stores.Users.FindByID(ctx, id)
	if err != nil {
		return nil, storeError("user", err)
	}
	return userObject(u), nil
}

func (e *Executor) resolveProducts(ctx context.Context, _ *rules.RequestContext, _ Transport, _ map[string]any) (any, error) {
	products, err := e.stores.Products.FindMany(ctx)
	if err != nil {
		return nil, storeError("products", err)
	}
	out := make([]*object, 0, len(products))
	for _, p := range products {
		out = append(out, productObject(p))
	}
	return out, nil
}

func (e *Executor) resolveProduct(ctx context.Context, _ *rules.RequestContext, _ Transport, args map[string]any) (any, error) {
	id, err := stringArg(args, "id")
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, gqlerr.Validation("product id must not be empty")
	}
	p, err := e.stores.Products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, gqlerr.NotFound(fmt.Sprintf("product not found: %s", id))
		}
		return nil, storeError("product", err)
	}
	return productObject(p), nil
}

func (e *Executor) resolveOrders(ctx context.Context, _ *rules.RequestContext, _ Transport, _ map[string]any) (any, error) {
	orders, err := e.stores.Orders.FindMany(ctx)
	if err != nil {
		return nil, storeError("orders", err)
	}
	out := make([]*object, 0, len(orders))
	for _, o := range orders {
		obj, err := e.orderObject(ctx, o)
		if err != nil {
			return nil, err
		}
		out = append(out, obj)
	}
	return out, nil
}

func (e *Executor) resolveOrder(ctx context.Context, _ *rules.RequestContext, _ Transport, args map[string]any) (any, error) {
	id, err := stringArg(args, "id")
	if err != nil {
		return nil, err
	}
	o, err := e.stores.Orders.FindByID(ctx, id)
	if err != nil {
		return nil, storeError("order", err)
	}
	return e.orderObject(ctx, o)
}

func (e *Executor) resolveCategories(ctx context.Context, _ *rules.RequestContext, _ Transport, _ map[string]any) (any, error) {
	categories, err := e.stores.Categories.FindMany(ctx)
	if err != nil {
		return nil, storeError("categories", err)
	}
	out := make([]*object, 0, len(categories))
	for _, c := range categories {
		out = append(out, categoryObject(c))
	}
	return out, nil
}

func (e *Executor) resolveCategory(ctx context.Context, _ *rules.RequestContext, _ Transport, args map[string]any) (any, error) {
	id, err := stringArg(args, "id")
	if err != nil {
		return nil, err
	}
	c, err := e.stores.Categories.FindByID(ctx, id)
	if err != nil {
		return nil, storeError("category", err)
	}
	return categoryObject(c), nil
}

func (e *Executor) resolveCustomers(ctx context.Context, _ *rules.RequestContext, _ Transport, _ map[string]any) (any, error) {
	customers, err := e.stores.Customers.FindMany(ctx)
	if err != nil {
		return nil, storeError("customers", err)
	}
	out := make([]*object, 0, len(customers))
	for _, c := range customers {
		out = append(out, customerObject(c))
	}
	return out, nil
}

func (e *Executor) resolveCustomer(ctx context.Context, _ *rules.RequestContext, _ Transport, args map[string]any) (any, error) {
	id, err := stringArg(args, "id")
	if err != nil {
		return nil, err
	}
	c, err := e.stores.Customers.FindByID(ctx, id)
	if err != nil {
		return nil, storeError("customer", err)
	}
	return customerObject(c), nil
}

// --- Auth mutations ---

func (e *Executor) resolveRegister(ctx context.Context, _ *rules.RequestContext, _ Transport, args map[string]any) (any, error) {
	name, err := stringArg(args, "name")
	if err != nil {
		return nil, err
	}
	email, err := stringArg(args, "email")
	if err != nil {
		return nil, err
	}
	password, err := stringArg(args, "password")
	if err != nil {
		return nil, err
	}
	phone, err := optionalStringArg(args, "phone")
	if err != nil {
		return nil, err
	}
	in := auth.RegisterInput{Name: name, Email: email, Password: password}
	if phone != nil {
		in.Phone = *phone
	}
	customer, err := e.sessions.Register(ctx, in)
	if err != nil {
		return nil, err
	}
	return customerObject(customer), nil
}

func (e *Executor) resolveLogin(ctx context.Context, _ *rules.RequestContext, t Transport, args map[string]any) (any, error) {
	email, err := stringArg(args, "email")
	if err != nil {
		return nil, err
	}
	password, err := stringArg(args, "password")
	if err != nil {
		return nil, err
	}
	sess, err := e.sessions.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	t.SetRefreshCookie(sess.RefreshToken, e.sessions.Tokens().RefreshTTL())
	return authPayloadObject(sess.AccessToken, sess.Customer), nil
}

func (e *Executor) resolveRefresh(ctx context.Context, _ *rules.RequestContext, t Transport, _ map[string]any) (any, error) {
	presented, ok := t.RefreshToken()
	if !ok {
		return nil, gqlerr.Authentication("missing refresh token")
	}
	sess, err := e.sessions.Refresh(ctx, presented)
	if err != nil {
		return nil, err
	}
	t.SetRefreshCookie(sess.RefreshToken, e.sessions.Tokens().RefreshTTL())
	return refreshPayloadObject(sess.AccessToken), nil
}

func (e *Executor) resolveLogout(ctx context.Context, _ *rules.RequestContext, t Transport, _ map[string]any) (any, error) {
	presented, _ := t.RefreshToken()
	ok := e.sessions.Logout(ctx, presented)
	// The cookie is cleared no matter how verification went.
	t.ClearRefreshCookie()
	return ok, nil
}

// --- User mutations ---

func (e *Executor) resolveCreateUser(ctx context.Context, _ *rules.RequestContext, _ Transport, args map[string]any) (any, error) {
	name, err := stringArg(args, "name")
	if err != nil {
		return nil, err
	}
	email, err := stringArg(args, "email")
	if err != nil {
		return nil, err
	}
	password, err := stringArg(args, "password")
	if err != nil {
		return nil, err
	}
	u, err := e.stores.Users.Create(ctx, store.User{Name: name, Email: email, Password: password})
	if err != nil {
		return nil, storeError("user", err)
	}
	return userObject(u), nil
}

func (e *Executor) resolveUpdateUser(ctx context.Context, _ *rules.RequestContext, _ Transport, args map[string]any) (any, error) {
	id, err := stringArg(args, "id")
	if err != nil {
		return nil, err
	}
	name, err := optionalStringArg(args, "name")
	if err != nil {
		return nil, err
	}
	email, err := optionalStringArg(args, "email")
	if err != nil {
		return nil, err
	}
	u, err := e.stores.Users.UpdateByID(ctx, id, store.UserUpdate{Name: name, Email: email})
	if err != nil {
		return nil, storeError("user", err)
	}
	return userObject(u), nil
}

func (e *Executor) resolveDeleteUser(ctx context.Context, _ *rules.RequestContext, _ Transport, args map[string]any) (any, error) {
	id, err := stringArg(args, "id")
	if err != nil {
		return nil, err
	}
	ok, err := e.stores.Users.DeleteByID(ctx, id)
	if err != nil {
		return nil, storeError("user", err)
	}
	return ok, nil
}

// --- Product mutations ---

func (e *Executor) resolveCreateProduct(ctx context.Context, _ *rules.RequestContext, _ Transport, args map[string]any) (any, error) {
	name, err := stringArg(args, "name")
	if err != nil {
		return nil, err
	}
	description, err := stringArg(args, "description")
	if err != nil {
		return nil, err
	}
	price, err := floatArg(args, "price")
	if err != nil {
		return nil, err
	}
	stock, err := intArg(args, "stock")
	if err != nil {
		return nil, err
	}
	p, err := e.stores.Products.Create(ctx, store.Product{Name: name, Description: description, Price: price, Stock: stock})
	if err != nil {
		return nil, storeError("product", err)
	}
	return productObject(p), nil
}

func (e *Executor) resolveUpdateProduct(ctx context.Context, _ *rules.RequestContext, _ Transport, args map[string]any) (any, error) {
	id, err := stringArg(args, "id")
	if err != nil {
		return nil, err
	}
	name, err := optionalStringArg(args, "name")
	if err != nil {
		return nil, err
	}
	description, err := optionalStringArg(args, "description")
	if err != nil {
		return nil, err
	}
	price, err := optionalFloatArg(args, "price")
	if err != nil {
		return nil, err
	}
	stock, err := optionalIntArg(args, "stock")
	if err != nil {
		return nil, err
	}
	p, err := e.stores.Products.UpdateByID(ctx, id, store.ProductUpdate{Name: name, Description: description, Price: price, Stock: stock})
	if err != nil {
		return nil, storeError("product", err)
	}
	return productObject(p), nil
}

func (e *Executor) resolveDeleteProduct(ctx context.Context, _ *rules.RequestContext, _ Transport, args map[string]any) (any, error) {
	id, err := stringArg(args, "id")
	if err != nil {
		return nil, err
	}
	ok, err := e.stores.Products.DeleteByID(ctx, id)
	if err != nil {
		return nil, storeError("product", err)
	}
	return ok, nil
}

// --- Order mutations ---

func (e *Executor) resolveCreateOrder(ctx context.Context, _ *rules.RequestContext, _ Transport, args map[string]any) (any, error) {
	userID, err := stringArg(args, "userId")
	if err != nil {
		return nil, err
	}
	productID, err := stringArg(args, "productId")
	if err != nil {
		return nil, err
	}
	quantity, err := intArg(args, "quantity")
	if err != nil {
		return nil, err
	}
	if quantity < 1 {
		return nil, gqlerr.Validation("quantity must be at least 1")
	}

	product, err := e.stores.Products.FindByID(ctx, productID)
	if err != nil {
		return nil, storeError("product", err)
	}

	o, err := e.stores.Orders.Create(ctx, store.Order{
		UserID:     userID,
		ProductID:  productID,
		Quantity:   quantity,
		TotalPrice: product.Price * float64(quantity),
		Status:     store.OrderStatusPending,
	})
	if err != nil {
		return nil, storeError("order", err)
	}
	return e.orderObject(ctx, o)
}

func (e *Executor) resolveUpdateOrderStatus(ctx context.Context, _ *rules.RequestContext, _ Transport, args map[string]any) (any, error) {
	id, err := stringArg(args, "id")
	if err != nil {
		return nil, err
	}
	status, err := stringArg(args, "status")
	if err != nil {
		return nil, err
	}
	switch status {
	case store.OrderStatusPending, store.OrderStatusCompleted, store.OrderStatusCancelled:
	default:
		return nil, gqlerr.Validation("invalid order status: " + status)
	}
	o, err := e.stores.Orders.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, storeError("order", err)
	}
	return e.orderObject(ctx, o)
}

func (e *Executor) resolveDeleteOrder(ctx context.Context, _ *rules.RequestContext, _ Transport, args map[string]any) (any, error) {
	id, err := stringArg(args, "id")
	if err != nil {
		return nil, err
	}
	ok, err := e.stores.Orders.DeleteByID(ctx, id)
	if err != nil {
		return nil, storeError("order", err)
	}
	return ok, nil
}

// --- Category mutations ---

func (e *Executor) resolveCreateCategory(ctx context.Context, _ *rules.RequestContext, _ Transport, args map[string]any) (any, error) {
	name, err := stringArg(args, "name")
	if err != nil {
		return nil, err
	}
	description, err := optionalStringArg(args, "description")
	if err != nil {
		return nil, err
	}
	c := store.Category{Name: name}
	if description != nil {
		c.Description = *description
	}
	created, err := e.stores.Categories.Create(ctx, c)
	if err != nil {
		return nil, storeError("category", err)
	}
	return categoryObject(created), nil
}

func (e *Executor) resolveUpdateCategory(ctx context.Context, _ *rules.RequestContext, _ Transport, args map[string]any) (any, error) {
	id, err := stringArg(args, "id")
	if err != nil {
		return nil, err
	}
	name, err := stringArg(args, "name")
	if err != nil {
		return nil, err
	}
	description, err := optionalStringArg(args, "description")
	if err != nil {
		return nil, err
	}
	c, err := e.stores.Categories.UpdateByID(ctx, id, store.CategoryUpdate{Name: &name, Description: description})
	if err != nil {
		return nil, storeError("category", err)
	}
	return categoryObject(c), nil
}

func (e *Executor) resolveDeleteCategory(ctx context.Context, _ *rules.RequestContext, _ Transport, args map[string]any) (any, error) {
	id, err := stringArg(args, "id")
	if err != nil {
		return nil, err
	}
	ok, err := e.stores.Categories.DeleteByID(ctx, id)
	if err != nil {
		return nil, storeError("category", err)
	}
	return ok, nil
}

// --- Customer mutations ---

func (e *Executor) resolveCreateCustomer(ctx context.Context, _ *rules.RequestContext, _ Transport, args map[string]any) (any, error) {
	name, err := stringArg(args, "name")
	if err != nil {
		return nil, err
	}
	age, err := intArg(args, "age")
	if err != nil {
		return nil, err
	}
	phone, err := stringArg(args, "phone")
	if err != nil {
		return nil, err
	}
	gender, err := optionalStringArg(args, "gender")
	if err != nil {
		return nil, err
	}
	address, err := optionalStringArg(args, "address")
	if err != nil {
		return nil, err
	}
	c := store.Customer{Name: name, Age: age, Phone: phone}
	if gender != nil {
		c.Gender = *gender
	}
	if address != nil {
		c.Address = *address
	}
	created, err := e.stores.Customers.Create(ctx, c)
	if err != nil {
		return nil, storeError("customer", err)
	}
	return customerObject(created), nil
}

func (e *Executor) resolveUpdateCustomer(ctx context.Context, _ *rules.RequestContext, _ Transport, args map[string]any) (any, error) {
	id, err := stringArg(args, "id")
	if err != nil {
		return nil, err
	}
	name, err := stringArg(args, "name")
	if err != nil {
		return nil, err
	}
	age, err := intArg(args, "age")
	if err != nil {
		return nil, err
	}
	phone, err := stringArg(args, "phone")
	if err != nil {
		return nil, err
	}
	gender, err := optionalStringArg(args, "gender")
	if err != nil {
		return nil, err
	}
	address, err := optionalStringArg(args, "address")
	if err != nil {
		return nil, err
	}
	c, err := e.stores.Customers.UpdateByID(ctx, id, store.CustomerUpdate{
		Name: &name, Age: &age, Phone: &phone, Gender: gender, Address: address,
	})
	if err != nil {
		return nil, storeError("customer", err)
	}
	return customerObject(c), nil
}

func (e *Executor) resolveDeleteCustomer(ctx context.Context, _ *rules.RequestContext, _ Transport, args map[string]any) (any, error) {
	id, err := stringArg(args, "id")
	if err != nil {
		return nil, err
	}
	ok, err := e.stores.Customers.DeleteByID(ctx, id)
	if err != nil {
		return nil, storeError("customer", err)
	}
	return ok, nil
}

package graph

import (
	"context"
	"errors"
	"time"

	"shopql.org/internal/gqlerr"
	"shopql.org/internal/rules"
	"shopql.org/internal/store"
)

// object is a typed response value. The executor checks the permission
// map for every (typeName, field) pair while rendering, so field-level
// rules like Order.totalPrice apply no matter which operation produced
// the object.
type object struct {
	typeName string
	fields   map[string]any
}

// render walks the resolver result and applies field-level permissions.
// A denied field renders as null and contributes a pathed error; sibling
// fields are unaffected.
func (e *Executor) render(ctx context.Context, rc *rules.RequestContext, path []string, v any) (any, []*gqlerr.Error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case *object:
		if val == nil {
			return nil, nil
		}
		out := make(map[string]any, len(val.fields))
		var errs []*gqlerr.Error
		for name, fieldVal := range val.fields {
			fieldPath := append(append([]string(nil), path...), name)
			if err := e.perms.Check(ctx, rc, val.typeName, name, nil); err != nil {
				out[name] = nil
				errs = append(errs, e.normalize(err).WithPath(fieldPath...))
				continue
			}
			rendered, nested := e.render(ctx, rc, fieldPath, fieldVal)
			out[name] = rendered
			errs = append(errs, nested...)
		}
		return out, errs
	case []*object:
		out := make([]any, 0, len(val))
		var errs []*gqlerr.Error
		for _, item := range val {
			rendered, nested := e.render(ctx, rc, path, item)
			out = append(out, rendered)
			errs = append(errs, nested...)
		}
		return out, errs
	default:
		return val, nil
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func userObject(u store.User) *object {
	return &object{typeName: "User", fields: map[string]any{
		"id":        u.ID,
		"name":      u.Name,
		"email":     u.Email,
		"createdAt": formatTime(u.CreatedAt),
	}}
}

func productObject(p store.Product) *object {
	return &object{typeName: "Product", fields: map[string]any{
		"id":          p.ID,
		"name":        p.Name,
		"description": p.Description,
		"price":       p.Price,
		"stock":       p.Stock,
		"createdAt":   formatTime(p.CreatedAt),
	}}
}

func categoryObject(c store.Category) *object {
	return &object{typeName: "Category", fields: map[string]any{
		"id":          c.ID,
		"name":        c.Name,
		"description": c.Description,
	}}
}

func customerObject(c store.Customer) *object {
	return &object{typeName: "Customer", fields: map[string]any{
		"id":      c.ID,
		"name":    c.Name,
		"age":     c.Age,
		"gender":  c.Gender,
		"phone":   c.Phone,
		"address": c.Address,
	}}
}

// orderObject resolves the user and product edges the way the schema's
// field resolvers do: a dangling reference renders as null rather than
// failing the whole order.
func (e *Executor) orderObject(ctx context.Context, o store.Order) (*object, error) {
	fields := map[string]any{
		"id":         o.ID,
		"quantity":   o.Quantity,
		"totalPrice": o.TotalPrice,
		"status":     o.Status,
		"createdAt":  formatTime(o.CreatedAt),
		"user":       nil,
		"product":    nil,
	}

	if u, err := e.stores.Users.FindByID(ctx, o.UserID); err == nil {
		fields["user"] = userObject(u)
	} else if !errors.Is(err, store.ErrNotFound) && !errors.Is(err, store.ErrMalformedID) {
		return nil, gqlerr.Database("failed to load order user", err)
	}

	if p, err := e.stores.Products.FindByID(ctx, o.ProductID); err == nil {
		fields["product"] = productObject(p)
	} else if !errors.Is(err, store.ErrNotFound) && !errors.Is(err, store.ErrMalformedID) {
		return nil, gqlerr.Database("failed to load order product", err)
	}

	return &object{typeName: "Order", fields: fields}, nil
}

func authPayloadObject(accessToken string, customer store.Customer) *object {
	return &object{typeName: "AuthPayload", fields: map[string]any{
		"accessToken": accessToken,
		"user":        customerObject(customer),
	}}
}

func refreshPayloadObject(accessToken string) *object {
	return &object{typeName: "RefreshPayload", fields: map[string]any{
		"accessToken": accessToken,
	}}
}

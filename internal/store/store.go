// Package store defines the entity model and the repository contracts the
// resolvers and the auth session flow are written against. Implementations
// must signal a malformed identifier (ErrMalformedID) distinctly from a
// missing record (ErrNotFound).
package store

import (
	"context"
	"errors"
)

var (
	ErrNotFound    = errors.New("store: not found")
	ErrMalformedID = errors.New("store: malformed identifier")
	ErrDuplicate   = errors.New("store: duplicate")
)

// UserStore manages directory users.
type UserStore interface {
	FindByID(ctx context.Context, id string) (User, error)
	FindMany(ctx context.Context) ([]User, error)
	Create(ctx context.Context, u User) (User, error)
	UpdateByID(ctx context.Context, id string, upd UserUpdate) (User, error)
	DeleteByID(ctx context.Context, id string) (bool, error)
}

// ProductStore manages catalog products.
type ProductStore interface {
	FindByID(ctx context.Context, id string) (Product, error)
	FindMany(ctx context.Context) ([]Product, error)
	Create(ctx context.Context, p Product) (Product, error)
	UpdateByID(ctx context.Context, id string, upd ProductUpdate) (Product, error)
	DeleteByID(ctx context.Context, id string) (bool, error)
}

// OrderStore manages orders.
type OrderStore interface {
	FindByID(ctx context.Context, id string) (Order, error)
	FindMany(ctx context.Context) ([]Order, error)
	Create(ctx context.Context, o Order) (Order, error)
	UpdateStatus(ctx context.Context, id, status string) (Order, error)
	DeleteByID(ctx context.Context, id string) (bool, error)
}

// CategoryStore manages categories.
type CategoryStore interface {
	FindByID(ctx context.Context, id string) (Category, error)
	FindMany(ctx context.Context) ([]Category, error)
	Create(ctx context.Context, c Category) (Category, error)
	UpdateByID(ctx context.Context, id string, upd CategoryUpdate) (Category, error)
	DeleteByID(ctx context.Context, id string) (bool, error)
}

// CustomerStore manages customers and their refresh-token state.
// SetRefreshTokenSig is a single atomic overwrite; passing an empty
// signature revokes the current session.
type CustomerStore interface {
	FindByID(ctx context.Context, id string) (Customer, error)
	FindByEmail(ctx context.Context, email string) (Customer, error)
	FindMany(ctx context.Context) ([]Customer, error)
	Create(ctx context.Context, c Customer) (Customer, error)
	UpdateByID(ctx context.Context, id string, upd CustomerUpdate) (Customer, error)
	SetRefreshTokenSig(ctx context.Context, id, sig string) error
	DeleteByID(ctx context.Context, id string) (bool, error)
}

// Stores bundles the per-entity repositories for wiring.
type Stores struct {
	Users      UserStore
	Products   ProductStore
	Orders     OrderStore
	Categories CategoryStore
	Customers  CustomerStore
}

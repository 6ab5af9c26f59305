// Package memstore implements the repository contracts on in-process maps.
// It backs tests and the development mode of the server; semantics mirror
// the pg implementation, including the malformed-ID / not-found split and
// the unique customer email constraint.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"shopql.org/internal/ids"
	"shopql.org/internal/store"
)

// Store holds all entity collections behind one mutex.
type Store struct {
	mu         sync.Mutex
	now        func() time.Time
	users      map[string]store.User
	products   map[string]store.Product
	orders     map[string]store.Order
	categories map[string]store.Category
	customers  map[string]store.Customer
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		now:        time.Now,
		users:      make(map[string]store.User),
		products:   make(map[string]store.Product),
		orders:     make(map[string]store.Order),
		categories: make(map[string]store.Category),
		customers:  make(map[string]store.Customer),
	}
}

// WithClock overrides the time source; used by tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Stores exposes the per-entity repository views.
func (s *Store) Stores() store.Stores {
	return store.Stores{
		Users:      (*userStore)(s),
		Products:   (*productStore)(s),
		Orders:     (*orderStore)(s),
		Categories: (*categoryStore)(s),
		Customers:  (*customerStore)(s),
	}
}

func parseID(raw string) (string, error) {
	id, err := ids.Parse(raw)
	if err != nil {
		return "", store.ErrMalformedID
	}
	return id, nil
}

type userStore Store

func (s *userStore) FindByID(_ context.Context, raw string) (store.User, error) {
	id, err := parseID(raw)
	if err != nil {
		return store.User{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return store.User{}, store.ErrNotFound
	}
	return u, nil
}

func (s *userStore) FindMany(_ context.Context) ([]store.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *userStore) Create(_ context.Context, u store.User) (store.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.ID = ids.New()
	u.CreatedAt = s.now().UTC()
	s.users[u.ID] = u
	return u, nil
}

func (s *userStore) UpdateByID(_ context.Context, raw string, upd store.UserUpdate) (store.User, error) {
	id, err := parseID(raw)
	if err != nil {
		return store.User{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return store.User{}, store.ErrNotFound
	}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.Email != nil {
		u.Email = *upd.Email
	}
	s.users[id] = u
	return u, nil
}

func (s *userStore) DeleteByID(_ context.Context, raw string) (bool, error) {
	id, err := parseID(raw)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return false, nil
	}
	delete(s.users, id)
	return true, nil
}

type productStore Store

func (s *productStore) FindByID(_ context.Context, raw string) (store.Product, error) {
	id, err := parseID(raw)
	if err != nil {
		return store.Product{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return store.Product{}, store.ErrNotFound
	}
	return p, nil
}

func (s *productStore) FindMany(_ context.Context) ([]store.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *productStore) Create(_ context.Context, p store.Product) (store.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = ids.New()
	p.CreatedAt = s.now().UTC()
	s.products[p.ID] = p
	return p, nil
}

func (s *productStore) UpdateByID(_ context.Context, raw string, upd store.ProductUpdate) (store.Product, error) {
	id, err := parseID(raw)
	if err != nil {
		return store.Product{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return store.Product{}, store.ErrNotFound
	}
	if upd.Name != nil {
		p.Name = *upd.Name
	}
	if upd.Description != nil {
		p.Description = *upd.Description
	}
	if upd.Price != nil {
		p.Price = *upd.Price
	}
	if upd.Stock != nil {
		p.Stock = *upd.Stock
	}
	s.products[id] = p
	return p, nil
}

func (s *productStore) DeleteByID(_ context.Context, raw string) (bool, error) {
	id, err := parseID(raw)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return false, nil
	}
	delete(s.products, id)
	return true, nil
}

type orderStore Store

func (s *orderStore) FindByID(_ context.Context, raw string) (store.Order, error) {
	id, err := parseID(raw)
	if err != nil {
		return store.Order{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return store.Order{}, store.ErrNotFound
	}
	return o, nil
}

func (s *orderStore) FindMany(_ context.Context) ([]store.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *orderStore) Create(_ context.Context, o store.Order) (store.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o.ID = ids.New()
	o.CreatedAt = s.now().UTC()
	if o.Status == "" {
		o.Status = store.OrderStatusPending
	}
	s.orders[o.ID] = o
	return o, nil
}

func (s *orderStore) UpdateStatus(_ context.Context, raw, status string) (store.Order, error) {
	id, err := parseID(raw)
	if err != nil {
		return store.Order{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return store.Order{}, store.ErrNotFound
	}
	o.Status = status
	s.orders[id] = o
	return o, nil
}

func (s *orderStore) DeleteByID(_ context.Context, raw string) (bool, error) {
	id, err := parseID(raw)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[id]; !ok {
		return false, nil
	}
	delete(s.orders, id)
	return true, nil
}

type categoryStore Store

func (s *categoryStore) FindByID(_ context.Context, raw string) (store.Category, error) {
	id, err := parseID(raw)
	if err != nil {
		return store.Category{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return store.Category{}, store.ErrNotFound
	}
	return c, nil
}

func (s *categoryStore) FindMany(_ context.Context) ([]store.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *categoryStore) Create(_ context.Context, c store.Category) (store.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = ids.New()
	s.categories[c.ID] = c
	return c, nil
}

func (s *categoryStore) UpdateByID(_ context.Context, raw string, upd store.CategoryUpdate) (store.Category, error) {
	id, err := parseID(raw)
	if err != nil {
		return store.Category{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return store.Category{}, store.ErrNotFound
	}
	if upd.Name != nil {
		c.Name = *upd.Name
	}
	if upd.Description != nil {
		c.Description = *upd.Description
	}
	s.categories[id] = c
	return c, nil
}

func (s *categoryStore) DeleteByID(_ context.Context, raw string) (bool, error) {
	id, err := parseID(raw)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[id]; !ok {
		return false, nil
	}
	delete(s.categories, id)
	return true, nil
}

type customerStore Store

func (s *customerStore) FindByID(_ context.Context, raw string) (store.Customer, error) {
	id, err := parseID(raw)
	if err != nil {
		return store.Customer{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.customers[id]
	if !ok {
		return store.Customer{}, store.ErrNotFound
	}
	return c, nil
}

func (s *customerStore) FindByEmail(_ context.Context, email string) (store.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.customers {
		if c.Email == email {
			return c, nil
		}
	}
	return store.Customer{}, store.ErrNotFound
}

func (s *customerStore) FindMany(_ context.Context) ([]store.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.Customer, 0, len(s.customers))
	for _, c := range s.customers {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *customerStore) Create(_ context.Context, c store.Customer) (store.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Uniqueness applies to real addresses only; customers created without
	// an email (the CRUD path) may coexist.
	if c.Email != "" {
		for _, existing := range s.customers {
			if existing.Email == c.Email {
				return store.Customer{}, store.ErrDuplicate
			}
		}
	}
	c.ID = ids.New()
	c.CreatedAt = s.now().UTC()
	if c.Role == "" {
		c.Role = "default"
	}
	s.customers[c.ID] = c
	return c, nil
}

func (s *customerStore) UpdateByID(_ context.Context, raw string, upd store.CustomerUpdate) (store.Customer, error) {
	id, err := parseID(raw)
	if err != nil {
		return store.Customer{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.customers[id]
	if !ok {
		return store.Customer{}, store.ErrNotFound
	}
	if upd.Name != nil {
		c.Name = *upd.Name
	}
	if upd.Age != nil {
		c.Age = *upd.Age
	}
	if upd.Gender != nil {
		c.Gender = *upd.Gender
	}
	if upd.Phone != nil {
		c.Phone = *upd.Phone
	}
	if upd.Address != nil {
		c.Address = *upd.Address
	}
	s.customers[id] = c
	return c, nil
}

func (s *customerStore) SetRefreshTokenSig(_ context.Context, raw, sig string) error {
	id, err := parseID(raw)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.customers[id]
	if !ok {
		return store.ErrNotFound
	}
	c.RefreshTokenSig = sig
	s.customers[id] = c
	return nil
}

func (s *customerStore) DeleteByID(_ context.Context, raw string) (bool, error) {
	id, err := parseID(raw)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.customers[id]; !ok {
		return false, nil
	}
	delete(s.customers, id)
	return true, nil
}

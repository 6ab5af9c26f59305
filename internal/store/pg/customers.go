package pg

import (
	"context"
	"database/sql"

	"shopql.org/internal/ids"
	"shopql.org/internal/store"
)

type customerRepo struct {
	db *sql.DB
}

const customerColumns = `id, name, age, gender, phone, address, email, password_hash, role, refresh_token_sig, created_at`

func scanCustomer(row interface{ Scan(...any) error }) (store.Customer, error) {
	var c store.Customer
	if err := row.Scan(
		&c.ID, &c.Name, &c.Age, &c.Gender, &c.Phone, &c.Address,
		&c.Email, &c.PasswordHash, &c.Role, &c.RefreshTokenSig, &c.CreatedAt,
	); err != nil {
		return store.Customer{}, err
	}
	return c, nil
}

func (r *customerRepo) FindByID(ctx context.Context, raw string) (store.Customer, error) {
	id, err := parseID(raw)
	if err != nil {
		return store.Customer{}, err
	}
	c, err := scanCustomer(r.db.QueryRowContext(ctx,
		`select `+customerColumns+` from customers where id = $1`, id))
	if err != nil {
		return store.Customer{}, notFound(err)
	}
	return c, nil
}

func (r *customerRepo) FindByEmail(ctx context.Context, email string) (store.Customer, error) {
	c, err := scanCustomer(r.db.QueryRowContext(ctx,
		`select `+customerColumns+` from customers where email = $1`, email))
	if err != nil {
		return store.Customer{}, notFound(err)
	}
	return c, nil
}

func (r *customerRepo) FindMany(ctx context.Context) ([]store.Customer, error) {
	rows, err := r.db.QueryContext(ctx,
		`select `+customerColumns+` from customers order by id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []store.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *customerRepo) Create(ctx context.Context, c store.Customer) (store.Customer, error) {
	c.ID = ids.New()
	if c.Role == "" {
		c.Role = "default"
	}
	created, err := scanCustomer(r.db.QueryRowContext(ctx, `
		insert into customers(id, name, age, gender, phone, address, email, password_hash, role, refresh_token_sig)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, '')
		returning `+customerColumns,
		c.ID, c.Name, c.Age, c.Gender, c.Phone, c.Address, c.Email, c.PasswordHash, c.Role))
	if err != nil {
		if isUniqueViolation(err) {
			return store.Customer{}, store.ErrDuplicate
		}
		return store.Customer{}, err
	}
	return created, nil
}

func (r *customerRepo) UpdateByID(ctx context.Context, raw string, upd store.CustomerUpdate) (store.Customer, error) {
	id, err := parseID(raw)
	if err != nil {
		return store.Customer{}, err
	}
	c, err := scanCustomer(r.db.QueryRowContext(ctx, `
		update customers
		set name    = coalesce($2, name),
		    age     = coalesce($3, age),
		    gender  = coalesce($4, gender),
		    phone   = coalesce($5, phone),
		    address = coalesce($6, address)
		where id = $1
		returning `+customerColumns,
		id, upd.Name, upd.Age, upd.Gender, upd.Phone, upd.Address))
	if err != nil {
		return store.Customer{}, notFound(err)
	}
	return c, nil
}

// SetRefreshTokenSig is a single atomic overwrite of the stored refresh
// token signature; an empty sig revokes the current session.
func (r *customerRepo) SetRefreshTokenSig(ctx context.Context, raw, sig string) error {
	id, err := parseID(raw)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`update customers set refresh_token_sig = $2 where id = $1`, id, sig)
	if err != nil {
		return err
	}
	if !affected(res) {
		return store.ErrNotFound
	}
	return nil
}

func (r *customerRepo) DeleteByID(ctx context.Context, raw string) (bool, error) {
	id, err := parseID(raw)
	if err != nil {
		return false, err
	}
	res, err := r.db.ExecContext(ctx, `delete from customers where id = $1`, id)
	if err != nil {
		return false, err
	}
	return affected(res), nil
}

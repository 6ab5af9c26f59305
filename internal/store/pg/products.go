package pg

import (
	"context"
	"database/sql"

	"shopql.org/internal/ids"
	"shopql.org/internal/store"
)

type productRepo struct {
	db *sql.DB
}

const productColumns = `id, name, description, price, stock, created_at`

func scanProduct(row interface{ Scan(...any) error }) (store.Product, error) {
	var p store.Product
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.CreatedAt); err != nil {
		return store.Product{}, err
	}
	return p, nil
}

func (r *productRepo) FindByID(ctx context.Context, raw string) (store.Product, error) {
	id, err := parseID(raw)
	if err != nil {
		return store.Product{}, err
	}
	p, err := scanProduct(r.db.QueryRowContext(ctx,
		`select `+productColumns+` from products where id = $1`, id))
	if err != nil {
		return store.Product{}, notFound(err)
	}
	return p, nil
}

func (r *productRepo) FindMany(ctx context.Context) ([]store.Product, error) {
	rows, err := r.db.QueryContext(ctx,
		`select `+productColumns+` from products order by id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []store.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *productRepo) Create(ctx context.Context, p store.Product) (store.Product, error) {
	p.ID = ids.New()
	row := r.db.QueryRowContext(ctx, `
		insert into products(id, name, description, price, stock)
		values ($1, $2, $3, $4, $5)
		returning `+productColumns,
		p.ID, p.Name, p.Description, p.Price, p.Stock)
	return scanProduct(row)
}

func (r *productRepo) UpdateByID(ctx context.Context, raw string, upd store.ProductUpdate) (store.Product, error) {
	id, err := parseID(raw)
	if err != nil {
		return store.Product{}, err
	}
	p, err := scanProduct(r.db.QueryRowContext(ctx, `
		update products
		set name        = coalesce($2, name),
		    description = coalesce($3, description),
		    price       = coalesce($4, price),
		    stock       = coalesce($5, stock)
		where id = $1
		returning `+productColumns,
		id, upd.Name, upd.Description, upd.Price, upd.Stock))
	if err != nil {
		return store.Product{}, notFound(err)
	}
	return p, nil
}

func (r *productRepo) DeleteByID(ctx context.Context, raw string) (bool, error) {
	id, err := parseID(raw)
	if err != nil {
		return false, err
	}
	res, err := r.db.ExecContext(ctx, `delete from products where id = $1`, id)
	if err != nil {
		return false, err
	}
	return affected(res), nil
}

package pg

import (
	"context"
	"database/sql"

	"shopql.org/internal/ids"
	"shopql.org/internal/store"
)

type categoryRepo struct {
	db *sql.DB
}

const categoryColumns = `id, name, description`

func scanCategory(row interface{ Scan(...any) error }) (store.Category, error) {
	var c store.Category
	if err := row.Scan(&c.ID, &c.Name, &c.Description); err != nil {
		return store.Category{}, err
	}
	return c, nil
}

func (r *categoryRepo) FindByID(ctx context.Context, raw string) (store.Category, error) {
	id, err := parseID(raw)
	if err != nil {
		return store.Category{}, err
	}
	c, err := scanCategory(r.db.QueryRowContext(ctx,
		`select `+categoryColumns+` from categories where id = $1`, id))
	if err != nil {
		return store.Category{}, notFound(err)
	}
	return c, nil
}

func (r *categoryRepo) FindMany(ctx context.Context) ([]store.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`select `+categoryColumns+` from categories order by id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []store.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *categoryRepo) Create(ctx context.Context, c store.Category) (store.Category, error) {
	c.ID = ids.New()
	row := r.db.QueryRowContext(ctx, `
		insert into categories(id, name, description)
		values ($1, $2, $3)
		returning `+categoryColumns,
		c.ID, c.Name, c.Description)
	return scanCategory(row)
}

func (r *categoryRepo) UpdateByID(ctx context.Context, raw string, upd store.CategoryUpdate) (store.Category, error) {
	id, err := parseID(raw)
	if err != nil {
		return store.Category{}, err
	}
	c, err := scanCategory(r.db.QueryRowContext(ctx, `
		update categories
		set name        = coalesce($2, name),
		    description = coalesce($3, description)
		where id = $1
		returning `+categoryColumns,
		id, upd.Name, upd.Description))
	if err != nil {
		return store.Category{}, notFound(err)
	}
	return c, nil
}

func (r *categoryRepo) DeleteByID(ctx context.Context, raw string) (bool, error) {
	id, err := parseID(raw)
	if err != nil {
		return false, err
	}
	res, err := r.db.ExecContext(ctx, `delete from categories where id = $1`, id)
	if err != nil {
		return false, err
	}
	return affected(res), nil
}

package pg

import (
	"context"
	"database/sql"

	"shopql.org/internal/ids"
	"shopql.org/internal/store"
)

type userRepo struct {
	db *sql.DB
}

const userColumns = `id, name, email, password, created_at`

func scanUser(row interface{ Scan(...any) error }) (store.User, error) {
	var u store.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.CreatedAt); err != nil {
		return store.User{}, err
	}
	return u, nil
}

func (r *userRepo) FindByID(ctx context.Context, raw string) (store.User, error) {
	id, err := parseID(raw)
	if err != nil {
		return store.User{}, err
	}
	u, err := scanUser(r.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where id = $1`, id))
	if err != nil {
		return store.User{}, notFound(err)
	}
	return u, nil
}

func (r *userRepo) FindMany(ctx context.Context) ([]store.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`select `+userColumns+` from users order by id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []store.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *userRepo) Create(ctx context.Context, u store.User) (store.User, error) {
	u.ID = ids.New()
	row := r.db.QueryRowContext(ctx, `
		insert into users(id, name, email, password)
		values ($1, $2, $3, $4)
		returning `+userColumns,
		u.ID, u.Name, u.Email, u.Password)
	return scanUser(row)
}

func (r *userRepo) UpdateByID(ctx context.Context, raw string, upd store.UserUpdate) (store.User, error) {
	id, err := parseID(raw)
	if err != nil {
		return store.User{}, err
	}
	u, err := scanUser(r.db.QueryRowContext(ctx, `
		update users
		set name  = coalesce($2, name),
		    email = coalesce($3, email)
		where id = $1
		returning `+userColumns,
		id, upd.Name, upd.Email))
	if err != nil {
		return store.User{}, notFound(err)
	}
	return u, nil
}

func (r *userRepo) DeleteByID(ctx context.Context, raw string) (bool, error) {
	id, err := parseID(raw)
	if err != nil {
		return false, err
	}
	res, err := r.db.ExecContext(ctx, `delete from users where id = $1`, id)
	if err != nil {
		return false, err
	}
	return affected(res), nil
}

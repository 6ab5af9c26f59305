package pg

import (
	"context"
	"database/sql"

	"shopql.org/internal/ids"
	"shopql.org/internal/store"
)

type orderRepo struct {
	db *sql.DB
}

const orderColumns = `id, user_id, product_id, quantity, total_price, status, created_at`

func scanOrder(row interface{ Scan(...any) error }) (store.Order, error) {
	var o store.Order
	if err := row.Scan(&o.ID, &o.UserID, &o.ProductID, &o.Quantity, &o.TotalPrice, &o.Status, &o.CreatedAt); err != nil {
		return store.Order{}, err
	}
	return o, nil
}

func (r *orderRepo) FindByID(ctx context.Context, raw string) (store.Order, error) {
	id, err := parseID(raw)
	if err != nil {
		return store.Order{}, err
	}
	o, err := scanOrder(r.db.QueryRowContext(ctx,
		`select `+orderColumns+` from orders where id = $1`, id))
	if err != nil {
		return store.Order{}, notFound(err)
	}
	return o, nil
}

func (r *orderRepo) FindMany(ctx context.Context) ([]store.Order, error) {
	rows, err := r.db.QueryContext(ctx,
		`select `+orderColumns+` from orders order by id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []store.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *orderRepo) Create(ctx context.Context, o store.Order) (store.Order, error) {
	o.ID = ids.New()
	if o.Status == "" {
		o.Status = store.OrderStatusPending
	}
	row := r.db.QueryRowContext(ctx, `
		insert into orders(id, user_id, product_id, quantity, total_price, status)
		values ($1, $2, $3, $4, $5, $6)
		returning `+orderColumns,
		o.ID, o.UserID, o.ProductID, o.Quantity, o.TotalPrice, o.Status)
	return scanOrder(row)
}

func (r *orderRepo) UpdateStatus(ctx context.Context, raw, status string) (store.Order, error) {
	id, err := parseID(raw)
	if err != nil {
		return store.Order{}, err
	}
	o, err := scanOrder(r.db.QueryRowContext(ctx, `
		update orders set status = $2 where id = $1
		returning `+orderColumns,
		id, status))
	if err != nil {
		return store.Order{}, notFound(err)
	}
	return o, nil
}

func (r *orderRepo) DeleteByID(ctx context.Context, raw string) (bool, error) {
	id, err := parseID(raw)
	if err != nil {
		return false, err
	}
	res, err := r.db.ExecContext(ctx, `delete from orders where id = $1`, id)
	if err != nil {
		return false, err
	}
	return affected(res), nil
}

// Package pg implements the repository contracts on PostgreSQL via the
// pgx stdlib driver. Identifiers are ULIDs stored as text; the unique
// customer email constraint maps to store.ErrDuplicate.
package pg

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"shopql.org/internal/ids"
	"shopql.org/internal/store"
)

// Store owns the connection pool.
type Store struct {
	db *sql.DB
}

// Open connects to PostgreSQL and tunes the pool.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	// Tuned pool defaults; adjust under load tests
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// NewWithDB wraps an existing connection; used by tests.
func NewWithDB(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

// Stores exposes the per-entity repository views.
func (s *Store) Stores() store.Stores {
	return store.Stores{
		Users:      &userRepo{db: s.db},
		Products:   &productRepo{db: s.db},
		Orders:     &orderRepo{db: s.db},
		Categories: &categoryRepo{db: s.db},
		Customers:  &customerRepo{db: s.db},
	}
}

// --- shared helpers ---

func parseID(raw string) (string, error) {
	id, err := ids.Parse(raw)
	if err != nil {
		return "", store.ErrMalformedID
	}
	return id, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

// affected reports whether an exec touched at least one row.
func affected(res sql.Result) bool {
	n, err := res.RowsAffected()
	return err == nil && n > 0
}

package db

import (
	"context"
	"database/sql"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/albertcolmenero/invoicehub/apperr"
	"github.com/albertcolmenero/invoicehub/billing"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// conn carries the record-store queries. Bound to the pool it runs each
// statement on its own; bound to a *sql.Tx it is a unit of work.
type conn struct {
	q querier
}

// Store is the Postgres record store.
type Store struct {
	*conn
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{conn: &conn{q: db}, db: db}
}

// Atomically runs fn inside BEGIN ... COMMIT and rolls back when fn fails.
func (s *Store) Atomically(ctx context.Context, fn func(tx billing.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr(err, "beginning transaction")
	}
	if err := fn(&conn{q: sqlTx}); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			return errors.WithSecondaryError(err, rbErr)
		}
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return mapErr(err, "committing transaction")
	}
	return nil
}

func notFound(kind, id string) error {
	return apperr.Newf("%s %s not found", kind, id).
		WithHintf("%s not found", kind).
		Mark(apperr.ErrNotFound)
}

// storeErr marks an unexpected driver failure.
func storeErr(err error, op string) error {
	return apperr.Wrap(err).WithMessage(op).Mark(apperr.ErrDatabase)
}

// mapErr translates constraint violations into the error taxonomy. Anything
// else is a store failure.
func mapErr(err error, op string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return apperr.Wrap(err).WithMessage(op).
				WithHintf("duplicate value violates %s", pgErr.ConstraintName).
				Mark(apperr.ErrConflict)
		case pgForeignKeyViolation:
			return apperr.Wrap(err).WithMessage(op).
				WithHint("record is still referenced").
				Mark(apperr.ErrInvalidOperation)
		}
	}
	return storeErr(err, op)
}

// rowErr is mapErr for single-row reads.
func rowErr(err error, kind, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound(kind, id)
	}
	return mapErr(err, "reading "+kind)
}

// affected turns a zero-row write into NotFound.
func affected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr(err, "reading rows affected")
	}
	if n == 0 {
		return notFound(kind, id)
	}
	return nil
}

var _ billing.Store = (*Store)(nil)

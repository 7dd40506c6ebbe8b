package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bidmarket/internal/apperr"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Storage wraps the database handle. Inside a transaction ext is the
// *sqlx.Tx, otherwise the *sqlx.DB itself.
type Storage struct {
	db  *sqlx.DB
	ext sqlx.ExtContext
}

func NewStorage(db *sqlx.DB) *Storage {
	return &Storage{db: db, ext: db}
}

// InTx runs fn against a transaction-scoped Storage. Any error from fn
// rolls the whole transaction back.
func (s *Storage) InTx(ctx context.Context, fn func(tx *Storage) error) error {
	if _, ok := s.ext.(*sqlx.Tx); ok {
		// already transactional, reuse the scope
		return fn(s)
	}
	txx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("db.InTx: %w", err)
	}
	if err := fn(&Storage{db: s.db, ext: txx}); err != nil {
		_ = txx.Rollback()
		return err
	}
	return txx.Commit()
}

const uniqueViolation = "23505"

// wrapErr translates driver errors into the shared taxonomy: no rows is
// NotFound, a unique-constraint violation is Conflict. The storage-level
// constraints are the authoritative guard for race-prone invariants.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w: %s", op, apperr.ErrConflict, pqErr.Constraint)
	}
	return fmt.Errorf("%s: %w", op, err)
}

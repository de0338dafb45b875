// Package store is the persistent store: it owns the drugs, sales, sale_items,
// settings and users tables. No other package issues SQL against them.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"pharmapos/m/domain"
)

// Store persists pharmacy data in SQLite.
type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

// Option customises a Store.
type Option func(*Store)

// WithClock overrides the clock used for timestamps and receipt dates.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a Store over an open database.
func New(db *sqlx.DB, opts ...Option) *Store {
	s := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the store clock's current time.
func (s *Store) Now() time.Time {
	return s.now()
}

// location is the zone timestamps are written and read back in.
func (s *Store) location() *time.Location {
	return s.now().Location()
}

func (s *Store) timestamp() string {
	return s.now().Format(domain.TimestampLayout)
}

func (s *Store) today() time.Time {
	now := s.now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

// withTx runs fn inside a transaction, rolling back when fn or commit fails.
// Errors returned by fn are passed through untouched.
func (s *Store) withTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return storageErr("begin tx", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return storageErr("commit tx", err)
	}
	return nil
}

func storageErr(op string, err error) error {
	return fmt.Errorf("store: %s: %w: %w", op, domain.ErrStorage, err)
}

func notFound(entity string, id int64) error {
	return fmt.Errorf("store: %s %d: %w", entity, id, domain.ErrNotFound)
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func expectRow(res sql.Result, entity string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr("rows affected", err)
	}
	if n == 0 {
		return notFound(entity, id)
	}
	return nil
}

func parseTimestamp(value string, loc *time.Location) time.Time {
	t, err := time.ParseInLocation(domain.TimestampLayout, value, loc)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseDate(value string, loc *time.Location) time.Time {
	t, err := time.ParseInLocation(domain.DateLayout, value, loc)
	if err != nil {
		return time.Time{}
	}
	return t
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

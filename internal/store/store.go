// Package store persists print jobs, rules, and settings.
//
// All SQL lives in named queries under internal/core/db/queries; this package
// maps rows to domain types and translates driver errors into the sentinel
// errors callers branch on.
package store

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// Queries interface defines the named-query operations the store needs.
// Implemented by *db.Queries to allow query loading via LoadQueries().
type Queries interface {
	Get(name string, dest interface{}, args ...interface{}) error
	Select(name string, dest interface{}, args ...interface{}) error
	Exec(name string, args ...interface{}) (sql.Result, error)
}

// Store provides persistence for print jobs, rules, and settings.
type Store struct {
	q   Queries
	log zerolog.Logger
}

// New creates a store backed by the given named queries.
func New(q Queries, log zerolog.Logger) *Store {
	return &Store{q: q, log: log}
}

// isUniqueViolation reports whether err is a unique-constraint failure from
// either supported driver.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

// Package pg implements the persistence interfaces on PostgreSQL. Token
// redemption and request fulfillment are written as conditional updates with
// affected-row checks so concurrent duplicates lose at the database, not in
// application code.
package pg

import (
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Store wraps the shared connection pool. Sub-stores hang off it.
type Store struct {
	db *sql.DB
}

// Open connects to PostgreSQL with pool defaults tuned for a small service.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// NewStore wraps an existing handle (tests use this with sqlmock).
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

// DB exposes the handle for readiness pings and the migration manager.
func (s *Store) DB() *sql.DB { return s.db }

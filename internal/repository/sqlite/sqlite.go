// Package sqlite implements the repository interfaces on SQLite.
//
// WHY SQLITE?
// SQLite is an embedded database — it lives inside the Go binary as a single
// file. No separate database server to install, configure, or manage. For a
// low-traffic personal tool that is exactly the right amount of
// infrastructure, and ":memory:" gives tests a free throwaway database.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which needs a C compiler and makes
// cross-compilation painful. modernc.org/sqlite is a pure Go translation of
// SQLite — works everywhere Go works.
//
// The pattern throughout this package is plain database/sql:
//  1. sql.Open(driverName, dataSourceName) → connection pool
//  2. ExecContext / QueryRowContext / QueryContext → run statements
//  3. rows.Scan(&field1, &field2) → read results into Go variables
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	// Side-effect import: the driver registers itself with database/sql
	// under the name "sqlite".
	_ "modernc.org/sqlite"

	"github.com/avolkov/birthdaybook/internal/repository"
)

// compile-time check that *Store implements repository.Store
var _ repository.Store = (*Store)(nil)

// querier is the subset of database/sql methods shared by *sql.DB and
// *sql.Tx. Every repository method goes through a querier, which is what
// lets the same code run both directly on the pool and inside a
// transaction (see InTx).
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store wraps a sql.DB pool and provides the repository implementations.
//
// The zero field layout matters: `q` is what queries run against. For the
// root Store q == conn; for a transaction-bound Store (created by InTx)
// q is the *sql.Tx and conn is kept only so nested code can detect it.
type Store struct {
	conn *sql.DB
	q    querier
	tx   bool // true when q is a transaction
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/birthdaybook.db" → file-based, persistent
//   - ":memory:"             → in-memory, perfect for tests
func New(dbPath string) (*Store, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Ping forces an immediate connection so a bad path or permissions
	// problem surfaces here, not on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// A pool of one connection. SQLite allows a single writer at a time
	// anyway, and an in-memory database exists per connection — a second
	// pool connection to ":memory:" would see an empty schema.
	conn.SetMaxOpenConns(1)

	// WAL mode lets readers proceed while a write is in flight — the web
	// server and the bot share this database.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite. We rely on
	// friends.profile_id → profiles.id and profiles.user_id → users.id.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	s := &Store{conn: conn, q: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection pool. Always defer this next to New.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Users returns the user repository backed by this store.
func (s *Store) Users() repository.UserRepository { return &UserRepo{q: s.q} }

// Profiles returns the profile repository backed by this store.
func (s *Store) Profiles() repository.ProfileRepository { return &ProfileRepo{q: s.q} }

// Friends returns the friend repository backed by this store.
func (s *Store) Friends() repository.FriendRepository { return &FriendRepo{q: s.q} }

// InTx runs fn inside a single SQLite transaction.
//
// The Store handed to fn shares the pool but routes every query through the
// transaction, so all repository calls made inside the callback commit or
// roll back together. This is the primitive the linking merge depends on:
// reassigning friends and attaching the chat identity must never be
// observable half-done.
//
// A nested InTx call (fn calling InTx again) just reuses the open
// transaction — SQLite has no real nested transactions and the semantics we
// want ("everything in the outermost unit") fall out naturally.
func (s *Store) InTx(ctx context.Context, fn func(repository.Store) error) error {
	if s.tx {
		return fn(s)
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}

	txStore := &Store{conn: s.conn, q: tx, tx: true}

	// Roll back on panic as well as on error — a panic mid-merge must not
	// leave friends half-migrated.
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(txStore); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			return fmt.Errorf("sqlite: rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing transaction: %w", err)
	}
	return nil
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps it
// idempotent — safe to run on every start.
//
// The three UNIQUE constraints below are the store-level invariants the
// rest of the system leans on:
//   - users.username    → one account per login name
//   - profiles.user_id  → one profile per account
//   - profiles.chat_id  → a chat identity belongs to at most one profile
//   - profiles.link_code → codes resolve to exactly one profile
//
// chat_id and user_id are nullable; SQLite unique indexes ignore NULLs, so
// any number of profiles can have "no chat attached" at once.
func (s *Store) migrate() error {
	_, err := s.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			username      TEXT NOT NULL UNIQUE,
			email         TEXT NOT NULL DEFAULT '',
			password_hash TEXT NOT NULL,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS profiles (
			id         TEXT PRIMARY KEY,
			user_id    TEXT UNIQUE REFERENCES users(id) ON DELETE CASCADE,
			chat_id    INTEGER UNIQUE,
			link_code  TEXT NOT NULL UNIQUE,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS friends (
			id         TEXT PRIMARY KEY,
			profile_id TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
			name       TEXT NOT NULL,
			birthday   TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_friends_profile_id ON friends(profile_id);
	`)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// isUniqueViolation detects a UNIQUE-constraint failure from the driver.
//
// modernc.org/sqlite reports constraint violations with the SQLite error
// text ("UNIQUE constraint failed: profiles.chat_id"). Matching the message
// is not elegant, but database/sql offers nothing portable here and the
// string is stable across SQLite versions.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

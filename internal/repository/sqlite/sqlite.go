// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// WHY SQLITE?
// SQLite is an embedded database — it lives inside the Go binary as a single
// file. No separate database server to install, configure, or manage.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which needs a C compiler and makes
// cross-compilation painful. modernc.org/sqlite is a pure Go translation of
// the SQLite sources — works everywhere Go works.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	// BLANK IMPORT:
	// The underscore import is a "side-effect only" import: the package's
	// init() registers itself with database/sql as a driver named "sqlite".
	// The aliased import below is the same module, used non-blank so we can
	// inspect driver error codes.
	sqlitedrv "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// DB wraps a sql.DB connection pool and provides the repository methods.
// sql.DB is itself a pool: each query checks a connection out and returns
// it unconditionally when the statement finishes, success or failure.
type DB struct {
	conn *sql.DB
}

// New opens the SQLite database at dbPath and runs schema migrations.
//
// dbPath examples:
//   - "data/promptstore.db" → file-based database (persistent)
//   - ":memory:"            → in-memory database (tests, lost on close)
func New(dbPath string) (*DB, error) {
	// "sqlite" is the driver name registered by modernc.org/sqlite.
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Ping forces an immediate connection so a bad path or permissions
	// problem surfaces now rather than on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL allows concurrent reads while a write is in progress — needed for
	// a web server where multiple requests hit the DB at once.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite. system_messages.user_id
	// references users(id), so turn enforcement on.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool. Always defer this next to New.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS is idempotent, so
// running it on every startup is safe and doubles as the schema-init
// command.
//
// The two UNIQUE constraints are load-bearing, not decorative: they are the
// sole arbiters for duplicate usernames and duplicate (owner, name) pairs
// under concurrent requests. Service-level pre-checks exist only for better
// error messages.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			username      TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS system_messages (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id    INTEGER NOT NULL REFERENCES users(id),
			name       TEXT NOT NULL,
			content    TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (user_id, name)
		);
		CREATE INDEX IF NOT EXISTS idx_system_messages_user_id
			ON system_messages(user_id);
	`)
	if err != nil {
		return fmt.Errorf("creating system_messages table: %w", err)
	}

	return nil
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
//
// The driver wraps SQLite's extended result codes in *sqlite.Error; code
// 2067 is SQLITE_CONSTRAINT_UNIQUE. This is how the store turns the
// constraint — the true arbiter under races — into a typed Conflict signal.
func isUniqueViolation(err error) bool {
	var se *sqlitedrv.Error
	return errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}

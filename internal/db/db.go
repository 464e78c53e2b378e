// Package db manages the SQLite key-value database that backs an
// application-group storage area.
package db

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver with database/sql
)

//go:embed migrations/*.sql
var migrations embed.FS

// DB wraps a *sql.DB with the path it was opened from.
type DB struct {
	db   *sql.DB
	path string
}

// UpdateFunc receives the current value (ok is false when the key is absent)
// and returns the value to store. Returning a nil slice removes the key.
type UpdateFunc func(current []byte, ok bool) ([]byte, error)

// Open opens (or creates) the SQLite database at path and applies pending
// migrations.
//
// Transactions begin with BEGIN IMMEDIATE so a read-modify-write in Update
// holds the write lock from its first read; a second process blocks on the
// busy timeout instead of interleaving.
func Open(path string) (*DB, error) {
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate"
	sqldb, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("db.Open: %w", err)
	}
	if err := sqldb.Ping(); err != nil {
		_ = sqldb.Close()
		return nil, fmt.Errorf("db.Open ping: %w", err)
	}
	d := &DB{db: sqldb, path: path}
	if err := d.migrate(); err != nil {
		_ = sqldb.Close()
		return nil, fmt.Errorf("db.Open migrate: %w", err)
	}
	return d, nil
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// Path returns the file path the database was opened from.
func (d *DB) Path() string { return d.path }

// ---------------------------------------------------------------------------
// Schema
// ---------------------------------------------------------------------------

func (d *DB) migrate() error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}
	defer src.Close()

	drv, err := migratesqlite.WithInstance(d.db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}

	// The migrator is not closed: closing it would close d.db as well.
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", drv)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Key-value access
// ---------------------------------------------------------------------------

// Get returns the value stored under (suite, key), or (nil, false, nil) if
// the key is absent.
func (d *DB) Get(suite, key string) ([]byte, bool, error) {
	var val []byte
	err := d.db.QueryRow(
		`SELECT value FROM defaults WHERE suite = ? AND key = ?`, suite, key,
	).Scan(&val)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("db.Get: %w", err)
	}
	return val, true, nil
}

// Set upserts value under (suite, key).
func (d *DB) Set(suite, key string, value []byte) error {
	if _, err := d.db.Exec(upsertQ, suite, key, value, now()); err != nil {
		return fmt.Errorf("db.Set: %w", err)
	}
	return nil
}

// Remove deletes (suite, key). Returns true if a value was present.
func (d *DB) Remove(suite, key string) (bool, error) {
	res, err := d.db.Exec(`DELETE FROM defaults WHERE suite = ? AND key = ?`, suite, key)
	if err != nil {
		return false, fmt.Errorf("db.Remove: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db.Remove: %w", err)
	}
	return n > 0, nil
}

// Update runs fn against the current value of (suite, key) and stores its
// result, all inside one write transaction.
func (d *DB) Update(suite, key string, fn UpdateFunc) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("db.Update begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var cur []byte
	ok := true
	err = tx.QueryRow(
		`SELECT value FROM defaults WHERE suite = ? AND key = ?`, suite, key,
	).Scan(&cur)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		ok = false
	case err != nil:
		return fmt.Errorf("db.Update read: %w", err)
	}

	next, err := fn(cur, ok)
	if err != nil {
		return err
	}

	if next == nil {
		_, err = tx.Exec(`DELETE FROM defaults WHERE suite = ? AND key = ?`, suite, key)
	} else {
		_, err = tx.Exec(upsertQ, suite, key, next, now())
	}
	if err != nil {
		return fmt.Errorf("db.Update write: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("db.Update commit: %w", err)
	}
	return nil
}

// Keys returns the keys stored in suite, sorted.
func (d *DB) Keys(suite string) ([]string, error) {
	rows, err := d.db.Query(`SELECT key FROM defaults WHERE suite = ? ORDER BY key`, suite)
	if err != nil {
		return nil, fmt.Errorf("db.Keys: %w", err)
	}
	defer rows.Close()

	keys := make([]string, 0)
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("db.Keys scan: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

const upsertQ = `
	INSERT INTO defaults (suite, key, value, updated_at) VALUES (?, ?, ?, ?)
	ON CONFLICT(suite, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// Package kvstore is a reference implementation of the scoped key-value
// collaborator spec.md §6 describes (get/put/delete, scoped per workspace,
// machine-durable). The engine depends only on the narrower Store interface
// in package checkpoint; this is the concrete backend a host process wires
// in. The engine and checkpoint tests use their own in-memory map stores.
package kvstore

import (
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

// DB is a SQLite-backed key-value store. SQLite (via the pure-Go
// modernc.org/sqlite driver) gives the checkpoint store and the identity
// package's user-id persistence a durable, single-file home without
// introducing a CGO dependency.
type DB struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (creating if necessary) a SQLite-backed KV store at path.
// Pass ":memory:" for an ephemeral store, as this package's tests do.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open kv store: %w", err)
	}
	// A single connection keeps ":memory:" databases coherent across
	// goroutines and avoids SQLite's writer-concurrency pitfalls for our
	// low-throughput, single-writer-per-workspace access pattern.
	db.SetMaxOpenConns(1)

	store := &DB{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init kv schema: %w", err)
	}
	return store, nil
}

func (d *DB) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS kv (
		scope TEXT NOT NULL,
		key   TEXT NOT NULL,
		value TEXT NOT NULL,
		PRIMARY KEY (scope, key)
	);
	`
	_, err := d.db.Exec(schema)
	return err
}

// Get returns the value stored at (scope, key), or ok=false if absent.
func (d *DB) Get(key, scope string) (string, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var value string
	err := d.db.QueryRow(`SELECT value FROM kv WHERE scope = ? AND key = ?`, scope, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("kv get failed: %w", err)
	}
	return value, true, nil
}

// Put upserts the value at (scope, key). durability is accepted for
// interface parity with spec.md §6 (this backend is always machine-durable).
func (d *DB) Put(key, value, scope, durability string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	_, err := d.db.Exec(
		`INSERT INTO kv (scope, key, value) VALUES (?, ?, ?)
		 ON CONFLICT(scope, key) DO UPDATE SET value = excluded.value`,
		scope, key, value,
	)
	if err != nil {
		return fmt.Errorf("kv put failed: %w", err)
	}
	return nil
}

// Delete removes the value at (scope, key). Deleting an absent key is not
// an error.
func (d *DB) Delete(key, scope string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	_, err := d.db.Exec(`DELETE FROM kv WHERE scope = ? AND key = ?`, scope, key)
	if err != nil {
		return fmt.Errorf("kv delete failed: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (d *DB) Close() error {
	return d.db.Close()
}

// WorkspaceScoped adapts a DB to the identity.UserStore / checkpoint.Store
// shape for a single fixed scope, so callers don't thread the scope string
// through every call.
type WorkspaceScoped struct {
	db    *DB
	scope string
}

// NewWorkspaceScoped returns a view of db restricted to the given scope
// string (the commands use "identity" and "checkpoint").
func NewWorkspaceScoped(db *DB, scope string) *WorkspaceScoped {
	return &WorkspaceScoped{db: db, scope: scope}
}

func (w *WorkspaceScoped) Get(key string) (string, bool, error) { return w.db.Get(key, w.scope) }
func (w *WorkspaceScoped) Put(key, value string) error          { return w.db.Put(key, value, w.scope, "machine") }
func (w *WorkspaceScoped) Delete(key string) error               { return w.db.Delete(key, w.scope) }

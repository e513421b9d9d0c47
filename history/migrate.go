package history

import (
	"database/sql"
	"fmt"
	"os"
)

// schemaVersion is the latest schema version known to this binary.
const schemaVersion = 1

// migrate ensures the schema exists and is up to date.
func migrate(db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("migrate: db is nil")
	}

	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER PRIMARY KEY);`)
	if err != nil {
		return fmt.Errorf("migrate: create schema_migrations: %w", err)
	}

	var current int
	err = db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations;`).Scan(&current)
	if err != nil {
		return fmt.Errorf("migrate: read current version: %w", err)
	}
	if current >= schemaVersion {
		return nil
	}

	transaction, err := db.Begin()
	if err != nil {
		return fmt.Errorf("migrate: begin transaction: %w", err)
	}
	defer func() {
		_ = transaction.Rollback()
	}()

	_, err = transaction.Exec(`
		CREATE TABLE IF NOT EXISTS posts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			text TEXT NOT NULL,
			created_at TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("migrate: create posts table: %w", err)
	}

	_, err = transaction.Exec(`
		CREATE TABLE IF NOT EXISTS rotation (
			name TEXT PRIMARY KEY,
			idx INTEGER NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("migrate: create rotation table: %w", err)
	}

	_, err = transaction.Exec(`
		CREATE TABLE IF NOT EXISTS app_state (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("migrate: create app_state table: %w", err)
	}

	_, err = transaction.Exec(`INSERT INTO schema_migrations(version) VALUES (?);`, schemaVersion)
	if err != nil {
		return fmt.Errorf("migrate: record schema version: %w", err)
	}

	if err := transaction.Commit(); err != nil {
		return fmt.Errorf("migrate: commit transaction: %w", err)
	}
	return nil
}

// sideline moves an unreadable database file out of the way so a fresh one
// can be created in its place.
func sideline(path string) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}
	return os.Rename(path, path+".corrupt")
}

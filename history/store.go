// Package history provides SQLite-backed persistence for the bot: the
// bounded log of published texts, rotation counters, and the named state
// slots the daily guards read and write.
//
// Callers treat every failure here as non-fatal. The bot prefers posting
// with a degraded duplicate check over not posting because storage hiccuped.
package history

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Store wraps a SQLite database holding all durable bot state.
type Store struct {
	db *sql.DB
}

// PostRecord is one previously published text. Immutable once stored.
type PostRecord struct {
	ID        int64
	Text      string
	CreatedAt time.Time
}

// Open opens (or creates) the database at path and ensures the schema. A
// database that cannot be opened or migrated is sidelined to path+".corrupt"
// and recreated empty: corrupt state degrades to empty state, it never keeps
// the bot from running.
func Open(path string) (*Store, error) {
	store, err := open(path)
	if err == nil {
		return store, nil
	}

	if sidelineErr := sideline(path); sidelineErr != nil {
		return nil, fmt.Errorf("open state db: %w", err)
	}
	store, retryErr := open(path)
	if retryErr != nil {
		return nil, fmt.Errorf("open state db after sideline: %w", retryErr)
	}
	return store, nil
}

func open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Append stores text as the newest post record and trims the log to the most
// recent limit rows. limit <= 0 keeps the log unbounded.
func (s *Store) Append(text string, limit int) error {
	if s == nil || s.db == nil {
		return errors.New("append: store is nil")
	}
	if text == "" {
		return errors.New("append: text is empty")
	}
	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := s.db.Exec(`INSERT INTO posts (text, created_at) VALUES (?, ?)`, text, now); err != nil {
		return fmt.Errorf("append: insert: %w", err)
	}
	if limit > 0 {
		_, err := s.db.Exec(
			`DELETE FROM posts WHERE id NOT IN (SELECT id FROM posts ORDER BY id DESC LIMIT ?)`, limit)
		if err != nil {
			return fmt.Errorf("append: trim: %w", err)
		}
	}
	return nil
}

// Recent returns up to k post texts, newest first.
func (s *Store) Recent(k int) ([]string, error) {
	records, err := s.RecentRecords(k)
	if err != nil {
		return nil, err
	}
	texts := make([]string, 0, len(records))
	for _, r := range records {
		texts = append(texts, r.Text)
	}
	return texts, nil
}

// RecentRecords returns up to k post records, newest first.
func (s *Store) RecentRecords(k int) ([]PostRecord, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("recent: store is nil")
	}
	if k <= 0 {
		return nil, nil
	}
	rows, err := s.db.Query(`SELECT id, text, created_at FROM posts ORDER BY id DESC LIMIT ?`, k)
	if err != nil {
		return nil, fmt.Errorf("recent: query: %w", err)
	}
	defer rows.Close()

	records := make([]PostRecord, 0, k)
	for rows.Next() {
		var rec PostRecord
		var createdAt string
		if err := rows.Scan(&rec.ID, &rec.Text, &createdAt); err != nil {
			return nil, fmt.Errorf("recent: scan: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			rec.CreatedAt = t
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("recent: rows: %w", err)
	}
	return records, nil
}

// Count returns the number of post records currently retained.
func (s *Store) Count() (int, error) {
	if s == nil || s.db == nil {
		return 0, errors.New("count: store is nil")
	}
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM posts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

// NextRotation advances the named counter to (previous+1) mod size, persists
// it, and returns the new index. A counter that has never been advanced
// starts at 0.
func (s *Store) NextRotation(name string, size int) (int, error) {
	if s == nil || s.db == nil {
		return 0, errors.New("next rotation: store is nil")
	}
	if size <= 0 {
		return 0, fmt.Errorf("next rotation: invalid set size %d", size)
	}

	var prev int
	err := s.db.QueryRow(`SELECT idx FROM rotation WHERE name = ?`, name).Scan(&prev)
	next := 0
	switch {
	case errors.Is(err, sql.ErrNoRows):
		next = 0
	case err != nil:
		return 0, fmt.Errorf("next rotation: read: %w", err)
	default:
		next = (prev + 1) % size
	}

	_, err = s.db.Exec(
		`INSERT INTO rotation (name, idx) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET idx = excluded.idx`, name, next)
	if err != nil {
		return 0, fmt.Errorf("next rotation: write: %w", err)
	}
	return next, nil
}

// Rotations returns all persisted rotation counters by name.
func (s *Store) Rotations() (map[string]int, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("rotations: store is nil")
	}
	rows, err := s.db.Query(`SELECT name, idx FROM rotation`)
	if err != nil {
		return nil, fmt.Errorf("rotations: query: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var name string
		var idx int
		if err := rows.Scan(&name, &idx); err != nil {
			return nil, fmt.Errorf("rotations: scan: %w", err)
		}
		out[name] = idx
	}
	return out, rows.Err()
}

// GetState reads a named state slot. A slot that was never written returns
// ("", nil).
func (s *Store) GetState(key string) (string, error) {
	if s == nil || s.db == nil {
		return "", errors.New("get state: store is nil")
	}
	var value string
	err := s.db.QueryRow(`SELECT value FROM app_state WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get state %s: %w", key, err)
	}
	return value, nil
}

// SetState writes a named state slot, overwriting any previous value.
func (s *Store) SetState(key, value string) error {
	if s == nil || s.db == nil {
		return errors.New("set state: store is nil")
	}
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(
		`INSERT INTO app_state (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, now)
	if err != nil {
		return fmt.Errorf("set state %s: %w", key, err)
	}
	return nil
}

// States returns all persisted state slots.
func (s *Store) States() (map[string]string, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("states: store is nil")
	}
	rows, err := s.db.Query(`SELECT key, value FROM app_state`)
	if err != nil {
		return nil, fmt.Errorf("states: query: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("states: scan: %w", err)
		}
		out[key] = value
	}
	return out, rows.Err()
}

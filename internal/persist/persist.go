// Package persist stores the scored feed in SQLite so the index survives
// restarts.
package persist

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"sentiment-pulse/internal/types"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS feed_items (
	position   INTEGER NOT NULL,
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	status     TEXT NOT NULL,
	impact     REAL NOT NULL,
	confidence REAL NOT NULL,
	timestamp  INTEGER NOT NULL,
	source     TEXT NOT NULL DEFAULT '',
	summary    TEXT NOT NULL DEFAULT '',
	reasoning  TEXT NOT NULL DEFAULT '',
	entities   TEXT NOT NULL DEFAULT '[]',
	weights    TEXT NOT NULL DEFAULT '[]'
);
`

// DB wraps the SQLite connection holding the persisted feed.
type DB struct {
	conn *sql.DB
	path string
}

// Open creates or opens the database at dbPath, applying the schema.
func Open(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	return &DB{conn: conn, path: dbPath}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// LoadFeed returns the persisted feed in stored order, newest first. An
// empty database yields an empty slice, not an error.
func (db *DB) LoadFeed() ([]types.ScoredItem, error) {
	rows, err := db.conn.Query(`
		SELECT id, title, status, impact, confidence, timestamp, source, summary, reasoning, entities, weights
		FROM feed_items ORDER BY position ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying feed: %w", err)
	}
	defer rows.Close()

	var items []types.ScoredItem
	for rows.Next() {
		var (
			item             types.ScoredItem
			ts               int64
			entJSON, wgtJSON string
		)
		if err := rows.Scan(&item.ID, &item.Title, &item.Status, &item.Impact, &item.Confidence,
			&ts, &item.Source, &item.Summary, &item.Reasoning, &entJSON, &wgtJSON); err != nil {
			return nil, fmt.Errorf("scanning feed row: %w", err)
		}
		item.Timestamp = time.UnixMilli(ts)
		if err := json.Unmarshal([]byte(entJSON), &item.Entities); err != nil {
			item.Entities = nil
		}
		if err := json.Unmarshal([]byte(wgtJSON), &item.Weights); err != nil {
			item.Weights = nil
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// SaveFeed replaces the stored feed with items, preserving order.
func (db *DB) SaveFeed(items []types.ScoredItem) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM feed_items"); err != nil {
		return fmt.Errorf("clearing feed: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO feed_items (position, id, title, status, impact, confidence, timestamp, source, summary, reasoning, entities, weights)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, item := range items {
		entJSON, _ := json.Marshal(item.Entities)
		wgtJSON, _ := json.Marshal(item.Weights)
		if _, err := stmt.Exec(i, item.ID, item.Title, string(item.Status), item.Impact, item.Confidence,
			item.Timestamp.UnixMilli(), item.Source, item.Summary, item.Reasoning,
			string(entJSON), string(wgtJSON)); err != nil {
			return fmt.Errorf("inserting feed item: %w", err)
		}
	}

	return tx.Commit()
}

package services

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS price_predictions (
	id              TEXT PRIMARY KEY,
	brand           TEXT NOT NULL,
	model           TEXT NOT NULL,
	year            INTEGER NOT NULL,
	mileage         REAL NOT NULL,
	transmission    TEXT NOT NULL,
	owner           TEXT NOT NULL,
	fuel_type       TEXT NOT NULL,
	predicted_price REAL NOT NULL,
	created_at      TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_price_predictions_created_at ON price_predictions(created_at);

CREATE TABLE IF NOT EXISTS car_listings (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	seller_id    TEXT NOT NULL,
	brand        TEXT NOT NULL,
	model        TEXT NOT NULL,
	year         INTEGER NOT NULL,
	mileage      REAL NOT NULL,
	transmission TEXT NOT NULL,
	owner        TEXT NOT NULL,
	fuel_type    TEXT NOT NULL,
	price        REAL NOT NULL,
	description  TEXT NOT NULL DEFAULT '',
	image_url    TEXT NOT NULL DEFAULT '',
	is_sold      INTEGER NOT NULL DEFAULT 0,
	created_at   TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_car_listings_seller ON car_listings(seller_id);
`

// Database SQLite 接続のラッパー
type Database struct {
	conn *sql.DB
	path string
}

// OpenDatabase opens (or creates) the SQLite file at path and applies the schema.
func OpenDatabase(path string) (*Database, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	// SQLite は書き込みが単一なので接続を絞る
	conn.SetMaxOpenConns(1)

	db := &Database{conn: conn, path: path}
	if err := db.Migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Migrate applies the schema. It is idempotent.
func (db *Database) Migrate() error {
	if _, err := db.conn.Exec(schema); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// Reset drops and recreates every table.
func (db *Database) Reset() error {
	if _, err := db.conn.Exec(`DROP TABLE IF EXISTS price_predictions; DROP TABLE IF EXISTS car_listings;`); err != nil {
		return fmt.Errorf("failed to drop tables: %w", err)
	}
	return db.Migrate()
}

// Conn returns the underlying sql.DB connection
func (db *Database) Conn() *sql.DB {
	return db.conn
}

// Close closes the database connection
func (db *Database) Close() error {
	return db.conn.Close()
}

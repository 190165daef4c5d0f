// Package storage provides SQLite persistence for wifipilot.
package storage

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// DBFileName is the database file inside the data dir.
const DBFileName = "wifipilot.db"

// DB wraps the SQLite database connection.
type DB struct {
	*sql.DB
	mu sync.RWMutex
}

// Open creates and initializes the database in dataDir.
func Open(dataDir string) (*DB, error) {
	dbPath := filepath.Join(dataDir, DBFileName)
	db, err := sql.Open("sqlite3", dbPath+"?_journal=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	instance := &DB{DB: db}
	if err := instance.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return instance, nil
}

func (db *DB) createTables() error {
	tables := []string{
		`CREATE TABLE IF NOT EXISTS decisions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			cycle_id TEXT NOT NULL,
			timestamp DATETIME NOT NULL,
			current_bssid TEXT,
			current_ssid TEXT,
			current_rssi INTEGER,
			current_freq INTEGER,
			has_internet INTEGER DEFAULT 0,
			candidate_bssid TEXT,
			candidate_ssid TEXT,
			candidate_signal INTEGER,
			candidate_freq INTEGER,
			reason TEXT,
			batch_size INTEGER DEFAULT 0,
			skipped INTEGER DEFAULT 0,
			badge_warning INTEGER DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_decisions_timestamp ON decisions(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_decisions_candidate ON decisions(candidate_bssid)`,

		`CREATE TABLE IF NOT EXISTS probation (
			bssid_key TEXT PRIMARY KEY,
			bssid TEXT NOT NULL,
			expiry DATETIME NOT NULL,
			reason TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_probation_expiry ON probation(expiry)`,

		`CREATE TABLE IF NOT EXISTS suggestions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			ssid TEXT,
			bssid TEXT NOT NULL,
			signal_level INTEGER,
			frequency INTEGER,
			priority INTEGER,
			submitted_at DATETIME NOT NULL
		)`,
	}

	for _, table := range tables {
		if _, err := db.Exec(table); err != nil {
			return fmt.Errorf("failed to execute: %s: %w", table, err)
		}
	}
	return nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.DB.Close()
}

// WithLock executes a function with write lock.
func (db *DB) WithLock(fn func() error) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return fn()
}

// WithRLock executes a function with read lock.
func (db *DB) WithRLock(fn func() error) error {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return fn()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

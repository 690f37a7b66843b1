// Package storage keeps the bot's small amount of local state in SQLite:
// cached user profiles and per-topic reply statistics. Chat history is never
// stored.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver for database/sql
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// DB wraps the SQLite database connection
type DB struct {
	conn     *sql.DB
	path     string
	cacheTTL time.Duration // How long cached profiles stay valid
}

// New opens the database at dbPath, applies pragmas and creates the schema.
// cacheTTL specifies how long cached profiles remain valid before expiring.
func New(ctx context.Context, dbPath string, cacheTTL time.Duration) (*DB, error) {
	// Ensure directory exists (skip for in-memory database)
	if dbPath != MemoryPath {
		if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if dbPath == MemoryPath {
		// Every connection to :memory: is a separate database
		conn.SetMaxOpenConns(1)
		conn.SetMaxIdleConns(1)
		conn.SetConnMaxLifetime(0)
	} else {
		conn.SetMaxOpenConns(4)
		conn.SetMaxIdleConns(2)
		conn.SetConnMaxLifetime(time.Hour)
	}

	pragmas := []struct{ name, stmt string }{
		{"WAL mode", "PRAGMA journal_mode=WAL"},
		{"busy timeout", "PRAGMA busy_timeout=5000"},
		{"synchronous mode", "PRAGMA synchronous=NORMAL"},
	}
	for _, p := range pragmas {
		if _, err := conn.ExecContext(ctx, p.stmt); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to set %s: %w", p.name, err)
		}
	}

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := InitSchema(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &DB{
		conn:     conn,
		path:     dbPath,
		cacheTTL: cacheTTL,
	}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// Ping verifies the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Conn returns the underlying *sql.DB connection
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Path returns the database file path
func (db *DB) Path() string {
	return db.path
}

// CacheTTL returns the configured profile cache TTL
func (db *DB) CacheTTL() time.Duration {
	return db.cacheTTL
}

// ttlCutoff returns the Unix timestamp before which cached rows are expired.
func (db *DB) ttlCutoff() int64 {
	return time.Now().Unix() - int64(db.cacheTTL.Seconds())
}

// NewTestDB creates an in-memory database for testing with a 24-hour TTL.
func NewTestDB() (*DB, error) {
	return New(context.Background(), MemoryPath, 24*time.Hour)
}

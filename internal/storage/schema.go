package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// InitSchema creates all tables and indexes. It is idempotent.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if err := createProfilesTable(ctx, db); err != nil {
		return err
	}
	return createTopicStatsTable(ctx, db)
}

func createProfilesTable(ctx context.Context, db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS profiles (
		psid TEXT PRIMARY KEY,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		profile_pic TEXT NOT NULL DEFAULT '',
		cached_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_profiles_cached_at ON profiles(cached_at);
	`

	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create profiles table: %w", err)
	}
	return nil
}

// createTopicStatsTable stores one counter per (entry, source). entry_id is
// empty for replies that matched no entry.
func createTopicStatsTable(ctx context.Context, db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS topic_stats (
		entry_id TEXT NOT NULL,
		source TEXT NOT NULL,
		count INTEGER NOT NULL DEFAULT 0,
		last_seen_at INTEGER NOT NULL,
		PRIMARY KEY (entry_id, source)
	);
	CREATE INDEX IF NOT EXISTS idx_topic_stats_count ON topic_stats(count DESC);
	`

	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create topic_stats table: %w", err)
	}
	return nil
}

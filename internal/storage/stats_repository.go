package storage

import (
	"context"
	"fmt"
	"time"
)

// RecordTopicHit increments the counter of (entryID, source).
func (db *DB) RecordTopicHit(ctx context.Context, entryID, source string) error {
	query := `
		INSERT INTO topic_stats (entry_id, source, count, last_seen_at)
		VALUES (?, ?, 1, ?)
		ON CONFLICT(entry_id, source) DO UPDATE SET
			count = count + 1,
			last_seen_at = excluded.last_seen_at
	`
	if _, err := db.conn.ExecContext(ctx, query, entryID, source, time.Now().Unix()); err != nil {
		return fmt.Errorf("record topic hit: %w", err)
	}
	return nil
}

// TopicStats returns all counters, most frequent first.
func (db *DB) TopicStats(ctx context.Context) ([]TopicStat, error) {
	query := `
		SELECT entry_id, source, count, last_seen_at
		FROM topic_stats
		ORDER BY count DESC, entry_id ASC, source ASC
	`
	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query topic stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var stats []TopicStat
	for rows.Next() {
		var s TopicStat
		if err := rows.Scan(&s.EntryID, &s.Source, &s.Count, &s.LastSeenAt); err != nil {
			return nil, fmt.Errorf("scan topic stat: %w", err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate topic stats: %w", err)
	}
	return stats, nil
}

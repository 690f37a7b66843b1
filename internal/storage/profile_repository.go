package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// SaveProfile inserts or refreshes a cached profile.
func (db *DB) SaveProfile(ctx context.Context, p *Profile) error {
	if p == nil || p.PSID == "" {
		return errors.New("save profile: psid is required")
	}

	query := `
		INSERT INTO profiles (psid, first_name, last_name, profile_pic, cached_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(psid) DO UPDATE SET
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			profile_pic = excluded.profile_pic,
			cached_at = excluded.cached_at
	`
	cachedAt := time.Now().Unix()
	if _, err := db.conn.ExecContext(ctx, query, p.PSID, p.FirstName, p.LastName, p.ProfilePic, cachedAt); err != nil {
		slog.ErrorContext(ctx, "failed to save profile",
			"psid", p.PSID,
			"error", err)
		return fmt.Errorf("failed to save profile: %w", err)
	}
	p.CachedAt = cachedAt
	return nil
}

// GetProfile returns the cached profile for psid, or nil when it is missing
// or older than the cache TTL.
func (db *DB) GetProfile(ctx context.Context, psid string) (*Profile, error) {
	query := `
		SELECT psid, first_name, last_name, profile_pic, cached_at
		FROM profiles
		WHERE psid = ? AND cached_at > ?
	`

	var p Profile
	err := db.conn.QueryRowContext(ctx, query, psid, db.ttlCutoff()).Scan(
		&p.PSID,
		&p.FirstName,
		&p.LastName,
		&p.ProfilePic,
		&p.CachedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query profile: %w", err)
	}
	return &p, nil
}

// DeleteExpiredProfiles removes profiles older than the cache TTL and
// returns how many were deleted.
func (db *DB) DeleteExpiredProfiles(ctx context.Context) (int64, error) {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM profiles WHERE cached_at <= ?`, db.ttlCutoff())
	if err != nil {
		return 0, fmt.Errorf("delete expired profiles: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired profiles: %w", err)
	}
	return n, nil
}

// CountProfiles returns the number of cached profiles, expired ones included.
func (db *DB) CountProfiles(ctx context.Context) (int, error) {
	var count int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM profiles`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count profiles: %w", err)
	}
	return count, nil
}

package storage

import "context"

// ProfileRepository caches user profiles fetched from the Graph API.
type ProfileRepository interface {
	GetProfile(ctx context.Context, psid string) (*Profile, error)
	SaveProfile(ctx context.Context, p *Profile) error
	DeleteExpiredProfiles(ctx context.Context) (int64, error)
	CountProfiles(ctx context.Context) (int, error)
}

// StatsRepository records which topics users ask about.
type StatsRepository interface {
	RecordTopicHit(ctx context.Context, entryID, source string) error
	TopicStats(ctx context.Context) ([]TopicStat, error)
}

// Compile-time interface satisfaction checks.
var (
	_ ProfileRepository = (*DB)(nil)
	_ StatsRepository   = (*DB)(nil)
)

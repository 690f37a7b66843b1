package storage

// Profile is a cached Messenger user profile.
type Profile struct {
	PSID       string `json:"id"`
	FirstName  string `json:"first_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`
	ProfilePic string `json:"profile_pic,omitempty"`
	CachedAt   int64  `json:"cached_at"`
}

// TopicStat counts replies answered from one knowledge entry by one source.
type TopicStat struct {
	EntryID    string `json:"entry_id"` // Empty when no entry matched
	Source     string `json:"source"`
	Count      int64  `json:"count"`
	LastSeenAt int64  `json:"last_seen_at"`
}

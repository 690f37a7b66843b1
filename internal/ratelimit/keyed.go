package ratelimit

import (
	"sync"
	"time"

	"github.com/mmstudyabroad/counselor-bot/internal/metrics"
)

// defaultCleanupPeriod applies when KeyedConfig.CleanupPeriod is unset.
const defaultCleanupPeriod = 5 * time.Minute

// KeyedConfig configures a KeyedLimiter instance.
type KeyedConfig struct {
	// Name identifies this limiter for metrics (e.g., "llm")
	Name string

	// Token bucket settings
	Burst      float64 // Maximum tokens (burst capacity)
	RefillRate float64 // Tokens refilled per second

	// Optional rolling 24h cap (0 = disabled)
	DailyLimit int

	// How often idle keys are dropped
	CleanupPeriod time.Duration

	// Optional metrics reporter
	Metrics *metrics.Metrics
}

// KeyedLimiter tracks a separate token bucket, plus an optional daily cap,
// for every key (a Messenger PSID). Idle keys are dropped periodically.
//
// It satisfies the counselor's generation gate.
type KeyedLimiter struct {
	mu       sync.RWMutex
	entries  map[string]*keyedEntry
	config   KeyedConfig
	onDrop   func()
	onUpdate func(count int)
	stopCh   chan struct{}
	stopOnce sync.Once
}

// keyedEntry holds one key's bucket and daily counter. mu makes the two-layer
// check-then-consume atomic.
type keyedEntry struct {
	mu      sync.Mutex
	limiter *Limiter
	daily   *SlidingWindowCounter
}

// NewKeyedLimiter creates a new per-key rate limiter. Call Stop when done.
//
// Example:
//
//	limiter := NewKeyedLimiter(KeyedConfig{
//	    Name:       "llm",
//	    Burst:      20,
//	    RefillRate: 30.0 / 3600, // 30 generations per hour
//	    DailyLimit: 150,
//	})
//	defer limiter.Stop()
func NewKeyedLimiter(cfg KeyedConfig) *KeyedLimiter {
	if cfg.CleanupPeriod <= 0 {
		cfg.CleanupPeriod = defaultCleanupPeriod
	}
	kl := &KeyedLimiter{
		entries: make(map[string]*keyedEntry),
		config:  cfg,
		stopCh:  make(chan struct{}),
	}

	if cfg.Metrics != nil {
		kl.onDrop = func() {
			cfg.Metrics.RecordRateLimiterDrop(cfg.Name)
		}
		kl.onUpdate = func(count int) {
			cfg.Metrics.SetRateLimiterUsers(cfg.Name, count)
		}
	}

	go kl.cleanupLoop()

	return kl
}

// Allow reports whether key may make another request and consumes quota if so.
// Both the bucket and the daily cap must pass. An empty key is always allowed.
func (kl *KeyedLimiter) Allow(key string) bool {
	if key == "" {
		return true
	}

	entry := kl.getOrCreateEntry(key)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if !entry.daily.Check() || !entry.limiter.Check() {
		if kl.onDrop != nil {
			kl.onDrop()
		}
		return false
	}

	entry.daily.Consume()
	entry.limiter.Consume()
	return true
}

// getOrCreateEntry returns the entry for a key, creating it if needed.
func (kl *KeyedLimiter) getOrCreateEntry(key string) *keyedEntry {
	kl.mu.RLock()
	entry, exists := kl.entries[key]
	kl.mu.RUnlock()

	if exists {
		return entry
	}

	kl.mu.Lock()
	defer kl.mu.Unlock()

	// Double-check after acquiring write lock
	if entry, exists = kl.entries[key]; exists {
		return entry
	}

	entry = &keyedEntry{
		limiter: New(kl.config.Burst, kl.config.RefillRate),
		daily:   NewSlidingWindowCounter(kl.config.DailyLimit, 24*time.Hour),
	}
	kl.entries[key] = entry
	return entry
}

// Available returns the tokens left in key's bucket, or Burst for an unseen key.
func (kl *KeyedLimiter) Available(key string) float64 {
	kl.mu.RLock()
	entry, exists := kl.entries[key]
	kl.mu.RUnlock()

	if key == "" || !exists {
		return kl.config.Burst
	}
	return entry.limiter.Available()
}

// DailyRemaining returns key's remaining daily quota, or -1 when the daily
// cap is disabled.
func (kl *KeyedLimiter) DailyRemaining(key string) int {
	if kl.config.DailyLimit <= 0 {
		return -1
	}

	kl.mu.RLock()
	entry, exists := kl.entries[key]
	kl.mu.RUnlock()

	if !exists {
		return kl.config.DailyLimit
	}
	return entry.daily.Remaining()
}

// ActiveCount returns the number of tracked keys.
func (kl *KeyedLimiter) ActiveCount() int {
	kl.mu.RLock()
	defer kl.mu.RUnlock()
	return len(kl.entries)
}

// cleanupLoop periodically drops keys whose bucket is full and whose daily
// window is empty.
func (kl *KeyedLimiter) cleanupLoop() {
	ticker := time.NewTicker(kl.config.CleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-kl.stopCh:
			return
		case <-ticker.C:
			kl.cleanup()
		}
	}
}

func (kl *KeyedLimiter) cleanup() {
	kl.mu.Lock()
	for key, entry := range kl.entries {
		entry.mu.Lock()
		idle := entry.limiter.IsFull() && (entry.daily == nil || entry.daily.Idle())
		entry.mu.Unlock()
		if idle {
			delete(kl.entries, key)
		}
	}
	count := len(kl.entries)
	kl.mu.Unlock()

	if kl.onUpdate != nil {
		kl.onUpdate(count)
	}
}

// Stop stops the cleanup goroutine. Safe to call multiple times.
func (kl *KeyedLimiter) Stop() {
	kl.stopOnce.Do(func() {
		close(kl.stopCh)
	})
}

package ratelimit

import (
	"sync"
	"time"
)

// SlidingWindowCounter caps requests over a rolling window with O(1) memory.
// It keeps the counts of the current and previous fixed windows and weights
// the previous one by how much of it still overlaps the rolling window:
//
//	effective = curr + prev * (window - elapsed) / window
//
// With a 24h window and a cap of 150, a student who sent 120 generated
// questions yesterday and is 6h into today has 120*0.75 = 90 counted
// against them before today's usage.
type SlidingWindowCounter struct {
	mu              sync.Mutex
	currCount       int
	prevCount       int
	currWindowStart time.Time
	windowDuration  time.Duration
	maxRequests     int
}

// NewSlidingWindowCounter creates a counter allowing maxRequests per window.
// Returns nil if maxRequests <= 0; a nil counter allows everything.
func NewSlidingWindowCounter(maxRequests int, windowDuration time.Duration) *SlidingWindowCounter {
	if maxRequests <= 0 {
		return nil
	}
	return &SlidingWindowCounter{
		currWindowStart: time.Now(),
		windowDuration:  windowDuration,
		maxRequests:     maxRequests,
	}
}

// Allow consumes one request if the cap is not reached.
func (swc *SlidingWindowCounter) Allow() bool {
	if swc == nil {
		return true
	}

	swc.mu.Lock()
	defer swc.mu.Unlock()

	swc.rotate()
	if swc.weighted() >= float64(swc.maxRequests) {
		return false
	}
	swc.currCount++
	return true
}

// Check reports whether a request would be allowed without consuming it.
func (swc *SlidingWindowCounter) Check() bool {
	if swc == nil {
		return true
	}

	swc.mu.Lock()
	defer swc.mu.Unlock()

	swc.rotate()
	return swc.weighted() < float64(swc.maxRequests)
}

// Consume counts a request. Call it after Check passed.
func (swc *SlidingWindowCounter) Consume() {
	if swc == nil {
		return
	}

	swc.mu.Lock()
	defer swc.mu.Unlock()

	swc.rotate()
	if swc.weighted() < float64(swc.maxRequests) {
		swc.currCount++
	}
}

// rotate advances to the window containing now. Must be called with mu held.
func (swc *SlidingWindowCounter) rotate() {
	elapsed := time.Since(swc.currWindowStart)
	if elapsed < swc.windowDuration {
		return
	}

	passed := int(elapsed / swc.windowDuration)
	if passed == 1 {
		swc.prevCount = swc.currCount
	} else {
		// The previous window no longer overlaps
		swc.prevCount = 0
	}
	swc.currCount = 0
	swc.currWindowStart = swc.currWindowStart.Add(time.Duration(passed) * swc.windowDuration)
}

// weighted returns the effective count. Must be called with mu held.
func (swc *SlidingWindowCounter) weighted() float64 {
	elapsed := time.Since(swc.currWindowStart)

	overlap := float64(swc.windowDuration-elapsed) / float64(swc.windowDuration)
	overlap = min(max(overlap, 0), 1)

	return float64(swc.currCount) + float64(swc.prevCount)*overlap
}

// EffectiveCount returns the weighted count.
func (swc *SlidingWindowCounter) EffectiveCount() float64 {
	if swc == nil {
		return 0
	}

	swc.mu.Lock()
	defer swc.mu.Unlock()

	swc.rotate()
	return swc.weighted()
}

// Remaining returns the approximate remaining quota, or -1 for a nil counter.
func (swc *SlidingWindowCounter) Remaining() int {
	if swc == nil {
		return -1
	}

	swc.mu.Lock()
	defer swc.mu.Unlock()

	swc.rotate()
	remaining := float64(swc.maxRequests) - swc.weighted()
	if remaining < 0 {
		return 0
	}
	return int(remaining)
}

// Idle reports whether no request falls inside the rolling window.
func (swc *SlidingWindowCounter) Idle() bool {
	return swc.EffectiveCount() == 0
}

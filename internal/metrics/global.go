package metrics

import "sync/atomic"

var global atomic.Pointer[Metrics]

// InitGlobal installs m as the process-wide instance used by packages that
// record metrics without holding a *Metrics (LLM generators, limiters).
// Calling it again replaces the previous instance.
func InitGlobal(m *Metrics) {
	global.Store(m)
}

// Global returns the process-wide instance, or nil before InitGlobal.
func Global() *Metrics {
	return global.Load()
}

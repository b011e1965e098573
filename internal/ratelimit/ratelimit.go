// Package ratelimit provides a blocking sliding-window rate limiter for
// outbound API calls. Callers past the quota are put to sleep until the
// oldest call leaves the window; nothing is ever rejected.
package ratelimit

import (
	"sync"
	"time"
)

// Usage is a point-in-time snapshot of a limiter's state.
type Usage struct {
	CurrentCalls   int
	MaxCalls       int
	Period         time.Duration
	ThrottledCount int
	TotalWait      time.Duration
}

// Limiter admits at most maxCalls call starts within any rolling period.
// It is safe for concurrent use; the window is a critical section, so
// concurrent callers serialize through Wait.
type Limiter struct {
	mu       sync.Mutex
	maxCalls int
	period   time.Duration
	calls    []time.Time

	throttled int
	totalWait time.Duration

	// Injectable for tests.
	now   func() time.Time
	sleep func(time.Duration)
}

// New creates a limiter admitting maxCalls per period.
func New(maxCalls int, period time.Duration) *Limiter {
	return &Limiter{
		maxCalls: maxCalls,
		period:   period,
		now:      time.Now,
		sleep:    time.Sleep,
	}
}

// Wait blocks until the window admits another call, then records the call
// timestamp. The wait happens inside the critical section so a burst of
// callers drains one at a time, preserving the quota under concurrency.
func (l *Limiter) Wait() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.prune(now)

	if len(l.calls) >= l.maxCalls {
		wait := l.period - now.Sub(l.calls[0])
		if wait > 0 {
			l.throttled++
			l.totalWait += wait
			l.sleep(wait)
			now = l.now()
			l.prune(now)
		}
	}

	l.calls = append(l.calls, now)
}

// Usage returns current window occupancy and throttle statistics.
func (l *Limiter) Usage() Usage {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.prune(l.now())
	return Usage{
		CurrentCalls:   len(l.calls),
		MaxCalls:       l.maxCalls,
		Period:         l.period,
		ThrottledCount: l.throttled,
		TotalWait:      l.totalWait,
	}
}

// Reset clears the window and statistics.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.calls = nil
	l.throttled = 0
	l.totalWait = 0
}

// prune drops timestamps older than one period. Caller holds the lock.
func (l *Limiter) prune(now time.Time) {
	cutoff := now.Add(-l.period)
	i := 0
	for i < len(l.calls) && !l.calls[i].After(cutoff) {
		i++
	}
	l.calls = l.calls[i:]
}

// Registry hands out limiters keyed by endpoint name. It replaces the usual
// package-level singleton: construct one per process and pass it where
// needed.
type Registry struct {
	mu       sync.Mutex
	limiters map[string]*Limiter
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{limiters: make(map[string]*Limiter)}
}

// Get returns the limiter for name, creating it with the given quota on
// first use. Later calls for the same name keep the original quota.
func (r *Registry) Get(name string, maxCalls int, period time.Duration) *Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if l, ok := r.limiters[name]; ok {
		return l
	}
	l := New(maxCalls, period)
	r.limiters[name] = l
	return l
}

// Snapshot returns usage for every registered limiter.
func (r *Registry) Snapshot() map[string]Usage {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]Usage, len(r.limiters))
	for name, l := range r.limiters {
		out[name] = l.Usage()
	}
	return out
}

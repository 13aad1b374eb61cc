// Package ratelimit tracks an advisory sliding-window budget for outbound
// API calls. It never blocks: callers ask CanProceed before a call and
// RecordCall after a successful one.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter is a sliding-window call counter. The zero value is not usable;
// construct with New.
type Limiter struct {
	mu       sync.Mutex
	maxCalls int
	window   time.Duration
	calls    []time.Time // ascending
	now      func() time.Time
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// New returns a limiter allowing maxCalls within any window. Non-positive
// arguments fall back to 60 calls per hour, the anonymous GitHub ceiling.
func New(maxCalls int, window time.Duration, opts ...Option) *Limiter {
	if maxCalls <= 0 {
		maxCalls = 60
	}
	if window <= 0 {
		window = time.Hour
	}
	l := &Limiter{maxCalls: maxCalls, window: window, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// CanProceed reports whether another call fits in the window. When it does
// not, the second value is the time until the oldest call expires.
func (l *Limiter) CanProceed() (bool, time.Duration) {
	if l == nil {
		return true, 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.pruneLocked(now)
	if len(l.calls) < l.maxCalls {
		return true, 0
	}
	return false, l.calls[0].Add(l.window).Sub(now)
}

// RecordCall registers one call at the current time.
func (l *Limiter) RecordCall() {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, l.now())
}

// Remaining is the number of calls still available in the current window.
func (l *Limiter) Remaining() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pruneLocked(l.now())
	if n := l.maxCalls - len(l.calls); n > 0 {
		return n
	}
	return 0
}

// Max is the configured budget per window.
func (l *Limiter) Max() int {
	if l == nil {
		return 0
	}
	return l.maxCalls
}

func (l *Limiter) pruneLocked(now time.Time) {
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(l.calls) && l.calls[i].Before(cutoff) {
		i++
	}
	if i > 0 {
		l.calls = append(l.calls[:0], l.calls[i:]...)
	}
}

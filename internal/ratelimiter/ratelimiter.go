// Package ratelimiter bounds outgoing request dispatch to at most N
// per rolling one-second window.
package ratelimiter

import (
	"sync"
	"time"
)

// RateLimiter implements a sliding 1-second counter: each dispatch
// increments the counter, and a timer scheduled 1 second later
// decrements it again. This mirrors dirsearch's Requester.increase_rate,
// which schedules threading.Timer(1, self.decrease_rate) on every
// dispatch rather than using a token-bucket refill loop.
type RateLimiter struct {
	mu      sync.Mutex
	rate    int
	maxRate int
}

// New creates a RateLimiter. maxRate <= 0 disables limiting entirely.
func New(maxRate int) *RateLimiter {
	return &RateLimiter{maxRate: maxRate}
}

// Wait blocks the calling goroutine until the current rate is below
// maxRate, then reserves a slot that will free itself after one
// second.
func (r *RateLimiter) Wait() {
	for r.isExceeded() {
		time.Sleep(100 * time.Millisecond)
	}
	r.reserve()
}

func (r *RateLimiter) isExceeded() bool {
	if r.maxRate <= 0 {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rate >= r.maxRate
}

func (r *RateLimiter) reserve() {
	if r.maxRate <= 0 {
		return
	}
	r.mu.Lock()
	r.rate++
	r.mu.Unlock()

	time.AfterFunc(time.Second, func() {
		r.mu.Lock()
		r.rate--
		r.mu.Unlock()
	})
}

// Rate returns the current in-flight count for the active window.
func (r *RateLimiter) Rate() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rate
}

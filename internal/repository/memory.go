package repository

import (
	"context"
	"sync"
	"time"
)

// MemoryRateLimiter is a process-local fixed-window request counter.
type MemoryRateLimiter struct {
	mu      sync.Mutex
	windows map[int64]*rateLimitEntry
	now     func() time.Time
}

func NewMemoryRateLimiter() *MemoryRateLimiter {
	return &MemoryRateLimiter{
		windows: make(map[int64]*rateLimitEntry),
		now:     time.Now,
	}
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

func (r *MemoryRateLimiter) CheckRateLimit(_ context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.windows[userID]
	if !ok || !now.Before(entry.expiresAt) {
		entry = &rateLimitEntry{expiresAt: now.Add(window)}
		r.windows[userID] = entry
	}
	entry.count++

	return entry.count <= limit, nil
}

// Sweep drops expired windows.
func (r *MemoryRateLimiter) Sweep() {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	for id, entry := range r.windows {
		if !now.Before(entry.expiresAt) {
			delete(r.windows, id)
		}
	}
}

// Package flood provides anti-spam flood prevention for chat applications.
package flood

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"
)

const (
	// windowDuration is the fixed time window the limit applies to (always 1 minute)
	windowDuration = 60 * time.Second
	// idleTimeout is how long before we forget idle users
	idleTimeout = 10 * time.Minute
	// maxTrackedUsers bounds memory use under a flood of distinct senders
	maxTrackedUsers = 10000
)

// Floodgate provides per-user, per-chat flood prevention with token bucket rate limiting
type Floodgate struct {
	limitPerMinute int // Maximum messages per user per minute
	entries        *expirable.LRU[string, *rate.Limiter]
	mutex          sync.Mutex
	now            func() time.Time
}

// New creates a new Floodgate with the specified rate limiting configuration
// The time window is fixed at 60 seconds (1 minute)
func New(limitPerMinute int) *Floodgate {
	return &Floodgate{
		limitPerMinute: limitPerMinute,
		entries:        expirable.NewLRU[string, *rate.Limiter](maxTrackedUsers, nil, idleTimeout),
		now:            time.Now,
	}
}

// Stop forgets all tracked users
func (fg *Floodgate) Stop() {
	fg.entries.Purge()
}

// CheckMessage checks if a message from the specified user in the specified chat should be allowed
// Returns true if the message should be processed, false if it should be blocked due to flood
func (fg *Floodgate) CheckMessage(chatID, userID string) bool {
	key := chatID + ":" + userID

	fg.mutex.Lock()
	defer fg.mutex.Unlock()

	limiter, exists := fg.entries.Get(key)
	if !exists {
		limiter = fg.newLimiter()
	}

	// Re-adding refreshes the idle expiry
	fg.entries.Add(key, limiter)

	return limiter.AllowN(fg.now(), 1)
}

func (fg *Floodgate) newLimiter() *rate.Limiter {
	if fg.limitPerMinute <= 0 {
		return rate.NewLimiter(0, 0)
	}
	every := windowDuration / time.Duration(fg.limitPerMinute)
	return rate.NewLimiter(rate.Every(every), fg.limitPerMinute)
}

// GetStats returns statistics about the floodgate for monitoring/debugging
func (fg *Floodgate) GetStats() Stats {
	return Stats{
		ActiveUsers:    fg.entries.Len(),
		LimitPerMinute: fg.limitPerMinute,
		WindowSeconds:  int(windowDuration.Seconds()),
	}
}

// Stats contains floodgate statistics
type Stats struct {
	ActiveUsers    int `json:"active_users"`
	LimitPerMinute int `json:"limit_per_minute"`
	WindowSeconds  int `json:"window_seconds"`
}

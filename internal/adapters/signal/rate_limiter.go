package signal

import (
	"slices"
	"sync"
	"time"

	"github.com/dkeye/recruit/internal/domain"
)

// ActorRateLimiter admits at most limit events per actor in any interval.
//
// Each actor keeps its accepted timestamps oldest first, so pruning cuts the
// prefix older than the window. Actors whose window is empty are swept on the
// next sweep tick and take no memory while idle.
type ActorRateLimiter struct {
	mu        sync.Mutex
	accepted  map[domain.UserID][]time.Time
	limit     int
	interval  time.Duration
	now       func() time.Time
	nextSweep time.Time
}

func NewActorRateLimiter(limit int, interval time.Duration) *ActorRateLimiter {
	return &ActorRateLimiter{
		accepted: make(map[domain.UserID][]time.Time),
		limit:    limit,
		interval: interval,
		now:      time.Now,
	}
}

// Allow records an event for uid and reports whether it is within the limit.
// Rejected events do not extend the window.
func (rl *ActorRateLimiter) Allow(uid domain.UserID) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	cutoff := now.Add(-rl.interval)
	rl.sweep(now, cutoff)

	window := trimBefore(rl.accepted[uid], cutoff)
	if len(window) >= rl.limit {
		rl.accepted[uid] = window
		return false
	}
	rl.accepted[uid] = append(window, now)
	return true
}

// Len returns the number of actors currently tracked.
func (rl *ActorRateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.accepted)
}

// sweep drops actors with no event after cutoff, at most once per interval.
func (rl *ActorRateLimiter) sweep(now, cutoff time.Time) {
	if now.Before(rl.nextSweep) {
		return
	}
	rl.nextSweep = now.Add(rl.interval)
	for uid, times := range rl.accepted {
		if len(trimBefore(times, cutoff)) == 0 {
			delete(rl.accepted, uid)
		}
	}
}

// trimBefore returns the suffix of ordered times strictly after cutoff.
func trimBefore(times []time.Time, cutoff time.Time) []time.Time {
	i := slices.IndexFunc(times, func(t time.Time) bool { return t.After(cutoff) })
	if i < 0 {
		return times[:0]
	}
	return times[i:]
}

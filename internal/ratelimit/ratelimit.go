package ratelimit

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"
)

// Limiter throttles actions per key, typically a Telegram chat ID.
type Limiter interface {
	Allow(key int64) bool
	// Forget drops the bucket of key once it is no longer active.
	Forget(key int64)
}

// InMemoryLimiter keeps one token bucket per key.
type InMemoryLimiter struct {
	clock clockwork.Clock
	mu    sync.Mutex
	keys  map[int64]*rate.Limiter
	r     rate.Limit
	b     int
}

// NewInMemoryLimiter allows requests actions every per, with bursts of
// burst actions.
// Example: NewInMemoryLimiter(clock, 1, 2*time.Second, 1) -> one edit every 2 seconds
func NewInMemoryLimiter(clock clockwork.Clock, requests int, per time.Duration, burst int) *InMemoryLimiter {
	return &InMemoryLimiter{
		clock: clock,
		keys:  make(map[int64]*rate.Limiter),
		r:     rate.Every(per / time.Duration(requests)),
		b:     burst,
	}
}

var _ Limiter = (*InMemoryLimiter)(nil)

func (l *InMemoryLimiter) Allow(key int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, exists := l.keys[key]
	if !exists {
		limiter = rate.NewLimiter(l.r, l.b)
		l.keys[key] = limiter
	}

	return limiter.AllowN(l.clock.Now(), 1)
}

func (l *InMemoryLimiter) Forget(key int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.keys, key)
}

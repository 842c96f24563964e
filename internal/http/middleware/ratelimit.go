package middleware

import (
	"sync"
	"time"
)

type clientInfo struct {
	start time.Time
	count int
}

// memoryLimiter is a fixed-window counter used when Redis is not configured
type memoryLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientInfo
	now     func() time.Time
}

func newMemoryLimiter() *memoryLimiter {
	return &memoryLimiter{
		clients: make(map[string]*clientInfo),
		now:     time.Now,
	}
}

// incr counts a hit for key in the current window and returns the total
func (l *memoryLimiter) incr(key string, window time.Duration) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	ci, ok := l.clients[key]
	if !ok || now.Sub(ci.start) > window {
		l.clients[key] = &clientInfo{start: now, count: 1}
		l.sweep(now, window)
		return 1
	}

	ci.count++
	return int64(ci.count)
}

// sweep drops windows that ended long ago so the map stays bounded
func (l *memoryLimiter) sweep(now time.Time, window time.Duration) {
	if len(l.clients) < 1024 {
		return
	}
	for k, ci := range l.clients {
		if now.Sub(ci.start) > 2*window {
			delete(l.clients, k)
		}
	}
}

var fallbackLimiter = newMemoryLimiter()

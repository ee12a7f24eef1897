package rate

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryLimiter: mismo fixed window que RedisLimiter, en proceso.
// Sirve para una sola instancia; con varias réplicas usar Redis.
type MemoryLimiter struct {
	c      *gocache.Cache
	Max    int64
	Window time.Duration
	Now    func() time.Time
}

func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		c:      gocache.New(window, 2*window),
		Max:    int64(max),
		Window: window,
		Now:    time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	now := l.Now().UTC()
	winStart := now.Truncate(l.Window)
	k := fmt.Sprintf("%s:%d", key, winStart.Unix())
	ttl := winStart.Add(l.Window).Sub(now)

	// Add falla si ya existe; en ese caso se incrementa.
	var hits int64 = 1
	if err := l.c.Add(k, int64(1), ttl); err != nil {
		n, err := l.c.IncrementInt64(k, 1)
		if err != nil {
			// Expiró entre Add e Increment: arranca de nuevo.
			l.c.Set(k, int64(1), ttl)
			n = 1
		}
		hits = n
	}
	return evaluate(hits, l.Max, ttl), nil
}

package server

import (
	"net"
	"net/http"
	"sync"
	"time"
)

// limiter is a fixed-window request counter per client IP. When the
// window rolls over the count starts fresh; there is no smoothing.
type limiter struct {
	mu      sync.Mutex
	window  time.Duration
	max     int
	buckets map[string]*bucket
	now     func() time.Time
}

type bucket struct {
	start time.Time
	count int
}

func newLimiter(window time.Duration, max int) *limiter {
	return &limiter{
		window:  window,
		max:     max,
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

// allow counts one request for the key and reports whether it fits the
// current window.
func (l *limiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok || now.Sub(b.start) >= l.window {
		l.buckets[key] = &bucket{start: now, count: 1}
		l.sweep(now)
		return true
	}
	if b.count >= l.max {
		return false
	}
	b.count++
	return true
}

// sweep drops expired buckets so the map does not grow with every IP
// ever seen. Called while holding the lock, only on window rollover.
func (l *limiter) sweep(now time.Time) {
	for key, b := range l.buckets {
		if now.Sub(b.start) >= l.window {
			delete(l.buckets, key)
		}
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

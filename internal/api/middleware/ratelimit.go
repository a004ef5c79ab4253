package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	visitorSweepEvery = 5 * time.Minute
	visitorStaleAfter = 10 * time.Minute
)

type visitorMap struct {
	mu        sync.Mutex
	entries   map[string]*visitorEntry
	lastSweep time.Time
}

type visitorEntry struct {
	limiter *rate.Limiter
	last    time.Time
}

// get returns the bucket for ip, creating it on first sight. Stale buckets
// are swept inline at most once per visitorSweepEvery, so the map needs no
// background goroutine and nothing outlives the middleware.
func (v *visitorMap) get(ip string, rps float64, burst int) *rate.Limiter {
	now := time.Now()

	v.mu.Lock()
	defer v.mu.Unlock()

	if now.Sub(v.lastSweep) > visitorSweepEvery {
		v.lastSweep = now
		for addr, e := range v.entries {
			if now.Sub(e.last) > visitorStaleAfter {
				delete(v.entries, addr)
			}
		}
	}

	e, ok := v.entries[ip]
	if !ok {
		e = &visitorEntry{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
		v.entries[ip] = e
	}
	e.last = now
	return e.limiter
}

func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimit applies a per-IP token bucket limiter.
func RateLimit(rps float64, burst int) func(http.Handler) http.Handler {
	visitors := &visitorMap{entries: map[string]*visitorEntry{}}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !visitors.get(clientIP(r), rps, burst).Allow() {
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

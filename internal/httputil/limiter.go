package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
)

// Limiter bounds concurrent requests per client IP and globally.
type Limiter struct {
	mu       sync.Mutex
	active   map[string]int
	total    int
	maxPerIP int
	maxTotal int
}

// NewLimiter creates a limiter. A non-positive maxTotal defaults to 1000.
func NewLimiter(maxPerIP, maxTotal int) *Limiter {
	if maxTotal < 1 {
		maxTotal = 1000
	}
	return &Limiter{
		active:   make(map[string]int),
		maxPerIP: maxPerIP,
		maxTotal: maxTotal,
	}
}

// Acquire registers a request for ip. It returns false if the IP or
// global limit has been reached.
func (l *Limiter) Acquire(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.total >= l.maxTotal {
		return false
	}
	if l.active[ip] >= l.maxPerIP {
		return false
	}

	l.active[ip]++
	l.total++
	return true
}

// Release ends a request registered with Acquire.
func (l *Limiter) Release(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.active[ip]--
	l.total--
	if l.active[ip] <= 0 {
		delete(l.active, ip)
	}
}

// Count returns the number of active requests for ip.
func (l *Limiter) Count(ip string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active[ip]
}

// Limit wraps next so that requests over the limit get 429.
func Limit(l *Limiter, trustProxy bool, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r, trustProxy)
			if !l.Acquire(ip) {
				logger.Warn("concurrency limit exceeded",
					"component", "api",
					"remote_ip", ip,
					"current_count", l.Count(ip),
				)
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "5")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]string{"error": "too many concurrent requests"})
				return
			}
			defer l.Release(ip)
			next.ServeHTTP(w, r)
		})
	}
}

// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// limiterEntry tracks request timestamps for a single client.
type limiterEntry struct {
	mu         sync.Mutex
	timestamps []time.Time
}

// RateLimiter provides per-client rate limiting using a sliding window.
// It guards the login form against password guessing.
type RateLimiter struct {
	mu         sync.Mutex
	clients    map[string]*limiterEntry
	limit      int
	window     time.Duration
	trustProxy bool // read X-Forwarded-For / X-Real-IP
	now        func() time.Time
	stopCh     chan struct{}
	stopOnce   sync.Once
}

// NewRateLimiter creates a rate limiter that allows limit requests per
// window. It starts a background goroutine that drops idle clients; call
// Stop to end it.
func NewRateLimiter(limit int, window time.Duration, trustProxy bool) *RateLimiter {
	rl := &RateLimiter{
		clients:    make(map[string]*limiterEntry),
		limit:      limit,
		window:     window,
		trustProxy: trustProxy,
		now:        time.Now,
		stopCh:     make(chan struct{}),
	}

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rl.cleanup()
			case <-rl.stopCh:
				return
			}
		}
	}()

	return rl
}

// Stop terminates the background cleanup goroutine. Safe to call twice.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// allow records a request for key and reports whether it is within the
// limit. When it is not, retryAfter is the time until the oldest request
// leaves the window.
func (rl *RateLimiter) allow(key string) (ok bool, retryAfter time.Duration) {
	rl.mu.Lock()
	entry, exists := rl.clients[key]
	if !exists {
		entry = &limiterEntry{}
		rl.clients[key] = entry
	}
	rl.mu.Unlock()

	now := rl.now()
	cutoff := now.Add(-rl.window)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	valid := entry.timestamps[:0]
	for _, ts := range entry.timestamps {
		if ts.After(cutoff) {
			valid = append(valid, ts)
		}
	}
	entry.timestamps = valid

	if len(entry.timestamps) >= rl.limit {
		return false, entry.timestamps[0].Sub(cutoff)
	}

	entry.timestamps = append(entry.timestamps, now)
	return true, 0
}

// cleanup removes entries with no recent activity.
func (rl *RateLimiter) cleanup() {
	cutoff := rl.now().Add(-rl.window)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, entry := range rl.clients {
		entry.mu.Lock()
		idle := len(entry.timestamps) == 0 || !entry.timestamps[len(entry.timestamps)-1].After(cutoff)
		entry.mu.Unlock()

		if idle {
			delete(rl.clients, key)
		}
	}
}

// Middleware returns an HTTP middleware that rate-limits by client IP.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, retryAfter := rl.allow(rl.clientIP(r))
		if !ok {
			secs := int(retryAfter.Seconds()) + 1
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP returns the client address. Proxy headers are only honored
// when the limiter was built with trustProxy.
func (rl *RateLimiter) clientIP(r *http.Request) string {
	if rl.trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			return strings.TrimSpace(first)
		}
		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			return strings.TrimSpace(xri)
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

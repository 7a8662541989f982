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

	"dominicanews/internal/respond"
)

const defaultLimitMessage = "Too many requests from this IP, please try again later."

// limiterEntry tracks request timestamps for a single client.
type limiterEntry struct {
	mu         sync.Mutex
	timestamps []time.Time
}

// prune drops timestamps older than cutoff. The caller holds e.mu.
func (e *limiterEntry) prune(cutoff time.Time) {
	valid := e.timestamps[:0]
	for _, ts := range e.timestamps {
		if ts.After(cutoff) {
			valid = append(valid, ts)
		}
	}
	e.timestamps = valid
}

// RateLimiter provides per-IP rate limiting using a sliding window.
type RateLimiter struct {
	mu      sync.RWMutex
	clients map[string]*limiterEntry
	limit   int           // max requests per window
	window  time.Duration // sliding window duration
	stopCh  chan struct{}
	stopOne sync.Once

	message        string
	skipPaths      map[string]bool
	skipSuccessful bool
}

// RateLimitOption customizes a RateLimiter.
type RateLimitOption func(*RateLimiter)

// WithMessage sets the error message of the 429 response.
func WithMessage(msg string) RateLimitOption {
	return func(rl *RateLimiter) { rl.message = msg }
}

// WithSkipPaths exempts exact request paths from limiting.
func WithSkipPaths(paths ...string) RateLimitOption {
	return func(rl *RateLimiter) {
		for _, p := range paths {
			rl.skipPaths[p] = true
		}
	}
}

// CountFailuresOnly records only requests answered with a status of 400
// or above, so successful logins do not use up the allowance.
func CountFailuresOnly() RateLimitOption {
	return func(rl *RateLimiter) { rl.skipSuccessful = true }
}

// NewRateLimiter creates a rate limiter that allows limit requests per window.
// It starts a background goroutine to clean up expired entries.
func NewRateLimiter(limit int, window time.Duration, opts ...RateLimitOption) *RateLimiter {
	rl := &RateLimiter{
		clients:   make(map[string]*limiterEntry),
		limit:     limit,
		window:    window,
		stopCh:    make(chan struct{}),
		message:   defaultLimitMessage,
		skipPaths: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(rl)
	}

	// Periodic cleanup of expired entries every 5 minutes.
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

// Stop terminates the background cleanup goroutine.
func (rl *RateLimiter) Stop() {
	rl.stopOne.Do(func() { close(rl.stopCh) })
}

// entry returns the tracker for key, creating it if needed.
func (rl *RateLimiter) entry(key string) *limiterEntry {
	rl.mu.RLock()
	e, exists := rl.clients[key]
	rl.mu.RUnlock()
	if exists {
		return e
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	// Double-check after acquiring write lock.
	if e, exists = rl.clients[key]; !exists {
		e = &limiterEntry{}
		rl.clients[key] = e
	}
	return e
}

// allow checks whether the given key is within the rate limit and records
// the request if it is.
func (rl *RateLimiter) allow(key string) bool {
	ok, _ := rl.take(key, true)
	return ok
}

func (rl *RateLimiter) take(key string, record bool) (bool, int) {
	e := rl.entry(key)
	now := time.Now()

	e.mu.Lock()
	defer e.mu.Unlock()
	e.prune(now.Add(-rl.window))

	if len(e.timestamps) >= rl.limit {
		return false, 0
	}
	if record {
		e.timestamps = append(e.timestamps, now)
	}
	return true, rl.limit - len(e.timestamps)
}

func (rl *RateLimiter) record(key string) {
	e := rl.entry(key)
	e.mu.Lock()
	e.timestamps = append(e.timestamps, time.Now())
	e.mu.Unlock()
}

// cleanup removes entries with no recent activity.
func (rl *RateLimiter) cleanup() {
	cutoff := time.Now().Add(-rl.window)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, e := range rl.clients {
		e.mu.Lock()
		e.prune(cutoff)
		empty := len(e.timestamps) == 0
		e.mu.Unlock()

		if empty {
			delete(rl.clients, key)
		}
	}
}

// Middleware returns an HTTP middleware that rate-limits by client IP.
// Rejected requests get a JSON 429 with a Retry-After header.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.skipPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		ip := clientIP(r)
		ok, remaining := rl.take(ip, !rl.skipSuccessful)

		h := w.Header()
		h.Set("RateLimit-Limit", strconv.Itoa(rl.limit))
		h.Set("RateLimit-Remaining", strconv.Itoa(remaining))

		if !ok {
			h.Set("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
			respond.JSON(w, http.StatusTooManyRequests, respond.Envelope{Error: rl.message})
			return
		}

		if !rl.skipSuccessful {
			next.ServeHTTP(w, r)
			return
		}

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		if wrapped.statusCode >= http.StatusBadRequest {
			rl.record(ip)
		}
	})
}

// clientIP extracts the client's IP address, checking X-Forwarded-For
// and X-Real-IP headers for proxied requests.
func clientIP(r *http.Request) string {
	// Check X-Forwarded-For first (may contain multiple IPs).
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// Take the first (leftmost) IP, the original client.
		if idx := strings.IndexByte(xff, ','); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	// Check X-Real-IP.
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	// Fall back to RemoteAddr (strip port).
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"log/slog"
	"regexp"
	"sort"
	"sync"
	"time"
)

// DefaultSweepInterval is how often the background sweep runs when
// NewTTL is given a non-positive interval.
const DefaultSweepInterval = 10 * time.Minute

// entry is one cached payload with its own lifetime.
type entry struct {
	payload  []byte
	storedAt time.Time
	ttl      time.Duration
}

func (e entry) fresh(now time.Time) bool {
	return now.Sub(e.storedAt) < e.ttl
}

// Stats is a snapshot of the cache contents.
type Stats struct {
	Total int      `json:"total"`
	Fresh int      `json:"fresh"`
	Stale int      `json:"stale"`
	Keys  []string `json:"keys"`
}

// TTL is a concurrency-safe in-memory cache where each entry expires after
// its own TTL. Expired entries read as misses and are only removed by
// Sweep or Invalidate.
type TTL struct {
	mu         sync.RWMutex
	entries    map[string]entry
	sweepEvery time.Duration
	now        func() time.Time

	stopCh   chan struct{}
	done     chan struct{}
	startOne sync.Once
	stopOne  sync.Once
}

// NewTTL creates an empty cache. The background sweep does not run until
// Start is called.
func NewTTL(sweepEvery time.Duration) *TTL {
	if sweepEvery <= 0 {
		sweepEvery = DefaultSweepInterval
	}
	return &TTL{
		entries:    make(map[string]entry),
		sweepEvery: sweepEvery,
		now:        time.Now,
		stopCh:     make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start launches the periodic sweep. Calling it more than once is a no-op.
func (c *TTL) Start() {
	c.startOne.Do(func() {
		go func() {
			defer close(c.done)
			ticker := time.NewTicker(c.sweepEvery)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					if n := c.Sweep(); n > 0 {
						slog.Debug("cache sweep", "removed", n)
					}
				case <-c.stopCh:
					return
				}
			}
		}()
	})
}

// Stop terminates the sweep goroutine and waits for it to exit. Safe to
// call without Start and more than once.
func (c *TTL) Stop() {
	c.stopOne.Do(func() {
		close(c.stopCh)
		started := true
		c.startOne.Do(func() { started = false })
		if started {
			<-c.done
		}
	})
}

// Get returns the payload for key if it is present and fresh.
func (c *TTL) Get(key string) ([]byte, bool) {
	payload, _, ok := c.Lookup(key)
	return payload, ok
}

// Lookup is Get that also returns how long the entry stays fresh.
func (c *TTL) Lookup(key string) ([]byte, time.Duration, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	now := c.now()
	if !ok || !e.fresh(now) {
		return nil, 0, false
	}
	return e.payload, e.ttl - now.Sub(e.storedAt), true
}

// Set stores payload under key for ttl, replacing any previous entry.
func (c *TTL) Set(key string, payload []byte, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{payload: payload, storedAt: c.now(), ttl: ttl}
}

// Invalidate removes every key matching pattern as a regular expression,
// fresh or stale, and returns how many were removed. An empty pattern
// clears the cache. A pattern that does not compile is matched literally.
func (c *TTL) Invalidate(pattern string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if pattern == "" {
		n := len(c.entries)
		c.entries = make(map[string]entry)
		slog.Debug("cache cleared", "removed", n)
		return n
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		re = regexp.MustCompile(regexp.QuoteMeta(pattern))
	}

	var n int
	for k := range c.entries {
		if re.MatchString(k) {
			delete(c.entries, k)
			n++
		}
	}
	slog.Debug("cache invalidated", "pattern", pattern, "removed", n)
	return n
}

// Sweep removes entries whose age has reached their TTL.
func (c *TTL) Sweep() int {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	var n int
	for k, e := range c.entries {
		if !e.fresh(now) {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

// Stats counts fresh and stale entries.
func (c *TTL) Stats() Stats {
	now := c.now()

	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Stats{Total: len(c.entries), Keys: make([]string, 0, len(c.entries))}
	for k, e := range c.entries {
		if e.fresh(now) {
			s.Fresh++
		} else {
			s.Stale++
		}
		s.Keys = append(s.Keys, k)
	}
	sort.Strings(s.Keys)
	return s
}

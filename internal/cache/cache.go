// Package cache provides an in-memory TTL cache for generated digests,
// keyed by topic filter. The ingestion pipeline itself is stateless;
// caching exists only so repeated HTTP requests within the TTL do not
// re-fetch every feed and re-spend summarization tokens.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/pep299/daily-digest/internal/summarize"
)

// Entry represents a cached digest
type Entry struct {
	Key       string            `json:"key"`
	Digest    *summarize.Digest `json:"digest"`
	CreatedAt time.Time         `json:"created_at"`
	ExpiresAt time.Time         `json:"expires_at"`
}

// Stats represents cache statistics
type Stats struct {
	TotalEntries int   `json:"total_entries"`
	HitCount     int64 `json:"hit_count"`
	MissCount    int64 `json:"miss_count"`
}

// DigestCache implements an in-memory digest cache with expiry
type DigestCache struct {
	entries  map[string]*Entry
	mu       sync.RWMutex
	duration time.Duration
	hits     int64
	misses   int64
	stopCh   chan struct{}
}

// NewDigestCache creates a digest cache with the given TTL and starts
// its background cleanup loop
func NewDigestCache(duration time.Duration) *DigestCache {
	c := &DigestCache{
		entries:  make(map[string]*Entry),
		duration: duration,
		stopCh:   make(chan struct{}),
	}
	go c.cleanup()
	return c
}

// Get returns the cached digest for a key, or nil on a miss or an
// expired entry
func (c *DigestCache) Get(ctx context.Context, key string) *summarize.Digest {
	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists || time.Now().After(entry.ExpiresAt) {
		c.mu.Lock()
		c.misses++
		c.mu.Unlock()
		return nil
	}

	c.mu.Lock()
	c.hits++
	c.mu.Unlock()
	return entry.Digest
}

// Set stores a digest under the given key
func (c *DigestCache) Set(ctx context.Context, key string, digest *summarize.Digest) {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = &Entry{
		Key:       key,
		Digest:    digest,
		CreatedAt: now,
		ExpiresAt: now.Add(c.duration),
	}
}

// Clear removes all entries
func (c *DigestCache) Clear(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*Entry)
}

// GetStats returns cache statistics
func (c *DigestCache) GetStats(ctx context.Context) Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{
		TotalEntries: len(c.entries),
		HitCount:     c.hits,
		MissCount:    c.misses,
	}
}

// Stop terminates the cleanup loop
func (c *DigestCache) Stop() {
	close(c.stopCh)
}

// cleanup periodically removes expired entries
func (c *DigestCache) cleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.cleanupExpired()
		}
	}
}

func (c *DigestCache) cleanupExpired() {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			delete(c.entries, key)
		}
	}
}

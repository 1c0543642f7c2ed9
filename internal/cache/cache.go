package cache

import (
	"time"

	"github.com/everstacklabs/chutes-plugin/internal/catalog"
)

// DefaultTTL is the snapshot lifetime used when none is configured.
const DefaultTTL = time.Hour

// Snapshot is one fetched model list with its timestamps.
type Snapshot struct {
	Models    []catalog.Model
	FetchedAt time.Time
	ExpiresAt time.Time
}

// Cache holds at most one Snapshot for a fixed TTL.
//
// Expiry is lazy: a snapshot past its expiry stays in storage until the next
// Get (or IsValid/Models) observes it. Cache is not safe for concurrent use.
type Cache struct {
	snapshot *Snapshot
	ttl      time.Duration
	now      func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New creates a cache whose snapshots live for ttlSeconds.
func New(ttlSeconds int, opts ...Option) *Cache {
	return NewWithTTL(time.Duration(ttlSeconds)*time.Second, opts...)
}

// NewWithTTL creates a cache with an arbitrary TTL, including sub-second ones.
func NewWithTTL(ttl time.Duration, opts ...Option) *Cache {
	c := &Cache{ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL returns the configured snapshot lifetime.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Set replaces the stored snapshot with models fetched now.
func (c *Cache) Set(models []catalog.Model) {
	now := c.now()
	c.snapshot = &Snapshot{
		Models:    models,
		FetchedAt: now,
		ExpiresAt: now.Add(c.ttl),
	}
}

// Get returns the snapshot while it is valid. An expired snapshot is
// dropped and Get reports false.
func (c *Cache) Get() (*Snapshot, bool) {
	if c.snapshot == nil {
		return nil, false
	}
	if c.now().After(c.snapshot.ExpiresAt) {
		c.snapshot = nil
		return nil, false
	}
	return c.snapshot, true
}

// Models returns the cached models while the snapshot is valid.
// An empty list is a valid result; ok distinguishes it from "nothing cached".
func (c *Cache) Models() (models []catalog.Model, ok bool) {
	s, ok := c.Get()
	if !ok {
		return nil, false
	}
	return s.Models, true
}

// IsValid reports whether Get would return a snapshot.
func (c *Cache) IsValid() bool {
	_, ok := c.Get()
	return ok
}

// IsStale reports whether there is no usable snapshot, without dropping it.
func (c *Cache) IsStale() bool {
	if c.snapshot == nil {
		return true
	}
	return c.now().After(c.snapshot.ExpiresAt)
}

// Clear drops the stored snapshot.
func (c *Cache) Clear() {
	c.snapshot = nil
}

// Age returns the time since the stored snapshot was fetched.
func (c *Cache) Age() (time.Duration, bool) {
	if c.snapshot == nil {
		return 0, false
	}
	return c.now().Sub(c.snapshot.FetchedAt), true
}

// RemainingTTL returns the time until the stored snapshot expires, floored at zero.
func (c *Cache) RemainingTTL() (time.Duration, bool) {
	if c.snapshot == nil {
		return 0, false
	}
	remaining := c.snapshot.ExpiresAt.Sub(c.now())
	if remaining < 0 {
		remaining = 0
	}
	return remaining, true
}

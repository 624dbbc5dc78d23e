// Package cache memoizes per-snippet work by content hash. Entries expire
// after a TTL and the oldest entry is evicted once the cache is full.
package cache

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Cache configuration constants
const (
	DefaultMaxEntries      = 400
	DefaultTTL             = 2 * time.Hour
	DefaultCleanupInterval = 10 * time.Minute
)

// Config defines configuration options
type Config struct {
	MaxEntries      int
	TTL             time.Duration
	AutoCleanup     bool
	CleanupInterval time.Duration
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		MaxEntries:      DefaultMaxEntries,
		TTL:             DefaultTTL,
		AutoCleanup:     true,
		CleanupInterval: DefaultCleanupInterval,
	}
}

type entry[V any] struct {
	value       V
	cachedAt    int64 // unix nanos
	accessCount int64
}

// Cache is safe for concurrent use. Values are shared between callers and
// must not be mutated after Put.
type Cache[V any] struct {
	entries sync.Map // map[uint64]*entry[V]

	maxEntries int
	ttlNanos   int64

	hits          int64
	misses        int64
	evictions     int64
	totalRequests int64
	count         int64

	createdAt   time.Time
	lastCleanup int64

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a cache. With AutoCleanup a goroutine sweeps expired entries
// until Close is called.
func New[V any](cfg Config) *Cache[V] {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultMaxEntries
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	c := &Cache[V]{
		maxEntries:  cfg.MaxEntries,
		ttlNanos:    cfg.TTL.Nanoseconds(),
		createdAt:   time.Now(),
		lastCleanup: time.Now().UnixNano(),
		stop:        make(chan struct{}),
	}
	if cfg.AutoCleanup {
		interval := cfg.CleanupInterval
		if interval <= 0 {
			interval = DefaultCleanupInterval
		}
		c.wg.Add(1)
		go c.autoCleanup(interval)
	}
	return c
}

// Key hashes content together with a discriminator such as a front end
// fingerprint
func Key(content []byte, discriminator string) uint64 {
	h := xxhash.New()
	_, _ = h.Write(content)
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(discriminator)
	return h.Sum64()
}

// Get returns the live value stored under key
func (c *Cache[V]) Get(key uint64) (V, bool) {
	atomic.AddInt64(&c.totalRequests, 1)
	if val, ok := c.entries.Load(key); ok {
		e := val.(*entry[V])
		if time.Now().UnixNano()-atomic.LoadInt64(&e.cachedAt) <= atomic.LoadInt64(&c.ttlNanos) {
			atomic.AddInt64(&e.accessCount, 1)
			atomic.AddInt64(&c.hits, 1)
			return e.value, true
		}
		// expired, delete lazily
		if c.entries.CompareAndDelete(key, val) {
			atomic.AddInt64(&c.count, -1)
		}
	}
	atomic.AddInt64(&c.misses, 1)
	var zero V
	return zero, false
}

// Put stores value under key, evicting the oldest entry when full
func (c *Cache[V]) Put(key uint64, value V) {
	e := &entry[V]{value: value, cachedAt: time.Now().UnixNano(), accessCount: 1}
	if _, loaded := c.entries.Swap(key, e); loaded {
		return
	}
	if atomic.AddInt64(&c.count, 1) > int64(c.maxEntries) {
		c.evictOldest()
	}
}

func (c *Cache[V]) evictOldest() {
	var oldestKey interface{}
	oldestTime := time.Now().UnixNano()

	c.entries.Range(func(key, value interface{}) bool {
		cachedAt := atomic.LoadInt64(&value.(*entry[V]).cachedAt)
		if cachedAt < oldestTime {
			oldestTime = cachedAt
			oldestKey = key
		}
		return true
	})

	if oldestKey != nil {
		if _, ok := c.entries.LoadAndDelete(oldestKey); ok {
			atomic.AddInt64(&c.count, -1)
			atomic.AddInt64(&c.evictions, 1)
		}
	}
}

// CleanExpired removes expired entries and returns how many went
func (c *Cache[V]) CleanExpired() int {
	now := time.Now().UnixNano()
	ttl := atomic.LoadInt64(&c.ttlNanos)
	cleaned := int64(0)
	live := int64(0)
	c.entries.Range(func(key, value interface{}) bool {
		if now-atomic.LoadInt64(&value.(*entry[V]).cachedAt) > ttl {
			c.entries.Delete(key)
			cleaned++
		} else {
			live++
		}
		return true
	})
	atomic.StoreInt64(&c.count, live)
	atomic.AddInt64(&c.evictions, cleaned)
	atomic.StoreInt64(&c.lastCleanup, now)
	return int(cleaned)
}

func (c *Cache[V]) autoCleanup(interval time.Duration) {
	defer c.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.CleanExpired()
		case <-c.stop:
			return
		}
	}
}

// Close stops the cleanup goroutine. The cache stays usable.
func (c *Cache[V]) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
	c.wg.Wait()
}

// UpdateTTL updates TTL and cleans expired entries
func (c *Cache[V]) UpdateTTL(ttl time.Duration) {
	atomic.StoreInt64(&c.ttlNanos, ttl.Nanoseconds())
	c.CleanExpired()
}

// Clear removes all entries and resets statistics
func (c *Cache[V]) Clear() {
	c.entries.Range(func(key, _ interface{}) bool {
		c.entries.Delete(key)
		return true
	})
	atomic.StoreInt64(&c.hits, 0)
	atomic.StoreInt64(&c.misses, 0)
	atomic.StoreInt64(&c.evictions, 0)
	atomic.StoreInt64(&c.totalRequests, 0)
	atomic.StoreInt64(&c.count, 0)
	atomic.StoreInt64(&c.lastCleanup, time.Now().UnixNano())
}

// Stats holds cache statistics
type Stats struct {
	Hits          int64         `json:"hits"`
	Misses        int64         `json:"misses"`
	Evictions     int64         `json:"evictions"`
	TotalRequests int64         `json:"totalRequests"`
	HitRate       float64       `json:"hitRate"`
	Entries       int           `json:"entries"`
	LastCleanup   time.Time     `json:"lastCleanup"`
	Uptime        time.Duration `json:"uptimeNs"`
}

// Stats returns cache statistics
func (c *Cache[V]) Stats() Stats {
	hits := atomic.LoadInt64(&c.hits)
	total := atomic.LoadInt64(&c.totalRequests)
	hitRate := float64(0)
	if total > 0 {
		hitRate = float64(hits) / float64(total)
	}
	return Stats{
		Hits:          hits,
		Misses:        atomic.LoadInt64(&c.misses),
		Evictions:     atomic.LoadInt64(&c.evictions),
		TotalRequests: total,
		HitRate:       hitRate,
		Entries:       int(atomic.LoadInt64(&c.count)),
		LastCleanup:   time.Unix(0, atomic.LoadInt64(&c.lastCleanup)),
		Uptime:        time.Since(c.createdAt),
	}
}

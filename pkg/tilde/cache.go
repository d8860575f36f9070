package tilde

import (
	"context"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"
)

const (
	// CacheDisabled turns caching off; every load parses.
	CacheDisabled = 0
	// CacheUnlimited never evicts.
	CacheUnlimited = -1
	// DefaultCacheCapacity is the capacity of the default cache.
	DefaultCacheCapacity = 100
)

// Cache memoizes parsed templates by origin with least-recently-used
// eviction. It is safe for concurrent use.
type Cache struct {
	entries  map[string]*cacheEntry
	mutex    sync.Mutex
	capacity int
	logger   *slog.Logger
	// LRU list with dummy head and tail; most recent first.
	head *cacheEntry
	tail *cacheEntry

	hits      int64
	misses    int64
	evictions int64
}

type cacheEntry struct {
	key      string
	origin   Origin
	tmpl     *Template
	loadedAt time.Time
	prev     *cacheEntry
	next     *cacheEntry
}

// CacheStats is a snapshot of cache counters.
type CacheStats struct {
	Hits      int64 `json:"hits" yaml:"hits"`
	Misses    int64 `json:"misses" yaml:"misses"`
	Evictions int64 `json:"evictions" yaml:"evictions"`
	Size      int   `json:"size" yaml:"size"`
	Capacity  int   `json:"capacity" yaml:"capacity"`
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithLogger makes the cache log loads, hits and evictions at debug level.
func WithLogger(l *slog.Logger) CacheOption {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCache creates a cache holding at most capacity templates. Use
// CacheDisabled or CacheUnlimited for the special cases.
func NewCache(capacity int, opts ...CacheOption) *Cache {
	if capacity < CacheUnlimited {
		capacity = CacheUnlimited
	}
	c := &Cache{
		entries:  make(map[string]*cacheEntry),
		capacity: capacity,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	c.head = &cacheEntry{}
	c.tail = &cacheEntry{}
	c.head.next = c.tail
	c.tail.prev = c.head
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FromFile loads the template at path from the file system.
func (c *Cache) FromFile(path string) (*Template, error) {
	return c.load(FileResolver{}, path, nil)
}

// FromFS loads the template at path from fsys.
func (c *Cache) FromFS(fsys fs.FS, path string) (*Template, error) {
	return c.load(FSResolver{FS: fsys}, path, nil)
}

// FromResolver loads the template at path through r. Includes inside the
// template are resolved through r as well.
func (c *Cache) FromResolver(r PathResolver, path string) (*Template, error) {
	return c.load(r, path, nil)
}

// FromString parses src. The result is never cached, but templates it
// includes are loaded through the cache.
func (c *Cache) FromString(src string, opts ...LoadOption) (*Template, error) {
	o := loadOptions{resolver: FileResolver{}}
	for _, opt := range opts {
		opt(&o)
	}
	return parse(src, Origin{}, o.resolver, c, nil)
}

// load returns the cached template for (r, path), parsing it on a miss.
// Parsing happens outside the lock; when two callers race, the first
// insert wins and both get that instance. A nil cache parses every time.
func (c *Cache) load(r PathResolver, path string, stack []Origin) (*Template, error) {
	origin := Origin{Resolver: resolverKey(r), Path: path}
	key := origin.Key()

	if t, ok := c.get(key); ok {
		return t, nil
	}

	src, err := r.Resolve(path)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	t, err := parse(src, origin, r, c, stack)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return t, nil
	}
	c.logger.Debug("parsed template",
		slog.String("path", path),
		slog.Int("parts", len(t.parts)),
		slog.Duration("elapsed", time.Since(start)))
	return c.put(key, origin, t), nil
}

func (c *Cache) get(key string) (*Template, bool) {
	if c == nil {
		return nil, false
	}
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, exists := c.entries[key]
	if !exists {
		atomic.AddInt64(&c.misses, 1)
		return nil, false
	}
	c.moveToFront(entry)
	atomic.AddInt64(&c.hits, 1)
	return entry.tmpl, true
}

func (c *Cache) put(key string, origin Origin, t *Template) *Template {
	if c.capacity == CacheDisabled {
		return t
	}
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if existing, ok := c.entries[key]; ok {
		c.moveToFront(existing)
		return existing.tmpl
	}
	entry := &cacheEntry{key: key, origin: origin, tmpl: t, loadedAt: time.Now()}
	c.entries[key] = entry
	c.addToFront(entry)
	c.evictIfNeeded()
	return t
}

// evictIfNeeded removes least recently used entries beyond capacity.
// Caller must hold the lock.
func (c *Cache) evictIfNeeded() {
	if c.capacity == CacheUnlimited {
		return
	}
	for len(c.entries) > c.capacity {
		lru := c.tail.prev
		if lru == c.head {
			return
		}
		c.removeFromList(lru)
		delete(c.entries, lru.key)
		atomic.AddInt64(&c.evictions, 1)
		c.logger.Debug("evicted template", slog.String("path", lru.origin.Path))
	}
}

// Invalidate drops every entry loaded from path or including it, and
// returns how many entries were dropped. Paths are compared after
// cleaning.
func (c *Cache) Invalidate(path string) int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	dropped := 0
	for key, entry := range c.entries {
		if !entry.dependsOn(path) {
			continue
		}
		c.removeFromList(entry)
		delete(c.entries, key)
		dropped++
	}
	if dropped > 0 {
		c.logger.Debug("invalidated templates", slog.String("path", path), slog.Int("count", dropped))
	}
	return dropped
}

func (e *cacheEntry) dependsOn(path string) bool {
	if samePath(e.origin.Path, path) {
		return true
	}
	for _, d := range e.tmpl.deps {
		if samePath(d.Path, path) {
			return true
		}
	}
	return false
}

func samePath(a, b string) bool {
	return a == b || filepath.Clean(a) == filepath.Clean(b)
}

// Contains reports whether a template loaded through r from path is cached.
func (c *Cache) Contains(r PathResolver, path string) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	_, ok := c.entries[Origin{Resolver: resolverKey(r), Path: path}.Key()]
	return ok
}

// Reset empties the cache and zeroes its counters.
func (c *Cache) Reset() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries = make(map[string]*cacheEntry)
	c.head.next = c.tail
	c.tail.prev = c.head
	atomic.StoreInt64(&c.hits, 0)
	atomic.StoreInt64(&c.misses, 0)
	atomic.StoreInt64(&c.evictions, 0)
}

// Len returns the number of cached templates.
func (c *Cache) Len() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return len(c.entries)
}

// Capacity returns the configured capacity.
func (c *Cache) Capacity() int {
	return c.capacity
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() CacheStats {
	return CacheStats{
		Hits:      atomic.LoadInt64(&c.hits),
		Misses:    atomic.LoadInt64(&c.misses),
		Evictions: atomic.LoadInt64(&c.evictions),
		Size:      c.Len(),
		Capacity:  c.capacity,
	}
}

// HitRate returns hits divided by lookups, or 0 before any lookup.
func (c *Cache) HitRate() float64 {
	hits := atomic.LoadInt64(&c.hits)
	total := hits + atomic.LoadInt64(&c.misses)
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// addToFront adds an entry right after the dummy head.
func (c *Cache) addToFront(entry *cacheEntry) {
	entry.prev = c.head
	entry.next = c.head.next
	c.head.next.prev = entry
	c.head.next = entry
}

func (c *Cache) removeFromList(entry *cacheEntry) {
	entry.prev.next = entry.next
	entry.next.prev = entry.prev
}

func (c *Cache) moveToFront(entry *cacheEntry) {
	c.removeFromList(entry)
	c.addToFront(entry)
}

// Watch invalidates entries as paths arrive on changes, until ctx is done
// or the channel closes.
func (c *Cache) Watch(ctx context.Context, changes <-chan string) {
	for {
		select {
		case <-ctx.Done():
			return
		case p, ok := <-changes:
			if !ok {
				return
			}
			c.Invalidate(p)
		}
	}
}

var (
	defaultCache   *Cache
	defaultCacheMu sync.RWMutex
)

// DefaultCache returns the cache used by the package-level loaders. It is
// created with DefaultCacheCapacity on first use.
func DefaultCache() *Cache {
	defaultCacheMu.RLock()
	c := defaultCache
	defaultCacheMu.RUnlock()
	if c != nil {
		return c
	}

	defaultCacheMu.Lock()
	defer defaultCacheMu.Unlock()
	if defaultCache == nil {
		defaultCache = NewCache(DefaultCacheCapacity)
	}
	return defaultCache
}

// SetDefaultCache replaces the default cache.
func SetDefaultCache(c *Cache) {
	defaultCacheMu.Lock()
	defer defaultCacheMu.Unlock()
	defaultCache = c
}

// ResetDefaultCache replaces the default cache with an empty one of the
// given capacity and returns it.
func ResetDefaultCache(capacity int, opts ...CacheOption) *Cache {
	c := NewCache(capacity, opts...)
	SetDefaultCache(c)
	return c
}

// LoadOption configures FromString.
type LoadOption func(*loadOptions)

type loadOptions struct {
	resolver PathResolver
}

// WithResolver sets the resolver for include tags in a string template.
func WithResolver(r PathResolver) LoadOption {
	return func(o *loadOptions) {
		if r != nil {
			o.resolver = r
		}
	}
}

// FromString parses src with the default cache serving its includes.
func FromString(src string, opts ...LoadOption) (*Template, error) {
	return DefaultCache().FromString(src, opts...)
}

// FromFile loads a template file through the default cache.
func FromFile(path string) (*Template, error) {
	return DefaultCache().FromFile(path)
}

// FromFS loads a template from fsys through the default cache.
func FromFS(fsys fs.FS, path string) (*Template, error) {
	return DefaultCache().FromFS(fsys, path)
}

// FromResolver loads a template through r and the default cache.
func FromResolver(r PathResolver, path string) (*Template, error) {
	return DefaultCache().FromResolver(r, path)
}

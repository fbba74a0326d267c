// Package cache provides the in-process tag-scoped call cache and the shared
// Redis feed cache.
package cache

import (
	"container/list"
	"context"
	"crypto/md5"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vurse/backend/pkg/logging"
)

// TagCache memoizes successful call results in process memory. Entries are
// grouped into one LRU store per TTL and indexed by tag, so a write path can
// drop every cached read that depends on it with a single Invalidate call.
// Staleness is bounded by the entry TTL even if an invalidation is missed.
type TagCache struct {
	enabled    bool
	maxEntries int

	mu     sync.Mutex
	stores map[time.Duration]*lruStore
	tags   map[string]map[tagRef]struct{}
	logger *zap.Logger
}

type tagRef struct {
	ttl time.Duration
	key string
}

// NewTagCache creates a tag cache. maxEntries bounds each per-TTL store.
// A disabled cache passes every call straight through.
func NewTagCache(enabled bool, maxEntries int) *TagCache {
	c := &TagCache{
		enabled:    enabled,
		maxEntries: maxEntries,
		stores:     make(map[time.Duration]*lruStore),
		tags:       make(map[string]map[tagRef]struct{}),
		logger:     logging.GetLogger().Named("cache"),
	}
	return c
}

// Key derives a deterministic cache key from an operation name and its
// arguments. Map arguments are canonicalized by sorted key so logically
// equal calls hash identically.
func Key(op string, args ...interface{}) string {
	h := md5.New()
	fmt.Fprint(h, op)
	for _, arg := range args {
		fmt.Fprint(h, "|", canonical(arg))
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

func canonical(arg interface{}) string {
	switch v := arg.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		s := "{"
		for _, k := range keys {
			s += k + ":" + canonical(v[k]) + ","
		}
		return s + "}"
	case []string:
		s := "["
		for _, e := range v {
			s += e + ","
		}
		return s + "]"
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Do returns the cached result for (op, args) when a live entry exists,
// otherwise invokes fn and caches its result under the given tags. Errors
// are never cached.
func (c *TagCache) Do(ctx context.Context, ttl time.Duration, tags []string, op string, args []interface{}, fn func(context.Context) (interface{}, error)) (interface{}, error) {
	if !c.enabled {
		return fn(ctx)
	}

	key := Key(op, args...)

	c.mu.Lock()
	store, ok := c.stores[ttl]
	if !ok {
		store = newLRUStore(c.maxEntries)
		c.stores[ttl] = store
	}
	if value, hit := store.get(key, time.Now()); hit {
		c.mu.Unlock()
		return value, nil
	}
	c.mu.Unlock()

	value, err := fn(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	store.set(key, value, time.Now().Add(ttl))
	ref := tagRef{ttl: ttl, key: key}
	for _, tag := range tags {
		refs, ok := c.tags[tag]
		if !ok {
			refs = make(map[tagRef]struct{})
			c.tags[tag] = refs
		}
		refs[ref] = struct{}{}
	}
	c.mu.Unlock()

	return value, nil
}

// Invalidate drops every entry registered under any of the given tags.
// Unknown tags are ignored.
func (c *TagCache) Invalidate(tags ...string) {
	if !c.enabled {
		return
	}

	c.mu.Lock()
	dropped := 0
	for _, tag := range tags {
		refs, ok := c.tags[tag]
		if !ok {
			continue
		}
		for ref := range refs {
			if store, ok := c.stores[ref.ttl]; ok {
				if store.remove(ref.key) {
					dropped++
				}
			}
		}
		delete(c.tags, tag)
	}
	c.mu.Unlock()

	if dropped > 0 {
		c.logger.Debug("cache invalidated",
			zap.Strings("tags", tags),
			zap.Int("entries", dropped))
	}
}

// lruStore is a fixed-capacity LRU map with per-entry expiry. Callers hold
// the TagCache lock.
type lruStore struct {
	maxEntries int
	ll         *list.List
	entries    map[string]*list.Element
}

type lruEntry struct {
	key       string
	value     interface{}
	expiresAt time.Time
}

func newLRUStore(maxEntries int) *lruStore {
	return &lruStore{
		maxEntries: maxEntries,
		ll:         list.New(),
		entries:    make(map[string]*list.Element),
	}
}

func (s *lruStore) get(key string, now time.Time) (interface{}, bool) {
	el, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	entry := el.Value.(*lruEntry)
	if now.After(entry.expiresAt) {
		s.ll.Remove(el)
		delete(s.entries, key)
		return nil, false
	}
	s.ll.MoveToFront(el)
	return entry.value, true
}

func (s *lruStore) set(key string, value interface{}, expiresAt time.Time) {
	if el, ok := s.entries[key]; ok {
		entry := el.Value.(*lruEntry)
		entry.value = value
		entry.expiresAt = expiresAt
		s.ll.MoveToFront(el)
		return
	}
	el := s.ll.PushFront(&lruEntry{key: key, value: value, expiresAt: expiresAt})
	s.entries[key] = el
	if s.ll.Len() > s.maxEntries {
		oldest := s.ll.Back()
		if oldest != nil {
			s.ll.Remove(oldest)
			delete(s.entries, oldest.Value.(*lruEntry).key)
		}
	}
}

func (s *lruStore) remove(key string) bool {
	el, ok := s.entries[key]
	if !ok {
		return false
	}
	s.ll.Remove(el)
	delete(s.entries, key)
	return true
}

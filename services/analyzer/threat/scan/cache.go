// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package scan

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"sync/atomic"

	"github.com/AleutianAI/AleutianGuardian/services/analyzer/threat"
)

// DefaultCacheCapacity bounds the result cache.
const DefaultCacheCapacity = 1000

// lruCache is a fixed-size LRU over container/list.
//
// Thread Safety: All methods are safe for concurrent use.
type lruCache[K comparable, V any] struct {
	mu       sync.RWMutex
	capacity int
	items    map[K]*list.Element
	order    *list.List // Front = most recent, Back = least recent

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

type lruEntry[K comparable, V any] struct {
	key   K
	value V
}

func newLRUCache[K comparable, V any](capacity int) *lruCache[K, V] {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &lruCache[K, V]{
		capacity: capacity,
		items:    make(map[K]*list.Element, capacity),
		order:    list.New(),
	}
}

func (c *lruCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.order.MoveToFront(elem)
		c.hits.Add(1)
		return elem.Value.(*lruEntry[K, V]).value, true
	}

	c.misses.Add(1)
	var zero V
	return zero, false
}

func (c *lruCache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.order.MoveToFront(elem)
		elem.Value.(*lruEntry[K, V]).value = value
		return
	}

	if c.order.Len() >= c.capacity {
		if elem := c.order.Back(); elem != nil {
			c.order.Remove(elem)
			delete(c.items, elem.Value.(*lruEntry[K, V]).key)
			c.evictions.Add(1)
		}
	}

	elem := c.order.PushFront(&lruEntry[K, V]{key: key, value: value})
	c.items[key] = elem
}

func (c *lruCache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.order.Len()
}

func (c *lruCache[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[K]*list.Element, c.capacity)
	c.order.Init()
	c.hits.Store(0)
	c.misses.Store(0)
	c.evictions.Store(0)
}

// ResultCache stores finished analyses keyed by content, language,
// and security level.
//
// Description:
//
//	Values are cloned on both store and load so callers can never
//	mutate a cached result. Keys are SHA-256 over the inputs, so
//	identical snippets at different security levels occupy separate
//	entries.
//
// Thread Safety:
//
//	ResultCache is safe for concurrent use.
type ResultCache struct {
	lru *lruCache[string, *threat.ThreatAnalysis]
}

// NewResultCache creates a cache with the given capacity. Zero or
// negative capacity uses DefaultCacheCapacity.
func NewResultCache(capacity int) *ResultCache {
	return &ResultCache{lru: newLRUCache[string, *threat.ThreatAnalysis](capacity)}
}

// Key derives the cache key for one scan request.
func (rc *ResultCache) Key(code, language string, level threat.SecurityLevel) string {
	h := sha256.New()
	h.Write([]byte(code))
	h.Write([]byte{0})
	h.Write([]byte(language))
	h.Write([]byte{0})
	h.Write([]byte(level))
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns a clone of the cached analysis, marked as cached.
func (rc *ResultCache) Get(key string) (*threat.ThreatAnalysis, bool) {
	cached, ok := rc.lru.Get(key)
	if !ok {
		return nil, false
	}
	clone := cached.Clone()
	clone.Cached = true
	return clone, true
}

// Put stores a clone of the analysis.
func (rc *ResultCache) Put(key string, analysis *threat.ThreatAnalysis) {
	if analysis == nil {
		return
	}
	rc.lru.Set(key, analysis.Clone())
}

// Len returns the number of cached entries.
func (rc *ResultCache) Len() int { return rc.lru.Len() }

// Purge clears the cache and its counters.
func (rc *ResultCache) Purge() { rc.lru.Purge() }

// Stats returns hit, miss, and eviction counts.
func (rc *ResultCache) Stats() (hits, misses, evictions int64) {
	return rc.lru.hits.Load(), rc.lru.misses.Load(), rc.lru.evictions.Load()
}

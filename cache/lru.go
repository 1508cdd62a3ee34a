// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package cache provides in-memory caches.
package cache

import (
	lru "github.com/hashicorp/golang-lru"
)

// LRU is a fixed size, typed, least recently used cache. It is safe for
// concurrent use.
type LRU[K comparable, V any] struct {
	c *lru.Cache
}

// NewLRU creates a cache holding up to size entries. size must be positive.
func NewLRU[K comparable, V any](size int) (*LRU[K, V], error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &LRU[K, V]{c}, nil
}

// Get returns the cached value of key.
func (l *LRU[K, V]) Get(key K) (V, bool) {
	if val, ok := l.c.Get(key); ok {
		v, _ := val.(V) // nil stays the zero value
		return v, true
	}
	var zero V
	return zero, false
}

// Add caches value under key, evicting the oldest entry when full.
func (l *LRU[K, V]) Add(key K, value V) {
	l.c.Add(key, value)
}

// Contains reports whether key is cached, without updating its recency.
func (l *LRU[K, V]) Contains(key K) bool {
	return l.c.Contains(key)
}

// Len returns the number of cached entries.
func (l *LRU[K, V]) Len() int {
	return l.c.Len()
}

// GetOrLoad returns the cached value of key, or caches the result of load.
// Failed loads are not cached. Concurrent misses of one key may each call load.
func (l *LRU[K, V]) GetOrLoad(key K, load func() (V, error)) (V, error) {
	if v, ok := l.Get(key); ok {
		return v, nil
	}
	v, err := load()
	if err != nil {
		return v, err
	}
	l.Add(key, v)
	return v, nil
}

// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package translate

import "sync"

type cached struct {
	query        string
	placeholders int
	notes        []Note
}

// cache memoises translations by source text. Once full it stops admitting
// new entries; stored entries are never mutated.
type cache struct {
	mu      sync.RWMutex
	entries map[string]cached
	limit   int
}

func newCache(limit int) *cache {
	return &cache{entries: make(map[string]cached), limit: limit}
}

func (c *cache) get(query string) (cached, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[query]
	return e, ok
}

func (c *cache) put(query string, e cached) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) >= c.limit {
		return
	}
	c.entries[query] = e
}

func (c *cache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

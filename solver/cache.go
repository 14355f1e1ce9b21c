// Copyright 2026 The Tokasim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package solver

import "sync"

// CompilationCache memoizes solver closures keyed by the static
// configuration that produced them (mesh resolution, solver type,
// evolution flags bitmask, theta) so repeated runs with identical static
// configuration skip reconstructing a Solver (spec.md §4.10). It is the
// one process-wide piece of state the orchestrator touches; bounded by
// capacity with a simple FIFO eviction, same shape as gofem's
// once-per-process Summary buffers but generalized to arbitrary keys.
type CompilationCache struct {
	mu       sync.Mutex
	capacity int
	order    []string
	entries  map[string]any
}

// NewCompilationCache returns a cache bounded to capacity entries;
// capacity <= 0 falls back to the spec default of 10.
func NewCompilationCache(capacity int) *CompilationCache {
	if capacity <= 0 {
		capacity = 10
	}
	return &CompilationCache{capacity: capacity, entries: make(map[string]any)}
}

// GetOrCompile returns the cached value for key, calling thunk and
// storing its result if key is not present. Thread-safe.
func (c *CompilationCache) GetOrCompile(key string, thunk func() any) any {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.entries[key]; ok {
		return v
	}
	v := thunk()
	if len(c.order) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[key] = v
	c.order = append(c.order, key)
	return v
}

// Len reports the current number of cached entries.
func (c *CompilationCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package gpu

import (
	"container/list"
	"fmt"
)

// DefaultAtlasBudget is the default GPU memory budget for atlas textures
// (64 MiB, sixteen 2048x2048 R8 atlases).
const DefaultAtlasBudget = 64 << 20

// AtlasMemoryStats reports atlas texture memory use.
type AtlasMemoryStats struct {
	// BudgetBytes is the configured budget.
	BudgetBytes uint64
	// UsedBytes is the texel memory of all resident atlas textures.
	UsedBytes uint64
	// Textures is the number of resident atlas textures.
	Textures int
	// Evictions counts textures dropped to stay within budget.
	Evictions uint64
}

func (s AtlasMemoryStats) String() string {
	return fmt.Sprintf("AtlasMemory[%d/%d KiB, %d textures, %d evictions]",
		s.UsedBytes/1024, s.BudgetBytes/1024, s.Textures, s.Evictions)
}

type atlasEntry struct {
	key     any
	tex     *AtlasTexture
	element *list.Element
}

// atlasCache owns the session's atlas textures, keyed by the caller's
// atlas identity, with least-recently-used eviction when their combined
// size exceeds the budget. An evicted atlas is recreated and fully
// uploaded the next time it is drawn.
//
// atlasCache is not safe for concurrent use; the Session serializes it.
type atlasCache struct {
	budget  uint64
	entries map[any]*atlasEntry

	// front = most recently used
	lru *list.List

	evictions uint64
}

func newAtlasCache(budget uint64) *atlasCache {
	if budget == 0 {
		budget = DefaultAtlasBudget
	}
	return &atlasCache{
		budget:  budget,
		entries: make(map[any]*atlasEntry),
		lru:     list.New(),
	}
}

// get returns the texture for key, creating it with create on first use,
// and marks it most recently used.
func (c *atlasCache) get(key any, create func() *AtlasTexture) *AtlasTexture {
	if e, ok := c.entries[key]; ok {
		c.lru.MoveToFront(e.element)
		return e.tex
	}
	e := &atlasEntry{key: key, tex: create()}
	e.element = c.lru.PushFront(e)
	c.entries[key] = e
	return e.tex
}

// release destroys the texture for key, if any.
func (c *atlasCache) release(key any) {
	e, ok := c.entries[key]
	if !ok {
		return
	}
	c.remove(e)
}

func (c *atlasCache) remove(e *atlasEntry) {
	c.lru.Remove(e.element)
	delete(c.entries, e.key)
	e.tex.Destroy()
}

func (c *atlasCache) usedBytes() uint64 {
	var n uint64
	for _, e := range c.entries {
		n += e.tex.Bytes()
	}
	return n
}

// trim evicts least recently used textures until the cache fits its
// budget. Textures in keep are never evicted, so a single frame may exceed
// the budget. It must only run when no submitted work references the
// textures. It returns the number of textures evicted.
func (c *atlasCache) trim(keep map[*AtlasTexture]bool) int {
	used := c.usedBytes()
	evicted := 0
	for elem := c.lru.Back(); elem != nil && used > c.budget; {
		prev := elem.Prev()
		e, ok := elem.Value.(*atlasEntry)
		if ok && !keep[e.tex] {
			used -= e.tex.Bytes()
			c.remove(e)
			c.evictions++
			evicted++
		}
		elem = prev
	}
	if evicted > 0 {
		slogger().Debug("atlas textures evicted", "count", evicted, "used_bytes", used, "budget", c.budget)
	}
	return evicted
}

func (c *atlasCache) stats() AtlasMemoryStats {
	return AtlasMemoryStats{
		BudgetBytes: c.budget,
		UsedBytes:   c.usedBytes(),
		Textures:    len(c.entries),
		Evictions:   c.evictions,
	}
}

// destroy releases every texture.
func (c *atlasCache) destroy() {
	for _, e := range c.entries {
		e.tex.Destroy()
	}
	c.entries = make(map[any]*atlasEntry)
	c.lru.Init()
}

/*
NAME
  cache.go

DESCRIPTION
  cache.go provides the per-song decoded sample cache.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package sample

import (
	"sort"
	"sync"
)

// Cache maps sample IDs to decoded samples and metadata for one song. It must
// be purged with PurgeAll before loading another song. Cache is safe for
// concurrent use.
type Cache struct {
	mu      sync.RWMutex
	samples map[ID]*Decoded
	info    map[ID]Info
}

// NewCache returns an empty Cache.
func NewCache() *Cache {
	return &Cache{
		samples: make(map[ID]*Decoded),
		info:    make(map[ID]Info),
	}
}

// Get returns the sample stored under id, if any.
func (c *Cache) Get(id ID) (*Decoded, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.samples[id]
	return s, ok
}

// Insert stores s under id, replacing any previous sample.
func (c *Cache) Insert(id ID, s *Decoded) {
	c.mu.Lock()
	c.samples[id] = s
	c.mu.Unlock()
}

// SetInfo records playback metadata for id.
func (c *Cache) SetInfo(id ID, i Info) {
	c.mu.Lock()
	c.info[id] = i
	c.mu.Unlock()
}

// Info returns the playback metadata for id, if any.
func (c *Cache) Info(id ID) (Info, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.info[id]
	return i, ok
}

// PurgeAll removes every sample and metadata entry.
func (c *Cache) PurgeAll() {
	c.mu.Lock()
	c.samples = make(map[ID]*Decoded)
	c.info = make(map[ID]Info)
	c.mu.Unlock()
}

// Len returns the number of cached samples.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.samples)
}

// IDs returns the cached sample IDs in ascending order.
func (c *Cache) IDs() []ID {
	c.mu.RLock()
	ids := make([]ID, 0, len(c.samples))
	for id := range c.samples {
		ids = append(ids, id)
	}
	c.mu.RUnlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

package client

import (
	"sync"

	"github.com/jotlabs/jot/internal/notes"
)

// Cache is the in-process store of the last-known note listings, keyed by
// query (one entry per search keyword). Reads and writes are synchronous;
// optimistic updates land here before the matching remote call resolves.
type Cache struct {
	mu      sync.Mutex
	entries map[string][]notes.Note
}

// NewCache constructs an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string][]notes.Note)}
}

// Read returns a copy of the cached listing for the query key, if present.
func (c *Cache) Read(queryKey string) ([]notes.Note, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[queryKey]
	if !ok {
		return nil, false
	}
	return copyNotes(entry), true
}

// Write overwrites the cached listing for the query key.
func (c *Cache) Write(queryKey string, listing []notes.Note) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[queryKey] = copyNotes(listing)
}

// Update applies fn to the current listing for the query key and stores the
// result, all under the cache lock. A missing entry is passed to fn as nil.
func (c *Cache) Update(queryKey string, fn func([]notes.Note) []notes.Note) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[queryKey] = copyNotes(fn(copyNotes(c.entries[queryKey])))
}

// Invalidate drops the entry for the query key so the next read misses and
// the caller refetches from the remote service.
func (c *Cache) Invalidate(queryKey string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, queryKey)
}

func copyNotes(listing []notes.Note) []notes.Note {
	if listing == nil {
		return nil
	}
	duplicate := make([]notes.Note, len(listing))
	copy(duplicate, listing)
	return duplicate
}

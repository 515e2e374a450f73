// Package cache keeps the last fetched value per key.
//
// Entries never expire; they leave only through Invalidate or Clear. A
// Cache is not safe for concurrent use.
package cache

type Cache[V any] struct {
	entries map[string]V
}

func New[V any]() *Cache[V] {
	return &Cache[V]{entries: map[string]V{}}
}

func (c *Cache[V]) Lookup(key string) (v V, ok bool) {
	v, ok = c.entries[key]
	return
}

// Store replaces any previous entry for key.
func (c *Cache[V]) Store(key string, v V) {
	c.entries[key] = v
}

// Invalidate removes key and reports whether it was present.
func (c *Cache[V]) Invalidate(key string) bool {
	_, ok := c.entries[key]
	delete(c.entries, key)
	return ok
}

func (c *Cache[V]) Clear() {
	clear(c.entries)
}

func (c *Cache[V]) Len() int {
	return len(c.entries)
}

package shadow

import (
	"reflect"
	"sync"
)

// nestCache maps raw nested values to the wrappers created for them.
// Only pointer-shaped values have a stable identity and are cached.
type nestCache struct {
	mu      sync.Mutex
	entries map[any]*Wrapper
}

func newNestCache() *nestCache {
	return &nestCache{entries: make(map[any]*Wrapper)}
}

func cacheable(v any) bool {
	if v == nil {
		return false
	}
	return reflect.TypeOf(v).Kind() == reflect.Pointer
}

func (c *nestCache) get(raw any) (*Wrapper, bool) {
	if !cacheable(raw) {
		return nil, false
	}
	c.mu.Lock()
	w, ok := c.entries[raw]
	c.mu.Unlock()
	return w, ok
}

func (c *nestCache) put(raw any, w *Wrapper) {
	if !cacheable(raw) {
		return
	}
	c.mu.Lock()
	c.entries[raw] = w
	c.mu.Unlock()
}

func (c *nestCache) evict(raw any) {
	if !cacheable(raw) {
		return
	}
	c.mu.Lock()
	delete(c.entries, raw)
	c.mu.Unlock()
}

func (c *nestCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

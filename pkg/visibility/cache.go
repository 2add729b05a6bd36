package visibility

import "sync"

// RetainedValueCache remembers the last value a user entered per field. It is
// independent of the form-value store and survives hide/show cycles until
// Clear is called.
type RetainedValueCache struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewRetainedValueCache returns an empty cache.
func NewRetainedValueCache() *RetainedValueCache {
	return &RetainedValueCache{values: make(map[string]any)}
}

// Set records value as the latest user input for id.
func (c *RetainedValueCache) Set(id string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[id] = value
}

// Get returns the retained value for id.
func (c *RetainedValueCache) Get(id string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	value, ok := c.values[id]
	return value, ok
}

// Delete forgets id.
func (c *RetainedValueCache) Delete(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.values, id)
}

// Clear forgets every retained value.
func (c *RetainedValueCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values = make(map[string]any)
}

// Len returns the number of retained values.
func (c *RetainedValueCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.values)
}

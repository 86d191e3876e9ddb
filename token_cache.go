package sessiongate

import (
	"context"
	"sync"
)

// MemoryTokenCache is a process-local TokenCache. It does not survive a
// restart; use BunTokenCache where durability matters.
type MemoryTokenCache struct {
	mu    sync.RWMutex
	token string
	set   bool
}

// NewMemoryTokenCache returns an empty in-memory cache.
func NewMemoryTokenCache() *MemoryTokenCache {
	return &MemoryTokenCache{}
}

// Set overwrites any previous value.
func (c *MemoryTokenCache) Set(_ context.Context, token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	c.set = true
	return nil
}

// Get returns the last value set.
func (c *MemoryTokenCache) Get(_ context.Context) (string, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token, c.set, nil
}

// Clear removes the value; no-op if absent.
func (c *MemoryTokenCache) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	c.set = false
	return nil
}

var _ TokenCache = (*MemoryTokenCache)(nil)

package playback

import (
	"context"
	"sync"
)

// BatchStatusReader is the store dependency of the status cache.
type BatchStatusReader interface {
	GetBatchStatus(ctx context.Context, filenames []string) (map[string]Status, error)
}

// StatusCache is a session-scoped mirror of watch statuses for one
// directory listing. It is rebuilt with a single batch read on every
// menu render rather than maintained incrementally, so staleness is
// bounded to one render cycle and no eviction policy is needed.
type StatusCache struct {
	mu       sync.RWMutex
	store    BatchStatusReader
	scopeID  string
	statuses map[string]Status
}

// NewStatusCache creates an empty cache backed by the given store.
func NewStatusCache(store BatchStatusReader) *StatusCache {
	return &StatusCache{
		store:    store,
		statuses: make(map[string]Status),
	}
}

// Load replaces the cache contents with the statuses for the given keys,
// fetched in one batch call. scopeID identifies the directory listing
// the cache now mirrors.
func (c *StatusCache) Load(ctx context.Context, scopeID string, filenames []string) error {
	statuses, err := c.store.GetBatchStatus(ctx, filenames)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.scopeID = scopeID
	c.statuses = statuses
	return nil
}

// Lookup returns the cached status for a file and whether it was loaded.
func (c *StatusCache) Lookup(filename string) (Status, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	status, ok := c.statuses[filename]
	return status, ok
}

// Update writes through a new status after a live progress write.
func (c *StatusCache) Update(filename string, status Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statuses[filename] = status
}

// Clear empties the cache.
func (c *StatusCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scopeID = ""
	c.statuses = make(map[string]Status)
}

// ScopeID returns the identifier of the listing currently mirrored.
func (c *StatusCache) ScopeID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.scopeID
}

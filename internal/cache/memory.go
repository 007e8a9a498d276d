package cache

import (
	"sync"
	"time"

	"localify/pkg/models"
)

// CacheEntry represents a cached item with expiration
type CacheEntry struct {
	Value      interface{}
	Expiration time.Time
}

// IsExpired checks if the cache entry has expired
func (e *CacheEntry) IsExpired() bool {
	return time.Now().After(e.Expiration)
}

// MemoryCache implements a simple in-memory cache
type MemoryCache struct {
	items map[string]*CacheEntry
	mutex sync.RWMutex
	ttl   time.Duration
}

// NewMemoryCache creates a new memory cache
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	cache := &MemoryCache{
		items: make(map[string]*CacheEntry),
		mutex: sync.RWMutex{},
		ttl:   ttl,
	}

	// Start cleanup goroutine
	go cache.cleanupExpired()

	return cache
}

// Set stores a value in the cache
func (c *MemoryCache) Set(key string, value interface{}) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.items[key] = &CacheEntry{
		Value:      value,
		Expiration: time.Now().Add(c.ttl),
	}
}

// Get retrieves a value from the cache
func (c *MemoryCache) Get(key string) (interface{}, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	entry, exists := c.items[key]
	if !exists || entry.IsExpired() {
		return nil, false
	}

	return entry.Value, true
}

// Delete removes a value from the cache
func (c *MemoryCache) Delete(key string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.items, key)
}

// Clear removes all items from the cache
func (c *MemoryCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.items = make(map[string]*CacheEntry)
}

// Size returns the number of items in the cache
func (c *MemoryCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return len(c.items)
}

// cleanupExpired removes expired entries periodically
func (c *MemoryCache) cleanupExpired() {
	ticker := time.NewTicker(time.Minute * 5) // Cleanup every 5 minutes
	defer ticker.Stop()

	for range ticker.C {
		c.mutex.Lock()
		for key, entry := range c.items {
			if entry.IsExpired() {
				delete(c.items, key)
			}
		}
		c.mutex.Unlock()
	}
}

// ArtCache provides convenience methods for caching cover art bytes
type ArtCache struct {
	*MemoryCache
}

// NewArtCache creates a new cover art cache
func NewArtCache() *ArtCache {
	return &ArtCache{
		MemoryCache: NewMemoryCache(15 * time.Minute), // Cache art for 15 minutes
	}
}

// SetArt caches cover art data
func (ac *ArtCache) SetArt(key string, data []byte) {
	ac.Set(key, data)
}

// GetArt retrieves cached cover art data
func (ac *ArtCache) GetArt(key string) ([]byte, bool) {
	value, exists := ac.Get(key)
	if !exists {
		return nil, false
	}

	data, ok := value.([]byte)
	return data, ok
}

// SmartPlaylistCache caches generated smart playlists briefly so rapid
// refreshes do not recompute and reshuffle them.
type SmartPlaylistCache struct {
	*MemoryCache
}

// NewSmartPlaylistCache creates a new smart playlist cache
func NewSmartPlaylistCache() *SmartPlaylistCache {
	return &SmartPlaylistCache{
		MemoryCache: NewMemoryCache(5 * time.Minute),
	}
}

// SetPlaylists caches a generated playlist set
func (sc *SmartPlaylistCache) SetPlaylists(key string, playlists []models.SmartPlaylist) {
	sc.Set(key, playlists)
}

// GetPlaylists retrieves a cached playlist set
func (sc *SmartPlaylistCache) GetPlaylists(key string) ([]models.SmartPlaylist, bool) {
	value, exists := sc.Get(key)
	if !exists {
		return nil, false
	}

	playlists, ok := value.([]models.SmartPlaylist)
	return playlists, ok
}

package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for caching remote replies
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// CacheKey generates a cache key from an arbitrary identity string
func CacheKey(identity string) string {
	hash := sha256.Sum256([]byte(identity))
	return "saferstep:v1:" + hex.EncodeToString(hash[:])
}

// New selects a cache from settings: memory only when dir is empty,
// memory + disk otherwise.
func New(dir string, memoryTTL, diskTTL time.Duration) Cache {
	if dir == "" {
		return NewMemoryCache(memoryTTL, 10*time.Minute)
	}
	return NewLayeredCache(memoryTTL, dir, diskTTL)
}

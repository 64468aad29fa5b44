// Package cache stores provider answers in memory, on disk or both
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/ppiankov/agora/internal/model"
)

// KeyPrefix versions every key; bump it when the stored layout changes
const KeyPrefix = "agora:v1:"

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key hashes the parts of a request into a namespaced cache key. Parts are
// NUL separated so ("ab", "c") and ("a", "bc") never collide.
func Key(namespace string, parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return KeyPrefix + namespace + ":" + hex.EncodeToString(h.Sum(nil))
}

// New builds the cache described by cfg: memory only without a directory,
// memory in front of disk otherwise. A disabled cache yields nil.
func New(cfg model.CacheConfig) Cache {
	if !cfg.Enabled {
		return nil
	}
	if cfg.Dir == "" {
		return NewMemoryCache(cfg.MemoryTTL, 10*time.Minute)
	}
	return NewLayeredCache(cfg.MemoryTTL, cfg.Dir, cfg.DiskTTL)
}

// File path: internal/artifact/cache.go
package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bidsmith/rfpcopilot/internal/common"
)

// Cache persists derived artifacts on disk keyed by the content hash of the
// exact source text and the artifact kind. Entries are never evicted; the
// directory grows with the number of distinct documents processed.
type Cache struct {
	dir string
}

// NewCache prepares the cache directory, creating it when missing.
func NewCache(dir string) (*Cache, error) {
	if dir == "" {
		return nil, fmt.Errorf("artifact cache: directory required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("artifact cache: create directory: %w", err)
	}
	return &Cache{dir: dir}, nil
}

// Key derives the cache key for one artifact of the given text. Any change
// to the text, however small, produces a different key.
func Key(text string, kind Kind) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:]) + "_" + string(kind)
}

func (c *Cache) path(key string) string {
	return filepath.Join(c.dir, key+".json")
}

// Load reads a cached artifact into out. It reports false on a miss, which
// includes entries that fail to decode; a corrupt entry is treated as absent
// so the caller recomputes and overwrites it.
func (c *Cache) Load(key string, out interface{}) bool {
	data, err := os.ReadFile(c.path(key))
	if err != nil {
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		common.Logger().Warn("artifact cache: corrupt entry ignored", "key", key, "error", err)
		return false
	}
	return true
}

// Store writes an artifact under key. Persistence failures are logged and
// swallowed; the computed result is still valid for the caller.
func (c *Cache) Store(key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		common.Logger().Warn("artifact cache: encode failed", "key", key, "error", err)
		return
	}
	if err := os.WriteFile(c.path(key), data, 0o644); err != nil {
		common.Logger().Warn("artifact cache: write failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached artifact for text and kind when present,
// otherwise runs compute, stores its result, and returns it. Compute errors
// are returned without touching the cache.
func GetOrCompute[T any](c *Cache, text string, kind Kind, compute func() (T, error)) (T, error) {
	key := Key(text, kind)
	var cached T
	if c != nil && c.Load(key, &cached) {
		common.Logger().Debug("artifact cache: hit", "kind", string(kind), "key", key)
		return cached, nil
	}
	value, err := compute()
	if err != nil {
		return value, err
	}
	if c != nil {
		c.Store(key, value)
	}
	return value, nil
}

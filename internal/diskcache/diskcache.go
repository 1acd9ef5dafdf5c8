// Package diskcache implements a content-addressed on-disk cache keyed by an
// arbitrary string (a source's "url@ref"), generalized from the reference
// codebase's skill-fetch cache (pkg/skills/cache.go's diskCache/cacheMetadata
// pair) from per-file HTTP caching to per-key directory caching with a
// recorded commit hash instead of an HTTP Cache-Control expiry.
package diskcache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

const metaFileName = "meta.json"

// Cache stores one directory per key under baseDir, named by a hash of the
// key so arbitrary source identifiers (git URLs, refs) are safe path
// components.
type Cache struct {
	baseDir string
}

type metadata struct {
	Key       string    `json:"key"`
	Commit    string    `json:"commit"`
	CachedAt  time.Time `json:"cached_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// New returns a Cache rooted at baseDir, creating it if necessary.
func New(baseDir string) (*Cache, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{baseDir: baseDir}, nil
}

// Dir returns the on-disk directory reserved for key, regardless of whether
// anything has been cached there yet.
func (c *Cache) Dir(key string) string {
	h := sha256.Sum256([]byte(key))
	return filepath.Join(c.baseDir, hex.EncodeToString(h[:16]))
}

func (c *Cache) metaPath(key string) string {
	return filepath.Join(c.Dir(key), metaFileName)
}

// Lookup returns the cached directory and recorded commit for key if an
// unexpired entry exists.
func (c *Cache) Lookup(key string) (dir string, commit string, ok bool) {
	meta, err := c.readMeta(key)
	if err != nil {
		return "", "", false
	}
	if time.Now().After(meta.ExpiresAt) {
		return "", "", false
	}
	return c.Dir(key), meta.Commit, true
}

// LastCommit returns the commit recorded the last time Store was called for
// key, regardless of whether that entry has since expired.
func (c *Cache) LastCommit(key string) (string, bool) {
	meta, err := c.readMeta(key)
	if err != nil {
		return "", false
	}
	return meta.Commit, true
}

// Store records commit as the content currently materialized under
// Dir(key), valid for ttl before Lookup stops returning it.
func (c *Cache) Store(key, commit string, ttl time.Duration) error {
	meta := metadata{
		Key:       key,
		Commit:    commit,
		CachedAt:  time.Now(),
		ExpiresAt: time.Now().Add(ttl),
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(c.Dir(key), 0o755); err != nil {
		return err
	}
	return os.WriteFile(c.metaPath(key), data, 0o644)
}

func (c *Cache) readMeta(key string) (metadata, error) {
	data, err := os.ReadFile(c.metaPath(key))
	if err != nil {
		return metadata{}, err
	}
	var meta metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return metadata{}, err
	}
	return meta, nil
}

// Package cache persists extraction results between runs. Entries are keyed
// by file path and validated against the file's content hash, so a stale
// entry can never be served for edited content.
package cache

import (
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/blake3"

	"github.com/codeprism/codeprism/pkg/uast"
)

// Cache is a file-backed store of extraction results.
type Cache struct {
	dir     string
	ttl     time.Duration
	enabled bool
}

// Entry wraps cached data with its validation hash and write time.
type Entry struct {
	Hash      string    `json:"hash"`
	Timestamp time.Time `json:"timestamp"`
	Data      []byte    `json:"data"`
}

// New creates a cache rooted at dir. A disabled cache accepts every call
// and stores nothing.
func New(dir string, ttlHours int, enabled bool) (*Cache, error) {
	if !enabled {
		return &Cache{enabled: false}, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &Cache{
		dir:     dir,
		ttl:     time.Duration(ttlHours) * time.Hour,
		enabled: true,
	}, nil
}

// GetFileResult returns the cached extraction for a path if its content
// hash still matches and the entry has not expired.
func (c *Cache) GetFileResult(path, contentHash string) (*uast.FileResult, bool) {
	data, ok := c.getWithHash(path, contentHash)
	if !ok {
		return nil, false
	}
	var res uast.FileResult
	if err := json.Unmarshal(data, &res); err != nil {
		c.Invalidate(path)
		return nil, false
	}
	return &res, true
}

// SetFileResult stores one file's extraction keyed by path and validated by
// the result's content hash.
func (c *Cache) SetFileResult(res *uast.FileResult) error {
	if !c.enabled {
		return nil
	}
	data, err := json.Marshal(res)
	if err != nil {
		return err
	}
	return c.setWithHash(res.Path, res.ContentHash, data)
}

func (c *Cache) getWithHash(key, hash string) ([]byte, bool) {
	if !c.enabled {
		return nil, false
	}
	raw, err := os.ReadFile(c.keyPath(key))
	if err != nil {
		return nil, false
	}
	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, false
	}
	if entry.Hash != hash {
		return nil, false
	}
	if time.Since(entry.Timestamp) > c.ttl {
		os.Remove(c.keyPath(key))
		return nil, false
	}
	return entry.Data, true
}

func (c *Cache) setWithHash(key, hash string, data []byte) error {
	entry := Entry{
		Hash:      hash,
		Timestamp: time.Now(),
		Data:      data,
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return os.WriteFile(c.keyPath(key), raw, 0600)
}

// Invalidate removes one entry.
func (c *Cache) Invalidate(key string) error {
	if !c.enabled {
		return nil
	}
	err := os.Remove(c.keyPath(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Clear removes every entry.
func (c *Cache) Clear() error {
	if !c.enabled {
		return nil
	}
	return os.RemoveAll(c.dir)
}

// keyPath hashes the key into a filename so path separators and length
// never matter.
func (c *Cache) keyPath(key string) string {
	sum := blake3.Sum256([]byte(key))
	return filepath.Join(c.dir, hex.EncodeToString(sum[:])+".json")
}

// Stats describes cache disk usage.
type Stats struct {
	Entries   int           `json:"entries"`
	TotalSize int64         `json:"total_size"`
	OldestAge time.Duration `json:"oldest_age"`
	NewestAge time.Duration `json:"newest_age"`
}

// GetStats walks the cache directory and reports usage.
func (c *Cache) GetStats() (*Stats, error) {
	if !c.enabled {
		return &Stats{}, nil
	}

	stats := &Stats{}
	var oldest, newest time.Time

	err := filepath.Walk(c.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}
		stats.Entries++
		stats.TotalSize += info.Size()
		mod := info.ModTime()
		if oldest.IsZero() || mod.Before(oldest) {
			oldest = mod
		}
		if newest.IsZero() || mod.After(newest) {
			newest = mod
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !oldest.IsZero() {
		stats.OldestAge = time.Since(oldest)
	}
	if !newest.IsZero() {
		stats.NewestAge = time.Since(newest)
	}
	return stats, nil
}

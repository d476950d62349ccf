// Package cache stores prepared per-file signatures on disk so unchanged
// files skip lexing on the next run.
package cache

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zeebo/blake3"
)

// Cache is a directory of JSON entries keyed by BLAKE3 digests. A disabled
// cache accepts every call and never hits.
type Cache struct {
	dir     string
	ttl     time.Duration
	enabled bool
}

// Entry is one cached value and the content hash it was computed from.
type Entry struct {
	Hash      string    `json:"hash"`
	Timestamp time.Time `json:"timestamp"`
	Data      []byte    `json:"data"`
}

// New creates a new cache instance. A ttlHours of 0 keeps entries forever.
func New(dir string, ttlHours int, enabled bool) (*Cache, error) {
	if !enabled {
		return &Cache{enabled: false}, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	return &Cache{
		dir:     dir,
		ttl:     time.Duration(ttlHours) * time.Hour,
		enabled: true,
	}, nil
}

// Enabled reports whether the cache stores anything.
func (c *Cache) Enabled() bool {
	return c.enabled
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	return c.dir
}

// HashBytes computes a BLAKE3 hash of bytes and returns it as a hex string.
func HashBytes(data []byte) string {
	hash := blake3.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// Get retrieves an entry stored under key if it was computed from content
// with the given hash and has not expired.
func (c *Cache) Get(key, hash string) ([]byte, bool) {
	if !c.enabled {
		return nil, false
	}

	path := c.keyPath(key)
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		os.Remove(path)
		return nil, false
	}
	if entry.Hash != hash {
		return nil, false
	}
	if c.ttl > 0 && time.Since(entry.Timestamp) > c.ttl {
		os.Remove(path)
		return nil, false
	}

	return entry.Data, true
}

// Set stores data under key together with the content hash it belongs to.
// The entry is written to a temporary file and renamed so concurrent
// readers never see a partial entry.
func (c *Cache) Set(key, hash string, data []byte) error {
	if !c.enabled {
		return nil
	}

	raw, err := json.Marshal(Entry{
		Hash:      hash,
		Timestamp: time.Now(),
		Data:      data,
	})
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(c.dir, ".entry-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), c.keyPath(key))
}

// Invalidate removes a cache entry. Missing entries are not an error.
func (c *Cache) Invalidate(key string) error {
	if !c.enabled {
		return nil
	}
	if err := os.Remove(c.keyPath(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Clear removes all cache entries.
func (c *Cache) Clear() error {
	if !c.enabled {
		return nil
	}
	if err := os.RemoveAll(c.dir); err != nil {
		return err
	}
	return os.MkdirAll(c.dir, 0o755)
}

// keyPath maps a key to a file name that is safe on every filesystem.
func (c *Cache) keyPath(key string) string {
	hash := blake3.Sum256([]byte(key))
	return filepath.Join(c.dir, hex.EncodeToString(hash[:])+".json")
}

// Stats summarises the cache directory.
type Stats struct {
	Entries   int           `json:"entries" toon:"entries" yaml:"entries"`
	TotalSize int64         `json:"total_size" toon:"total_size" yaml:"total_size"`
	OldestAge time.Duration `json:"oldest_age" toon:"oldest_age" yaml:"oldest_age"`
	NewestAge time.Duration `json:"newest_age" toon:"newest_age" yaml:"newest_age"`
}

// GetStats returns statistics about the cache.
func (c *Cache) GetStats() (*Stats, error) {
	if !c.enabled {
		return &Stats{}, nil
	}

	stats := &Stats{}
	var oldest, newest time.Time

	err := filepath.WalkDir(c.dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}

		stats.Entries++
		stats.TotalSize += info.Size()

		modTime := info.ModTime()
		if oldest.IsZero() || modTime.Before(oldest) {
			oldest = modTime
		}
		if newest.IsZero() || modTime.After(newest) {
			newest = modTime
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

// staleTemp is how old an unrenamed temporary file must be before Prune
// treats it as left over from an interrupted write.
const staleTemp = 10 * time.Minute

// Prune deletes expired and unreadable entries along with temporary files
// abandoned by interrupted writes. It returns how many files were removed.
func (c *Cache) Prune() (int, error) {
	if !c.enabled {
		return 0, nil
	}

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, d := range entries {
		if d.IsDir() {
			continue
		}
		path := filepath.Join(c.dir, d.Name())

		if strings.HasPrefix(d.Name(), ".entry-") {
			info, err := d.Info()
			if err == nil && time.Since(info.ModTime()) > staleTemp && os.Remove(path) == nil {
				removed++
			}
			continue
		}
		if filepath.Ext(path) != ".json" {
			continue
		}

		if c.stale(path) && os.Remove(path) == nil {
			removed++
		}
	}
	return removed, nil
}

// stale reports whether the entry at path is corrupt or past its TTL.
func (c *Cache) stale(path string) bool {
	raw, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return true
	}
	return c.ttl > 0 && time.Since(entry.Timestamp) > c.ttl
}

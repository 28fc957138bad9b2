package metadata

import (
	"crypto/sha1"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/mozillazg/go-unidecode"
	"github.com/spf13/afero"
)

// fileCache stores provider responses as JSON files with a TTL. The
// filesystem is abstracted so tests can run against an in-memory fs.
type fileCache struct {
	fs  afero.Fs
	dir string
	ttl time.Duration
}

func newFileCache(fs afero.Fs, dir string, ttlHours int) *fileCache {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if ttlHours <= 0 {
		ttlHours = 24
	}
	return &fileCache{fs: fs, dir: dir, ttl: time.Duration(ttlHours) * time.Hour}
}

// cacheKey folds arbitrary parts (queries may carry any script) to ASCII and
// hashes them into a stable filesystem-safe name.
func cacheKey(parts ...string) string {
	folded := unidecode.Unidecode(strings.ToLower(strings.Join(parts, "|")))
	sum := sha1.Sum([]byte(folded))
	return hex.EncodeToString(sum[:])
}

// jitteredTTL staggers expiry deterministically per key, between the base
// TTL and base TTL + 6 hours, so a cold start does not expire every entry in
// the same sweep.
func (c *fileCache) jitteredTTL(key string) time.Duration {
	sum := sha1.Sum([]byte(key))
	n := binary.BigEndian.Uint64(sum[:8])
	return c.ttl + time.Duration(n%uint64(6*time.Hour))
}

func (c *fileCache) get(key string, v any) (bool, error) {
	if key == "" {
		return false, errors.New("empty cache key")
	}
	path := filepath.Join(c.dir, key+".json")

	fi, err := c.fs.Stat(path)
	if err != nil {
		return false, nil
	}
	if time.Since(fi.ModTime()) > c.jitteredTTL(key) {
		_ = c.fs.Remove(path)
		return false, nil
	}

	f, err := c.fs.Open(path)
	if err != nil {
		return false, nil
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(v); err != nil {
		// A damaged entry is treated as a miss and rewritten on next set.
		return false, nil
	}
	return true, nil
}

func (c *fileCache) set(key string, v any) error {
	if key == "" {
		return errors.New("empty cache key")
	}
	if err := c.fs.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}

	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	path := filepath.Join(c.dir, key+".json")
	tmp := path + ".tmp"
	if err := afero.WriteFile(c.fs, tmp, data, 0o644); err != nil {
		return err
	}
	return c.fs.Rename(tmp, path)
}

// clear removes all cached entries. Used when the API key changes so fresh
// data is fetched.
func (c *fileCache) clear() error {
	entries, err := afero.ReadDir(c.fs, c.dir)
	if err != nil {
		return nil
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		_ = c.fs.Remove(filepath.Join(c.dir, entry.Name()))
	}
	return nil
}

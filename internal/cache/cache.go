package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

const entryExt = ".json"

// Key identifies one completion. Two analyzers only share an entry when every
// field matches.
type Key struct {
	Provider string
	Model    string
	Persona  string
	System   string
	Prompt   string
}

// Hash is the hex SHA-256 of the key fields. Fields are NUL-separated so text
// moving between adjacent fields changes the hash.
func (k Key) Hash() string {
	sum := sha256.Sum256([]byte(strings.Join([]string{k.Provider, k.Model, k.Persona, k.System, k.Prompt}, "\x00")))
	return hex.EncodeToString(sum[:])
}

type entry struct {
	Hash      string    `json:"hash"`
	Provider  string    `json:"provider"`
	Model     string    `json:"model,omitempty"`
	Persona   string    `json:"persona"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Cache stores completions as one JSON file per key.
type Cache struct {
	dir     string
	ttl     time.Duration
	enabled bool
	now     func() time.Time
}

// New opens the cache at dir, creating it if needed. An empty dir selects
// the default location. ttlSeconds <= 0 keeps entries forever.
func New(enabled bool, dir string, ttlSeconds int) (*Cache, error) {
	c := &Cache{enabled: enabled, now: time.Now}
	if !enabled {
		return c, nil
	}
	if dir == "" {
		d, err := defaultCacheDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	c.dir = dir
	if ttlSeconds > 0 {
		c.ttl = time.Duration(ttlSeconds) * time.Second
	}
	return c, nil
}

// Get returns the stored completion for k. Expired entries are removed and
// reported as a miss.
func (c *Cache) Get(k Key) (string, bool) {
	if !c.enabled {
		return "", false
	}
	path := c.path(k.Hash())
	e, err := readEntry(path)
	if err != nil {
		return "", false
	}
	if c.expired(e) {
		_ = os.Remove(path)
		return "", false
	}
	return e.Content, true
}

// Put stores content under k.
func (c *Cache) Put(k Key, content string) error {
	if !c.enabled {
		return nil
	}
	hash := k.Hash()
	data, err := json.Marshal(entry{
		Hash:      hash,
		Provider:  k.Provider,
		Model:     k.Model,
		Persona:   k.Persona,
		Content:   content,
		CreatedAt: c.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}
	return writeAtomic(c.dir, c.path(hash), data)
}

// Clear deletes every entry and returns how many were removed.
func (c *Cache) Clear() (int, error) {
	return c.remove(func(*entry) bool { return true })
}

// Prune deletes expired entries only.
func (c *Cache) Prune() (int, error) {
	return c.remove(c.expired)
}

// Stats describes the cache contents.
type Stats struct {
	Dir        string         `json:"dir"`
	Entries    int            `json:"entries"`
	TotalBytes int64          `json:"totalBytes"`
	Expired    int            `json:"expired"`
	ByPersona  map[string]int `json:"byPersona,omitempty"`
}

// GetStats scans the cache directory.
func (c *Cache) GetStats() (Stats, error) {
	stats := Stats{Dir: c.dir, ByPersona: map[string]int{}}
	err := c.walk(func(_ string, size int64, e *entry) error {
		stats.Entries++
		stats.TotalBytes += size
		if e == nil {
			return nil
		}
		if c.expired(e) {
			stats.Expired++
		}
		if e.Persona != "" {
			stats.ByPersona[e.Persona]++
		}
		return nil
	})
	return stats, err
}

// Dir returns the cache directory path.
func (c *Cache) Dir() string { return c.dir }

// Enabled returns whether caching is enabled.
func (c *Cache) Enabled() bool { return c.enabled }

func (c *Cache) expired(e *entry) bool {
	return c.ttl > 0 && c.now().Sub(e.CreatedAt) > c.ttl
}

func (c *Cache) path(hash string) string {
	return filepath.Join(c.dir, hash+entryExt)
}

// remove deletes entries matching match. Unreadable entries always go.
func (c *Cache) remove(match func(*entry) bool) (int, error) {
	var n int
	err := c.walk(func(path string, _ int64, e *entry) error {
		if e != nil && !match(e) {
			return nil
		}
		if err := os.Remove(path); err == nil {
			n++
		}
		return nil
	})
	return n, err
}

// walk visits every entry file. e is nil when the file cannot be decoded.
func (c *Cache) walk(fn func(path string, size int64, e *entry) error) error {
	if !c.enabled || c.dir == "" {
		return nil
	}
	files, err := os.ReadDir(c.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading cache directory: %w", err)
	}
	for _, f := range files {
		if f.IsDir() || filepath.Ext(f.Name()) != entryExt {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		path := filepath.Join(c.dir, f.Name())
		e, err := readEntry(path)
		if err != nil {
			e = nil
		}
		if err := fn(path, info.Size(), e); err != nil {
			return err
		}
	}
	return nil
}

func readEntry(path string) (*entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// writeAtomic writes through a temp file and rename so concurrent readers
// never see a partial entry.
func writeAtomic(dir, path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(dir, "entry-*.tmp")
	if err != nil {
		return fmt.Errorf("creating cache entry: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()
	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing cache entry: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("storing cache entry: %w", err)
	}
	return nil
}

func defaultCacheDir() (string, error) {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "quorum"), nil
	}
	if runtime.GOOS == "windows" {
		if local := os.Getenv("LOCALAPPDATA"); local != "" {
			return filepath.Join(local, "quorum", "cache"), nil
		}
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine cache directory: %w", err)
	}
	return filepath.Join(dir, "quorum"), nil
}

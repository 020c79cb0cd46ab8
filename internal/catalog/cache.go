package catalog

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jxwalker/ggmod/internal/config"
)

// categoryCache keeps category listings in one JSON file keyed by root id.
// A zero ttl or empty path disables it.
type categoryCache struct {
	mu   sync.Mutex
	path string
	ttl  time.Duration
	now  func() time.Time
}

type cachedListing struct {
	Categories []Category `json:"categories"`
	FetchedAt  int64      `json:"fetched_at"`
}

func newCategoryCache(cfg *config.Config) *categoryCache {
	cc := &categoryCache{now: time.Now}
	if cfg.General.DataRoot != "" {
		cc.path = filepath.Join(cfg.General.DataRoot, "category-cache.json")
	}
	if cfg.Catalog.CacheTTLHours > 0 {
		cc.ttl = time.Duration(cfg.Catalog.CacheTTLHours) * time.Hour
	}
	return cc
}

func (cc *categoryCache) enabled() bool { return cc.path != "" && cc.ttl > 0 }

// read returns the file contents; a missing or empty file is an empty cache.
func (cc *categoryCache) read() (map[string]cachedListing, error) {
	m := map[string]cachedListing{}
	b, err := os.ReadFile(cc.path)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && len(b) == 0) {
		return m, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	if m == nil {
		m = map[string]cachedListing{}
	}
	return m, nil
}

func (cc *categoryCache) write(m map[string]cachedListing) error {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(cc.path), 0o755); err != nil {
		return err
	}
	tmp := cc.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, cc.path)
}

// get returns a fresh listing for key. Expired entries are pruned.
func (cc *categoryCache) get(key string) ([]Category, bool, error) {
	if !cc.enabled() {
		return nil, false, nil
	}
	cc.mu.Lock()
	defer cc.mu.Unlock()
	m, err := cc.read()
	if err != nil {
		return nil, false, err
	}
	l, ok := m[key]
	if !ok {
		return nil, false, nil
	}
	if cc.now().Sub(time.Unix(l.FetchedAt, 0)) > cc.ttl {
		delete(m, key)
		_ = cc.write(m)
		return nil, false, nil
	}
	return l.Categories, true, nil
}

// put stores a listing, replacing a corrupt file instead of failing.
func (cc *categoryCache) put(key string, cats []Category) error {
	if !cc.enabled() {
		return nil
	}
	cc.mu.Lock()
	defer cc.mu.Unlock()
	m, err := cc.read()
	if err != nil {
		m = map[string]cachedListing{}
	}
	m[key] = cachedListing{Categories: cats, FetchedAt: cc.now().Unix()}
	return cc.write(m)
}

func (cc *categoryCache) clear() error {
	if cc.path == "" {
		return nil
	}
	cc.mu.Lock()
	defer cc.mu.Unlock()
	if err := os.Remove(cc.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// ClearCache removes all cached category listings.
func (c *Client) ClearCache() error { return c.cache.clear() }

// Package registry persists the list of known mods as a single JSON file.
package registry

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	ggerr "github.com/jxwalker/ggmod/internal/errors"
)

// Record is the on-disk form of one mod.
type Record struct {
	ID          int    `json:"id"`
	Character   string `json:"character"`
	Path        string `json:"path"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Staged      bool   `json:"staged"`
	IsNSFW      bool   `json:"is_nsfw"`
}

// Store reads and writes the registry file at Path. It assumes a single writer.
type Store struct {
	Path string
}

func New(path string) *Store { return &Store{Path: path} }

// Load returns the persisted records. A missing or empty file yields an empty list.
func (s *Store) Load() ([]Record, error) {
	b, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Record{}, nil
		}
		return nil, ggerr.E("load registry", ggerr.KindIO, err)
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return []Record{}, nil
	}
	var recs []Record
	if err := json.Unmarshal(b, &recs); err != nil {
		return nil, ggerr.E("load registry", ggerr.KindParse, err)
	}
	if recs == nil {
		recs = []Record{}
	}
	return recs, nil
}

// Save rewrites the whole registry. The file is replaced atomically so a
// crash mid-write leaves the previous contents intact.
func (s *Store) Save(recs []Record) error {
	if recs == nil {
		recs = []Record{}
	}
	b, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return ggerr.E("save registry", ggerr.KindParse, err)
	}
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ggerr.E("save registry", ggerr.KindIO, err)
	}
	f, err := os.CreateTemp(dir, ".registry.tmp.*")
	if err != nil {
		return ggerr.E("save registry", ggerr.KindIO, err)
	}
	defer os.Remove(f.Name())
	if _, err := f.Write(append(b, '\n')); err != nil {
		_ = f.Close()
		return ggerr.E("save registry", ggerr.KindIO, err)
	}
	if err := f.Close(); err != nil {
		return ggerr.E("save registry", ggerr.KindIO, err)
	}
	if err := os.Rename(f.Name(), s.Path); err != nil {
		return ggerr.E("save registry", ggerr.KindIO, err)
	}
	return nil
}

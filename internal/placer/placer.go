package placer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/otiai10/copy"

	ggerr "github.com/jxwalker/ggmod/internal/errors"
)

// Placer stages mod content into the game's mods directory. Each staged mod
// owns exactly one subdirectory named after its catalog id.
type Placer struct {
	ModsDir string
}

func New(modsDir string) *Placer { return &Placer{ModsDir: modsDir} }

// Target returns the staged location for id.
func (p *Placer) Target(id int) string {
	return filepath.Join(p.ModsDir, strconv.Itoa(id))
}

// Stage copies the tree at src to <ModsDir>/<id>, replacing whatever was there.
func (p *Placer) Stage(src string, id int) error {
	if p.ModsDir == "" {
		return ggerr.Errorf("stage", ggerr.KindInvalid, "mods directory is not configured")
	}
	fi, err := os.Stat(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ggerr.E("stage", ggerr.KindNotFound, err)
		}
		return ggerr.E("stage", ggerr.KindIO, err)
	}
	if !fi.IsDir() {
		return ggerr.Errorf("stage", ggerr.KindInvalid, "%s is not a directory", src)
	}
	if err := os.MkdirAll(p.ModsDir, 0o755); err != nil {
		return ggerr.E("stage", ggerr.KindIO, err)
	}
	dst := p.Target(id)
	if err := os.RemoveAll(dst); err != nil {
		return ggerr.E("stage", ggerr.KindIO, err)
	}
	if err := copy.Copy(src, dst, copy.Options{OnSymlink: func(string) copy.SymlinkAction { return copy.Deep }}); err != nil {
		// leave nothing half-copied behind
		_ = os.RemoveAll(dst)
		return ggerr.E("stage", ggerr.KindIO, fmt.Errorf("copy %s -> %s: %w", src, dst, err))
	}
	return nil
}

// Unstage deletes <ModsDir>/<id>. A missing target is not an error.
func (p *Placer) Unstage(id int) error {
	if p.ModsDir == "" {
		return ggerr.Errorf("unstage", ggerr.KindInvalid, "mods directory is not configured")
	}
	if err := os.RemoveAll(p.Target(id)); err != nil {
		return ggerr.E("unstage", ggerr.KindIO, err)
	}
	return nil
}

func (p *Placer) IsStaged(id int) bool {
	fi, err := os.Stat(p.Target(id))
	return err == nil && fi.IsDir()
}

// StagedIDs lists the numeric subdirectories of ModsDir in ascending order.
// Other entries are ignored; the mods dir may hold content not managed here.
func (p *Placer) StagedIDs() ([]int, error) {
	entries, err := os.ReadDir(p.ModsDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, ggerr.E("list staged", ggerr.KindIO, err)
	}
	var ids []int
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if id, err := strconv.Atoi(e.Name()); err == nil {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids, nil
}

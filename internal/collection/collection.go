// Package collection is the authoritative in-memory registry of known mods
// and their staging lifecycle. Changes are kept in memory until Persist.
package collection

import (
	"context"

	"github.com/jxwalker/ggmod/internal/catalog"
	ggerr "github.com/jxwalker/ggmod/internal/errors"
	"github.com/jxwalker/ggmod/internal/logging"
	"github.com/jxwalker/ggmod/internal/metrics"
	"github.com/jxwalker/ggmod/internal/registry"
)

// Mod is one locally known mod.
type Mod struct {
	ID          int
	Character   string
	LocalPath   string // extracted content, owned by this mod
	Name        string
	Description string
	Staged      bool
	IsNSFW      bool
}

func (m Mod) record() registry.Record {
	return registry.Record{
		ID:          m.ID,
		Character:   m.Character,
		Path:        m.LocalPath,
		Name:        m.Name,
		Description: m.Description,
		Staged:      m.Staged,
		IsNSFW:      m.IsNSFW,
	}
}

func fromRecord(r registry.Record) Mod {
	return Mod{
		ID:          r.ID,
		Character:   r.Character,
		LocalPath:   r.Path,
		Name:        r.Name,
		Description: r.Description,
		Staged:      r.Staged,
		IsNSFW:      r.IsNSFW,
	}
}

// Store persists the mod list.
type Store interface {
	Load() ([]registry.Record, error)
	Save([]registry.Record) error
}

// Fetcher retrieves a catalog file and returns the directory holding its
// extracted contents.
type Fetcher interface {
	FetchFile(ctx context.Context, f catalog.File) (string, error)
}

// Stager places mod content into, and removes it from, the game's mods directory.
type Stager interface {
	Stage(src string, id int) error
	Unstage(id int) error
}

// Collection owns the ordered mod list. It is not safe for concurrent use;
// callers serialize access.
type Collection struct {
	mods    []Mod
	store   Store
	fetcher Fetcher
	stager  Stager
	log     *logging.Logger
	metrics *metrics.Manager
}

// Load builds a collection from whatever store holds. A missing or empty
// registry gives an empty collection.
func Load(store Store, fetcher Fetcher, stager Stager, log *logging.Logger) (*Collection, error) {
	recs, err := store.Load()
	if err != nil {
		return nil, err
	}
	mods := make([]Mod, 0, len(recs))
	for _, r := range recs {
		mods = append(mods, fromRecord(r))
	}
	log.Debugf("registry loaded: %d mods", len(mods))
	return &Collection{mods: mods, store: store, fetcher: fetcher, stager: stager, log: log}, nil
}

// WithMetrics attaches counters for register/stage/unstage.
func (c *Collection) WithMetrics(m *metrics.Manager) *Collection {
	c.metrics = m
	return c
}

// Mods returns a copy of the mod list in registry order.
func (c *Collection) Mods() []Mod {
	out := make([]Mod, len(c.mods))
	copy(out, c.mods)
	return out
}

func (c *Collection) Len() int { return len(c.mods) }

func (c *Collection) Contains(id int) bool { return c.index(id) >= 0 }

// Get returns a copy of mod id.
func (c *Collection) Get(id int) (Mod, error) {
	i := c.index(id)
	if i < 0 {
		return Mod{}, notFound("get", id)
	}
	return c.mods[i], nil
}

// Staged returns the staged mods in registry order.
func (c *Collection) Staged() []Mod { return c.filter(true) }

// Unstaged returns the unstaged mods in registry order.
func (c *Collection) Unstaged() []Mod { return c.filter(false) }

func (c *Collection) filter(staged bool) []Mod {
	var out []Mod
	for _, m := range c.mods {
		if m.Staged == staged {
			out = append(out, m)
		}
	}
	return out
}

// RegisterOnlineMod fetches file fileIndex of page and appends a new unstaged
// mod with the given id. Nothing is appended unless the fetch succeeds.
func (c *Collection) RegisterOnlineMod(ctx context.Context, page *catalog.ModPage, id, fileIndex int) error {
	const op = "register"
	if page == nil {
		return ggerr.Errorf(op, ggerr.KindInvalid, "no mod page for %d", id)
	}
	if fileIndex < 0 || fileIndex >= len(page.Files) {
		return ggerr.Errorf(op, ggerr.KindIndexOutOfRange, "file %d of mod %d (has %d files)", fileIndex, id, len(page.Files))
	}
	if c.Contains(id) {
		return ggerr.Errorf(op, ggerr.KindAlreadyExists, "mod %d is already registered", id)
	}
	dir, err := c.fetcher.FetchFile(ctx, page.Files[fileIndex])
	if err != nil {
		return err
	}
	c.mods = append(c.mods, Mod{
		ID:          id,
		Character:   page.Category.Name,
		LocalPath:   dir,
		Name:        page.Name,
		Description: page.Description,
		IsNSFW:      page.IsNSFW,
	})
	c.metrics.IncRegistered()
	c.log.Infof("registered %d %q (%s)", id, page.Name, page.Files[fileIndex].File)
	return nil
}

// ApplyOnMod runs fn on a copy of mod id. The copy replaces the stored mod
// only if fn returns nil.
func (c *Collection) ApplyOnMod(id int, fn func(*Mod) error) error {
	i := c.index(id)
	if i < 0 {
		return notFound("apply", id)
	}
	m := c.mods[i]
	if err := fn(&m); err != nil {
		return err
	}
	m.ID = c.mods[i].ID
	c.mods[i] = m
	return nil
}

// Stage copies the mod's content into the mods directory. Staging a staged
// mod does nothing.
func (c *Collection) Stage(id int) error {
	return c.ApplyOnMod(id, func(m *Mod) error {
		if m.Staged {
			return nil
		}
		if err := c.stager.Stage(m.LocalPath, m.ID); err != nil {
			return ioFailure("stage", err)
		}
		m.Staged = true
		c.metrics.IncStaged()
		c.log.Infof("staged %d %q", m.ID, m.Name)
		return nil
	})
}

// Unstage deletes the mod's directory from the mods directory. Unstaging an
// unstaged mod does nothing.
func (c *Collection) Unstage(id int) error {
	return c.ApplyOnMod(id, func(m *Mod) error {
		if !m.Staged {
			return nil
		}
		if err := c.stager.Unstage(m.ID); err != nil {
			return ioFailure("unstage", err)
		}
		m.Staged = false
		c.metrics.IncUnstaged()
		c.log.Infof("unstaged %d %q", m.ID, m.Name)
		return nil
	})
}

// Toggle stages an unstaged mod and unstages a staged one.
func (c *Collection) Toggle(id int) error {
	m, err := c.Get(id)
	if err != nil {
		return err
	}
	if m.Staged {
		return c.Unstage(id)
	}
	return c.Stage(id)
}

// Remove drops mod id from the collection, unstaging it first if needed.
// If unstaging fails the mod is kept.
func (c *Collection) Remove(id int) error {
	i := c.index(id)
	if i < 0 {
		return notFound("remove", id)
	}
	if c.mods[i].Staged {
		if err := c.Unstage(id); err != nil {
			return err
		}
	}
	c.mods = append(c.mods[:i], c.mods[i+1:]...)
	c.log.Infof("removed %d", id)
	return nil
}

// Persist writes the full mod list to the store.
func (c *Collection) Persist() error {
	recs := make([]registry.Record, len(c.mods))
	for i, m := range c.mods {
		recs[i] = m.record()
	}
	if err := c.store.Save(recs); err != nil {
		return err
	}
	c.log.Debugf("registry saved: %d mods", len(recs))
	return nil
}

func (c *Collection) index(id int) int {
	for i, m := range c.mods {
		if m.ID == id {
			return i
		}
	}
	return -1
}

func notFound(op string, id int) error {
	return ggerr.Errorf(op, ggerr.KindNotFound, "mod %d is not in the registry", id)
}

// ioFailure reports a staging error as IO while keeping the cause in the
// chain, so errors.Is still matches the cause's own kind.
func ioFailure(op string, err error) error {
	if ggerr.KindOf(err) == ggerr.KindIO {
		return err
	}
	return ggerr.E(op, ggerr.KindIO, err)
}

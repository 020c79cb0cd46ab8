package collection

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jxwalker/ggmod/internal/catalog"
	ggerr "github.com/jxwalker/ggmod/internal/errors"
	"github.com/jxwalker/ggmod/internal/logging"
	"github.com/jxwalker/ggmod/internal/placer"
	"github.com/jxwalker/ggmod/internal/registry"
	"github.com/jxwalker/ggmod/internal/testutil"
)

// fakeFetcher "extracts" each file into root/<file> with one pak inside.
type fakeFetcher struct {
	t     *testing.T
	root  string
	err   error
	calls int
}

func (f *fakeFetcher) FetchFile(_ context.Context, file catalog.File) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	dir := filepath.Join(f.root, file.File)
	testutil.WriteTree(f.t, dir, map[string]string{"content.pak": file.File})
	return dir, nil
}

type env struct {
	store   *registry.Store
	fetcher *fakeFetcher
	placer  *placer.Placer
	coll    *Collection
}

func newEnv(t *testing.T) *env {
	t.Helper()
	tmp := t.TempDir()
	e := &env{
		store:   registry.New(filepath.Join(tmp, "data", "registry.json")),
		fetcher: &fakeFetcher{t: t, root: filepath.Join(tmp, "downloads")},
		placer:  placer.New(filepath.Join(tmp, "mods")),
	}
	e.coll = e.load(t)
	return e
}

func (e *env) load(t *testing.T) *Collection {
	t.Helper()
	c, err := Load(e.store, e.fetcher, e.placer, logging.Discard())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return c
}

func page(name, category string, files ...string) *catalog.ModPage {
	mp := &catalog.ModPage{Name: name, Description: name + " desc", Category: catalog.ModCategory{Name: category}}
	for _, f := range files {
		mp.Files = append(mp.Files, catalog.File{File: f, DownloadURL: "https://files.example/" + f})
	}
	return mp
}

func (e *env) register(t *testing.T, id int, name string) {
	t.Helper()
	if err := e.coll.RegisterOnlineMod(context.Background(), page(name, name, name+".zip"), id, 0); err != nil {
		t.Fatalf("register %d: %v", id, err)
	}
}

// staged flag must agree with the mods directory after every operation
func (e *env) checkStagedInvariant(t *testing.T) {
	t.Helper()
	for _, m := range e.coll.Mods() {
		if m.Staged != e.placer.IsStaged(m.ID) {
			t.Fatalf("mod %d: staged=%v but directory present=%v", m.ID, m.Staged, e.placer.IsStaged(m.ID))
		}
	}
}

func TestLoadEmptyRegistry(t *testing.T) {
	e := newEnv(t)
	if e.coll.Len() != 0 || len(e.coll.Mods()) != 0 {
		t.Fatalf("expected empty collection")
	}
}

func TestLoadMalformedRegistry(t *testing.T) {
	e := newEnv(t)
	if err := os.MkdirAll(filepath.Dir(e.store.Path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(e.store.Path, []byte("{{"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(e.store, e.fetcher, e.placer, logging.Discard())
	if !errors.Is(err, ggerr.ErrParse) {
		t.Fatalf("expected parse failure, got %v", err)
	}
}

// Register into an empty registry, persist, reload.
func TestRegisterPersistReload(t *testing.T) {
	e := newEnv(t)
	mp := page("Sol", "Sol Badguy", "sol.zip")
	mp.IsNSFW = true
	if err := e.coll.RegisterOnlineMod(context.Background(), mp, 42, 0); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := e.coll.Persist(); err != nil {
		t.Fatalf("persist: %v", err)
	}
	reloaded := e.load(t)
	mods := reloaded.Mods()
	if len(mods) != 1 {
		t.Fatalf("expected 1 mod after reload, got %d", len(mods))
	}
	m := mods[0]
	if m.ID != 42 || m.Name != "Sol" || m.Character != "Sol Badguy" || m.Staged || !m.IsNSFW {
		t.Fatalf("unexpected mod: %+v", m)
	}
	if m.LocalPath != filepath.Join(e.fetcher.root, "sol.zip") {
		t.Fatalf("local path = %s", m.LocalPath)
	}
}

func TestRegisterIndexOutOfRange(t *testing.T) {
	e := newEnv(t)
	mp := page("Ky", "Ky Kiske", "a.zip", "b.zip")
	for _, idx := range []int{-1, 2, 10} {
		err := e.coll.RegisterOnlineMod(context.Background(), mp, 7, idx)
		if !errors.Is(err, ggerr.ErrIndexOutOfRange) {
			t.Errorf("index %d: expected IndexOutOfRange, got %v", idx, err)
		}
	}
	if e.coll.Len() != 0 {
		t.Fatalf("collection changed: len=%d", e.coll.Len())
	}
	if e.fetcher.calls != 0 {
		t.Fatalf("fetcher called %d times for invalid index", e.fetcher.calls)
	}
}

func TestRegisterFetchFailureAppendsNothing(t *testing.T) {
	e := newEnv(t)
	want := ggerr.Errorf("download", ggerr.KindNetwork, "connection reset")
	e.fetcher.err = want
	err := e.coll.RegisterOnlineMod(context.Background(), page("May", "May", "may.zip"), 9, 0)
	if err != want {
		t.Fatalf("fetch error should be returned untouched, got %v", err)
	}
	if e.coll.Len() != 0 || e.coll.Contains(9) {
		t.Fatalf("mod appended despite fetch failure")
	}
}

func TestRegisterDuplicateID(t *testing.T) {
	e := newEnv(t)
	e.register(t, 5, "Faust")
	err := e.coll.RegisterOnlineMod(context.Background(), page("Faust2", "Faust", "f2.zip"), 5, 0)
	if !errors.Is(err, ggerr.ErrAlreadyExists) {
		t.Fatalf("expected AlreadyExists, got %v", err)
	}
	if e.coll.Len() != 1 {
		t.Fatalf("len = %d", e.coll.Len())
	}
}

func TestContainsAfterRegisterAndRemove(t *testing.T) {
	e := newEnv(t)
	if e.coll.Contains(3) {
		t.Fatalf("empty collection contains 3")
	}
	e.register(t, 3, "Axl")
	if !e.coll.Contains(3) {
		t.Fatalf("Contains(3) false after register")
	}
	if err := e.coll.Remove(3); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if e.coll.Contains(3) {
		t.Fatalf("Contains(3) true after remove")
	}
}

func TestStageUnstageToggle(t *testing.T) {
	e := newEnv(t)
	e.register(t, 1, "Sol")
	e.register(t, 2, "Ky")
	e.checkStagedInvariant(t)

	if err := e.coll.Stage(1); err != nil {
		t.Fatalf("stage: %v", err)
	}
	e.checkStagedInvariant(t)
	// staging again is a no-op success
	if err := e.coll.Stage(1); err != nil {
		t.Fatalf("restage: %v", err)
	}
	if err := e.coll.Unstage(2); err != nil {
		t.Fatalf("unstage unstaged: %v", err)
	}
	e.checkStagedInvariant(t)

	if got := e.coll.Staged(); len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("Staged() = %+v", got)
	}
	if got := e.coll.Unstaged(); len(got) != 1 || got[0].ID != 2 {
		t.Fatalf("Unstaged() = %+v", got)
	}

	if err := e.coll.Toggle(1); err != nil {
		t.Fatalf("toggle off: %v", err)
	}
	if err := e.coll.Toggle(2); err != nil {
		t.Fatalf("toggle on: %v", err)
	}
	e.checkStagedInvariant(t)
	m1, _ := e.coll.Get(1)
	m2, _ := e.coll.Get(2)
	if m1.Staged || !m2.Staged {
		t.Fatalf("after toggles: 1 staged=%v, 2 staged=%v", m1.Staged, m2.Staged)
	}
}

func TestOperationsOnMissingID(t *testing.T) {
	e := newEnv(t)
	ops := map[string]func() error{
		"stage":   func() error { return e.coll.Stage(99) },
		"unstage": func() error { return e.coll.Unstage(99) },
		"toggle":  func() error { return e.coll.Toggle(99) },
		"remove":  func() error { return e.coll.Remove(99) },
		"apply":   func() error { return e.coll.ApplyOnMod(99, func(*Mod) error { return nil }) },
		"get": func() error {
			_, err := e.coll.Get(99)
			return err
		},
	}
	for name, op := range ops {
		if err := op(); !errors.Is(err, ggerr.ErrNotFound) {
			t.Errorf("%s: expected NotFound, got %v", name, err)
		}
	}
}

func TestApplyOnModIsAllOrNothing(t *testing.T) {
	e := newEnv(t)
	e.register(t, 4, "Ram")
	boom := errors.New("boom")
	err := e.coll.ApplyOnMod(4, func(m *Mod) error {
		m.Name = "changed"
		m.Staged = true
		return boom
	})
	if err != boom {
		t.Fatalf("expected fn error, got %v", err)
	}
	m, _ := e.coll.Get(4)
	if m.Name != "Ram" || m.Staged {
		t.Fatalf("failed apply leaked changes: %+v", m)
	}
	err = e.coll.ApplyOnMod(4, func(m *Mod) error {
		m.Description = "new"
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if m, _ := e.coll.Get(4); m.Description != "new" {
		t.Fatalf("successful apply not written back: %+v", m)
	}
}

func TestRemoveStagedUnstagesFirst(t *testing.T) {
	e := newEnv(t)
	e.register(t, 8, "Leo")
	if err := e.coll.Stage(8); err != nil {
		t.Fatal(err)
	}
	if err := e.coll.Remove(8); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if e.placer.IsStaged(8) {
		t.Fatalf("staged directory left behind after remove")
	}
}

// Toggle with an unusable mods directory fails and leaves the flag alone.
// A regular file at the mods path makes the copy fail regardless of user.
func TestToggleUnwritableModsDir(t *testing.T) {
	e := newEnv(t)
	e.register(t, 42, "Sol")
	if err := os.WriteFile(e.placer.ModsDir, []byte("not a directory"), 0o644); err != nil {
		t.Fatal(err)
	}

	err := e.coll.Toggle(42)
	if !errors.Is(err, ggerr.ErrIO) {
		t.Fatalf("expected IO failure, got %v", err)
	}
	m, _ := e.coll.Get(42)
	if m.Staged {
		t.Fatalf("staged flipped despite failure")
	}
	e.checkStagedInvariant(t)
}

func TestStageMissingContentIsIOFailure(t *testing.T) {
	e := newEnv(t)
	e.register(t, 6, "Zato")
	m, _ := e.coll.Get(6)
	if err := os.RemoveAll(m.LocalPath); err != nil {
		t.Fatal(err)
	}
	err := e.coll.Stage(6)
	if !errors.Is(err, ggerr.ErrIO) || !errors.Is(err, ggerr.ErrNotFound) {
		t.Fatalf("expected IO failure caused by NotFound, got %v", err)
	}
	if ggerr.KindOf(err) != ggerr.KindIO {
		t.Fatalf("outer kind = %v", ggerr.KindOf(err))
	}
}

func TestModsReturnsCopy(t *testing.T) {
	e := newEnv(t)
	e.register(t, 1, "Sol")
	mods := e.coll.Mods()
	mods[0].Name = "mutated"
	if m, _ := e.coll.Get(1); m.Name != "Sol" {
		t.Fatalf("Mods exposes internal slice")
	}
}

func TestPersistKeepsOrder(t *testing.T) {
	e := newEnv(t)
	for _, id := range []int{30, 10, 20} {
		e.register(t, id, "m")
	}
	if err := e.coll.Persist(); err != nil {
		t.Fatal(err)
	}
	got := e.load(t).Mods()
	for i, want := range []int{30, 10, 20} {
		if got[i].ID != want {
			t.Fatalf("order after reload: %+v", got)
		}
	}
}

package placer

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	ggerr "github.com/jxwalker/ggmod/internal/errors"
	"github.com/jxwalker/ggmod/internal/testutil"
)

func TestStageCopiesTree(t *testing.T) {
	tmp := t.TempDir()
	src := filepath.Join(tmp, "extracted", "sol")
	testutil.WriteTree(t, src, map[string]string{
		"Sol_P.pak":         "pak-bytes",
		"nested/Sol_P.utoc":  "utoc-bytes",
	})
	p := New(filepath.Join(tmp, "~mods"))
	if err := p.Stage(src, 42); err != nil {
		t.Fatalf("stage: %v", err)
	}
	b, err := os.ReadFile(filepath.Join(tmp, "~mods", "42", "nested", "Sol_P.utoc"))
	if err != nil {
		t.Fatalf("staged file missing: %v", err)
	}
	if string(b) != "utoc-bytes" {
		t.Fatalf("content mismatch: %q", b)
	}
	if !p.IsStaged(42) {
		t.Fatalf("IsStaged(42) = false after stage")
	}
	// source must survive staging
	if _, err := os.Stat(filepath.Join(src, "Sol_P.pak")); err != nil {
		t.Fatalf("source removed: %v", err)
	}
}

func TestStageMissingSource(t *testing.T) {
	p := New(t.TempDir())
	err := p.Stage(filepath.Join(t.TempDir(), "gone"), 7)
	if !errors.Is(err, ggerr.ErrNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestStageUnwritableModsDir(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits not enforced")
	}
	tmp := t.TempDir()
	src := filepath.Join(tmp, "src")
	testutil.WriteTree(t, src, map[string]string{"a.pak": "x"})
	mods := filepath.Join(tmp, "mods")
	if err := os.Mkdir(mods, 0o555); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(mods, 0o755) })
	p := New(mods)
	err := p.Stage(src, 1)
	if !errors.Is(err, ggerr.ErrIO) {
		t.Fatalf("expected IO failure, got %v", err)
	}
	if p.IsStaged(1) {
		t.Fatalf("mod reported staged after failure")
	}
}

func TestUnstageRemovesAndIsIdempotent(t *testing.T) {
	tmp := t.TempDir()
	src := filepath.Join(tmp, "src")
	testutil.WriteTree(t, src, map[string]string{"a.pak": "x"})
	p := New(filepath.Join(tmp, "mods"))
	if err := p.Stage(src, 3); err != nil {
		t.Fatal(err)
	}
	if err := p.Unstage(3); err != nil {
		t.Fatalf("unstage: %v", err)
	}
	if p.IsStaged(3) {
		t.Fatalf("still staged")
	}
	if err := p.Unstage(3); err != nil {
		t.Fatalf("second unstage: %v", err)
	}
}

func TestStagedIDs(t *testing.T) {
	mods := t.TempDir()
	for _, d := range []string{"12", "3", "not-a-mod"} {
		if err := os.Mkdir(filepath.Join(mods, d), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(mods, "99"), []byte("file"), 0o644); err != nil {
		t.Fatal(err)
	}
	ids, err := New(mods).StagedIDs()
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 || ids[0] != 3 || ids[1] != 12 {
		t.Fatalf("StagedIDs = %v", ids)
	}
	none, err := New(filepath.Join(mods, "absent")).StagedIDs()
	if err != nil || len(none) != 0 {
		t.Fatalf("absent mods dir: %v %v", none, err)
	}
}

func TestUnconfiguredModsDir(t *testing.T) {
	p := New("")
	if err := p.Stage(t.TempDir(), 1); !errors.Is(err, ggerr.ErrInvalid) {
		t.Fatalf("expected Invalid, got %v", err)
	}
	if err := p.Unstage(1); !errors.Is(err, ggerr.ErrInvalid) {
		t.Fatalf("expected Invalid, got %v", err)
	}
}

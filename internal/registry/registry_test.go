package registry

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	ggerr "github.com/jxwalker/ggmod/internal/errors"
)

func TestLoadMissingAndEmpty(t *testing.T) {
	dir := t.TempDir()
	s := New(filepath.Join(dir, "registry.json"))
	recs, err := s.Load()
	if err != nil || len(recs) != 0 {
		t.Fatalf("missing file: %v %v", recs, err)
	}
	if err := os.WriteFile(s.Path, []byte("  \n"), 0o644); err != nil {
		t.Fatal(err)
	}
	recs, err = s.Load()
	if err != nil || len(recs) != 0 {
		t.Fatalf("empty file: %v %v", recs, err)
	}
}

func TestLoadMalformed(t *testing.T) {
	p := filepath.Join(t.TempDir(), "registry.json")
	if err := os.WriteFile(p, []byte(`[{"id": 1,`), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := New(p).Load()
	if !errors.Is(err, ggerr.ErrParse) {
		t.Fatalf("expected parse failure, got %v", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	p := filepath.Join(t.TempDir(), "nested", "registry.json")
	s := New(p)
	in := []Record{
		{ID: 42, Character: "Sol", Path: "/dl/sol", Name: "Sol Recolor", Staged: true},
		{ID: 7, Character: "Ky", Path: "/dl/ky", Name: "Ky", Description: "blue", IsNSFW: true},
	}
	if err := s.Save(in); err != nil {
		t.Fatalf("save: %v", err)
	}
	out, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("len %d want %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("record %d: got %+v want %+v", i, out[i], in[i])
		}
	}
	b, _ := os.ReadFile(p)
	for _, key := range []string{`"id"`, `"character"`, `"path"`, `"staged"`, `"is_nsfw"`} {
		if !strings.Contains(string(b), key) {
			t.Errorf("file missing key %s", key)
		}
	}
	// no temp files left behind
	entries, _ := os.ReadDir(filepath.Dir(p))
	if len(entries) != 1 {
		t.Errorf("expected only registry.json, found %d entries", len(entries))
	}
}

func TestSaveNilWritesEmptyArray(t *testing.T) {
	p := filepath.Join(t.TempDir(), "registry.json")
	if err := New(p).Save(nil); err != nil {
		t.Fatal(err)
	}
	b, _ := os.ReadFile(p)
	if strings.TrimSpace(string(b)) != "[]" {
		t.Fatalf("got %q", b)
	}
}

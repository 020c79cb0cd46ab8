package classifier

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDetectByExtension(t *testing.T) {
	cases := map[string]string{
		"Sol.zip":           Zip,
		"ky_recolor.RAR":    Rar,
		"pack.7z":           SevenZ,
		"pack.tar":          Tar,
		"pack.tar.gz":       TarGz,
		"pack.tgz":          TarGz,
		"pack.tar.bz2":      TarBz2,
		"pack.tar.xz":       TarXz,
		"download.zip.part": Zip,
	}
	for name, want := range cases {
		// files do not exist; extension alone must decide
		if got := Detect(filepath.Join(t.TempDir(), name)); got != want {
			t.Errorf("Detect(%s) = %s, want %s", name, got, want)
		}
	}
}

func TestDetectMagicZip(t *testing.T) {
	p := filepath.Join(t.TempDir(), "file_without_ext")
	if err := os.WriteFile(p, []byte("PK\x03\x04rest-of-zip"), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	if got := Detect(p); got != Zip {
		t.Fatalf("expected zip, got %s", got)
	}
}

func TestDetectMagicTar(t *testing.T) {
	p := filepath.Join(t.TempDir(), "blob.bin")
	b := make([]byte, 512)
	copy(b[257:], "ustar")
	if err := os.WriteFile(p, b, 0o644); err != nil {
		t.Fatal(err)
	}
	if got := Detect(p); got != Tar {
		t.Fatalf("expected tar, got %s", got)
	}
}

func TestDetectGenericFallback(t *testing.T) {
	p := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(p, []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := Detect(p); got != Generic {
		t.Fatalf("expected generic, got %s", got)
	}
}

package system

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/jxwalker/ggmod/internal/testutil"
)

func TestFreeSpaceMissingPathUsesAncestor(t *testing.T) {
	dir := t.TempDir()
	free, err := FreeSpace(filepath.Join(dir, "not", "yet", "created"))
	if err != nil {
		t.Fatalf("FreeSpace: %v", err)
	}
	if free == 0 {
		t.Fatal("expected some free space in a temp dir")
	}
	ok, _, err := HasRoomFor(dir, 1)
	if err != nil || !ok {
		t.Fatalf("HasRoomFor(1 byte) = %v, %v", ok, err)
	}
}

func TestDirSize(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteTree(t, dir, map[string]string{
		"a/one.pak":   "12345",
		"a/b/two.pak": "123",
		"three.txt":   "",
	})
	size, files, err := DirSize(dir)
	if err != nil {
		t.Fatalf("DirSize: %v", err)
	}
	if size != 8 || files != 3 {
		t.Fatalf("DirSize = %d bytes, %d files; want 8, 3", size, files)
	}
	size, files, err = DirSize(filepath.Join(dir, "missing"))
	if err != nil || size != 0 || files != 0 {
		t.Fatalf("missing root: %d %d %v", size, files, err)
	}
}

func TestCatalogAddr(t *testing.T) {
	tests := []struct {
		in, host, port string
		wantErr        bool
	}{
		{"https://gamebanana.com", "gamebanana.com", "443", false},
		{"http://localhost", "localhost", "80", false},
		{"http://127.0.0.1:8080/api", "127.0.0.1", "8080", false},
		{"not a url", "", "", true},
	}
	for _, tt := range tests {
		host, port, err := CatalogAddr(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("%q: err = %v", tt.in, err)
		}
		if host != tt.host || port != tt.port {
			t.Errorf("%q: got %s:%s, want %s:%s", tt.in, host, port, tt.host, tt.port)
		}
	}
}

func TestCheckCatalogReachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	if err := CheckCatalogReachable(context.Background(), srv.URL); err != nil {
		t.Fatalf("reachable server: %v", err)
	}
	url := srv.URL
	srv.Close()
	if err := CheckCatalogReachable(context.Background(), url); err == nil {
		t.Fatal("expected error for closed server")
	}
}

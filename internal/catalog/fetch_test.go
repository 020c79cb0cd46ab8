package catalog

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	ggerr "github.com/jxwalker/ggmod/internal/errors"
	"github.com/jxwalker/ggmod/internal/state"
	"github.com/jxwalker/ggmod/internal/testutil"
)

func TestFetchFileDownloadsAndExtracts(t *testing.T) {
	ms := testutil.NewMockHTTPServer()
	defer ms.Close()
	ms.AddFileResponse("/dl/1", testutil.ZipBytes(t, map[string]string{
		"Sol_P.pak":       "pak",
		"nested/Sol.utoc": "utoc",
	}))
	c := newTestClient(t, ms.URL)
	c.st = testutil.TestDB(t)

	f := File{File: "sol_red.zip", DownloadURL: ms.URL + "/dl/1"}
	dir, err := c.FetchFile(context.Background(), f)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if want := filepath.Join(c.cfg.General.DownloadRoot, "sol_red"); dir != want {
		t.Fatalf("dir = %s, want %s", dir, want)
	}
	b, err := os.ReadFile(filepath.Join(dir, "nested", "Sol.utoc"))
	if err != nil || string(b) != "utoc" {
		t.Fatalf("extracted content: %q %v", b, err)
	}
	if _, err := os.Stat(filepath.Join(c.cfg.General.DownloadRoot, "sol_red.zip")); !os.IsNotExist(err) {
		t.Fatalf("archive should be removed after extraction, stat err = %v", err)
	}
	row, ok, err := c.st.GetFetch("sol_red.zip")
	if err != nil || !ok {
		t.Fatalf("ledger row: ok=%v err=%v", ok, err)
	}
	if row.Status != state.StatusExtracted || row.Dir != dir || row.Size == 0 {
		t.Fatalf("unexpected ledger row: %+v", row)
	}
}

func TestFetchFileExtractsSevenZip(t *testing.T) {
	ms := testutil.NewMockHTTPServer()
	defer ms.Close()
	ms.AddFileResponse("/dl/7", testutil.SevenZipBytes(t, map[string]string{
		"Bridget_P.pak":       "pak",
		"nested/Bridget.utoc": "utoc",
	}))
	c := newTestClient(t, ms.URL)
	c.st = testutil.TestDB(t)

	dir, err := c.FetchFile(context.Background(), File{File: "bridget_hairV2.7z", DownloadURL: ms.URL + "/dl/7"})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if want := filepath.Join(c.cfg.General.DownloadRoot, "bridget_hairV2"); dir != want {
		t.Fatalf("dir = %s, want %s", dir, want)
	}
	for rel, want := range map[string]string{"Bridget_P.pak": "pak", "nested/Bridget.utoc": "utoc"} {
		b, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
		if err != nil || string(b) != want {
			t.Fatalf("%s: %q %v", rel, b, err)
		}
	}
	row, ok, err := c.st.GetFetch("bridget_hairV2.7z")
	if err != nil || !ok || row.Status != state.StatusExtracted {
		t.Fatalf("ledger row: %+v ok=%v err=%v", row, ok, err)
	}
}

func TestFetchFileUsesExistingDirectory(t *testing.T) {
	ms := testutil.NewMockHTTPServer()
	defer ms.Close()
	c := newTestClient(t, ms.URL)

	f := File{File: "ky.zip", DownloadURL: ms.URL + "/dl/ky"}
	cached := c.CacheDir(f)
	testutil.WriteTree(t, cached, map[string]string{"Ky_P.pak": "x"})

	dir, err := c.FetchFile(context.Background(), f)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if dir != cached {
		t.Fatalf("dir = %s, want cached %s", dir, cached)
	}
	if n := len(ms.Requests()); n != 0 {
		t.Fatalf("cache hit must not hit the network, got %d requests", n)
	}
}

func TestFetchFileHTTPError(t *testing.T) {
	ms := testutil.NewMockHTTPServer()
	defer ms.Close()
	c := newTestClient(t, ms.URL)
	c.st = testutil.TestDB(t)

	f := File{File: "may.zip", DownloadURL: ms.URL + "/missing"}
	_, err := c.FetchFile(context.Background(), f)
	if !errors.Is(err, ggerr.ErrNetwork) {
		t.Fatalf("expected network failure, got %v", err)
	}
	if _, err := os.Stat(c.CacheDir(f)); !os.IsNotExist(err) {
		t.Fatalf("no directory should exist after failed download")
	}
	if _, err := os.Stat(filepath.Join(c.cfg.General.DownloadRoot, "may.zip.part")); !os.IsNotExist(err) {
		t.Fatalf("partial file left behind")
	}
	row, ok, _ := c.st.GetFetch("may.zip")
	if !ok || row.Status != state.StatusFailed || row.LastError == "" {
		t.Fatalf("ledger should record failure: %+v", row)
	}
}

func TestFetchFileCorruptArchiveCleansUp(t *testing.T) {
	ms := testutil.NewMockHTTPServer()
	defer ms.Close()
	ms.AddFileResponse("/dl/bad", []byte("PK\x03\x04 this is not really a zip"))
	c := newTestClient(t, ms.URL)

	f := File{File: "bad.zip", DownloadURL: ms.URL + "/dl/bad"}
	if _, err := c.FetchFile(context.Background(), f); err == nil {
		t.Fatalf("expected extraction error")
	}
	if _, err := os.Stat(c.CacheDir(f)); !os.IsNotExist(err) {
		t.Fatalf("partial extraction directory left behind")
	}
}

func TestFetchFileUnsupportedFormat(t *testing.T) {
	ms := testutil.NewMockHTTPServer()
	defer ms.Close()
	ms.AddFileResponse("/dl/txt", []byte("hello"))
	c := newTestClient(t, ms.URL)

	_, err := c.FetchFile(context.Background(), File{File: "readme.txt", DownloadURL: ms.URL + "/dl/txt"})
	if !errors.Is(err, ggerr.ErrInvalid) {
		t.Fatalf("expected invalid for unknown format, got %v", err)
	}
}

func TestFetchFileRequiresURL(t *testing.T) {
	c := newTestClient(t, "http://unused")
	if _, err := c.FetchFile(context.Background(), File{File: "x.zip"}); !errors.Is(err, ggerr.ErrInvalid) {
		t.Fatalf("expected invalid, got %v", err)
	}
}

func TestFetchFileStatusCodeCheck(t *testing.T) {
	ms := testutil.NewMockHTTPServer()
	defer ms.Close()
	ms.AddResponse("/dl/gone", testutil.MockResponse{StatusCode: http.StatusGone, Body: "gone"})
	c := newTestClient(t, ms.URL)
	_, err := c.FetchFile(context.Background(), File{File: "gone.zip", DownloadURL: ms.URL + "/dl/gone"})
	if ggerr.KindOf(err) != ggerr.KindNetwork {
		t.Fatalf("expected network kind, got %v (%v)", ggerr.KindOf(err), err)
	}
}

func TestFetchFileNamesArchiveFromURL(t *testing.T) {
	ms := testutil.NewMockHTTPServer()
	defer ms.Close()
	ms.AddFileResponse("/mods/ky_blue.zip", testutil.ZipBytes(t, map[string]string{"Ky_P.pak": "pak"}))
	c := newTestClient(t, ms.URL)

	dir, err := c.FetchFile(context.Background(), File{DownloadURL: ms.URL + "/mods/ky_blue.zip?dl=1"})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if filepath.Base(dir) != "ky_blue" {
		t.Fatalf("dir = %s", dir)
	}
	if _, err := os.Stat(filepath.Join(dir, "Ky_P.pak")); err != nil {
		t.Fatalf("extracted content: %v", err)
	}
}

// Package testutil holds fixtures shared by package tests: a canned catalog
// server, a throwaway fetch ledger and archive builders.
package testutil

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"unicode/utf16"

	"github.com/jxwalker/ggmod/internal/state"
)

// MockResponse is one canned reply.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
}

// MockHTTPServer answers from a route table keyed by path, or by path plus
// raw query when a more specific reply is registered. Unknown routes get 404.
type MockHTTPServer struct {
	*httptest.Server

	mu       sync.Mutex
	routes   map[string]MockResponse
	requests []string
}

// NewMockHTTPServer starts a server; callers Close it.
func NewMockHTTPServer() *MockHTTPServer {
	ms := &MockHTTPServer{routes: map[string]MockResponse{}}
	ms.Server = httptest.NewServer(http.HandlerFunc(ms.serve))
	return ms
}

func (ms *MockHTTPServer) lookup(r *http.Request) (MockResponse, bool) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.requests = append(ms.requests, r.URL.RequestURI())
	if r.URL.RawQuery != "" {
		if resp, ok := ms.routes[r.URL.Path+"?"+r.URL.RawQuery]; ok {
			return resp, true
		}
	}
	resp, ok := ms.routes[r.URL.Path]
	return resp, ok
}

func (ms *MockHTTPServer) serve(w http.ResponseWriter, r *http.Request) {
	resp, ok := ms.lookup(r)
	if !ok {
		http.Error(w, "no route for "+r.URL.RequestURI(), http.StatusNotFound)
		return
	}
	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write([]byte(resp.Body))
}

func (ms *MockHTTPServer) AddResponse(route string, resp MockResponse) {
	ms.mu.Lock()
	ms.routes[route] = resp
	ms.mu.Unlock()
}

func (ms *MockHTTPServer) AddJSONResponse(route string, status int, body string) {
	ms.AddResponse(route, MockResponse{
		StatusCode: status,
		Body:       body,
		Headers:    map[string]string{"Content-Type": "application/json"},
	})
}

// AddFileResponse serves raw bytes, e.g. an archive built with ZipBytes.
func (ms *MockHTTPServer) AddFileResponse(route string, body []byte) {
	ms.AddResponse(route, MockResponse{
		StatusCode: http.StatusOK,
		Body:       string(body),
		Headers: map[string]string{
			"Content-Type":   "application/octet-stream",
			"Content-Length": fmt.Sprint(len(body)),
		},
	})
}

// Requests returns the request URIs seen so far, in arrival order.
func (ms *MockHTTPServer) Requests() []string {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return append([]string(nil), ms.requests...)
}

// TestDB opens a fresh fetch ledger in a temp dir, closed at cleanup.
func TestDB(t *testing.T) *state.DB {
	t.Helper()
	db, err := state.OpenPath(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// ZipBytes builds a zip archive from name -> content, entries sorted by name.
func ZipBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, n := range sortedKeys(files) {
		w, err := zw.Create(n)
		if err == nil {
			_, err = w.Write([]byte(files[n]))
		}
		if err != nil {
			t.Fatalf("zip %s: %v", n, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

// SevenZipBytes builds a .7z archive holding files stored with the Copy
// method in a single folder. Contents must be non-empty; entry names use '/'.
func SevenZipBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()
	names := sortedKeys(files)
	var packed bytes.Buffer
	for _, n := range names {
		if files[n] == "" {
			t.Fatalf("7z fixture %s: empty files are not supported", n)
		}
		packed.WriteString(files[n])
	}

	var h bytes.Buffer
	num := func(v uint64) { writeSevenZipNumber(&h, v) }
	h.WriteByte(0x01) // header
	h.WriteByte(0x04) // main streams info

	h.WriteByte(0x06) // pack info: one stream at offset 0
	num(0)
	num(1)
	h.WriteByte(0x09)
	num(uint64(packed.Len()))
	h.WriteByte(0x00)

	h.WriteByte(0x07) // unpack info: one folder, one Copy coder
	h.WriteByte(0x0B)
	num(1)
	h.WriteByte(0x00)
	num(1)
	h.WriteByte(0x01) // coder flags: 1-byte id, simple
	h.WriteByte(0x00) // Copy
	h.WriteByte(0x0C)
	num(uint64(packed.Len()))
	h.WriteByte(0x00)

	h.WriteByte(0x08) // substreams: one per file
	h.WriteByte(0x0D)
	num(uint64(len(names)))
	if len(names) > 1 {
		h.WriteByte(0x09)
		for _, n := range names[:len(names)-1] {
			num(uint64(len(files[n])))
		}
	}
	h.WriteByte(0x0A)
	h.WriteByte(0x01) // all digests defined
	for _, n := range names {
		_ = binary.Write(&h, binary.LittleEndian, crc32.ChecksumIEEE([]byte(files[n])))
	}
	h.WriteByte(0x00)
	h.WriteByte(0x00) // end of streams info

	h.WriteByte(0x05) // files info
	num(uint64(len(names)))
	var nameBuf bytes.Buffer
	nameBuf.WriteByte(0x00) // not external
	for _, n := range names {
		for _, u := range utf16.Encode([]rune(n)) {
			_ = binary.Write(&nameBuf, binary.LittleEndian, u)
		}
		nameBuf.Write([]byte{0, 0})
	}
	h.WriteByte(0x11)
	num(uint64(nameBuf.Len()))
	h.Write(nameBuf.Bytes())
	h.WriteByte(0x00)
	h.WriteByte(0x00) // end of header

	var start [20]byte
	binary.LittleEndian.PutUint64(start[0:], uint64(packed.Len()))
	binary.LittleEndian.PutUint64(start[8:], uint64(h.Len()))
	binary.LittleEndian.PutUint32(start[16:], crc32.ChecksumIEEE(h.Bytes()))

	var out bytes.Buffer
	out.Write([]byte{'7', 'z', 0xBC, 0xAF, 0x27, 0x1C, 0x00, 0x04})
	_ = binary.Write(&out, binary.LittleEndian, crc32.ChecksumIEEE(start[:]))
	out.Write(start[:])
	out.Write(packed.Bytes())
	out.Write(h.Bytes())
	return out.Bytes()
}

// writeSevenZipNumber writes v in the 7z variable-length encoding: the count
// of leading one bits in the first byte is the count of extra bytes.
func writeSevenZipNumber(w *bytes.Buffer, v uint64) {
	for n := 0; n < 8; n++ {
		if v < 1<<(7*(n+1)) {
			mask := byte(0xFF << (8 - n))
			w.WriteByte(mask | byte(v>>(8*n)))
			for i := 0; i < n; i++ {
				w.WriteByte(byte(v >> (8 * i)))
			}
			return
		}
	}
	w.WriteByte(0xFF)
	_ = binary.Write(w, binary.LittleEndian, v)
}

// WriteTree creates files (relative path -> content) under root.
func WriteTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for _, rel := range sortedKeys(files) {
		p := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(files[rel]), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

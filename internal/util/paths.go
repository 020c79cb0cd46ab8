package util

import (
	"net/url"
	pathpkg "path"
	"path/filepath"
	"regexp"
	"strings"
)

var unsafeRun = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SafeFileName reduces name to [A-Za-z0-9._-], replacing each run of other
// characters (path separators included) with a single '-'. The extension is
// kept when it is itself safe. An empty result becomes "download".
func SafeFileName(name string) string {
	name = strings.TrimSpace(name)
	ext := filepath.Ext(name)
	if unsafeRun.MatchString(ext) {
		ext = ""
	}
	stem := unsafeRun.ReplaceAllString(strings.TrimSuffix(name, ext), "-")
	stem = strings.Trim(stem, "-.")
	if stem == "" {
		stem = "download"
	}
	return stem + ext
}

// URLPathBase is the last path element of a download URL, without query or
// fragment, or "download" when there is none.
func URLPathBase(raw string) string {
	s := strings.TrimSpace(raw)
	if u, err := url.Parse(s); err == nil {
		s = u.Path
	} else if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}
	switch b := pathpkg.Base(s); b {
	case "", "/", ".":
		return "download"
	default:
		return b
	}
}

// ArchiveStem strips a trailing archive extension, treating compound tar
// suffixes as one: "sol_v2.tar.gz" -> "sol_v2", "ky.zip" -> "ky".
func ArchiveStem(name string) string {
	lower := strings.ToLower(name)
	for _, ext := range []string{".tar.gz", ".tar.bz2", ".tar.xz"} {
		if strings.HasSuffix(lower, ext) {
			return name[:len(name)-len(ext)]
		}
	}
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// Within reports whether path is root itself or lies beneath it.
func Within(root, path string) bool {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

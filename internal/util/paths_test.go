package util

import "testing"

func TestSafeFileName(t *testing.T) {
	cases := map[string]string{
		"foo/bar":                   "foo-bar",
		"foo\\bar":                  "foo-bar",
		"  spaced name  ":           "spaced-name",
		"../../etc/passwd":          "etc-passwd",
		"sol_badguy_v2 (final).zip": "sol_badguy_v2-final.zip",
		"":                          "download",
	}
	for in, want := range cases {
		got := SafeFileName(in)
		if got != want {
			t.Fatalf("SafeFileName(%q)=%q want %q", in, got, want)
		}
	}
}

func TestArchiveStem(t *testing.T) {
	cases := map[string]string{
		"ky.zip":        "ky",
		"sol_v2.tar.gz": "sol_v2",
		"may.TAR.XZ":    "may",
		"noextension":   "noextension",
		"pack.v1.2.rar": "pack.v1.2",
		"bridget.7z":    "bridget",
	}
	for in, want := range cases {
		if got := ArchiveStem(in); got != want {
			t.Errorf("ArchiveStem(%q)=%q want %q", in, got, want)
		}
	}
}

func TestWithin(t *testing.T) {
	cases := []struct {
		path string
		want bool
	}{
		{"/dl/sol", true},
		{"/dl/sol/nested/Sol_P.pak", true},
		{"/dl/sol/../sol/x", true},
		{"/dl/sol/../ky", false},
		{"/dl/solitaire", false},
		{"/etc/passwd", false},
	}
	for _, c := range cases {
		if got := Within("/dl/sol", c.path); got != c.want {
			t.Errorf("Within(/dl/sol, %q) = %v, want %v", c.path, got, c.want)
		}
	}
}

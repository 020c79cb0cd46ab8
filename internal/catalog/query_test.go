package catalog

import (
	"net/url"
	"strings"
	"testing"
)

func parsePath(t *testing.T, p string) (string, url.Values) {
	t.Helper()
	u, err := url.Parse(p)
	if err != nil {
		t.Fatalf("parse %s: %v", p, err)
	}
	return u.Path, u.Query()
}

func TestQueryPathFilters(t *testing.T) {
	cases := []struct {
		name     string
		q        Query
		wantPath string
		wantArgs map[string]string
	}{
		{
			name:     "game",
			q:        Query{Type: TypeMod, Filter: ByGame{GameID: 11534}, PerPage: 15},
			wantPath: "apiv6/Mod/ByGame",
			wantArgs: map[string]string{"_aGameRowIds[]": "11534", "_nPerpage": "15"},
		},
		{
			name:     "name",
			q:        Query{Type: TypeSound, Filter: ByName{Name: "sol", GameID: 11534}},
			wantPath: "apiv6/Sound/ByName",
			wantArgs: map[string]string{"_sName": "*sol*", "_idGameRow": "11534"},
		},
		{
			name:     "category",
			q:        Query{Type: TypeWip, Filter: ByCategory{CategoryID: 3412}},
			wantPath: "apiv6/Wip/ByCategory",
			wantArgs: map[string]string{"_aCategoryRowIds[]": "3412"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path, v := parsePath(t, tc.q.Path(2))
			if path != tc.wantPath {
				t.Fatalf("path = %s, want %s", path, tc.wantPath)
			}
			for k, want := range tc.wantArgs {
				if got := v.Get(k); got != want {
					t.Errorf("%s = %q, want %q", k, got, want)
				}
			}
			if v.Get("_nPage") != "2" {
				t.Errorf("_nPage = %q", v.Get("_nPage"))
			}
			if !strings.Contains(v.Get("_csvProperties"), "_bIsNsfw") {
				t.Errorf("properties missing _bIsNsfw: %s", v.Get("_csvProperties"))
			}
		})
	}
}

func TestQueryPathSortAndNSFW(t *testing.T) {
	cases := []struct {
		sort    Sort
		nsfw    bool
		orderBy string
		args    []string
	}{
		{SortRecent, false, "_tsDateUpdated,DESC", []string{"_sbIsNsfw = false"}},
		{SortPopular, false, "_nDownloadCount,DESC", []string{"_sbIsNsfw = false"}},
		{SortFeatured, false, "_tsDateAdded,DESC", []string{"_sbIsNsfw = false", "_sbWasFeatured = true"}},
		{SortFeatured, true, "_tsDateAdded,DESC", []string{"_sbWasFeatured = true"}},
		{SortRecent, true, "_tsDateUpdated,DESC", nil},
	}
	for _, tc := range cases {
		q := Query{Sort: tc.sort, NSFW: tc.nsfw, Filter: ByGame{GameID: 1}}
		_, v := parsePath(t, q.Path(1))
		if got := v.Get("_sOrderBy"); got != tc.orderBy {
			t.Errorf("%s nsfw=%v: _sOrderBy = %q, want %q", tc.sort, tc.nsfw, got, tc.orderBy)
		}
		if got := v["_aArgs[]"]; strings.Join(got, "|") != strings.Join(tc.args, "|") {
			t.Errorf("%s nsfw=%v: _aArgs[] = %v, want %v", tc.sort, tc.nsfw, got, tc.args)
		}
	}
}

func TestQueryPathClampsPage(t *testing.T) {
	_, v := parsePath(t, Query{Filter: ByGame{GameID: 1}}.Path(0))
	if v.Get("_nPage") != "1" {
		t.Fatalf("page 0 should clamp to 1, got %s", v.Get("_nPage"))
	}
}

func TestParseEnums(t *testing.T) {
	if s, err := ParseSort("popular"); err != nil || s != SortPopular {
		t.Errorf("ParseSort(popular) = %v, %v", s, err)
	}
	if _, err := ParseSort("hot"); err == nil {
		t.Errorf("ParseSort(hot) should fail")
	}
	if m, err := ParseModType("WIP"); err != nil || m != TypeWip {
		t.Errorf("ParseModType(WIP) = %v, %v", m, err)
	}
}

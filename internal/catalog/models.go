package catalog

import (
	"fmt"
	"strings"
)

// ModType selects which catalog section is searched.
type ModType int

const (
	TypeMod ModType = iota
	TypeSound
	TypeWip
)

// ModTypes lists every ModType in cycling order.
func ModTypes() []ModType { return []ModType{TypeMod, TypeSound, TypeWip} }

func (t ModType) String() string {
	switch t {
	case TypeSound:
		return "Sound"
	case TypeWip:
		return "WiP"
	default:
		return "Mod"
	}
}

// segment is the apiv6 path element for t.
func (t ModType) segment() string {
	switch t {
	case TypeSound:
		return "Sound"
	case TypeWip:
		return "Wip"
	default:
		return "Mod"
	}
}

func ParseModType(s string) (ModType, error) {
	for _, t := range ModTypes() {
		if strings.EqualFold(s, t.String()) {
			return t, nil
		}
	}
	return TypeMod, fmt.Errorf("unknown mod type %q (want mod, sound or wip)", s)
}

// Sort is the feed ordering of search results.
type Sort int

const (
	SortRecent Sort = iota
	SortPopular
	SortFeatured
)

// Sorts lists every Sort in cycling order.
func Sorts() []Sort { return []Sort{SortRecent, SortPopular, SortFeatured} }

func (s Sort) String() string {
	switch s {
	case SortPopular:
		return "Popular"
	case SortFeatured:
		return "Featured"
	default:
		return "Recent"
	}
}

func ParseSort(s string) (Sort, error) {
	for _, v := range Sorts() {
		if strings.EqualFold(s, v.String()) {
			return v, nil
		}
	}
	return SortRecent, fmt.Errorf("unknown sort %q (want recent, popular or featured)", s)
}

// The structs below decode catalog JSON after Humanize has rewritten the keys.

type PreviewMedia struct {
	BaseURL string `json:"base_url"`
	File    string `json:"file"`
}

// URL returns the full image address, or "" when incomplete.
func (p PreviewMedia) URL() string {
	if p.BaseURL == "" || p.File == "" {
		return ""
	}
	return strings.TrimSuffix(p.BaseURL, "/") + "/" + p.File
}

type Submitter struct {
	Name string `json:"name"`
}

// ModCategory is the category attached to a single mod or search entry.
type ModCategory struct {
	IconURL string `json:"icon_url"`
	Name    string `json:"name"`
}

// SearchEntry is one row of a search results page.
type SearchEntry struct {
	Row           int            `json:"row"`
	Name          string         `json:"name"`
	ModelName     string         `json:"model_name"`
	DateUpdated   int64          `json:"date_updated"`
	DateAdded     int64          `json:"date_added"`
	IsNSFW        bool           `json:"is_nsfw"`
	PreviewMedia  []PreviewMedia `json:"preview_media"`
	DownloadCount int            `json:"download_count"`
	ViewCount     int            `json:"view_count"`
	LikeCount     int            `json:"like_count"`
	Text          string         `json:"text"`
	Description   string         `json:"description"`
	Category      ModCategory    `json:"category"`
	Submitter     Submitter      `json:"submitter"`
}

// File is one downloadable variant of a mod.
type File struct {
	Row                int    `json:"row"`
	File               string `json:"file"`
	Filesize           int64  `json:"filesize"`
	Description        string `json:"description"`
	DateAdded          int64  `json:"date_added"`
	DownloadCount      int    `json:"download_count"`
	AnalysisResultCode string `json:"analysis_result_code"`
	ContainsExe        bool   `json:"contains_exe"`
	DownloadURL        string `json:"download_url"`
	MD5Checksum        string `json:"md5_checksum"`
}

// Label is the file picker row: "file | description".
func (f File) Label() string {
	if f.Description == "" {
		return f.File
	}
	return f.File + " | " + f.Description
}

// ModPage is the full detail of one mod.
type ModPage struct {
	Row         int         `json:"row"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	IsNSFW      bool        `json:"is_nsfw"`
	DateUpdated int64       `json:"date_updated"`
	ProfileURL  string      `json:"profile_url"`
	Category    ModCategory `json:"category"`
	Submitter   Submitter   `json:"submitter"`
	Files       []File      `json:"files"`
}

// Category is an entry of the category picker. Row 0 means "no category".
type Category struct {
	Row       int    `json:"row"`
	Name      string `json:"name"`
	IconURL   string `json:"icon_url"`
	ItemCount int    `json:"item_count"`
}

// NoCategory is always first in a category listing.
var NoCategory = Category{Row: 0, Name: "None"}

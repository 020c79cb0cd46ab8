package catalog

import (
	"net/url"
	"strconv"
)

const searchProperties = "_sName,_sModelName,_idRow,_aSubmitter,_tsDateUpdated,_tsDateAdded," +
	"_aPreviewMedia,_sText,_sDescription,_aCategory,_aRootCategory,_aGame,_nViewCount," +
	"_nLikeCount,_nDownloadCount,_bIsNsfw,_aAlternateFileSources"

const modPageProperties = "_sName,_aGame,_sProfileUrl,_aPreviewMedia,_sDescription,_aSubmitter," +
	"_aCategory,_aSuperCategory,_aFiles,_tsDateUpdated,_aAlternateFileSources,_bHasUpdates," +
	"_aLatestUpdates,_idRow,_bIsNsfw"

// Filter restricts a search. Exactly one of ByGame, ByName or ByCategory.
type Filter interface {
	// endpoint adds the filter's parameters to v and returns the endpoint name.
	endpoint(v url.Values) string
}

// ByGame lists everything for a game.
type ByGame struct{ GameID int }

// ByName matches the name as a substring within a game.
type ByName struct {
	Name   string
	GameID int
}

// ByCategory lists one category.
type ByCategory struct{ CategoryID int }

func (f ByGame) endpoint(v url.Values) string {
	v.Set("_aGameRowIds[]", strconv.Itoa(f.GameID))
	return "ByGame"
}

func (f ByName) endpoint(v url.Values) string {
	v.Set("_sName", "*"+f.Name+"*")
	v.Set("_idGameRow", strconv.Itoa(f.GameID))
	return "ByName"
}

func (f ByCategory) endpoint(v url.Values) string {
	v.Set("_aCategoryRowIds[]", strconv.Itoa(f.CategoryID))
	return "ByCategory"
}

// Query describes one paginated catalog search.
type Query struct {
	Type    ModType
	Sort    Sort
	Filter  Filter
	PerPage int
	NSFW    bool
}

// Path returns the request path and query, relative to the catalog base URL.
// Pages are 1-based; anything lower is treated as the first page.
func (q Query) Path(page int) string {
	if page < 1 {
		page = 1
	}
	filter := q.Filter
	if filter == nil {
		filter = ByGame{}
	}
	v := url.Values{}
	ep := filter.endpoint(v)
	v.Set("_csvProperties", searchProperties)
	if q.PerPage > 0 {
		v.Set("_nPerpage", strconv.Itoa(q.PerPage))
	}
	v.Set("_nPage", strconv.Itoa(page))
	if !q.NSFW {
		v.Add("_aArgs[]", "_sbIsNsfw = false")
	}
	switch q.Sort {
	case SortPopular:
		v.Set("_sOrderBy", "_nDownloadCount,DESC")
	case SortFeatured:
		v.Add("_aArgs[]", "_sbWasFeatured = true")
		v.Set("_sOrderBy", "_tsDateAdded,DESC")
	default:
		v.Set("_sOrderBy", "_tsDateUpdated,DESC")
	}
	return "apiv6/" + q.Type.segment() + "/" + ep + "?" + v.Encode()
}

func modPagePath(id int) string {
	v := url.Values{}
	v.Set("_csvProperties", modPageProperties)
	return "apiv6/Mod/" + strconv.Itoa(id) + "?" + v.Encode()
}

func categoriesPath(rootID int) string {
	v := url.Values{}
	v.Set("_idCategoryRow", strconv.Itoa(rootID))
	v.Set("_sSort", "a_to_z")
	return "apiv11/Mod/Categories?" + v.Encode()
}

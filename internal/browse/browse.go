// Package browse turns filter state (type, sort, category, name, page) into
// catalog queries and keeps the current page of results.
package browse

import (
	"context"
	"strconv"

	"github.com/jxwalker/ggmod/internal/catalog"
	"github.com/jxwalker/ggmod/internal/cyclic"
	"github.com/jxwalker/ggmod/internal/logging"
	"github.com/jxwalker/ggmod/internal/selectable"
	"github.com/jxwalker/ggmod/internal/util"
)

// Searcher runs one catalog query.
type Searcher interface {
	Search(ctx context.Context, q catalog.Query, page int) ([]catalog.SearchEntry, error)
}

type Options struct {
	GameID  int
	PerPage int
	NSFW    bool
	// ResultLabel overrides the row format; tokens {name} {views} {likes}
	// {downloads} {category}.
	ResultLabel string
}

// State is a snapshot of the filters.
type State struct {
	Type      catalog.ModType
	Sort      catalog.Sort
	Category  *int
	NameQuery string
	Page      int
	PerPage   int
	NSFW      bool
}

// Browser holds the filters and the current results page. The name query
// is the Results list's query string.
type Browser struct {
	Type     *cyclic.Filter[catalog.ModType]
	Sort     *cyclic.Filter[catalog.Sort]
	Category *int
	Page     int
	Results  *selectable.List[catalog.SearchEntry]

	searcher Searcher
	opts     Options
	log      *logging.Logger
	// last name query that produced Results; paging reuses it
	submitted string
}

func New(s Searcher, opts Options, log *logging.Logger) *Browser {
	return &Browser{
		Type:     cyclic.New(catalog.ModTypes()...),
		Sort:     cyclic.New(catalog.Sorts()...),
		Page:     1,
		Results:  selectable.New[catalog.SearchEntry](),
		searcher: s,
		opts:     opts,
		log:      log,
	}
}

func (b *Browser) State() State {
	return State{
		Type:      b.Type.Value(),
		Sort:      b.Sort.Value(),
		Category:  b.Category,
		NameQuery: b.Results.Query(),
		Page:      b.Page,
		PerPage:   b.opts.PerPage,
		NSFW:      b.opts.NSFW,
	}
}

// Query builds the catalog query for the current filters. A non-zero
// category wins over the name query; with neither, the whole game is listed.
func (b *Browser) Query() catalog.Query { return b.query(b.Results.Query()) }

func (b *Browser) query(name string) catalog.Query {
	var f catalog.Filter
	switch {
	case b.Category != nil && *b.Category != 0:
		f = catalog.ByCategory{CategoryID: *b.Category}
	case name != "":
		f = catalog.ByName{Name: name, GameID: b.opts.GameID}
	default:
		f = catalog.ByGame{GameID: b.opts.GameID}
	}
	return catalog.Query{
		Type:    b.Type.Value(),
		Sort:    b.Sort.Value(),
		Filter:  f,
		PerPage: b.opts.PerPage,
		NSFW:    b.opts.NSFW,
	}
}

// Search fetches the current page for the current filters. On failure the
// previous results are left as they were.
func (b *Browser) Search(ctx context.Context) error {
	return b.run(ctx, b.Results.Query(), b.Page)
}

// NextPage moves one page forward with the last submitted query.
func (b *Browser) NextPage(ctx context.Context) error {
	return b.run(ctx, b.submitted, b.Page+1)
}

// PrevPage moves one page back, stopping at page 1.
func (b *Browser) PrevPage(ctx context.Context) error {
	p := b.Page - 1
	if p < 1 {
		p = 1
	}
	return b.run(ctx, b.submitted, p)
}

func (b *Browser) run(ctx context.Context, name string, page int) error {
	q := b.query(name)
	entries, err := b.searcher.Search(ctx, q, page)
	if err != nil {
		b.log.Warnf("search page %d failed: %v", page, err)
		return err
	}
	b.Page = page
	b.submitted = name
	b.Results.Refresh(selectable.Entries(entries, b.label))
	return nil
}

// SetCategory restricts results to category id; 0 means no category.
func (b *Browser) SetCategory(id int) {
	b.Category = &id
	b.Page = 1
}

func (b *Browser) ClearCategory() {
	b.Category = nil
	b.Page = 1
}

// CycleSort advances the sort order, backwards when back is set.
func (b *Browser) CycleSort(back bool) {
	if back {
		b.Sort.CycleBack()
	} else {
		b.Sort.Cycle()
	}
	b.Page = 1
}

func (b *Browser) CycleType() {
	b.Type.Cycle()
	b.Page = 1
}

func (b *Browser) Next()     { b.Results.Next() }
func (b *Browser) Previous() { b.Results.Previous() }

// Select returns the highlighted result.
func (b *Browser) Select() (catalog.SearchEntry, bool) { return b.Results.Select() }

// DefaultResultLabel is the row format used when Options.ResultLabel is empty.
const DefaultResultLabel = "{name:50}: views {views}"

func (b *Browser) label(e catalog.SearchEntry) string {
	pattern := b.opts.ResultLabel
	if pattern == "" {
		pattern = DefaultResultLabel
	}
	return util.ExpandPattern(pattern, map[string]string{
		"name":      e.Name,
		"views":     strconv.Itoa(e.ViewCount),
		"likes":     strconv.Itoa(e.LikeCount),
		"downloads": strconv.Itoa(e.DownloadCount),
		"category":  e.Category.Name,
	})
}

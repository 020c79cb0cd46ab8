package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/jxwalker/ggmod/internal/browse"
	"github.com/jxwalker/ggmod/internal/catalog"
	"github.com/jxwalker/ggmod/internal/collection"
	"github.com/jxwalker/ggmod/internal/config"
	"github.com/jxwalker/ggmod/internal/cyclic"
	ggerr "github.com/jxwalker/ggmod/internal/errors"
	"github.com/jxwalker/ggmod/internal/logging"
	"github.com/jxwalker/ggmod/internal/metrics"
	"github.com/jxwalker/ggmod/internal/selectable"
)

// Catalog is what the TUI needs from the mod catalog.
type Catalog interface {
	browse.Searcher
	collection.Fetcher
	ModPage(ctx context.Context, id int) (*catalog.ModPage, error)
	Categories(ctx context.Context, rootID int) ([]catalog.Category, error)
}

// Window is a focusable pane.
type Window int

const (
	WindowSearch Window = iota
	WindowMain
	WindowCategory
	WindowSection
)

func (w Window) String() string {
	switch w {
	case WindowMain:
		return "Main"
	case WindowCategory:
		return "Category"
	case WindowSection:
		return "Section"
	default:
		return "Search"
	}
}

// View is what the main window shows.
type View int

const (
	ViewManage View = iota
	ViewBrowse
)

// Side picks one of the two manage lists.
type Side int

const (
	SideUnstaged Side = iota
	SideStaged
)

// TUIModel is the session state. Every field is guarded by mu; the controller
// and view take it for each Update and View, and background commands take it
// before touching the collection or browser.
type TUIModel struct {
	mu sync.Mutex

	cfg     *config.Config
	log     *logging.Logger
	cat     Catalog
	metrics *metrics.Manager

	coll    *collection.Collection
	browser *browse.Browser

	categories *selectable.List[catalog.Category]
	unstaged   *selectable.List[collection.Mod]
	staged     *selectable.List[collection.Mod]
	popup      *selectable.List[catalog.File]
	popupPage  *catalog.ModPage // nil while no popup is open
	popupID    int

	windows *cyclic.Filter[Window]
	side    *cyclic.Filter[Side]
	view    View
	filter  string // local fuzzy filter for the manage lists

	busy   string // non-empty while a background operation runs
	status string
	err    error
}

// NewTUIModel loads the collection from store. Network calls made by the
// browser and the collection release the session lock while in flight.
func NewTUIModel(cfg *config.Config, log *logging.Logger, store collection.Store, stager collection.Stager, cat Catalog, m *metrics.Manager) (*TUIModel, error) {
	tm := &TUIModel{
		cfg:        cfg,
		log:        log,
		cat:        cat,
		metrics:    m,
		categories: selectable.New[catalog.Category](),
		unstaged:   selectable.New[collection.Mod](),
		staged:     selectable.New[collection.Mod](),
		popup:      selectable.New[catalog.File](),
		windows:    cyclic.New(WindowSearch, WindowMain, WindowCategory, WindowSection),
		side:       cyclic.New(SideUnstaged, SideStaged),
	}
	coll, err := collection.Load(store, unlockedFetcher{mu: &tm.mu, inner: cat}, stager, log)
	if err != nil {
		return nil, err
	}
	tm.coll = coll.WithMetrics(m)
	tm.browser = browse.New(unlockedSearcher{mu: &tm.mu, inner: cat}, browse.Options{
		GameID:      cfg.Game.ID,
		PerPage:     cfg.Catalog.PerPage,
		NSFW:        cfg.Catalog.NSFW,
		ResultLabel: cfg.UI.ResultLabel,
	}, log)
	tm.windows.Set(WindowMain)
	tm.refreshLocal()
	return tm, nil
}

// unlockedSearcher drops the session lock for the duration of the request so
// the UI keeps rendering. The caller must hold mu.
type unlockedSearcher struct {
	mu    *sync.Mutex
	inner browse.Searcher
}

func (u unlockedSearcher) Search(ctx context.Context, q catalog.Query, page int) ([]catalog.SearchEntry, error) {
	u.mu.Unlock()
	defer u.mu.Lock()
	return u.inner.Search(ctx, q, page)
}

// unlockedFetcher is unlockedSearcher for archive fetches.
type unlockedFetcher struct {
	mu    *sync.Mutex
	inner collection.Fetcher
}

func (u unlockedFetcher) FetchFile(ctx context.Context, f catalog.File) (string, error) {
	u.mu.Unlock()
	defer u.mu.Lock()
	return u.inner.FetchFile(ctx, f)
}

// refreshLocal rebuilds the manage lists from the collection, keeping the
// cursor on the same mod where possible.
func (m *TUIModel) refreshLocal() {
	rebuild := func(l *selectable.List[collection.Mod], mods []collection.Mod) {
		prev, had := l.Select()
		l.Refresh(selectable.Entries(mods, modLabel))
		if had {
			for i, mod := range mods {
				if mod.ID == prev.ID {
					l.SetCursor(i)
					break
				}
			}
		}
		if m.filter != "" {
			l.SetQuery(m.filter)
			l.SelectBestMatch()
		}
	}
	rebuild(m.unstaged, m.coll.Unstaged())
	rebuild(m.staged, m.coll.Staged())
}

func modLabel(mod collection.Mod) string {
	label := fmt.Sprintf("%-8d %s", mod.ID, mod.Name)
	if mod.Character != "" {
		label += " (" + mod.Character + ")"
	}
	if mod.IsNSFW {
		label += " [nsfw]"
	}
	return label
}

// activeLocal is the manage list the cursor is in.
func (m *TUIModel) activeLocal() *selectable.List[collection.Mod] {
	if m.side.Value() == SideStaged {
		return m.staged
	}
	return m.unstaged
}

// setFilter applies the fuzzy filter to both manage lists.
func (m *TUIModel) setFilter(q string) {
	m.filter = strings.TrimSpace(q)
	for _, l := range []*selectable.List[collection.Mod]{m.unstaged, m.staged} {
		l.SetQuery(m.filter)
		l.SelectBestMatch()
	}
}

// toggleSelected stages or unstages the highlighted manage entry and persists.
func (m *TUIModel) toggleSelected() {
	mod, ok := m.activeLocal().Select()
	if !ok {
		return
	}
	if err := m.coll.Toggle(mod.ID); err != nil {
		m.fail(err)
		return
	}
	verb := "staged"
	if mod.Staged {
		verb = "unstaged"
	}
	m.afterMutation(fmt.Sprintf("%s %s", verb, mod.Name))
}

// removeSelected drops the highlighted manage entry and persists.
func (m *TUIModel) removeSelected() {
	mod, ok := m.activeLocal().Select()
	if !ok {
		return
	}
	if err := m.coll.Remove(mod.ID); err != nil {
		m.fail(err)
		return
	}
	m.afterMutation("removed " + mod.Name)
}

func (m *TUIModel) afterMutation(status string) {
	m.refreshLocal()
	if err := m.coll.Persist(); err != nil {
		m.fail(err)
		return
	}
	m.setStatus(status)
}

func (m *TUIModel) setStatus(s string) {
	m.status = s
	m.err = nil
}

// fail records err for the status bar. Errors never end the session.
func (m *TUIModel) fail(err error) {
	m.metrics.IncErrors()
	m.log.Warnf("%v", err)
	m.err = err
	m.status = ""
}

// errorText is the one-line status bar form of the current error.
func (m *TUIModel) errorText() string {
	if m.err == nil {
		return ""
	}
	fe := ggerr.Friendly(m.err)
	if fe.Suggestion == "" {
		return fe.Message
	}
	first, _, _ := strings.Cut(fe.Suggestion, "\n")
	return fe.Message + ": " + first
}

func (m *TUIModel) closePopup() {
	m.popup.Clear()
	m.popupPage = nil
	m.popupID = 0
}

// Persist saves the collection; called on orderly shutdown.
func (m *TUIModel) Persist() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.coll.Persist()
}

package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jxwalker/ggmod/internal/catalog"
	"github.com/jxwalker/ggmod/internal/selectable"
	"golang.org/x/sync/errgroup"
)

// startupCmd loads the category picker and the first results page
// concurrently.
func (m *TUIModel) startupCmd(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			cats, err := m.cat.Categories(gctx, m.cfg.Game.CategoryRoot)
			if err != nil {
				return err
			}
			m.mu.Lock()
			m.categories.Refresh(selectable.Entries(cats, func(c catalog.Category) string { return c.Name }))
			m.mu.Unlock()
			return nil
		})
		g.Go(func() error {
			m.mu.Lock()
			defer m.mu.Unlock()
			return m.browser.Search(gctx)
		})
		return startupDoneMsg{err: g.Wait()}
	}
}

// browseCmd runs one browser operation (search or paging) in the background.
func (m *TUIModel) browseCmd(ctx context.Context, op func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		m.mu.Lock()
		defer m.mu.Unlock()
		return searchDoneMsg{err: op(ctx)}
	}
}

// modPageCmd loads the file variants of a search result for the popup.
func (m *TUIModel) modPageCmd(ctx context.Context, e catalog.SearchEntry) tea.Cmd {
	return func() tea.Msg {
		page, err := m.cat.ModPage(ctx, e.Row)
		return popupMsg{entry: e, page: page, err: err}
	}
}

// registerCmd fetches the chosen file variant and adds the mod.
func (m *TUIModel) registerCmd(ctx context.Context, page *catalog.ModPage, id, fileIndex int) tea.Cmd {
	return func() tea.Msg {
		m.mu.Lock()
		defer m.mu.Unlock()
		err := m.coll.RegisterOnlineMod(ctx, page, id, fileIndex)
		return registerDoneMsg{id: id, name: page.Name, err: err}
	}
}

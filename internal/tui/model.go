package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jxwalker/ggmod/internal/catalog"
	"github.com/jxwalker/ggmod/internal/collection"
	"github.com/jxwalker/ggmod/internal/config"
	"github.com/jxwalker/ggmod/internal/logging"
	"github.com/jxwalker/ggmod/internal/metrics"
)

type model struct {
	tuiModel      *TUIModel
	tuiView       *TUIView
	tuiController *TUIController
}

type startupDoneMsg struct{ err error }

type searchDoneMsg struct{ err error }

type popupMsg struct {
	entry catalog.SearchEntry
	page  *catalog.ModPage
	err   error
}

type registerDoneMsg struct {
	id   int
	name string
	err  error
}

// New creates a new TUI model that implements the tea.Model interface.
// It orchestrates the MVC components: TUIModel, TUIView, and TUIController.
// Background requests are bound to ctx.
func New(ctx context.Context, cfg *config.Config, log *logging.Logger, store collection.Store, stager collection.Stager, cat Catalog, m *metrics.Manager) (tea.Model, error) {
	tuiModel, err := NewTUIModel(cfg, log, store, stager, cat, m)
	if err != nil {
		return nil, err
	}
	tuiView := NewTUIView()
	tuiController := NewTUIController(tuiModel, tuiView)
	tuiController.SetContext(ctx)

	md := &model{
		tuiModel:      tuiModel,
		tuiView:       tuiView,
		tuiController: tuiController,
	}
	tuiController.SetModel(md)
	return md, nil
}

func (m *model) Init() tea.Cmd {
	return m.tuiController.Init()
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return m.tuiController.Update(msg)
}

func (m *model) View() string {
	m.tuiModel.mu.Lock()
	defer m.tuiModel.mu.Unlock()
	return m.tuiView.View(m.tuiModel, m.tuiController)
}

// Session exposes the state behind a model returned by New.
func Session(tm tea.Model) *TUIModel {
	if md, ok := tm.(*model); ok {
		return md.tuiModel
	}
	return nil
}

package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/jxwalker/ggmod/internal/catalog"
	"github.com/jxwalker/ggmod/internal/selectable"
)

type TUIController struct {
	model     *TUIModel
	view      *TUIView
	teaModel  tea.Model
	ctx       context.Context
	input     textinput.Model
	spin      spinner.Model
	showHelp  bool
	quitting  bool
	persisted bool
}

func NewTUIController(model *TUIModel, view *TUIView) *TUIController {
	ti := textinput.New()
	ti.Placeholder = "name"
	ti.Prompt = "/ "
	ti.CharLimit = 128
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return &TUIController{
		model: model,
		view:  view,
		ctx:   context.Background(),
		input: ti,
		spin:  sp,
	}
}

// SetModel stores the tea.Model handed back from Update.
func (c *TUIController) SetModel(m tea.Model) { c.teaModel = m }

// SetContext bounds every background request; cancel it to abandon them.
func (c *TUIController) SetContext(ctx context.Context) { c.ctx = ctx }

func (c *TUIController) Init() tea.Cmd {
	c.model.mu.Lock()
	defer c.model.mu.Unlock()
	c.model.busy = "loading"
	return tea.Batch(c.model.startupCmd(c.ctx), c.spin.Tick)
}

func (c *TUIController) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	c.model.mu.Lock()
	defer c.model.mu.Unlock()

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		c.view.SetSize(msg.Width, msg.Height)
		return c.teaModel, nil
	case tea.KeyMsg:
		return c.handleKeyMsg(msg)
	case spinner.TickMsg:
		if c.model.busy == "" {
			return c.teaModel, nil
		}
		var cmd tea.Cmd
		c.spin, cmd = c.spin.Update(msg)
		return c.teaModel, cmd
	case startupDoneMsg:
		c.model.busy = ""
		if msg.err != nil {
			c.model.fail(msg.err)
		} else {
			c.model.setStatus(fmt.Sprintf("%d mods registered", c.model.coll.Len()))
		}
	case searchDoneMsg:
		c.model.busy = ""
		if msg.err != nil {
			c.model.fail(msg.err)
		} else {
			c.input.SetValue("")
			st := c.model.browser.State()
			c.model.setStatus(fmt.Sprintf("page %d: %d results", st.Page, c.model.browser.Results.Len()))
		}
	case popupMsg:
		c.model.busy = ""
		if msg.err != nil {
			c.model.fail(msg.err)
			break
		}
		c.model.popupPage = msg.page
		c.model.popupID = msg.entry.Row
		c.model.popup.Refresh(selectable.Entries(msg.page.Files, catalog.File.Label))
		c.model.popup.Next()
		c.model.setStatus(fmt.Sprintf("%s: %d files", msg.page.Name, len(msg.page.Files)))
	case registerDoneMsg:
		c.model.busy = ""
		if msg.err != nil {
			c.model.fail(msg.err)
			break
		}
		c.model.closePopup()
		c.model.afterMutation("registered " + msg.name)
	}
	return c.teaModel, nil
}

func (c *TUIController) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return c.quit()
	}
	if c.showHelp {
		return c.handleHelpKeys(msg)
	}
	if c.model.popupPage != nil {
		return c.handlePopupKeys(msg)
	}
	if c.model.windows.Value() == WindowSearch {
		return c.handleSearchKeys(msg)
	}
	return c.handleNormalKeys(msg)
}

func (c *TUIController) quit() (tea.Model, tea.Cmd) {
	c.quitting = true
	if !c.persisted {
		if err := c.model.coll.Persist(); err != nil {
			c.model.log.Errorf("persist on quit: %v", err)
		}
		c.persisted = true
	}
	return c.teaModel, tea.Quit
}

func (c *TUIController) handleHelpKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "?", "esc", "q":
		c.showHelp = false
	}
	return c.teaModel, nil
}

// handleNormalKeys covers every window except Search.
func (c *TUIController) handleNormalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m := c.model
	switch msg.String() {
	case "q":
		return c.quit()
	case "?":
		c.showHelp = true
		return c.teaModel, nil
	case "tab":
		c.focus(cycleNext)
		return c.teaModel, nil
	case "shift+tab":
		c.focus(cyclePrev)
		return c.teaModel, nil
	case "1", "2", "3", "4":
		c.focusWindow(Window(msg.String()[0] - '1'))
		return c.teaModel, nil
	case "H":
		m.view = ViewManage
		return c.teaModel, nil
	case "L":
		m.view = ViewBrowse
		return c.teaModel, nil
	case "/":
		c.focusWindow(WindowSearch)
		return c.teaModel, nil
	case "left", "right":
		return c.teaModel, c.cycleSort(msg.String() == "left")
	}

	switch m.windows.Value() {
	case WindowCategory:
		return c.handleCategoryKeys(msg)
	case WindowSection:
		return c.handleSectionKeys(msg)
	}
	if m.view == ViewBrowse {
		return c.handleBrowseKeys(msg)
	}
	return c.handleManageKeys(msg)
}

func (c *TUIController) handleManageKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m := c.model
	switch msg.String() {
	case "j", "down":
		m.activeLocal().Next()
	case "k", "up":
		m.activeLocal().Previous()
	case "h":
		m.side.Set(SideUnstaged)
	case "l":
		m.side.Set(SideStaged)
	case "enter", " ":
		m.toggleSelected()
	case "d", "delete":
		m.removeSelected()
	case "esc":
		m.setFilter("")
	}
	return c.teaModel, nil
}

func (c *TUIController) handleBrowseKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m := c.model
	switch msg.String() {
	case "j", "down":
		m.browser.Next()
	case "k", "up":
		m.browser.Previous()
	case "n", "pgdown":
		return c.teaModel, c.background("loading page", func() tea.Cmd {
			return m.browseCmd(c.ctx, m.browser.NextPage)
		})
	case "p", "pgup":
		return c.teaModel, c.background("loading page", func() tea.Cmd {
			return m.browseCmd(c.ctx, m.browser.PrevPage)
		})
	case "r":
		return c.teaModel, c.search()
	case "enter":
		e, ok := m.browser.Select()
		if !ok {
			return c.teaModel, nil
		}
		if m.coll.Contains(e.Row) {
			m.setStatus(e.Name + " is already registered")
			return c.teaModel, nil
		}
		return c.teaModel, c.background("loading "+e.Name, func() tea.Cmd {
			return m.modPageCmd(c.ctx, e)
		})
	}
	return c.teaModel, nil
}

func (c *TUIController) handleCategoryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m := c.model
	switch msg.String() {
	case "j", "down":
		m.categories.Next()
	case "k", "up":
		m.categories.Previous()
	case "enter":
		cat, ok := m.categories.Select()
		if !ok || !c.idle() {
			return c.teaModel, nil
		}
		m.browser.SetCategory(cat.Row)
		m.view = ViewBrowse
		return c.teaModel, c.search()
	case "x", "esc":
		if !c.idle() {
			return c.teaModel, nil
		}
		m.browser.ClearCategory()
		m.categories.SetCursor(-1)
		return c.teaModel, c.search()
	}
	return c.teaModel, nil
}

func (c *TUIController) handleSectionKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	b := c.model.browser
	switch msg.String() {
	case "j", "down", "enter", "k", "up":
		if !c.idle() {
			return c.teaModel, nil
		}
	}
	switch msg.String() {
	case "j", "down", "enter":
		b.CycleType()
	case "k", "up":
		b.Type.CycleBack()
		b.Page = 1
	default:
		return c.teaModel, nil
	}
	c.model.view = ViewBrowse
	return c.teaModel, c.search()
}

// handleSearchKeys edits the name query in Browse and the local filter in
// Manage.
func (c *TUIController) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m := c.model
	switch msg.String() {
	case "esc":
		c.focusWindow(WindowMain)
		return c.teaModel, nil
	case "tab":
		c.focus(cycleNext)
		return c.teaModel, nil
	case "shift+tab":
		c.focus(cyclePrev)
		return c.teaModel, nil
	case "left", "right":
		return c.teaModel, c.cycleSort(msg.String() == "left")
	case "enter":
		if m.view == ViewManage {
			c.focusWindow(WindowMain)
			return c.teaModel, nil
		}
		if !c.idle() {
			return c.teaModel, nil
		}
		m.browser.Page = 1
		return c.teaModel, c.search()
	}

	var cmd tea.Cmd
	c.input, cmd = c.input.Update(msg)
	if m.view == ViewManage {
		m.setFilter(c.input.Value())
	} else {
		m.browser.Results.SetQuery(c.input.Value())
	}
	return c.teaModel, cmd
}

func (c *TUIController) handlePopupKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m := c.model
	switch msg.String() {
	case "j", "down":
		m.popup.Next()
	case "k", "up":
		m.popup.Previous()
	case "esc", "q":
		m.closePopup()
	case "enter":
		page, id, idx := m.popupPage, m.popupID, m.popup.Cursor()
		if idx < 0 {
			return c.teaModel, nil
		}
		return c.teaModel, c.background("downloading "+m.popup.SelectedLabel(), func() tea.Cmd {
			return m.registerCmd(c.ctx, page, id, idx)
		})
	}
	return c.teaModel, nil
}

type direction int

const (
	cycleNext direction = iota
	cyclePrev
)

func (c *TUIController) focus(d direction) {
	if d == cyclePrev {
		c.model.windows.CycleBack()
	} else {
		c.model.windows.Cycle()
	}
	c.syncInput()
}

func (c *TUIController) focusWindow(w Window) {
	c.model.windows.CycleTo(w)
	c.syncInput()
}

// syncInput focuses the text input only while the Search window has focus.
func (c *TUIController) syncInput() {
	if c.model.windows.Value() != WindowSearch {
		c.input.Blur()
		return
	}
	if c.model.view == ViewManage {
		c.input.SetValue(c.model.filter)
	} else {
		c.input.SetValue(c.model.browser.Results.Query())
	}
	c.input.CursorEnd()
	c.input.Focus()
}

// cycleSort changes the sort order and searches again. Filters stay frozen
// while a request is in flight so the header always matches the results.
func (c *TUIController) cycleSort(back bool) tea.Cmd {
	if !c.idle() {
		return nil
	}
	c.model.browser.CycleSort(back)
	return c.search()
}

// idle reports whether no background operation is running, noting on the
// status line when one is.
func (c *TUIController) idle() bool {
	if c.model.busy != "" {
		c.model.setStatus("busy: " + c.model.busy)
		return false
	}
	return true
}

func (c *TUIController) search() tea.Cmd {
	return c.background("searching", func() tea.Cmd {
		return c.model.browseCmd(c.ctx, c.model.browser.Search)
	})
}

// background starts one network operation unless another is still running.
func (c *TUIController) background(label string, start func() tea.Cmd) tea.Cmd {
	if !c.idle() {
		return nil
	}
	c.model.busy = label
	return tea.Batch(start(), c.spin.Tick)
}

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/jxwalker/ggmod/internal/catalog"
	"github.com/jxwalker/ggmod/internal/cyclic"
)

type TUIView struct {
	th     Theme
	width  int
	height int
}

func NewTUIView() *TUIView {
	return &TUIView{th: defaultTheme()}
}

func (v *TUIView) SetSize(width, height int) {
	v.width = width
	v.height = height
}

// View renders the whole screen. The caller holds the session lock.
func (v *TUIView) View(m *TUIModel, c *TUIController) string {
	if v.width == 0 {
		return "Loading..."
	}
	if c.quitting {
		return ""
	}
	var b strings.Builder
	b.WriteString(v.renderHeader(m))
	b.WriteString("\n")
	if c.showHelp {
		b.WriteString(v.helpView())
		return b.String()
	}
	b.WriteString(v.box(m, WindowSearch, v.width-2, v.searchView(m, c)))
	b.WriteString("\n")

	side := v.width / 4
	if side < 20 {
		side = 20
	}
	mainW := v.width - side - 4
	rows := v.listHeight()

	left := lipgloss.JoinVertical(lipgloss.Left,
		v.box(m, WindowCategory, side, v.categoryView(m, rows/2)),
		v.box(m, WindowSection, side, v.sectionView(m)),
	)
	var main string
	switch {
	case m.popupPage != nil:
		main = v.popupView(m, mainW, rows)
	case m.view == ViewBrowse:
		main = v.browseView(m, mainW, rows)
	default:
		main = v.manageView(m, mainW, rows)
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, v.box(m, WindowMain, mainW, main)))
	b.WriteString("\n")
	b.WriteString(v.statusView(m, c))
	b.WriteString("\n")
	b.WriteString(v.th.footer.Render("tab/1-4 focus • H/L manage/browse • ←/→ sort • enter select • d remove • / filter • ? help • q quit"))
	return b.String()
}

func (v *TUIView) listHeight() int {
	h := v.height - 12
	if h < 5 {
		h = 5
	}
	return h
}

func (v *TUIView) renderHeader(m *TUIModel) string {
	tab := func(name string, on bool) string {
		if on {
			return v.th.tabActive.Render("[" + name + "]")
		}
		return v.th.tabInactive.Render(" " + name + " ")
	}
	return v.th.title.Render("ggmod") + "  " +
		tab("Manage", m.view == ViewManage) + " " + tab("Browse", m.view == ViewBrowse) +
		v.th.label.Render(fmt.Sprintf("   %d mods, %d staged", m.coll.Len(), len(m.coll.Staged())))
}

func (v *TUIView) box(m *TUIModel, w Window, width int, body string) string {
	st := v.th.border
	if m.windows.Value() == w {
		st = v.th.focused
	}
	return st.Width(width).Render(v.th.label.Render(w.String()) + "\n" + body)
}

func (v *TUIView) searchView(m *TUIModel, c *TUIController) string {
	st := m.browser.State()
	filters := fmt.Sprintf("sort: %s  type: %s  page: %d", st.Sort, st.Type, st.Page)
	if st.Category != nil && *st.Category != 0 {
		if cat, ok := m.categories.Select(); ok {
			filters += "  category: " + cat.Name
		}
	}
	return c.input.View() + "\n" + v.th.label.Render(filters)
}

func (v *TUIView) categoryView(m *TUIModel, rows int) string {
	if m.categories.IsEmpty() {
		return v.th.label.Render("(no categories)")
	}
	return v.renderRows(m.categories.Labels(), m.categories.Cursor(), rows, 0)
}

func (v *TUIView) sectionView(m *TUIModel) string {
	return v.renderCycle(m.browser.Type)
}

func (v *TUIView) renderCycle(f *cyclic.Filter[catalog.ModType]) string {
	var lines []string
	for i, t := range f.Variants() {
		if i == f.Index() {
			lines = append(lines, v.th.rowSelected.Render("> "+t.String()))
		} else {
			lines = append(lines, v.th.row.Render("  "+t.String()))
		}
	}
	return strings.Join(lines, "\n")
}

func (v *TUIView) browseView(m *TUIModel, width, rows int) string {
	r := m.browser.Results
	if r.IsEmpty() {
		return v.th.label.Render("no results")
	}
	labels := r.Labels()
	for i, e := range r.Values() {
		if m.coll.Contains(e.Row) {
			labels[i] = "✓ " + labels[i]
		} else {
			labels[i] = "  " + labels[i]
		}
	}
	out := v.renderRows(labels, r.Cursor(), rows-2, width)
	if e, ok := r.Select(); ok {
		out += "\n" + v.th.label.Render(fmt.Sprintf("%s • %s downloads • %s likes • by %s",
			e.Category.Name, humanize.Comma(int64(e.DownloadCount)), humanize.Comma(int64(e.LikeCount)), e.Submitter.Name))
	}
	return out
}

func (v *TUIView) manageView(m *TUIModel, width, rows int) string {
	half := (width - 3) / 2
	col := func(title string, side Side) string {
		l := m.unstaged
		if side == SideStaged {
			l = m.staged
		}
		head := v.th.tabInactive.Render(title)
		if m.side.Value() == side {
			head = v.th.tabActive.Render(title)
		}
		cursor := -1
		if m.side.Value() == side {
			cursor = l.Cursor()
		}
		body := v.th.label.Render("(empty)")
		if !l.IsEmpty() {
			body = v.renderRows(l.Labels(), cursor, rows-1, half)
		}
		return lipgloss.NewStyle().Width(half).Render(head + "\n" + body)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		col(fmt.Sprintf("Unstaged (%d)", m.unstaged.Len()), SideUnstaged), " │ ",
		col(fmt.Sprintf("Staged (%d)", m.staged.Len()), SideStaged))
}

func (v *TUIView) popupView(m *TUIModel, width, rows int) string {
	head := v.th.title.Render(m.popupPage.Name) + "\n" + v.th.label.Render("choose a file (enter to download, esc to cancel)")
	labels := m.popup.Labels()
	for i, f := range m.popup.Values() {
		labels[i] += "  " + humanize.Bytes(uint64(f.Filesize))
	}
	return head + "\n" + v.renderRows(labels, m.popup.Cursor(), rows-2, width)
}

func (v *TUIView) statusView(m *TUIModel, c *TUIController) string {
	if m.busy != "" {
		return c.spin.View() + " " + m.busy
	}
	if t := m.errorText(); t != "" {
		return v.th.bad.Render("✗ " + t)
	}
	if m.status != "" {
		return v.th.ok.Render(m.status)
	}
	return ""
}

func (v *TUIView) renderRows(labels []string, cursor, rows, width int) string {
	start, end := window(len(labels), cursor, rows)
	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		s := labels[i]
		if width > 4 {
			s = truncateMiddle(s, width-2)
		}
		if i == cursor {
			lines = append(lines, v.th.rowSelected.Render("> "+s))
		} else {
			lines = append(lines, v.th.row.Render("  "+s))
		}
	}
	return strings.Join(lines, "\n")
}

func (v *TUIView) helpView() string {
	var b strings.Builder
	b.WriteString(v.th.title.Render("Keys") + "\n")
	rows := [][2]string{
		{"tab / shift+tab", "next / previous window"},
		{"1 2 3 4", "Search, Main, Category, Section"},
		{"H / L", "manage / browse view"},
		{"← / →", "cycle sort order"},
		{"j / k", "move down / up"},
		{"enter", "open result, download file, toggle staging"},
		{"h / l", "unstaged / staged list (manage)"},
		{"d", "remove mod (manage)"},
		{"n / p", "next / previous page (browse)"},
		{"x", "clear category (category window)"},
		{"/", "type a name query or filter"},
		{"q", "quit"},
	}
	for _, r := range rows {
		b.WriteString(fmt.Sprintf("  %-18s %s\n", r[0], r[1]))
	}
	return b.String()
}

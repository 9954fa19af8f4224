package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	datagrid "github.com/goliatone/go-datagrid"
)

const helpLine = "j/k move  ←/→ page  / search  space select  enter group  v view  E/C expand/collapse  1-9 sort  D delete  B bulk  r refresh  q quit"

// Model is the Bubble Tea model for one grid.
type Model struct {
	ctx     context.Context
	grid    *datagrid.Grid
	idField string
	styles  styles

	view   datagrid.View
	loaded bool
	lines  []line

	table     table.Model
	search    textinput.Model
	searching bool

	notice noticeMsg
	width  int
	height int
}

// New builds a model over grid. The grid is expected to render through a
// Bridge attached to the same program.
func New(ctx context.Context, grid *datagrid.Grid) Model {
	if ctx == nil {
		ctx = context.Background()
	}
	st := defaultStyles()

	ti := textinput.New()
	ti.Placeholder = "search"
	ti.Prompt = "/ "
	ti.CharLimit = 128
	ti.SetValue(grid.State().Search)

	tbl := table.New(table.WithFocused(true), table.WithHeight(15))
	tbl.SetStyles(st.Table)

	m := Model{
		ctx:     ctx,
		grid:    grid,
		idField: grid.Config().IDField,
		styles:  st,
		table:   tbl,
		search:  ti,
		view:    grid.View(),
	}
	m.relayout()
	return m
}

func (m Model) Init() tea.Cmd {
	return m.run(m.grid.Refresh)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetHeight(max(msg.Height-6, 3))
		m.relayout()
		return m, nil

	case viewMsg:
		m.view = datagrid.View(msg)
		m.loaded = true
		m.relayout()
		return m, nil

	case noticeMsg:
		m.notice = msg
		return m, nil

	case errMsg:
		if datagrid.IsCancellation(msg.err) || errors.Is(msg.err, datagrid.ErrGridClosed) {
			return m, nil
		}
		m.notice = noticeMsg{severity: datagrid.SeverityWarning, message: msg.err.Error()}
		return m, nil

	case tea.KeyMsg:
		if m.searching {
			return m.handleSearchKey(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.searching = false
		m.search.Blur()
		return m, nil
	case "enter":
		m.searching = false
		m.search.Blur()
		term := m.search.Value()
		return m, m.run(func(ctx context.Context) error { return m.grid.SetSearch(ctx, term) })
	}
	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if after := m.search.Value(); after != before {
		m.grid.SearchInput(after)
	}
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "/":
		m.searching = true
		return m, m.search.Focus()
	case "right", "n":
		return m, m.run(m.grid.NextPage)
	case "left", "p":
		return m, m.run(m.grid.PrevPage)
	case "r":
		return m, m.run(m.grid.Refresh)
	case "v":
		mode := datagrid.ViewGrouped
		if m.view.Mode == datagrid.ViewGrouped {
			mode = datagrid.ViewFlat
		}
		return m, m.run(func(ctx context.Context) error { return m.grid.SetViewMode(ctx, mode) })
	case "E":
		return m, m.run(m.grid.ExpandAllGroups)
	case "C":
		return m, m.run(m.grid.CollapseAllGroups)
	case "a":
		m.grid.SelectAllOnPage()
		m.syncSelection()
		return m, nil
	case "x":
		m.grid.ClearSelection()
		m.syncSelection()
		return m, nil
	case " ", "enter":
		current, ok := m.cursorLine()
		if !ok {
			return m, nil
		}
		if current.group != "" {
			group := current.group
			return m, m.run(func(ctx context.Context) error { return m.grid.ToggleGroup(ctx, group) })
		}
		if key == " " && current.row != "" {
			m.grid.ToggleRow(current.row)
			m.syncSelection()
		}
		return m, nil
	case "D":
		current, ok := m.cursorLine()
		if !ok || current.row == "" {
			return m, nil
		}
		id := current.row
		return m, m.run(func(ctx context.Context) error { return m.grid.DeleteRow(ctx, id) })
	case "B":
		actions := m.grid.BulkActions()
		if len(actions) == 0 {
			m.notice = noticeMsg{severity: datagrid.SeverityInfo, message: "no bulk actions registered"}
			return m, nil
		}
		name := actions[0].Name
		return m, m.run(func(ctx context.Context) error { return m.grid.ExecuteBulkAction(ctx, name) })
	}

	if idx, err := strconv.Atoi(key); err == nil && idx >= 1 && idx <= len(m.view.Columns) {
		field := m.view.Columns[idx-1].Field
		return m, m.run(func(ctx context.Context) error { return m.grid.ToggleSort(ctx, field, false) })
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// run executes op off the event loop and reports failures as errMsg.
func (m Model) run(op func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		if err := op(ctx); err != nil {
			return errMsg{err: err}
		}
		return nil
	}
}

// syncSelection pulls the selection, which changes without a render.
func (m *Model) syncSelection() {
	m.view.Selected = m.grid.View().Selected
	m.relayout()
}

func (m Model) cursorLine() (line, bool) {
	cursor := m.table.Cursor()
	if cursor < 0 || cursor >= len(m.lines) {
		return line{}, false
	}
	return m.lines[cursor], true
}

func (m *Model) relayout() {
	columns, rows, lines := layout(m.view, m.idField, m.width)
	cursor := m.table.Cursor()
	m.table.SetRows(nil)
	m.table.SetColumns(columns)
	m.table.SetRows(rows)
	m.lines = lines
	if cursor >= len(rows) {
		cursor = len(rows) - 1
	}
	m.table.SetCursor(max(cursor, 0))
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render(m.view.Panel))
	b.WriteString("  ")
	b.WriteString(m.styles.Muted.Render(m.summary()))
	b.WriteString("\n")

	if m.searching || m.search.Value() != "" {
		b.WriteString(m.styles.Search.Render(m.search.View()))
		b.WriteString("\n")
	}

	if !m.loaded && len(m.lines) == 0 {
		b.WriteString(m.styles.Muted.Render("loading..."))
	} else {
		b.WriteString(m.table.View())
	}
	b.WriteString("\n")

	if m.notice.message != "" {
		b.WriteString(m.noticeStyle().Render(m.notice.message))
		b.WriteString("\n")
	}
	b.WriteString(m.styles.Muted.Render(helpLine))
	return b.String()
}

func (m Model) summary() string {
	parts := []string{string(m.view.Mode)}
	if m.view.TotalPages > 0 {
		parts = append(parts, fmt.Sprintf("page %d/%d", m.view.Page, m.view.TotalPages))
	} else {
		parts = append(parts, fmt.Sprintf("page %d", m.view.Page))
	}
	if m.view.TotalRows != nil {
		parts = append(parts, fmt.Sprintf("%d rows", *m.view.TotalRows))
	}
	if n := len(m.view.Selected); n > 0 {
		parts = append(parts, fmt.Sprintf("%d selected", n))
	}
	for _, entry := range m.view.Sort {
		parts = append(parts, fmt.Sprintf("%s %s", entry.Field, entry.Direction))
	}
	return strings.Join(parts, " · ")
}

func (m Model) noticeStyle() lipgloss.Style {
	switch m.notice.severity {
	case datagrid.SeverityError:
		return m.styles.Danger
	case datagrid.SeverityWarning:
		return m.styles.Warning
	default:
		return m.styles.Info
	}
}

// Run browses grid until the user quits. bridge must be the renderer and
// notifier grid was built with.
func Run(ctx context.Context, grid *datagrid.Grid, bridge *Bridge) error {
	if ctx == nil {
		ctx = context.Background()
	}
	p := tea.NewProgram(New(ctx, grid), tea.WithAltScreen(), tea.WithContext(ctx))
	bridge.Attach(p.Send)
	defer bridge.Detach()
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

package datagrid

import (
	"context"
	"strings"
	"sync"
)

// GroupView is a group as rendered: the payload group plus its resolved
// expansion.
type GroupView struct {
	Group
	Expanded bool
}

// View is everything a renderer needs for one frame. It is a detached copy.
type View struct {
	GridID     string
	Panel      string
	Mode       ViewMode
	Columns    []Column
	Rows       []Row
	Groups     []GroupView
	Page       int
	PerPage    int
	TotalPages int
	TotalRows  *int
	Selected   []string
	Search     string
	Sort       []SortField
	Filters    []Filter
}

// Renderer draws a View. It is called once per applied response.
type Renderer interface {
	Render(ctx context.Context, view View) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(ctx context.Context, view View) error

func (fn RendererFunc) Render(ctx context.Context, view View) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, view)
}

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notifier shows a message to the user (toast, status line).
type Notifier interface {
	Notify(ctx context.Context, severity Severity, message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, severity Severity, message string)

func (fn NotifierFunc) Notify(ctx context.Context, severity Severity, message string) {
	if fn != nil {
		fn(ctx, severity, message)
	}
}

// History abstracts the address bar: the current query string (without
// "?"), Push for user-driven changes and Replace during restoration.
type History interface {
	Current() string
	Push(query string)
	Replace(query string)
}

// MemoryHistory is an in-process History that records every entry.
type MemoryHistory struct {
	mu       sync.Mutex
	entries  []string
	pushes   int
	replaces int
}

// NewMemoryHistory starts with initial as the current entry. A leading "?" is
// dropped.
func NewMemoryHistory(initial string) *MemoryHistory {
	return &MemoryHistory{entries: []string{strings.TrimPrefix(initial, "?")}}
}

func (h *MemoryHistory) Current() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.entries) == 0 {
		return ""
	}
	return h.entries[len(h.entries)-1]
}

func (h *MemoryHistory) Push(query string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, query)
	h.pushes++
}

func (h *MemoryHistory) Replace(query string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.entries) == 0 {
		h.entries = append(h.entries, query)
	} else {
		h.entries[len(h.entries)-1] = query
	}
	h.replaces++
}

// Entries returns every history entry, oldest first.
func (h *MemoryHistory) Entries() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.entries...)
}

// Counts returns the number of Push and Replace calls.
func (h *MemoryHistory) Counts() (pushes, replaces int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pushes, h.replaces
}

type noopRenderer struct{}

func (noopRenderer) Render(context.Context, View) error { return nil }

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, Severity, string) {}

// buildView projects state into a View. The caller holds g.mu.
func (g *Grid) buildView(rows []Row) View {
	state := g.state
	view := View{
		GridID:     g.id,
		Panel:      g.cfg.PanelID,
		Mode:       state.ViewMode,
		Rows:       append([]Row(nil), rows...),
		Page:       state.CurrentPage,
		PerPage:    state.PerPage,
		TotalPages: state.TotalPages(),
		TotalRows:  cloneIntPtr(state.TotalRows),
		Selected:   state.SelectedRows.Sorted(),
		Search:     state.Search,
		Sort:       append([]SortField(nil), state.Sort...),
		Filters:    append([]Filter(nil), state.Filters...),
	}
	for _, field := range state.VisibleColumns() {
		if column, ok := g.cfg.Column(field); ok {
			view.Columns = append(view.Columns, column)
		}
	}
	if state.ViewMode == ViewGrouped && state.GroupedData != nil {
		for _, group := range state.GroupedData.Groups {
			view.Groups = append(view.Groups, GroupView{Group: group, Expanded: resolveExpanded(state, group)})
		}
	}
	return view
}


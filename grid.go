package datagrid

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/goliatone/go-datagrid/layering"
	"github.com/goliatone/go-datagrid/pkg/activity"
	"github.com/goliatone/go-datagrid/pkg/rules"
	"github.com/goliatone/go-datagrid/pkg/state"
	"github.com/google/uuid"
)

// Grid is one configured data table with its own GridState. All methods are
// safe for concurrent use.
type Grid struct {
	id  string
	cfg Config
	ref state.Ref

	codec     *URLCodec
	store     state.Store[Snapshot]
	history   History
	transport Transport
	renderer  Renderer
	notifier  Notifier
	logger    Logger
	behaviors Behaviors
	emitter   *activity.Emitter
	actor     Actor
	rules     *rules.Runner
	bulk      map[string]BulkAction
	bulkOrder []string

	ctx    context.Context
	cancel context.CancelFunc

	mu              sync.Mutex
	state           GridState
	rows            []Row
	persisted       Snapshot
	meta            state.Meta
	provenance      layering.Provenance
	hasURLOverrides bool
	expandDirty     bool
	viewDirty       bool
	closed          bool

	fetch    fetchController
	saves    saveQueue
	search   *debouncer
	hydrated chan struct{}
}

// New builds a grid from cfg: it loads the persisted snapshot, runs the
// legacy migration when the store exposes legacy entries, decodes the
// current URL and reconciles the three. When the store can hydrate and the
// URL carried no override, hydration runs in the background and ends with a
// URL replace and a Refresh. New does not fetch; call Refresh.
func New(ctx context.Context, cfg Config, opts ...Option) (*Grid, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	options := gridConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	g := &Grid{
		id:        uuid.NewString(),
		cfg:       cfg,
		ref:       state.Ref{Panel: cfg.PanelID, Owner: cfg.OwnerID},
		codec:     NewURLCodec(cfg),
		store:     options.store,
		history:   options.history,
		transport: options.transport,
		renderer:  options.renderer,
		notifier:  options.notifier,
		logger:    options.logger,
		behaviors: DefaultBehaviors(),
		actor:     options.actor,
		bulk:      map[string]BulkAction{},
		search:    newDebouncer(cfg.SearchDebounce.Std()),
		hydrated:  make(chan struct{}),
	}
	if g.store == nil {
		g.store = state.NewMemoryStore[Snapshot]()
	}
	if g.history == nil {
		g.history = NewMemoryHistory("")
	}
	if g.transport == nil {
		g.transport = &HTTPTransport{}
	}
	if g.renderer == nil {
		g.renderer = noopRenderer{}
	}
	if g.notifier == nil {
		g.notifier = noopNotifier{}
	}
	if g.logger == nil {
		g.logger = noopLogger{}
	}
	if options.behaviors != nil {
		g.behaviors = *options.behaviors
	}
	if g.behaviors.BulkAction == nil {
		g.behaviors.BulkAction = TransportBulkAction{Endpoint: cfg.APIEndpoint, Transport: g.transport}
	}
	g.emitter = activity.NewEmitter(options.hooks, cfg.Activity)

	ruleOpts := []rules.Option{
		rules.WithScopeName(cfg.PanelID),
		rules.WithEvaluatorLogger(evaluatorLogger(g.logger, cfg.PanelID)),
	}
	if options.evaluator != nil {
		ruleOpts = append(ruleOpts, rules.WithEvaluator(options.evaluator))
	}
	g.rules = rules.NewRunner(ruleOpts...)

	for _, action := range options.bulk {
		name := strings.TrimSpace(action.Name)
		if name == "" {
			return nil, fmt.Errorf("datagrid: bulk action name is required")
		}
		action.Name = name
		if _, ok := g.bulk[name]; !ok {
			g.bulkOrder = append(g.bulkOrder, name)
		}
		g.bulk[name] = action
	}

	g.ctx, g.cancel = context.WithCancel(context.WithoutCancel(ctx))

	persisted := g.loadPersisted(ctx)
	query := g.history.Current()
	urlPatch, err := g.codec.Decode(query)
	if err != nil {
		g.logger.Warn("datagrid: ignoring malformed url state", "panel", cfg.PanelID, "error", err)
	}
	rec := reconcile(cfg, persisted, nil, urlPatch)
	g.state = rec.state
	g.provenance = rec.provenance
	g.hasURLOverrides = rec.hasURLOverrides || g.codec.HasOverrides(query)
	if persisted != nil {
		g.persisted = layering.Clone(*persisted)
	}

	hydrator, ok := g.store.(state.Hydrator)
	if ok && !g.hasURLOverrides {
		go g.hydrate(hydrator)
	} else {
		close(g.hydrated)
	}
	return g, nil
}

func (g *Grid) loadPersisted(ctx context.Context) *Snapshot {
	var persisted *Snapshot
	snapshot, meta, ok, err := g.store.Load(ctx, g.ref)
	switch {
	case err != nil:
		g.logger.Warn("datagrid: ignoring unreadable persisted state", "panel", g.cfg.PanelID,
			"error", &DecodeError{Source: "persisted", Err: err})
	case ok:
		persisted = &snapshot
		g.meta = meta
	}

	legacy, isLegacy := g.store.(state.LegacyStore)
	if !isLegacy {
		return persisted
	}
	migrated, done := migrateLegacy(ctx, g.store, legacy, g.ref, persisted, g.logger)
	if done {
		g.emit(ctx, activity.BuildStateMigratedEvent(g.eventInput(activity.GridEventInput{})))
	}
	return migrated
}

// hydrate waits for the store's slow source and re-applies its snapshot
// unless the URL asserted an override in the meantime.
func (g *Grid) hydrate(hydrator state.Hydrator) {
	defer close(g.hydrated)
	if err := hydrator.Hydrate(g.ctx, g.ref); err != nil {
		if !IsCancellation(err) {
			g.logger.Warn("datagrid: hydration failed", "panel", g.cfg.PanelID, "error", err)
		}
		return
	}
	snapshot, meta, ok, err := g.store.Load(g.ctx, g.ref)
	if err != nil {
		g.logger.Warn("datagrid: ignoring unreadable hydrated state", "panel", g.cfg.PanelID,
			"error", &DecodeError{Source: "hydrated", Err: err})
		return
	}
	if !ok {
		return
	}

	g.mu.Lock()
	if g.closed || g.hasURLOverrides {
		g.mu.Unlock()
		return
	}
	rec := reconcile(g.cfg, nil, &snapshot, StatePatch{})
	g.state.HiddenColumns = rec.state.HiddenColumns
	g.state.ColumnOrder = rec.state.ColumnOrder
	if !g.viewDirty {
		g.state.ViewMode = rec.state.ViewMode
		if g.state.ViewMode == ViewFlat {
			g.state.GroupedData = nil
		}
	}
	if !g.expandDirty {
		g.state.ExpandMode = rec.state.ExpandMode
		g.state.ExpandedGroups = rec.state.ExpandedGroups
		g.state.HasPersistedExpandState = g.state.HasPersistedExpandState || rec.state.HasPersistedExpandState
	}
	for field, level := range rec.provenance {
		if level != layering.LevelHydrated {
			continue
		}
		if (field == "viewMode" && g.viewDirty) || ((field == "expandMode" || field == "expandedGroups") && g.expandDirty) {
			continue
		}
		g.provenance[field] = level
	}
	if g.viewDirty {
		snapshot.ViewMode = g.persisted.ViewMode
	}
	if g.expandDirty {
		snapshot.ExpandMode = g.persisted.ExpandMode
		snapshot.ExpandedGroups = g.persisted.ExpandedGroups
	}
	g.persisted = snapshot
	g.meta = meta
	if g.viewDirty || g.expandDirty {
		g.saveLocked()
	}
	g.writeURLLocked(false)
	g.mu.Unlock()

	g.logger.Debug("datagrid: applied hydrated state", "panel", g.cfg.PanelID)
	if err := g.Refresh(g.ctx); err != nil && !IsCancellation(err) && !errors.Is(err, ErrGridClosed) {
		g.logger.Debug("datagrid: refresh after hydration failed", "panel", g.cfg.PanelID, "error", err)
	}
}

// Hydrated is closed once background hydration finished or was skipped.
func (g *Grid) Hydrated() <-chan struct{} {
	return g.hydrated
}

func (g *Grid) ID() string { return g.id }

// Config returns the effective configuration with defaults applied.
func (g *Grid) Config() Config {
	cfg := g.cfg
	cfg.Columns = slices.Clone(g.cfg.Columns)
	return cfg
}

// State returns a deep copy of the current GridState.
func (g *Grid) State() GridState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state.Clone()
}

// View returns the frame a renderer would receive for the current state.
func (g *Grid) View() View {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.buildView(g.rows)
}

// HasURLOverrides reports whether the initial URL carried any managed key.
func (g *Grid) HasURLOverrides() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.hasURLOverrides
}

// Close waits for queued state saves, then cancels in-flight work and
// pending debounced searches. A response arriving after Close is never
// applied.
func (g *Grid) Close() error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return nil
	}
	g.closed = true
	g.mu.Unlock()
	g.search.Stop()
	if done := g.saves.done(); done != nil {
		<-done
	}
	g.cancel()
	return nil
}

// SetPage moves to page (clamped to 1) and fetches.
func (g *Grid) SetPage(ctx context.Context, page int) error {
	if page < 1 {
		page = 1
	}
	return g.change(ctx, concernPage, func(s *GridState) {
		s.CurrentPage = page
	})
}

// NextPage and PrevPage move by one page. NextPage stops at the last known
// page.
func (g *Grid) NextPage(ctx context.Context) error {
	current := g.State()
	next := current.CurrentPage + 1
	if total := current.TotalPages(); total > 0 && next > total {
		return nil
	}
	return g.SetPage(ctx, next)
}

func (g *Grid) PrevPage(ctx context.Context) error {
	current := g.State()
	if current.CurrentPage <= 1 {
		return nil
	}
	return g.SetPage(ctx, current.CurrentPage-1)
}

// SetPerPage changes the page size and returns to page 1.
func (g *Grid) SetPerPage(ctx context.Context, perPage int) error {
	if perPage <= 0 {
		return fmt.Errorf("datagrid: per page must be positive, got %d", perPage)
	}
	return g.change(ctx, concernPage, func(s *GridState) {
		s.PerPage = perPage
		s.CurrentPage = 1
	})
}

// SetSearch applies term immediately and returns to page 1.
func (g *Grid) SetSearch(ctx context.Context, term string) error {
	term = strings.TrimSpace(term)
	return g.change(ctx, concernSearch, func(s *GridState) {
		s.Search = term
		s.CurrentPage = 1
	})
}

// SearchInput is the text-input path: the term is applied after the
// configured debounce delay, and only the last term of a burst is applied.
func (g *Grid) SearchInput(term string) {
	g.search.Trigger(func() {
		if err := g.SetSearch(g.ctx, term); err != nil && !IsCancellation(err) && !errors.Is(err, ErrGridClosed) {
			g.logger.Debug("datagrid: debounced search failed", "panel", g.cfg.PanelID, "error", err)
		}
	})
}

// SetSort replaces the sort list. Entries with blank fields are dropped and
// invalid directions become asc.
func (g *Grid) SetSort(ctx context.Context, sort []SortField) error {
	sort = sanitizeSort(sort)
	if sort == nil {
		sort = []SortField{}
	}
	return g.change(ctx, concernSort, func(s *GridState) {
		s.Sort = sort
	})
}

// ToggleSort cycles field through asc, desc and removed. Without multi the
// field becomes the only sort key.
func (g *Grid) ToggleSort(ctx context.Context, field string, multi bool) error {
	field = strings.TrimSpace(field)
	if field == "" {
		return nil
	}
	return g.change(ctx, concernSort, func(s *GridState) {
		idx := slices.IndexFunc(s.Sort, func(entry SortField) bool { return entry.Field == field })
		var next []SortField
		if multi {
			next = slices.Clone(s.Sort)
		}
		switch {
		case idx < 0:
			next = append(next, SortField{Field: field, Direction: SortAsc})
		case s.Sort[idx].Direction == SortAsc:
			entry := SortField{Field: field, Direction: SortDesc}
			if multi {
				next[idx] = entry
			} else {
				next = []SortField{entry}
			}
		default:
			if multi {
				next = slices.Delete(next, idx, idx+1)
			}
		}
		if next == nil {
			next = []SortField{}
		}
		s.Sort = next
	})
}

// SetFilters replaces the filter list and returns to page 1.
func (g *Grid) SetFilters(ctx context.Context, filters []Filter) error {
	filters = sanitizeFilters(filters)
	if filters == nil {
		filters = []Filter{}
	}
	return g.change(ctx, concernFilter, func(s *GridState) {
		s.Filters = filters
		s.CurrentPage = 1
	})
}

// AddFilter appends a filter, replacing an existing one on the same column
// and operator.
func (g *Grid) AddFilter(ctx context.Context, filter Filter) error {
	cleaned := sanitizeFilters([]Filter{filter})
	if len(cleaned) == 0 {
		return nil
	}
	filter = cleaned[0]
	return g.change(ctx, concernFilter, func(s *GridState) {
		next := slices.DeleteFunc(slices.Clone(s.Filters), func(existing Filter) bool {
			return existing.Column == filter.Column && existing.Operator == filter.Operator
		})
		s.Filters = append(next, filter)
		s.CurrentPage = 1
	})
}

// RemoveFilter drops every filter on column.
func (g *Grid) RemoveFilter(ctx context.Context, column string) error {
	return g.change(ctx, concernFilter, func(s *GridState) {
		s.Filters = slices.DeleteFunc(slices.Clone(s.Filters), func(existing Filter) bool {
			return existing.Column == column
		})
		s.CurrentPage = 1
	})
}

func (g *Grid) ClearFilters(ctx context.Context) error {
	return g.SetFilters(ctx, nil)
}

// change applies mutate, pushes the URL, then hands off to the concern's
// change hook or Refresh.
func (g *Grid) change(ctx context.Context, c concern, mutate func(*GridState)) error {
	if ctx == nil {
		ctx = context.Background()
	}
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return ErrGridClosed
	}
	mutate(&g.state)
	g.writeURLLocked(true)
	current := g.state.Clone()
	g.mu.Unlock()

	if handled, err := g.behaviors.dispatchHook(ctx, c, g, current); handled {
		return err
	}
	return g.Refresh(ctx)
}

// writeURLLocked mirrors the state into the history: push for user-driven
// changes, replace during restoration. Callers hold g.mu.
func (g *Grid) writeURLLocked(push bool) {
	current := g.history.Current()
	next := g.codec.Apply(current, g.state)
	if push {
		if next != current {
			g.history.Push(next)
		}
		return
	}
	g.history.Replace(next)
}

func (g *Grid) eventInput(input activity.GridEventInput) activity.GridEventInput {
	input.ActorID = g.actor.ActorID
	input.UserID = g.actor.UserID
	input.TenantID = g.actor.TenantID
	input.Panel = g.cfg.PanelID
	input.GridID = g.id
	return input
}

func orBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

func (g *Grid) emit(ctx context.Context, event activity.Event) {
	if err := g.emitter.Emit(ctx, event); err != nil {
		g.logger.Warn("datagrid: activity hook failed", "panel", g.cfg.PanelID, "verb", event.Verb, "error", err)
	}
}

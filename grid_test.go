package datagrid

import (
	"context"
	"errors"
	"net/url"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-datagrid/pkg/activity"
	"github.com/goliatone/go-datagrid/pkg/memsource"
	"github.com/goliatone/go-datagrid/pkg/rules"
	"github.com/goliatone/go-datagrid/pkg/state"
)

// hydratingStore hydrates from next once gate is closed.
type hydratingStore struct {
	*state.MemoryStore[Snapshot]
	next  Snapshot
	gate  chan struct{}
	mu    sync.Mutex
	calls int
}

func (s *hydratingStore) Hydrate(ctx context.Context, ref state.Ref) error {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	select {
	case <-s.gate:
	case <-ctx.Done():
		return ctx.Err()
	}
	_, err := s.Save(ctx, ref, s.next, state.Meta{})
	return err
}

func (s *hydratingStore) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func waitHydrated(t *testing.T, g *Grid) {
	t.Helper()
	select {
	case <-g.Hydrated():
	case <-time.After(2 * time.Second):
		t.Fatalf("hydration did not finish")
	}
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(context.Background(), Config{})
	if !errors.Is(err, ErrPanelRequired) || !errors.Is(err, ErrEndpointRequired) || !errors.Is(err, ErrNoColumns) {
		t.Fatalf("expected joined validation errors, got %v", err)
	}
}

func TestHydrationAppliesWithoutURLOverrides(t *testing.T) {
	_, endpoint := newSource(t, 5)
	cfg := usersConfig()
	cfg.APIEndpoint = endpoint
	store := &hydratingStore{
		MemoryStore: state.NewMemoryStore[Snapshot](),
		next:        Snapshot{HiddenColumns: []string{"name"}, ColumnOrder: []string{"email"}},
		gate:        make(chan struct{}),
	}
	_, _ = store.Save(context.Background(), state.Ref{Panel: "users"}, Snapshot{HiddenColumns: []string{"email"}}, state.Meta{})
	history := NewMemoryHistory("")
	renderer := newRecordingRenderer()
	g := mustNew(t, cfg, WithStore(store), WithHistory(history), WithRenderer(renderer))

	if got := g.State().HiddenColumns.Sorted(); !slices.Equal(got, []string{"email"}) {
		t.Fatalf("expected synchronous persisted state first, got %v", got)
	}
	close(store.gate)
	waitHydrated(t, g)

	current := g.State()
	if got := current.HiddenColumns.Sorted(); !slices.Equal(got, []string{"name"}) {
		t.Fatalf("expected hydrated hidden columns, got %v", got)
	}
	if !slices.Equal(current.ColumnOrder, []string{"email", "id", "name"}) {
		t.Fatalf("expected hydrated order, got %v", current.ColumnOrder)
	}
	if pushes, replaces := history.Counts(); pushes != 0 || replaces != 1 {
		t.Fatalf("expected one replace, got pushes=%d replaces=%d", pushes, replaces)
	}
	if len(renderer.Views()) != 1 {
		t.Fatalf("expected a refresh after hydration")
	}
	if src := g.Trace().Source("hiddenColumns"); src != "hydrated" {
		t.Fatalf("expected hydrated provenance, got %q", src)
	}
}

func TestHydrationKeepsDemotedViewMode(t *testing.T) {
	ctx := context.Background()
	src, endpoint := newSource(t, 6, memsource.WithGrouping(memsource.GroupingNotImplemented))
	store := &hydratingStore{
		MemoryStore: state.NewMemoryStore[Snapshot](),
		next:        Snapshot{ViewMode: ptr(ViewGrouped), HiddenColumns: []string{"email"}},
		gate:        make(chan struct{}),
	}
	g := mustNew(t, groupedConfig(endpoint), WithStore(store))

	if err := g.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if g.State().ViewMode != ViewFlat {
		t.Fatalf("expected demotion to flat")
	}
	if err := g.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}
	close(store.gate)
	waitHydrated(t, g)

	current := g.State()
	if current.ViewMode != ViewFlat {
		t.Fatalf("stale hydrated view mode must not re-promote, got %s", current.ViewMode)
	}
	if got := current.HiddenColumns.Sorted(); !slices.Equal(got, []string{"email"}) {
		t.Fatalf("other hydrated fields still apply, got %v", got)
	}
	if src := g.Trace().Source("viewMode"); src == "hydrated" {
		t.Fatalf("view mode must not be attributed to hydration")
	}
	grouped := 0
	for _, req := range src.Requests() {
		if req.URL.Query().Get("view_mode") == "grouped" {
			grouped++
		}
	}
	if grouped != 1 {
		t.Fatalf("expected a single grouped attempt, got %d", grouped)
	}

	if err := g.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}
	saved, _, _, _ := store.Load(ctx, state.Ref{Panel: "users"})
	if saved.ViewMode == nil || *saved.ViewMode != ViewFlat {
		t.Fatalf("demoted view mode must be written back, got %+v", saved)
	}
}

// slowStore blocks every Save until release is closed.
type slowStore struct {
	*state.MemoryStore[Snapshot]
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (s *slowStore) Save(ctx context.Context, ref state.Ref, snapshot Snapshot, meta state.Meta) (state.Meta, error) {
	s.once.Do(func() { close(s.started) })
	select {
	case <-s.release:
	case <-ctx.Done():
		return state.Meta{}, ctx.Err()
	}
	return s.MemoryStore.Save(ctx, ref, snapshot, meta)
}

func TestSlowStoreDoesNotBlockGrid(t *testing.T) {
	ctx := context.Background()
	store := &slowStore{
		MemoryStore: state.NewMemoryStore[Snapshot](),
		started:     make(chan struct{}),
		release:     make(chan struct{}),
	}
	g := mustNew(t, usersConfig(), WithStore(store))

	if err := g.UpdateColumnVisibility(ctx, []string{"id", "name"}, false); err != nil {
		t.Fatalf("hide email: %v", err)
	}
	select {
	case <-store.started:
	case <-time.After(2 * time.Second):
		t.Fatalf("save did not start")
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		g.SelectRow("1")
		_ = g.SelectedRows()
		_ = g.State()
		_ = g.ReorderColumns(ctx, []string{"name", "id", "email"})
		_ = g.UpdateColumnVisibility(ctx, []string{"id"}, false)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("grid operations blocked behind a pending save")
	}

	short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if err := g.Flush(short); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected flush to wait for the store, got %v", err)
	}

	close(store.release)
	if err := g.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if saves := store.Saves(); saves != 2 {
		t.Fatalf("expected queued changes to coalesce into 2 saves, got %d", saves)
	}
	saved, _, _, _ := store.Load(ctx, state.Ref{Panel: "users"})
	if !slices.Equal(saved.HiddenColumns, []string{"email", "name"}) || !slices.Equal(saved.ColumnOrder, []string{"name", "id", "email"}) {
		t.Fatalf("expected the latest snapshot to be saved, got %+v", saved)
	}
}

func TestHydrationSkippedWithURLOverrides(t *testing.T) {
	store := &hydratingStore{
		MemoryStore: state.NewMemoryStore[Snapshot](),
		next:        Snapshot{HiddenColumns: []string{"name"}},
		gate:        make(chan struct{}),
	}
	g := mustNew(t, usersConfig(), WithStore(store), WithHistory(NewMemoryHistory("hiddenColumns=%5B%5D")))
	waitHydrated(t, g)
	if store.Calls() != 0 {
		t.Fatalf("hydration must not start when the url carries overrides")
	}
	if !g.HasURLOverrides() || len(g.State().HiddenColumns) != 0 {
		t.Fatalf("expected explicit empty hidden columns from the url")
	}
}

func TestLegacyStateIsMigratedOnce(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore[Snapshot]()
	ref := state.Ref{Panel: "users"}
	_, _ = store.Save(ctx, ref, Snapshot{HiddenColumns: []string{"name"}}, state.Meta{})
	_ = store.PutLegacy(ref, "viewMode", []byte(`"grouped"`))
	_ = store.PutLegacy(ref, "hiddenColumns", []byte(`["email"]`))
	_ = store.PutLegacy(ref, "expandState", []byte(`{"mode":"all-expanded","groups":["sales"]}`))

	capture := &activity.CaptureHook{}
	cfg := groupedConfig("http://example.test/api/users")
	cfg.Activity = activity.Config{Enabled: true}
	g := mustNew(t, cfg, WithStore(store), WithActivityHooks(capture))

	current := g.State()
	if got := current.HiddenColumns.Sorted(); !slices.Equal(got, []string{"name"}) {
		t.Fatalf("unified snapshot must win, got %v", got)
	}
	if current.ViewMode != ViewGrouped || current.ExpandMode != ExpandAllExpanded || !current.ExpandedGroups.Has("sales") {
		t.Fatalf("legacy fields must fill gaps, got %+v", current)
	}
	if !current.HasPersistedExpandState {
		t.Fatalf("migrated expand state counts as persisted")
	}
	for _, field := range []string{"viewMode", "hiddenColumns", "expandState"} {
		if _, ok, _ := store.LoadLegacy(ctx, ref, field); ok {
			t.Fatalf("legacy field %s must be erased", field)
		}
	}
	saved, _, _, _ := store.Load(ctx, ref)
	if saved.ViewMode == nil || *saved.ViewMode != ViewGrouped || !slices.Equal(saved.HiddenColumns, []string{"name"}) {
		t.Fatalf("unified shape must be saved, got %+v", saved)
	}
	events := capture.Events()
	if len(events) != 1 || events[0].Verb != activity.VerbStateMigrated {
		t.Fatalf("expected a migration event, got %+v", events)
	}

	saves := store.Saves()
	mustNew(t, cfg, WithStore(store))
	if store.Saves() != saves {
		t.Fatalf("second load must not migrate again")
	}
}

func TestColumnOperations(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore[Snapshot]()
	history := NewMemoryHistory("")
	renderer := newRecordingRenderer()
	cfg := usersConfig()
	cfg.Columns[2].Hidden = true
	g := mustNew(t, cfg, WithStore(store), WithHistory(history), WithRenderer(renderer))
	ref := state.Ref{Panel: "users"}

	if err := g.ReorderColumns(ctx, []string{"email", "ghost", "id"}); err != nil {
		t.Fatalf("reorder: %v", err)
	}
	if got := g.State().ColumnOrder; !slices.Equal(got, []string{"email", "id", "name"}) {
		t.Fatalf("unexpected order %v", got)
	}
	if pushes, _ := history.Counts(); pushes != 0 {
		t.Fatalf("column order is not mirrored in the url")
	}

	if err := g.UpdateColumnVisibility(ctx, []string{"email", "id"}, false); err != nil {
		t.Fatalf("visibility: %v", err)
	}
	values, _ := url.ParseQuery(history.Current())
	if values.Get(KeyHiddenColumns) != `["name"]` {
		t.Fatalf("expected hidden columns in url, got %q", history.Current())
	}
	view := renderer.Views()[len(renderer.Views())-1]
	if len(view.Columns) != 2 || view.Columns[0].Field != "email" || view.Columns[1].Field != "id" {
		t.Fatalf("unexpected rendered columns %+v", view.Columns)
	}

	if err := g.UpdateColumnVisibility(ctx, []string{"id", "name", "email"}, true); err != nil {
		t.Fatalf("visibility replay: %v", err)
	}
	if pushes, _ := history.Counts(); pushes != 1 {
		t.Fatalf("skipURLUpdate must not push, got %d pushes", pushes)
	}

	if err := g.ResetColumnsToDefault(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	current := g.State()
	if !slices.Equal(current.ColumnOrder, []string{"id", "name", "email"}) || !current.HiddenColumns.Equal(NewStringSet("email")) {
		t.Fatalf("expected configured defaults, got %v %v", current.ColumnOrder, current.HiddenColumns.Sorted())
	}
	if err := g.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}
	saved, _, _, _ := store.Load(ctx, ref)
	if saved.HiddenColumns != nil || saved.ColumnOrder != nil {
		t.Fatalf("reset must clear persisted column fields, got %+v", saved)
	}
	if strings.Contains(history.Current(), KeyHiddenColumns) {
		t.Fatalf("default visibility must not appear in the url: %q", history.Current())
	}
}

func TestGroupExpansion(t *testing.T) {
	ctx := context.Background()
	_, endpoint := newSource(t, 6)
	store := state.NewMemoryStore[Snapshot]()
	history := NewMemoryHistory("")
	g := mustNew(t, groupedConfig(endpoint), WithStore(store), WithHistory(history))
	if err := g.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	if err := g.ExpandAllGroups(ctx); err != nil {
		t.Fatalf("expand all: %v", err)
	}
	for _, id := range []string{"engineering", "sales", "support", "discovered-later"} {
		if !g.IsGroupExpanded(id) {
			t.Fatalf("group %s must be expanded", id)
		}
	}

	if err := g.ToggleGroup(ctx, "sales"); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	current := g.State()
	if current.ExpandMode != ExpandExplicit || !slices.Equal(current.ExpandedGroups.Sorted(), []string{"engineering", "support"}) {
		t.Fatalf("unexpected expand state %s %v", current.ExpandMode, current.ExpandedGroups.Sorted())
	}
	if g.IsGroupExpanded("sales") || g.IsGroupExpanded("discovered-later") {
		t.Fatalf("explicit mode collapses unlisted groups")
	}
	if err := g.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}
	saved, _, _, _ := store.Load(ctx, state.Ref{Panel: "users"})
	if saved.ExpandMode == nil || *saved.ExpandMode != ExpandExplicit || !slices.Equal(saved.ExpandedGroups, []string{"engineering", "support"}) {
		t.Fatalf("expand state must be persisted, got %+v", saved)
	}
	values, _ := url.ParseQuery(history.Current())
	if values.Get(KeyExpandedGroups) != `["engineering","support"]` {
		t.Fatalf("expected expanded groups in url, got %q", history.Current())
	}

	if err := g.CollapseAllGroups(ctx); err != nil {
		t.Fatalf("collapse all: %v", err)
	}
	if g.IsGroupExpanded("engineering") || g.State().ExpandMode != ExpandAllCollapsed {
		t.Fatalf("expected everything collapsed")
	}
}

func TestServerDefaultExpansion(t *testing.T) {
	base := GridState{ExpandMode: ExpandExplicit, ExpandedGroups: StringSet{}}
	group := Group{ID: "a", Expanded: true}
	if !resolveExpanded(base, group) {
		t.Fatalf("server default applies before expand state is persisted")
	}
	base.HasPersistedExpandState = true
	if resolveExpanded(base, group) {
		t.Fatalf("persisted explicit state overrides the server default")
	}
	base.ExpandMode = ExpandAllCollapsed
	base.ExpandedGroups = NewStringSet("a")
	if !resolveExpanded(base, group) {
		t.Fatalf("explicit entries win over the mode")
	}
}

func TestSortAndFilterHelpers(t *testing.T) {
	ctx := context.Background()
	transport := TransportFunc(func(context.Context, Request) (Response, error) {
		return Response{StatusCode: 200, Body: []byte(`{"data":[],"count":0}`)}, nil
	})
	g := mustNew(t, usersConfig(), WithTransport(transport))

	steps := []struct {
		field string
		multi bool
		want  []SortField
	}{
		{"name", false, []SortField{{"name", SortAsc}}},
		{"name", false, []SortField{{"name", SortDesc}}},
		{"id", true, []SortField{{"name", SortDesc}, {"id", SortAsc}}},
		{"name", true, []SortField{{"id", SortAsc}}},
		{"email", false, []SortField{{"email", SortAsc}}},
	}
	for i, step := range steps {
		if err := g.ToggleSort(ctx, step.field, step.multi); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if got := g.State().Sort; !slices.Equal(got, step.want) {
			t.Fatalf("step %d: expected %v, got %v", i, step.want, got)
		}
	}

	_ = g.SetPage(ctx, 4)
	_ = g.AddFilter(ctx, Filter{Column: "name", Value: "a"})
	_ = g.AddFilter(ctx, Filter{Column: "name", Operator: "EQ", Value: "b"})
	current := g.State()
	if current.CurrentPage != 1 || len(current.Filters) != 1 || current.Filters[0].Value != "b" {
		t.Fatalf("unexpected filters %+v page %d", current.Filters, current.CurrentPage)
	}
	if current.TotalRows == nil || *current.TotalRows != 0 {
		t.Fatalf("expected count to be read as total")
	}
	_ = g.RemoveFilter(ctx, "name")
	if len(g.State().Filters) != 0 {
		t.Fatalf("expected filters removed")
	}
	if err := g.SetPerPage(ctx, 0); err == nil {
		t.Fatalf("expected per page validation error")
	}
}

func TestBulkActions(t *testing.T) {
	ctx := context.Background()
	src, endpoint := newSource(t, 10)
	cfg := usersConfig()
	cfg.APIEndpoint = endpoint
	cfg.Activity = activity.Config{Enabled: true}
	capture := &activity.CaptureHook{}

	var g *Grid
	var ran []string
	archive := BulkAction{
		Name:           "archive",
		EnabledWhen:    "count > 0 && count <= 2",
		ClearSelection: true,
		Handler: func(_ context.Context, ids []string) error {
			ran = ids
			g.SelectRow("9")
			return nil
		},
	}
	g = mustNew(t, cfg,
		WithBulkAction(archive),
		WithBulkAction(BulkAction{Name: "delete"}),
		WithActivityHooks(capture),
		WithActor(Actor{ActorID: "actor-1"}),
	)

	if err := g.ExecuteBulkAction(ctx, "archive"); !errors.Is(err, ErrEmptySelection) {
		t.Fatalf("expected ErrEmptySelection, got %v", err)
	}
	g.SelectRows("1", "2", "3")
	if enabled, err := g.BulkActionEnabled("archive"); err != nil || enabled {
		t.Fatalf("guard must reject three rows, enabled=%v err=%v", enabled, err)
	}
	if err := g.ExecuteBulkAction(ctx, "archive"); !errors.Is(err, ErrBulkActionDisabled) {
		t.Fatalf("expected ErrBulkActionDisabled, got %v", err)
	}

	g.DeselectRow("3")
	if err := g.ExecuteBulkAction(ctx, "archive"); err != nil {
		t.Fatalf("archive: %v", err)
	}
	if !slices.Equal(ran, []string{"1", "2"}) {
		t.Fatalf("expected captured ids [1 2], got %v", ran)
	}
	if got := g.SelectedRows(); !slices.Equal(got, []string{"9"}) {
		t.Fatalf("only captured ids are cleared, got %v", got)
	}
	events := capture.Events()
	if len(events) != 1 || events[0].Verb != activity.VerbBulkAction || events[0].ActorID != "actor-1" || events[0].Metadata["count"] != 2 {
		t.Fatalf("unexpected events %+v", events)
	}

	g.ClearSelection()
	g.SelectRows("4", "5")
	if err := g.ExecuteBulkAction(ctx, "delete"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := len(src.Records()); got != 8 {
		t.Fatalf("expected default executor to delete two rows, %d left", got)
	}
	if err := g.ExecuteBulkAction(ctx, "missing"); !errors.Is(err, ErrUnknownBulkAction) {
		t.Fatalf("expected ErrUnknownBulkAction, got %v", err)
	}
	if names := g.BulkActions(); len(names) != 2 || names[0].Name != "archive" {
		t.Fatalf("unexpected registered actions %+v", names)
	}
}

func TestBulkGuardWithCachedEvaluator(t *testing.T) {
	evaluators := map[string]rules.Evaluator{
		"expr cache": rules.NewExprEvaluator(rules.ExprWithProgramCache(rules.NewProgramCache())),
		"cel":        rules.NewCELEvaluator(),
	}
	for name, evaluator := range evaluators {
		t.Run(name, func(t *testing.T) {
			g := mustNew(t, usersConfig(),
				WithRuleEvaluator(evaluator),
				WithBulkAction(BulkAction{Name: "archive", EnabledWhen: "count > 0 && count <= 2"}),
			)
			for _, step := range []struct {
				selected []string
				want     bool
			}{
				{nil, false},
				{[]string{"1"}, true},
				{[]string{"1", "2", "3"}, false},
			} {
				g.ClearSelection()
				g.SelectRows(step.selected...)
				enabled, err := g.BulkActionEnabled("archive")
				if err != nil {
					t.Fatalf("guard with %v: %v", step.selected, err)
				}
				if enabled != step.want {
					t.Fatalf("guard with %v: expected %v, got %v", step.selected, step.want, enabled)
				}
			}
		})
	}
}

func TestDeleteRow(t *testing.T) {
	ctx := context.Background()
	src, endpoint := newSource(t, 5)
	cfg := usersConfig()
	cfg.APIEndpoint = endpoint
	notifier := &recordingNotifier{}
	g := mustNew(t, cfg, WithNotifier(notifier))
	g.SelectRows("2", "3")

	if err := g.DeleteRow(ctx, "2"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if g.IsSelected("2") || !g.IsSelected("3") {
		t.Fatalf("only the deleted row is deselected")
	}
	if got := len(src.Records()); got != 4 {
		t.Fatalf("expected 4 records, got %d", got)
	}
	if total := g.State().TotalRows; total == nil || *total != 4 {
		t.Fatalf("expected refreshed total 4, got %v", total)
	}
	if err := g.DeleteRow(ctx, "2"); err == nil || notifier.Count() != 1 {
		t.Fatalf("deleting a missing row must fail and notify once, err=%v", err)
	}
}

func TestViewModeSwitch(t *testing.T) {
	ctx := context.Background()
	_, endpoint := newSource(t, 6)
	cfg := groupedConfig(endpoint)
	cfg.DefaultViewMode = ViewFlat
	store := state.NewMemoryStore[Snapshot]()
	g := mustNew(t, cfg, WithStore(store))

	if err := g.SetViewMode(ctx, "tiles"); err == nil {
		t.Fatalf("expected invalid mode error")
	}
	if err := g.SetViewMode(ctx, ViewGrouped); err != nil {
		t.Fatalf("set grouped: %v", err)
	}
	if g.State().GroupedData == nil {
		t.Fatalf("expected grouped data after switching")
	}
	if err := g.SetViewMode(ctx, ViewFlat); err != nil {
		t.Fatalf("set flat: %v", err)
	}
	if g.State().GroupedData != nil {
		t.Fatalf("flat mode clears grouped data")
	}
	if err := g.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}
	saved, _, _, _ := store.Load(ctx, state.Ref{Panel: "users"})
	if saved.ViewMode == nil || *saved.ViewMode != ViewFlat {
		t.Fatalf("view mode must be persisted")
	}

	noGroup := mustNew(t, usersConfig())
	if err := noGroup.SetViewMode(ctx, ViewGrouped); err == nil {
		t.Fatalf("grouped mode requires group_by")
	}
}

func TestRegistry(t *testing.T) {
	ctx := context.Background()
	registry := NewRegistry(WithLogger(noopLogger{}))
	t.Cleanup(func() { _ = registry.Close() })

	g, err := registry.Init(ctx, usersConfig())
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, err := registry.Init(ctx, usersConfig()); !errors.Is(err, ErrDuplicatePanel) {
		t.Fatalf("expected ErrDuplicatePanel, got %v", err)
	}
	other := usersConfig()
	other.PanelID = "orders"
	if _, err := registry.Init(ctx, other); err != nil {
		t.Fatalf("init orders: %v", err)
	}
	if got := registry.Panels(); !slices.Equal(got, []string{"orders", "users"}) {
		t.Fatalf("unexpected panels %v", got)
	}
	if found, ok := registry.Get("users"); !ok || found != g {
		t.Fatalf("expected to find the users grid")
	}
	if err := registry.Remove("users"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := g.Refresh(ctx); !errors.Is(err, ErrGridClosed) {
		t.Fatalf("removed grids are closed, got %v", err)
	}
	if _, err := registry.Init(ctx, usersConfig()); err != nil {
		t.Fatalf("panel key must be free again: %v", err)
	}
}

func TestTraceJSON(t *testing.T) {
	store := state.NewMemoryStore[Snapshot]()
	_, _ = store.Save(context.Background(), state.Ref{Panel: "users"}, Snapshot{HiddenColumns: []string{"email"}}, state.Meta{})
	g := mustNew(t, usersConfig(), WithStore(store), WithHistory(NewMemoryHistory("search=x")))

	trace := g.Trace()
	if !trace.HasURLOverrides || trace.Source("search") != "url" || trace.Source("hiddenColumns") != "persisted" || trace.Source("page") != "defaults" {
		t.Fatalf("unexpected trace %+v", trace)
	}
	payload, err := trace.ToJSON()
	if err != nil {
		t.Fatalf("to json: %v", err)
	}
	decoded, err := TraceFromJSON(payload)
	if err != nil {
		t.Fatalf("from json: %v", err)
	}
	if decoded.Panel != "users" || len(decoded.Fields) != len(trace.Fields) {
		t.Fatalf("unexpected decoded trace %+v", decoded)
	}
}

package datagrid

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/goliatone/go-datagrid/layering"
)

func TestReconcilePrecedence(t *testing.T) {
	cfg := usersConfig()
	cfg.GroupBy = "name"
	cfg = cfg.withDefaults()
	persisted := &Snapshot{HiddenColumns: []string{"email"}, ViewMode: ptr(ViewGrouped)}

	t.Run("url wins", func(t *testing.T) {
		rec := reconcile(cfg, persisted, nil, StatePatch{HiddenColumns: []string{"name"}})
		if got := rec.state.HiddenColumns.Sorted(); !slices.Equal(got, []string{"name"}) {
			t.Fatalf("expected url hidden columns, got %v", got)
		}
		if rec.state.ViewMode != ViewGrouped {
			t.Fatalf("expected persisted view mode, got %s", rec.state.ViewMode)
		}
		if !rec.hasURLOverrides {
			t.Fatalf("expected url override flag")
		}
		if !rec.provenance.Has("hiddenColumns", layering.LevelURL) || !rec.provenance.Has("viewMode", layering.LevelPersisted) {
			t.Fatalf("unexpected provenance %v", rec.provenance)
		}
	})

	t.Run("persisted wins over defaults", func(t *testing.T) {
		rec := reconcile(cfg, persisted, nil, StatePatch{})
		if got := rec.state.HiddenColumns.Sorted(); !slices.Equal(got, []string{"email"}) {
			t.Fatalf("expected persisted hidden columns, got %v", got)
		}
		if rec.hasURLOverrides {
			t.Fatalf("no url keys were given")
		}
	})

	t.Run("explicit empty url value overrides persisted", func(t *testing.T) {
		rec := reconcile(cfg, persisted, nil, StatePatch{HiddenColumns: []string{}})
		if len(rec.state.HiddenColumns) != 0 {
			t.Fatalf("expected no hidden columns, got %v", rec.state.HiddenColumns.Sorted())
		}
	})

	t.Run("hydrated wins over persisted", func(t *testing.T) {
		rec := reconcile(cfg, persisted, &Snapshot{HiddenColumns: []string{"id"}}, StatePatch{})
		if got := rec.state.HiddenColumns.Sorted(); !slices.Equal(got, []string{"id"}) {
			t.Fatalf("expected hydrated hidden columns, got %v", got)
		}
	})
}

func TestReconcilePersistedHiddenScenario(t *testing.T) {
	cfg := usersConfig().withDefaults()
	rec := reconcile(cfg, &Snapshot{HiddenColumns: []string{"email"}}, nil, StatePatch{})
	if got := rec.state.HiddenColumns.Sorted(); !slices.Equal(got, []string{"email"}) {
		t.Fatalf("expected hidden {email}, got %v", got)
	}
	if !slices.Equal(rec.state.ColumnOrder, []string{"id", "name", "email"}) {
		t.Fatalf("expected configured order, got %v", rec.state.ColumnOrder)
	}
}

func TestReconcileDropsStaleColumns(t *testing.T) {
	cfg := usersConfig().withDefaults()
	rec := reconcile(cfg, &Snapshot{
		HiddenColumns: []string{"phone", "name"},
		ColumnOrder:   []string{"phone", "email", "email", "id"},
	}, nil, StatePatch{})
	if got := rec.state.HiddenColumns.Sorted(); !slices.Equal(got, []string{"name"}) {
		t.Fatalf("expected stale hidden column dropped, got %v", got)
	}
	if !slices.Equal(rec.state.ColumnOrder, []string{"email", "id", "name"}) {
		t.Fatalf("unexpected order %v", rec.state.ColumnOrder)
	}
}

func TestReconcileGroupedWithoutGroupByIsFlat(t *testing.T) {
	cfg := usersConfig().withDefaults()
	rec := reconcile(cfg, &Snapshot{ViewMode: ptr(ViewGrouped)}, nil, StatePatch{})
	if rec.state.ViewMode != ViewFlat {
		t.Fatalf("expected flat, got %s", rec.state.ViewMode)
	}
}

func TestReconcileTracksPersistedExpandState(t *testing.T) {
	cfg := usersConfig().withDefaults()
	if reconcile(cfg, nil, nil, StatePatch{}).state.HasPersistedExpandState {
		t.Fatalf("defaults must not count as persisted expand state")
	}
	rec := reconcile(cfg, &Snapshot{ExpandMode: ptr(ExpandAllCollapsed)}, nil, StatePatch{})
	if !rec.state.HasPersistedExpandState || rec.state.ExpandMode != ExpandAllCollapsed {
		t.Fatalf("expected persisted expand state, got %+v", rec.state)
	}
}

func TestMergeColumnOrderScenario(t *testing.T) {
	got := mergeColumnOrder([]string{"id", "name", "email"}, []string{"email", "id"})
	if !slices.Equal(got, []string{"email", "id", "name"}) {
		t.Fatalf("expected [email id name], got %v", got)
	}
}

func TestMergeColumnOrderIsAlwaysAPermutation(t *testing.T) {
	configured := []string{"id", "name", "email", "role", "created"}
	pool := append(slices.Clone(configured), "ghost", "", "id", "legacy")
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		order := make([]string, rng.Intn(len(pool)+1))
		for j := range order {
			order[j] = pool[rng.Intn(len(pool))]
		}
		got := mergeColumnOrder(configured, order)
		sorted := slices.Clone(got)
		slices.Sort(sorted)
		want := slices.Clone(configured)
		slices.Sort(want)
		if !slices.Equal(sorted, want) {
			t.Fatalf("order %v produced %v, not a permutation of %v", order, got, configured)
		}
	}
}

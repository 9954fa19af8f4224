package datagrid

import (
	"context"
	"net/url"
	"testing"
)

type pageOnly struct{}

func (pageOnly) BuildPaginationQuery(page, perPage int) QueryParams {
	return PagePagination{}.BuildPaginationQuery(page, perPage)
}

func TestBuildQueryParamsPaginationOnly(t *testing.T) {
	cfg := usersConfig().withDefaults()
	state := reconcile(cfg, nil, nil, StatePatch{}).state
	params := buildQueryParams(cfg, Behaviors{Pagination: pageOnly{}}, state, queryScope{})
	if len(params) != 2 || params["page"] != "1" || params["per_page"] != "10" {
		t.Fatalf("expected only pagination keys, got %v", params)
	}
}

func TestBuildQueryParamsWithoutBehaviorsIsEmpty(t *testing.T) {
	cfg := usersConfig().withDefaults()
	state := reconcile(cfg, nil, nil, StatePatch{}).state
	state.Search = "x"
	if params := buildQueryParams(cfg, Behaviors{}, state, queryScope{}); len(params) != 0 {
		t.Fatalf("expected no params, got %v", params)
	}
}

func TestBuildQueryParamsDefaultDialect(t *testing.T) {
	cfg := usersConfig()
	cfg.GroupBy = "name"
	cfg = cfg.withDefaults()
	state := reconcile(cfg, nil, nil, StatePatch{}).state
	state.CurrentPage = 2
	state.Search = " ada "
	state.Filters = []Filter{
		{Column: "name", Operator: "eq", Value: "Ada"},
		{Column: "id", Operator: "in", Value: []any{"1", float64(2)}},
	}
	state.Sort = []SortField{{Field: "name", Direction: SortDesc}, {Field: "id", Direction: SortAsc}}
	state.ViewMode = ViewGrouped

	params := buildQueryParams(cfg, DefaultBehaviors(), state, queryScope{})
	want := map[string]string{
		"page":      "2",
		"per_page":  "10",
		"search":    "ada",
		"name":      "Ada",
		"id__in":    "1,2",
		"order":     "name desc,id asc",
		"view_mode": "grouped",
		"group_by":  "name",
	}
	if len(params) != len(want) {
		t.Fatalf("expected %d params, got %v", len(want), params)
	}
	for key, value := range want {
		if params[key] != value {
			t.Fatalf("param %s: expected %q, got %q", key, value, params[key])
		}
	}
}

type resetPageSearch struct{}

func (resetPageSearch) BuildSearchQuery(term string) QueryParams {
	return QueryParams{"q": term, "page": "1"}
}

func TestBuildQueryParamsLaterConcernsOverride(t *testing.T) {
	cfg := usersConfig().withDefaults()
	state := reconcile(cfg, nil, nil, StatePatch{}).state
	state.CurrentPage = 5
	params := buildQueryParams(cfg, Behaviors{Pagination: PagePagination{}, Search: resetPageSearch{}}, state, queryScope{})
	if params["page"] != "1" || params["q"] != "" {
		t.Fatalf("expected search to override page, got %v", params)
	}
}

func TestOffsetPagination(t *testing.T) {
	params := OffsetPagination{}.BuildPaginationQuery(3, 20)
	if params["limit"] != "20" || params["offset"] != "40" {
		t.Fatalf("unexpected params %v", params)
	}
}

func TestGridQueryProjectionsAreStable(t *testing.T) {
	g := mustNew(t, usersConfig(), WithHistory(NewMemoryHistory("?search=a%20b&page=2")))
	first := g.BuildAPIURL()
	if first != g.BuildAPIURL() || g.BuildQueryString() != g.BuildQueryString() {
		t.Fatalf("projections must be stable")
	}
	parsed, err := url.Parse(first)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	if parsed.Query().Get("search") != "a b" || parsed.Query().Get("page") != "2" {
		t.Fatalf("unexpected api url %q", first)
	}
	if want := "page=2&per_page=10&search=a+b"; g.BuildQueryString() != want {
		t.Fatalf("expected %q, got %q", want, g.BuildQueryString())
	}
}

func TestExportURL(t *testing.T) {
	g := mustNew(t, usersConfig(), WithHistory(NewMemoryHistory("search=ada&page=3")))
	link, err := g.ExportURL("CSV")
	if err != nil {
		t.Fatalf("export url: %v", err)
	}
	if want := "http://example.test/api/users/export?format=csv&search=ada"; link != want {
		t.Fatalf("expected %q, got %q", want, link)
	}

	bare := mustNew(t, usersConfig(), WithBehaviors(Behaviors{}))
	if _, err := bare.ExportURL("csv"); err != ErrExportNotConfigured {
		t.Fatalf("expected ErrExportNotConfigured, got %v", err)
	}
}

type recordingPageHook struct {
	PagePagination
	pages []int
}

func (h *recordingPageHook) OnPageChange(_ context.Context, page int, _ *Grid) error {
	h.pages = append(h.pages, page)
	return nil
}

func TestChangeHookReplacesRefresh(t *testing.T) {
	hook := &recordingPageHook{}
	behaviors := DefaultBehaviors()
	behaviors.Pagination = hook
	calls := 0
	transport := TransportFunc(func(context.Context, Request) (Response, error) {
		calls++
		return Response{StatusCode: 200, Body: []byte(`{"data":[]}`)}, nil
	})
	g := mustNew(t, usersConfig(), WithBehaviors(behaviors), WithTransport(transport))
	if err := g.SetPage(context.Background(), 4); err != nil {
		t.Fatalf("set page: %v", err)
	}
	if calls != 0 {
		t.Fatalf("hook must replace the refresh, got %d fetches", calls)
	}
	if len(hook.pages) != 1 || hook.pages[0] != 4 {
		t.Fatalf("unexpected hook calls %v", hook.pages)
	}
	if err := g.SetSearch(context.Background(), "x"); err != nil || calls != 1 {
		t.Fatalf("search without hook must refresh, err=%v calls=%d", err, calls)
	}
}

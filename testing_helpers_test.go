package datagrid

import (
	"context"
	"net/http/httptest"
	"slices"
	"sync"
	"testing"

	"github.com/goliatone/go-datagrid/pkg/memsource"
)

func usersConfig() Config {
	return Config{
		PanelID:     "users",
		APIEndpoint: "http://example.test/api/users",
		Columns: []Column{
			{Field: "id", Label: "ID", Sortable: true},
			{Field: "name", Label: "Name", Sortable: true},
			{Field: "email", Label: "Email"},
		},
	}
}

func groupedConfig(endpoint string) Config {
	cfg := usersConfig()
	cfg.APIEndpoint = endpoint
	cfg.Columns = append(cfg.Columns, Column{Field: "department", Label: "Department"})
	cfg.GroupBy = "department"
	cfg.DefaultViewMode = ViewGrouped
	return cfg
}

// newSource starts an httptest server over a memsource with n sample users.
func newSource(t *testing.T, n int, opts ...memsource.Option) (*memsource.Source, string) {
	t.Helper()
	src := memsource.New("id", memsource.SampleUsers(n), opts...)
	srv := httptest.NewServer(src)
	t.Cleanup(srv.Close)
	return src, srv.URL
}

type recordingRenderer struct {
	mu    sync.Mutex
	views []View
	ch    chan View
}

func newRecordingRenderer() *recordingRenderer {
	return &recordingRenderer{ch: make(chan View, 64)}
}

func (r *recordingRenderer) Render(_ context.Context, view View) error {
	r.mu.Lock()
	r.views = append(r.views, view)
	r.mu.Unlock()
	r.ch <- view
	return nil
}

func (r *recordingRenderer) Views() []View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.views)
}

type notice struct {
	severity Severity
	message  string
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []notice
}

func (n *recordingNotifier) Notify(_ context.Context, severity Severity, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice{severity, message})
}

func (n *recordingNotifier) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.notices)
}

func rowIDs(rows []Row) []string {
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ID("id"))
	}
	return out
}

func mustNew(t *testing.T, cfg Config, opts ...Option) *Grid {
	t.Helper()
	g, err := New(context.Background(), cfg, opts...)
	if err != nil {
		t.Fatalf("new grid: %v", err)
	}
	t.Cleanup(func() { _ = g.Close() })
	return g
}

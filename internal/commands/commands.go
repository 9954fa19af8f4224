// Package commands builds the gridctl command tree.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	datagrid "github.com/goliatone/go-datagrid"
	"github.com/goliatone/go-datagrid/internal/commands/options"
	"github.com/goliatone/go-datagrid/pkg/state"
)

func New() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "gridctl",
		Short: "Inspect, fetch and browse data grids from the command line.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage: true,
	}
	options.AddGridArgs(cmd, v)

	AddCommands(cmd, v)
	return cmd
}

func AddCommands(topLevel *cobra.Command, v *viper.Viper) {
	addURL(topLevel, v)
	addQuery(topLevel, v)
	addTrace(topLevel, v)
	addFetch(topLevel, v)
	addBrowse(topLevel, v)
	addSchema(topLevel, v)
	addServeDemo(topLevel)
}

// DemoConfig describes the users panel served by serve-demo.
func DemoConfig() datagrid.Config {
	return datagrid.Config{
		PanelID:     "users",
		APIEndpoint: "http://localhost:8080/api/users",
		GroupBy:     "department",
		Columns: []datagrid.Column{
			{Field: "id", Label: "ID", Sortable: true},
			{Field: "name", Label: "Name", Sortable: true},
			{Field: "email", Label: "Email"},
			{Field: "department", Label: "Department", Sortable: true},
			{Field: "age", Label: "Age", Sortable: true, Hidden: true},
		},
	}
}

// loadConfig reads the configured TOML file, or the demo config, and
// applies the endpoint and panel overrides.
func loadConfig(o options.GridOptions) (datagrid.Config, error) {
	cfg := DemoConfig()
	if o.Config != "" {
		loaded, err := datagrid.LoadConfigFile(o.Config)
		if err != nil {
			return datagrid.Config{}, err
		}
		cfg = loaded
	}
	if o.Endpoint != "" {
		cfg.APIEndpoint = o.Endpoint
	}
	if o.Panel != "" {
		cfg.PanelID = o.Panel
	}
	return cfg, cfg.Validate()
}

func logger(o options.GridOptions) datagrid.Logger {
	level := slog.LevelWarn
	if o.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// openGrid builds a grid whose URL is query. State persists under the
// configured state dir unless an explicit store option is passed.
func openGrid(ctx context.Context, o options.GridOptions, query string, extra ...datagrid.Option) (*datagrid.Grid, error) {
	cfg, err := loadConfig(o)
	if err != nil {
		return nil, err
	}
	opts := []datagrid.Option{
		datagrid.WithHistory(datagrid.NewMemoryHistory(query)),
		datagrid.WithLogger(logger(o)),
	}
	if o.StateDir != "" {
		store, err := state.NewDiskStore[datagrid.Snapshot](o.StateDir)
		if err != nil {
			return nil, fmt.Errorf("open state dir: %w", err)
		}
		opts = append(opts, datagrid.WithStore(store))
	}
	return datagrid.New(ctx, cfg, append(opts, extra...)...)
}

func queryArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// Package options defines shared flag helpers for gridctl commands.
package options

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// EnvPrefix scopes environment overrides, e.g. GRIDCTL_ENDPOINT.
const EnvPrefix = "GRIDCTL"

// GridOptions selects the grid a command works on.
type GridOptions struct {
	Config   string
	Endpoint string
	Panel    string
	StateDir string
	Verbose  bool
}

// AddGridArgs registers the grid selection flags as persistent flags and
// binds them to v, so GRIDCTL_* variables fill in unset flags.
func AddGridArgs(cmd *cobra.Command, v *viper.Viper) {
	flags := cmd.PersistentFlags()
	flags.String("config", "", "Path to a TOML grid configuration.")
	flags.String("endpoint", "", "Data endpoint; overrides the configured api_endpoint.")
	flags.String("panel", "", "Panel id; overrides the configured panel_id.")
	flags.String("state-dir", "~/.gridctl/state", "Directory of the persisted grid state.")
	flags.BoolP("verbose", "v", false, "Log grid activity to stderr.")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	for _, name := range []string{"config", "endpoint", "panel", "state-dir", "verbose"} {
		_ = v.BindPFlag(name, flags.Lookup(name))
	}
}

// Grid resolves the bound values.
func Grid(v *viper.Viper) GridOptions {
	return GridOptions{
		Config:   v.GetString("config"),
		Endpoint: v.GetString("endpoint"),
		Panel:    v.GetString("panel"),
		StateDir: v.GetString("state-dir"),
		Verbose:  v.GetBool("verbose"),
	}
}

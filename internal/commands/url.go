package commands

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	datagrid "github.com/goliatone/go-datagrid"
	"github.com/goliatone/go-datagrid/internal/commands/options"
	"github.com/goliatone/go-datagrid/pkg/state"
)

func addURL(topLevel *cobra.Command, v *viper.Viper) {
	cmd := &cobra.Command{
		Use:   "url",
		Short: "Encode and decode grid state query strings.",
	}
	addURLDecode(cmd, v)
	addURLEncode(cmd, v)
	topLevel.AddCommand(cmd)
}

func addURLDecode(topLevel *cobra.Command, v *viper.Viper) {
	cmd := &cobra.Command{
		Use:   "decode <query>",
		Short: "Show the state a query string carries.",
		Example: `
gridctl url decode 'search=ada&page=2&sort=[{"field":"name","direction":"desc"}]'
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(options.Grid(v))
			if err != nil {
				return err
			}
			codec := datagrid.NewURLCodec(cfg)
			patch, err := codec.Decode(args[0])
			if err != nil {
				_, _ = fmt.Fprintln(os.Stderr, color.New(color.FgHiYellow).Sprintf("warning: %v", err))
			}
			out := &options.OutputOptions{}
			return out.Print(map[string]any{
				"overrides": codec.HasOverrides(args[0]),
				"state":     patch,
			})
		},
	}
	topLevel.AddCommand(cmd)
}

func addURLEncode(topLevel *cobra.Command, v *viper.Viper) {
	so := &options.StateOptions{}
	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Build the query string for a grid state.",
		Example: `
gridctl url encode --search ada --page 2 --sort name:desc --filter department=sales
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			grid, err := openGrid(commandContext(cmd), options.Grid(v), "",
				datagrid.WithStore(state.NewMemoryStore[datagrid.Snapshot]()))
			if err != nil {
				return err
			}
			defer grid.Close()
			current := grid.State()
			if err := so.Apply(&current); err != nil {
				return err
			}
			_, err = fmt.Fprintln(color.Output, datagrid.NewURLCodec(grid.Config()).Encode(current))
			return err
		},
	}
	options.AddStateArgs(cmd, so)
	topLevel.AddCommand(cmd)
}

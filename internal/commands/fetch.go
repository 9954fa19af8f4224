package commands

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	datagrid "github.com/goliatone/go-datagrid"
	"github.com/goliatone/go-datagrid/internal/commands/options"
	"github.com/goliatone/go-datagrid/internal/printers"
	"github.com/goliatone/go-datagrid/internal/tui"
)

func addFetch(topLevel *cobra.Command, v *viper.Viper) {
	oo := &options.OutputOptions{}
	cmd := &cobra.Command{
		Use:   "fetch [query]",
		Short: "Fetch one page and print it as a table.",
		Example: `
gridctl fetch 'search=user&page=2'
gridctl fetch 'viewMode=grouped' --endpoint http://localhost:8080/api/users
`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			printer := &printers.Table{JSON: oo.JSON}
			grid, err := openGrid(commandContext(cmd), options.Grid(v), queryArg(args),
				datagrid.WithRenderer(printer),
				datagrid.WithNotifier(printer),
			)
			if err != nil {
				return oo.HandleError(err)
			}
			defer grid.Close()
			printer.IDField = grid.Config().IDField
			return oo.HandleError(grid.Refresh(commandContext(cmd)))
		},
	}
	options.AddOutputArg(cmd, oo)
	topLevel.AddCommand(cmd)
}

func addBrowse(topLevel *cobra.Command, v *viper.Viper) {
	cmd := &cobra.Command{
		Use:   "browse [query]",
		Short: "Browse a grid interactively.",
		Example: `
gridctl serve-demo &
gridctl browse
`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bridge := tui.NewBridge()
			grid, err := openGrid(commandContext(cmd), options.Grid(v), queryArg(args),
				datagrid.WithRenderer(bridge),
				datagrid.WithNotifier(bridge),
				datagrid.WithBulkAction(datagrid.BulkAction{
					Name:           "delete",
					Label:          "Delete",
					EnabledWhen:    "count > 0",
					ClearSelection: true,
				}),
			)
			if err != nil {
				return err
			}
			defer grid.Close()
			return tui.Run(commandContext(cmd), grid, bridge)
		},
	}
	topLevel.AddCommand(cmd)
}

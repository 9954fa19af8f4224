package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/goliatone/go-datagrid/internal/commands/options"
	"github.com/goliatone/go-datagrid/internal/printers"
)

func addQuery(topLevel *cobra.Command, v *viper.Viper) {
	oo := &options.OutputOptions{}
	var export string
	cmd := &cobra.Command{
		Use:   "query [query]",
		Short: "Print the API request a grid state produces.",
		Example: `
gridctl query 'search=ada&page=2'
gridctl query 'viewMode=grouped' --json
gridctl query 'search=ada' --export csv
`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			grid, err := openGrid(commandContext(cmd), options.Grid(v), queryArg(args))
			if err != nil {
				return oo.HandleError(err)
			}
			defer grid.Close()
			if export != "" {
				link, err := grid.ExportURL(export)
				if err != nil {
					return oo.HandleError(err)
				}
				_, err = fmt.Fprintln(color.Output, link)
				return err
			}
			if oo.JSON {
				return oo.Print(map[string]any{
					"url":    grid.BuildAPIURL(),
					"params": grid.BuildQueryParams(),
				})
			}
			_, err = fmt.Fprintln(color.Output, grid.BuildAPIURL())
			return err
		},
	}
	options.AddOutputArg(cmd, oo)
	cmd.Flags().StringVar(&export, "export", "", "Print the export link for this format instead.")
	topLevel.AddCommand(cmd)
}

func addTrace(topLevel *cobra.Command, v *viper.Viper) {
	oo := &options.OutputOptions{}
	cmd := &cobra.Command{
		Use:   "trace [query]",
		Short: "Show which source supplied each grid state field.",
		Example: `
gridctl trace 'hiddenColumns=[]'
`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			grid, err := openGrid(commandContext(cmd), options.Grid(v), queryArg(args))
			if err != nil {
				return oo.HandleError(err)
			}
			defer grid.Close()
			trace := grid.Trace()
			if oo.JSON {
				return oo.Print(trace)
			}
			printers.Trace(color.Output, trace)
			return nil
		},
	}
	options.AddOutputArg(cmd, oo)
	topLevel.AddCommand(cmd)
}

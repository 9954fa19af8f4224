package commands

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/goliatone/go-datagrid/internal/commands/options"
	"github.com/goliatone/go-datagrid/schema/openapi"
)

func addSchema(topLevel *cobra.Command, v *viper.Viper) {
	oo := &options.OutputOptions{JSON: true}
	var title, version string
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the OpenAPI document of the data endpoint a grid expects.",
		Example: `
gridctl schema
gridctl schema --config users.toml --title Users --api-version 2.0.0
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(options.Grid(v))
			if err != nil {
				return oo.HandleError(err)
			}
			doc, err := openapi.Describe(cfg,
				openapi.WithInfo(title, version),
				openapi.WithOperation("", openapi.WithOperationSummary("List "+cfg.PanelID)),
			)
			if err != nil {
				return oo.HandleError(err)
			}
			return oo.Print(doc)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Title of the document.")
	cmd.Flags().StringVar(&version, "api-version", "", "Version of the document.")
	topLevel.AddCommand(cmd)
}

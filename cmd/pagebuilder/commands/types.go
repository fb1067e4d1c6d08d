package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-pagebuilder/pkg/model"
)

var registryTypes = []model.RegistryType{
	model.RegistryBlock,
	model.RegistryColumn,
	model.RegistryFilter,
	model.RegistryField,
}

func newTypesCommand(rt *runtime) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:       "types [block|column|filter|field]",
		Short:     "List the registered block, column, filter and field types",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"block", "column", "filter", "field"},
		RunE: func(cmd *cobra.Command, args []string) error {
			selected := registryTypes
			if len(args) == 1 {
				registryType, ok := parseRegistry(args[0])
				if !ok {
					return fmt.Errorf("unknown registry %q", args[0])
				}
				selected = []model.RegistryType{registryType}
			}
			engine, err := rt.engine()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				report := make(map[model.RegistryType]any, len(selected))
				for _, registryType := range selected {
					report[registryType] = engine.Registries.Describe(registryType)
				}
				return writeJSON(out, report)
			}
			table := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(table, "REGISTRY\tKEY\tLABEL\tKIND\tFIELDS")
			for _, registryType := range selected {
				for _, desc := range engine.Registries.Describe(registryType) {
					fmt.Fprintf(table, "%s\t%s\t%s\t%s\t%d\n", registryType, desc.Key, desc.Label, desc.Kind, len(desc.Fields))
				}
			}
			return table.Flush()
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print JSON")
	cmd.Flags().String("definitions", "", "directory of extension type definitions")
	return cmd
}

// parseRegistry accepts the singular registry names and their plurals.
func parseRegistry(name string) (model.RegistryType, bool) {
	for _, registryType := range registryTypes {
		if name == string(registryType) || name == string(registryType)+"s" {
			return registryType, true
		}
	}
	return "", false
}

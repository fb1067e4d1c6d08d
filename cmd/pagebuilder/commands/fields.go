package commands

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-pagebuilder/pkg/resource"
)

func newFieldsCommand(rt *runtime) *cobra.Command {
	var (
		resourceName string
		jsonOutput   bool
	)

	cmd := &cobra.Command{
		Use:   "fields",
		Short: "List the fields an OpenAPI resource offers to columns, filters and forms",
		Example: `  # Resources in the document
  pagebuilder fields --openapi api.yaml

  # Fields of one resource with the column and filter types they map to
  pagebuilder fields --openapi api.yaml --resource posts`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if rt.cfg.Resources.OpenAPI == "" {
				return errors.New("an OpenAPI document is required (--openapi or resources.openapi)")
			}
			doc, err := loadDocument(cmd.Context(), rt.cfg.Resources)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if resourceName == "" {
				if jsonOutput {
					return writeJSON(out, map[string]any{"title": doc.Title(), "resources": doc.Names()})
				}
				for _, name := range doc.Names() {
					fmt.Fprintln(out, name)
				}
				return nil
			}

			res, err := doc.Resource(resourceName)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(out, map[string]any{"resource": res, "form": res.FormSchema()})
			}
			table := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(table, "FIELD\tLABEL\tTYPE\tCOLUMN\tFILTER")
			writeFieldRows(table, res.Fields, "")
			return table.Flush()
		},
	}

	cmd.Flags().String("openapi", "", "OpenAPI document describing resources")
	cmd.Flags().StringVarP(&resourceName, "resource", "r", "", "resource to describe")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print JSON")
	return cmd
}

func writeFieldRows(table *tabwriter.Writer, fields []resource.Field, prefix string) {
	for _, field := range fields {
		kind := field.Type
		if field.Format != "" {
			kind += "/" + field.Format
		}
		fmt.Fprintf(table, "%s%s\t%s\t%s\t%s\t%s\n", prefix, field.Name, field.DisplayLabel(), kind, resource.ColumnSlug(field), resource.FilterSlug(field))
		if len(field.Fields) > 0 {
			writeFieldRows(table, field.Fields, prefix+field.Name+".")
		}
	}
}

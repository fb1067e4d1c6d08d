package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-pagebuilder/pkg/ambient"
	"github.com/goliatone/go-pagebuilder/pkg/pages"
)

func newRenderCommand(rt *runtime) *cobra.Command {
	var (
		format   string
		edit     bool
		output   string
		path     string
		records  string
		recordID string
	)

	cmd := &cobra.Command{
		Use:   "render <page.yaml>",
		Short: "Render a page file as HTML, JSON or a terminal outline",
		Example: `  # HTML preview with sample records
  pagebuilder render pages/posts.yaml --records records.yaml --output posts.html

  # Edit mode markup, hidden nodes included
  pagebuilder render pages/posts.yaml --edit

  # Resolved view tree for headless editors
  pagebuilder render pages/posts.yaml --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := pages.ReadFile(args[0])
			if err != nil {
				return err
			}
			if path == "" {
				path = pagePathOf(args[0], page)
			}
			var source ambient.DataSource
			if records != "" {
				static, err := loadRecords(records)
				if err != nil {
					return err
				}
				source = static
			}

			engine, err := rt.engine()
			if err != nil {
				return err
			}
			env, err := pageEnv(cmd.Context(), source, path, page, recordID)
			if err != nil {
				return err
			}
			env.EditMode = edit

			out, err := engine.Render(cmd.Context(), page, env, format)
			if err != nil {
				return err
			}
			rt.logger.Debug().Str("path", path).Str("format", format).Int("bytes", len(out)).Msg("page rendered")
			if output == "" {
				_, err = cmd.OutOrStdout().Write(out)
				return err
			}
			if err := os.WriteFile(output, out, 0o644); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&format, "format", "f", "vanilla", "renderer (vanilla, json, tui)")
	flags.BoolVar(&edit, "edit", false, "render in edit mode")
	flags.StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	flags.StringVar(&path, "path", "", "page path (defaults to the resource id of the page)")
	flags.StringVar(&records, "records", "", "YAML file of sample records keyed by resource")
	flags.StringVar(&recordID, "id", "", "record id for show pages")
	return cmd
}

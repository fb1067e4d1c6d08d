package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-pagebuilder/pkg/blocks"
	"github.com/goliatone/go-pagebuilder/pkg/model"
	"github.com/goliatone/go-pagebuilder/pkg/pages"
)

// errInvalidPages is returned when any validated file has issues.
var errInvalidPages = errors.New("page validation failed")

func newValidateCommand(rt *runtime) *cobra.Command {
	var (
		strict     bool
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "validate <page.yaml>...",
		Short: "Check page files for missing ids, duplicate ids and unknown types",
		Long: `Validate page files against the structural rules of the block tree.

This command checks:
  - every node has an id and a slug
  - ids are unique across the whole tree, nested grids and tabs included
  - with --strict, every slug resolves in its registry`,
		Example: `  pagebuilder validate pages/*.yaml
  pagebuilder validate --strict --definitions ./types pages/posts.yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := rt.engine()
			if err != nil {
				return err
			}
			var known blocks.KnownFunc
			if strict {
				known = func(registryType model.RegistryType, slug string) bool {
					_, ok := engine.Registries.Resolve(registryType, slug)
					return ok
				}
			}

			report := make(map[string]blocks.Issues, len(args))
			failed := false
			for _, file := range args {
				page, err := pages.ReadFile(file)
				if err != nil {
					return err
				}
				issues := blocks.Validate(page.Blocks, engine.Registries, known)
				if issues == nil {
					issues = blocks.Issues{}
				}
				report[file] = issues
				if len(issues) > 0 {
					failed = true
				}
				rt.logger.Debug().Str("file", file).Int("issues", len(issues)).Msg("page validated")
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				if err := writeJSON(out, report); err != nil {
					return err
				}
			} else {
				for _, file := range args {
					issues := report[file]
					if len(issues) == 0 {
						fmt.Fprintf(out, "%s: ok\n", file)
						continue
					}
					for _, issue := range issues {
						fmt.Fprintf(out, "%s: %s: %s (%s)\n", file, issue.Path, issue.Message, issue.Code)
					}
				}
			}
			if failed {
				return errInvalidPages
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "report slugs missing from the registries")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print issues as JSON")
	cmd.Flags().String("definitions", "", "directory of extension type definitions")
	return cmd
}

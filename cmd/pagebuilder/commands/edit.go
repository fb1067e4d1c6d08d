package commands

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-pagebuilder/internal/logging"
	"github.com/goliatone/go-pagebuilder/pkg/blocks"
	"github.com/goliatone/go-pagebuilder/pkg/editor"
	"github.com/goliatone/go-pagebuilder/pkg/model"
	"github.com/goliatone/go-pagebuilder/pkg/pages"
	"github.com/goliatone/go-pagebuilder/pkg/renderers/tui"
)

func newEditCommand(rt *runtime) *cobra.Command {
	var nodeID string

	cmd := &cobra.Command{
		Use:   "edit <page.yaml>",
		Short: "Edit one node of a page file in the terminal",
		Long: `Open an editing session on a page file, prompt through the form of one
node and write the page back on save. Without --node the node is picked from
a list of every node in the tree.`,
		Example: `  pagebuilder edit pages/posts.yaml --node hdr`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, path := storeLocation(args[0])
			store := pages.NewFileStore(dir)
			engine, err := rt.engine()
			if err != nil {
				return err
			}

			session, err := engine.Open(cmd.Context(), store, path,
				editor.WithLogger(logging.Component(rt.logger, "editor")),
				editor.WithPreserveUnknownKeys(rt.cfg.Editor.PreserveUnknownKeys),
				editor.WithCreateMissing(false),
			)
			if err != nil {
				return err
			}
			defer session.Close()

			driver := rt.prompts
			if driver == nil {
				driver = tui.NewSurveyDriver(cmd.ErrOrStderr())
			}
			if nodeID == "" {
				if nodeID, err = pickNode(cmd, driver, session.Page(), engine.Registries); err != nil {
					return err
				}
			}
			modal, err := session.Select(nodeID)
			if err != nil {
				return err
			}

			terminal, err := tui.New(tui.WithPromptDriver(driver))
			if err != nil {
				return err
			}
			if err := terminal.EditModal(cmd.Context(), modal); err != nil {
				if errors.Is(err, tui.ErrDiscarded) || errors.Is(err, tui.ErrAborted) {
					fmt.Fprintln(cmd.ErrOrStderr(), "No changes written.")
					return nil
				}
				return err
			}
			rt.logger.Info().Str("file", args[0]).Str("node", nodeID).Int64("revision", session.Page().Revision).Msg("page saved")
			return nil
		},
	}

	cmd.Flags().StringVar(&nodeID, "node", "", "id of the node to edit")
	cmd.Flags().String("definitions", "", "directory of extension type definitions")
	return cmd
}

// storeLocation splits a page file into the directory a FileStore is rooted
// at and the page path inside it. show files address the show page of the
// directory they live in.
func storeLocation(file string) (string, string) {
	dir := filepath.Dir(file)
	base := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	if base == "show" {
		return filepath.Dir(dir), pages.Path(filepath.Base(dir), pages.ViewShow)
	}
	return dir, base
}

func pickNode(cmd *cobra.Command, driver tui.PromptDriver, page model.PageConfig, kinds blocks.Kinds) (string, error) {
	var (
		ids    []string
		labels []string
	)
	blocks.Walk(page.Blocks, kinds, func(visit blocks.Visit) bool {
		ids = append(ids, visit.Block.ID)
		labels = append(labels, fmt.Sprintf("%s%s [%s]", strings.Repeat("  ", visit.Depth), visit.Block.ID, visit.Block.TypeKey()))
		return true
	})
	if len(ids) == 0 {
		return "", errors.New("page has no nodes to edit")
	}
	index, err := driver.Select(cmd.Context(), tui.SelectConfig{Message: "Node to edit", Options: labels, PageSize: 15})
	if err != nil {
		return "", err
	}
	if index < 0 || index >= len(ids) {
		return "", fmt.Errorf("node selection %d out of range", index)
	}
	return ids[index], nil
}

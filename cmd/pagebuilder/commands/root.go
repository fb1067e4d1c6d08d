// Package commands implements the pagebuilder command line.
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/goliatone/go-pagebuilder"
	"github.com/goliatone/go-pagebuilder/internal/config"
	"github.com/goliatone/go-pagebuilder/internal/logging"
	"github.com/goliatone/go-pagebuilder/pkg/renderers/tui"
)

// runtime is the state shared by subcommands once the root pre-run has
// loaded the configuration.
type runtime struct {
	settings   *viper.Viper
	configPath string
	cfg        *config.Config
	logger     zerolog.Logger
	closer     io.Closer
	// prompts replaces the survey terminal driver of the edit command.
	prompts tui.PromptDriver
}

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	return newRootCommand(version, commit, buildDate).ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	return newRootCommandFor(newRuntime(), fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate))
}

func newRuntime() *runtime {
	return &runtime{settings: config.New(), logger: zerolog.Nop()}
}

func newRootCommandFor(rt *runtime, version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pagebuilder",
		Short: "Compose, render and edit block based admin pages",
		Long: `pagebuilder serves and edits pages built from a tree of typed blocks.

Pages are stored as a tree of block configs. Each block type is described by
a registry entry with a form schema, so the same page can be rendered as HTML,
as JSON for headless editors, or as a terminal outline, and every node can be
edited through a form generated from its schema.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return rt.load(cmd.Flags())
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if rt.closer != nil {
				_ = rt.closer.Close()
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&rt.configPath, "config", "c", "", "config file path (default ./"+config.DefaultFile+")")
	flags.String("log-level", "", "log level (trace, debug, info, warn, error, disabled)")
	flags.String("log-format", "", "log format (json, console)")

	rootCmd.AddCommand(newServeCommand(rt))
	rootCmd.AddCommand(newRenderCommand(rt))
	rootCmd.AddCommand(newValidateCommand(rt))
	rootCmd.AddCommand(newEditCommand(rt))
	rootCmd.AddCommand(newFieldsCommand(rt))
	rootCmd.AddCommand(newTypesCommand(rt))

	return rootCmd
}

// flagKeys maps command flags onto configuration keys. Flags are bound for
// the command being run only, so subcommands may share a flag name.
var flagKeys = map[string]string{
	"log-level":   "logging.level",
	"log-format":  "logging.format",
	"addr":        "server.addr",
	"storage":     "storage.driver",
	"db":          "storage.path",
	"definitions": "definitions.dir",
	"watch":       "definitions.watch",
	"openapi":     "resources.openapi",
}

func (rt *runtime) load(flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		if flag := flags.Lookup(name); flag != nil {
			if err := rt.settings.BindPFlag(key, flag); err != nil {
				return fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}
	cfg, err := config.Load(rt.settings, rt.configPath)
	if err != nil {
		return err
	}
	logger, closer, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	rt.cfg = cfg
	rt.logger = logger
	rt.closer = closer
	return nil
}

func (rt *runtime) engineOptions() []pagebuilder.Option {
	return []pagebuilder.Option{
		pagebuilder.WithLogger(logging.Component(rt.logger, "registry")),
		pagebuilder.WithWarnOnOverwrite(rt.cfg.Editor.WarnOnOverwrite),
	}
}

// engine builds a page builder with the configured definitions directory
// registered once.
func (rt *runtime) engine(opts ...pagebuilder.Option) (*pagebuilder.Engine, error) {
	options := rt.engineOptions()
	if dir := rt.cfg.Definitions.Dir; dir != "" {
		options = append(options, pagebuilder.WithDefinitions(os.DirFS(dir)))
	}
	return pagebuilder.New(append(options, opts...)...)
}

func writeJSON(w io.Writer, value any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

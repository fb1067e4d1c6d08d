package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-pagebuilder"
	"github.com/goliatone/go-pagebuilder/internal/config"
	"github.com/goliatone/go-pagebuilder/internal/httpapi"
	"github.com/goliatone/go-pagebuilder/internal/logging"
	"github.com/goliatone/go-pagebuilder/internal/metrics"
	"github.com/goliatone/go-pagebuilder/internal/storage/sqlite"
	"github.com/goliatone/go-pagebuilder/pkg/ambient"
	"github.com/goliatone/go-pagebuilder/pkg/definitions"
	"github.com/goliatone/go-pagebuilder/pkg/pages"
	"github.com/goliatone/go-pagebuilder/pkg/resource"
)

func newServeCommand(rt *runtime) *cobra.Command {
	var records string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the page API, previews and edit forms over HTTP",
		Example: `  # In-memory pages with the built-in types
  pagebuilder serve

  # SQLite storage, extension types reloaded on change
  pagebuilder serve --storage sqlite --db pages.db --definitions ./types --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var source ambient.DataSource
			if records != "" {
				static, err := loadRecords(records)
				if err != nil {
					return err
				}
				source = static
			}
			return serve(cmd.Context(), rt.cfg, rt.logger, source)
		},
	}

	flags := cmd.Flags()
	flags.String("addr", "", "listen address")
	flags.String("storage", "", "page store driver (memory, sqlite, file)")
	flags.String("db", "", "sqlite database file or page directory")
	flags.String("definitions", "", "directory of extension type definitions")
	flags.Bool("watch", false, "reload definitions when files change")
	flags.String("openapi", "", "OpenAPI document describing resources")
	flags.StringVar(&records, "records", "", "YAML file of sample records keyed by resource")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, logger zerolog.Logger, source ambient.DataSource) error {
	collector := metrics.New()

	engine, err := pagebuilder.New(
		pagebuilder.WithLogger(logging.Component(logger, "registry")),
		pagebuilder.WithWarnOnOverwrite(cfg.Editor.WarnOnOverwrite),
	)
	if err != nil {
		return err
	}

	if dir := cfg.Definitions.Dir; dir != "" {
		watcher, err := definitions.NewWatcher(dir, engine.Registries,
			definitions.WithCompiler(engine.HTML),
			definitions.WithBinder(engine.HTML.Bind),
			definitions.WithLogger(logging.Component(logger, "definitions")),
			definitions.OnReload(func(*definitions.Catalog) { collector.DefinitionsReloaded() }),
		)
		if err != nil {
			return err
		}
		if err := watcher.Load(); err != nil {
			return err
		}
		if cfg.Definitions.Watch {
			if err := watcher.Start(); err != nil {
				return err
			}
			defer watcher.Stop()
		}
	}

	store, closeStore, err := openStore(cfg.Storage)
	if err != nil {
		return err
	}
	defer closeStore()

	var doc *resource.Document
	if cfg.Resources.OpenAPI != "" {
		if doc, err = loadDocument(ctx, cfg.Resources); err != nil {
			return err
		}
	}

	deps := httpapi.Deps{
		Store:           store,
		Registries:      engine.Registries,
		HTML:            engine.HTML,
		Renderers:       engine.Renderers,
		Document:        doc,
		Source:          source,
		Logger:          logging.Component(logger, "http"),
		PreserveUnknown: cfg.Editor.PreserveUnknownKeys,
	}
	if cfg.Metrics.Enabled {
		deps.Metrics = collector
		deps.Gatherer = prometheus.DefaultGatherer
	}
	api, err := httpapi.New(deps)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.Router(httpapi.RouterConfig{Timeout: cfg.Server.WriteTimeout, MetricsPath: cfg.Metrics.Path}),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", cfg.Server.Addr).
			Str("storage", cfg.Storage.Driver).
			Msg("pagebuilder listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// openStore opens the configured page store and returns its release func.
func openStore(cfg config.StorageConfig) (pages.Store, func(), error) {
	switch cfg.Driver {
	case "sqlite":
		db, err := sqlite.Open(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return sqlite.NewPageStore(db), func() { _ = db.Close() }, nil
	case "file":
		return pages.NewFileStore(cfg.Path), func() {}, nil
	default:
		return pages.NewMemoryStore(nil), func() {}, nil
	}
}

func loadDocument(ctx context.Context, cfg config.ResourcesConfig) (*resource.Document, error) {
	src, err := resource.SourceFor(cfg.OpenAPI)
	if err != nil {
		return nil, err
	}
	var options []resource.LoaderOption
	if cfg.AllowHTTP {
		options = append(options, resource.WithHTTPFallback(30*time.Second))
	}
	return pagebuilder.NewResourceLoader(options...).Load(ctx, src)
}

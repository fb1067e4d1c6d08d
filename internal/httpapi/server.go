// Package httpapi serves the page API, page previews and the server side
// edit forms over HTTP.
package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-pagebuilder/internal/metrics"
	"github.com/goliatone/go-pagebuilder/pkg/ambient"
	"github.com/goliatone/go-pagebuilder/pkg/compose"
	"github.com/goliatone/go-pagebuilder/pkg/pages"
	"github.com/goliatone/go-pagebuilder/pkg/registry"
	"github.com/goliatone/go-pagebuilder/pkg/render"
	"github.com/goliatone/go-pagebuilder/pkg/renderers/vanilla"
	"github.com/goliatone/go-pagebuilder/pkg/resource"
)

// Deps are the collaborators the server is wired with. Store, Registries
// and HTML are required.
type Deps struct {
	Store      pages.Store
	Registries *registry.Set
	HTML       *vanilla.Renderer
	// Renderers holds the preview formats. Defaults to json and HTML.
	Renderers *render.Registry
	// Document describes the resources pages are built for. Optional.
	Document *resource.Document
	// Source feeds records to previews. Optional.
	Source  ambient.DataSource
	Metrics *metrics.Collector
	// Gatherer backs the metrics endpoint. Defaults to the default registry.
	Gatherer prometheus.Gatherer
	Logger   zerolog.Logger

	PreserveUnknown bool
}

// RouterConfig tunes the router.
type RouterConfig struct {
	Timeout     time.Duration
	MetricsPath string
}

// Server holds the handlers.
type Server struct {
	deps     Deps
	composer *compose.Composer
	validate *validator.Validate
	logger   zerolog.Logger
}

// New validates deps and builds a Server.
func New(deps Deps) (*Server, error) {
	if deps.Store == nil || deps.Registries == nil || deps.HTML == nil {
		return nil, fmt.Errorf("httpapi: store, registries and html renderer are required")
	}
	if deps.Renderers == nil {
		renderers, err := render.NewRegistry(render.JSONRenderer{Indent: true}, deps.HTML)
		if err != nil {
			return nil, fmt.Errorf("httpapi: renderers: %w", err)
		}
		deps.Renderers = renderers
	}
	options := []compose.Option{
		compose.WithLogger(deps.Logger),
		compose.WithPlaceholder(deps.HTML.Placeholder()),
	}
	if deps.Metrics != nil {
		options = append(options, compose.WithObserver(deps.Metrics))
	}
	return &Server{
		deps:     deps,
		composer: compose.New(deps.Registries, options...),
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   deps.Logger,
	}, nil
}

// Router builds the chi router with every route mounted.
func (s *Server) Router(cfg RouterConfig) chi.Router {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewLoggingMiddleware(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.Timeout))
	if s.deps.Metrics != nil {
		r.Use(NewMetricsMiddleware(s.deps.Metrics))
	}

	r.Get("/healthz", s.health)
	if s.deps.Metrics != nil && cfg.MetricsPath != "" {
		gatherer := s.deps.Gatherer
		if gatherer == nil {
			gatherer = prometheus.DefaultGatherer
		}
		r.Handle(cfg.MetricsPath, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/pages", s.listPages)
		r.Get("/pages/*", s.getPage)
		r.Patch("/pages/*", s.patchPage)
		r.Get("/history/*", s.pageHistory)
		r.Post("/blocks/*", s.addBlock)
		r.Post("/nodes/*", s.updateNode)
		r.Get("/types", s.listTypes)
		r.Get("/types/{registry}", s.listTypes)
		r.Get("/resources", s.listResources)
		r.Get("/resources/{name}", s.getResource)
	})

	r.Get("/preview/*", s.preview)
	r.Get("/edit/*", s.editForm)
	r.Post("/edit/*", s.submitForm)

	r.Handle(vanilla.AssetPrefix+"*", http.StripPrefix(vanilla.AssetPrefix, http.FileServer(http.FS(vanilla.AssetsFS()))))
	return r
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// pagePath returns the cleaned wildcard tail of the request path.
func pagePath(r *http.Request) (string, error) {
	return pages.NormalizePath(chi.URLParam(r, "*"))
}

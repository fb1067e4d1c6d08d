// Package pagebuilder wires the built-in registries, renderers and composer
// into an Engine so callers can render and edit stored pages without
// assembling the pieces by hand.
package pagebuilder

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-pagebuilder/pkg/builtins"
	"github.com/goliatone/go-pagebuilder/pkg/compose"
	"github.com/goliatone/go-pagebuilder/pkg/definitions"
	"github.com/goliatone/go-pagebuilder/pkg/editor"
	"github.com/goliatone/go-pagebuilder/pkg/model"
	"github.com/goliatone/go-pagebuilder/pkg/pages"
	"github.com/goliatone/go-pagebuilder/pkg/registry"
	"github.com/goliatone/go-pagebuilder/pkg/render"
	"github.com/goliatone/go-pagebuilder/pkg/renderers/tui"
	"github.com/goliatone/go-pagebuilder/pkg/renderers/vanilla"
	"github.com/goliatone/go-pagebuilder/pkg/resource"
)

// PageConfig aliases model.PageConfig for callers that only import the root
// package.
type PageConfig = model.PageConfig

// Env aliases compose.Env.
type Env = compose.Env

type options struct {
	logger          zerolog.Logger
	vanillaOptions  []vanilla.Option
	tuiOptions      []tui.Option
	observer        compose.Observer
	warnOnOverwrite bool
	definitions     []fs.FS
}

// Option configures New.
type Option func(*options)

// WithLogger sets the logger shared by the registries and the composer.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithVanillaOptions forwards options to the HTML renderer.
func WithVanillaOptions(opts ...vanilla.Option) Option {
	return func(o *options) {
		o.vanillaOptions = append(o.vanillaOptions, opts...)
	}
}

// WithTUIOptions forwards options to the terminal renderer.
func WithTUIOptions(opts ...tui.Option) Option {
	return func(o *options) {
		o.tuiOptions = append(o.tuiOptions, opts...)
	}
}

// WithObserver reports every rendered node to observer.
func WithObserver(observer compose.Observer) Option {
	return func(o *options) {
		o.observer = observer
	}
}

// WithWarnOnOverwrite logs registrations that replace an existing type.
func WithWarnOnOverwrite(enabled bool) Option {
	return func(o *options) {
		o.warnOnOverwrite = enabled
	}
}

// WithDefinitions registers the definition files found in fsys on top of the
// built-ins. Later file systems win on slug collisions.
func WithDefinitions(fsys fs.FS) Option {
	return func(o *options) {
		if fsys != nil {
			o.definitions = append(o.definitions, fsys)
		}
	}
}

// Engine holds the registries and renderers of one page builder instance.
type Engine struct {
	Registries *registry.Set
	HTML       *vanilla.Renderer
	Terminal   *tui.Renderer
	Renderers  *render.Registry
	Composer   *compose.Composer
}

// New builds an Engine with the built-in types bound to the HTML renderer.
func New(opts ...Option) (*Engine, error) {
	cfg := options{logger: zerolog.Nop()}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	html, err := vanilla.New(cfg.vanillaOptions...)
	if err != nil {
		return nil, fmt.Errorf("pagebuilder: %w", err)
	}
	terminal, err := tui.New(cfg.tuiOptions...)
	if err != nil {
		return nil, fmt.Errorf("pagebuilder: %w", err)
	}
	renderers, err := render.NewRegistry(render.JSONRenderer{Indent: true}, html, terminal)
	if err != nil {
		return nil, fmt.Errorf("pagebuilder: %w", err)
	}
	for alias, name := range map[string]string{"html": html.Name(), "text": terminal.Name()} {
		if err := renderers.Alias(alias, name); err != nil {
			return nil, fmt.Errorf("pagebuilder: %w", err)
		}
	}

	set := registry.NewSet(html.Bind(builtins.Definitions()),
		registry.WithLogger(cfg.logger),
		registry.WithWarnOnOverwrite(cfg.warnOnOverwrite),
	)
	for _, fsys := range cfg.definitions {
		if _, err := definitions.Register(set, fsys, html, html.Bind); err != nil {
			return nil, fmt.Errorf("pagebuilder: %w", err)
		}
	}

	composeOptions := []compose.Option{
		compose.WithLogger(cfg.logger),
		compose.WithPlaceholder(html.Placeholder()),
	}
	if cfg.observer != nil {
		composeOptions = append(composeOptions, compose.WithObserver(cfg.observer))
	}

	return &Engine{
		Registries: set,
		HTML:       html,
		Terminal:   terminal,
		Renderers:  renderers,
		Composer:   compose.New(set, composeOptions...),
	}, nil
}

// Render composes page and renders it with the named renderer. Rendering
// never writes back.
func (e *Engine) Render(ctx context.Context, page PageConfig, env Env, format string) ([]byte, error) {
	renderer, err := e.Renderers.Get(format)
	if err != nil {
		return nil, fmt.Errorf("pagebuilder: %w", err)
	}
	view := e.Composer.RenderPage(ctx, page, env, nil)
	return renderer.Render(ctx, view)
}

// Open starts an editing session on the page stored at path.
func (e *Engine) Open(ctx context.Context, store pages.Store, path string, opts ...editor.Option) (*editor.Session, error) {
	return editor.Open(ctx, store, path, e.Composer, opts...)
}

// NewResourceLoader constructs the OpenAPI resource loader.
func NewResourceLoader(opts ...resource.LoaderOption) *resource.Loader {
	return resource.NewLoader(opts...)
}

// EmbeddedTemplates exposes the built-in HTML templates so callers can reuse
// or extend them.
func EmbeddedTemplates() fs.FS {
	return vanilla.TemplatesFS()
}

// AssetsFS exposes the stylesheet and editor script the HTML renderer links.
//
// Typical mount:
//
//	mux.Handle("/assets/",
//	  http.StripPrefix("/assets/",
//	    http.FileServerFS(pagebuilder.AssetsFS()),
//	  ),
//	)
func AssetsFS() fs.FS {
	return vanilla.AssetsFS()
}

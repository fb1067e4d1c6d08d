package vanilla

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-pagebuilder/pkg/render"
	rendertemplate "github.com/goliatone/go-pagebuilder/pkg/render/template"
	gotemplate "github.com/goliatone/go-pagebuilder/pkg/render/template/gotemplate"
	"github.com/goliatone/go-pagebuilder/pkg/renderers/vanilla/components"
)

type Option func(*config)

type config struct {
	templateFS       fs.FS
	templateRenderer rendertemplate.Engine
	controls         *components.Registry
	stylesheets      []string
	inlineStyles     bool
	policy           *bluemonday.Policy
}

// WithTemplatesFS supplies an alternate template bundle via fs.FS.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads templates from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path == "" {
			return
		}
		cfg.templateFS = os.DirFS(path)
	}
}

// WithTemplateRenderer replaces the pongo2 engine.
func WithTemplateRenderer(renderer rendertemplate.Engine) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// WithControls replaces the edit-form control registry.
func WithControls(registry *components.Registry) Option {
	return func(cfg *config) {
		if registry != nil {
			cfg.controls = registry
		}
	}
}

// WithStylesheet links an extra stylesheet from the page document.
func WithStylesheet(href string) Option {
	return func(cfg *config) {
		if href != "" {
			cfg.stylesheets = append(cfg.stylesheets, href)
		}
	}
}

// WithDefaultStyles inlines the bundled stylesheet into page documents.
func WithDefaultStyles() Option {
	return func(cfg *config) {
		cfg.inlineStyles = true
	}
}

// WithPolicy overrides the sanitiser applied to rich text.
func WithPolicy(policy *bluemonday.Policy) Option {
	return func(cfg *config) {
		if policy != nil {
			cfg.policy = policy
		}
	}
}

var (
	ugcPolicyOnce sync.Once
	ugcPolicy     *bluemonday.Policy
)

func defaultPolicy() *bluemonday.Policy {
	ugcPolicyOnce.Do(func() {
		ugcPolicy = bluemonday.UGCPolicy()
	})
	return ugcPolicy
}

// Renderer renders page views and edit forms as HTML.
type Renderer struct {
	templates    rendertemplate.Engine
	controls     *components.Registry
	stylesheets  []string
	inlineStyles bool
	policy       *bluemonday.Policy
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the vanilla renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	cfg := config{templateFS: TemplatesFS()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	if cfg.templateFS == nil {
		cfg.templateFS = TemplatesFS()
	}
	if cfg.controls == nil {
		cfg.controls = components.NewDefaultRegistry()
	}
	if cfg.policy == nil {
		cfg.policy = defaultPolicy()
	}

	renderer := cfg.templateRenderer
	if renderer == nil {
		engine, err := gotemplate.New(
			gotemplate.WithFS(cfg.templateFS),
			gotemplate.WithExtension(".tmpl"),
		)
		if err != nil {
			return nil, fmt.Errorf("vanilla renderer: configure template renderer: %w", err)
		}
		renderer = engine
	}

	return &Renderer{
		templates:    renderer,
		controls:     cfg.controls,
		stylesheets:  cfg.stylesheets,
		inlineStyles: cfg.inlineStyles,
		policy:       cfg.policy,
	}, nil
}

func (r *Renderer) Name() string {
	return "vanilla"
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Render wraps the rendered page blocks in an HTML document.
func (r *Renderer) Render(_ context.Context, page *render.PageView) ([]byte, error) {
	if r.templates == nil {
		return nil, fmt.Errorf("vanilla renderer: template renderer is nil")
	}
	if page == nil {
		return nil, fmt.Errorf("vanilla renderer: page is nil")
	}

	blocks := make([]string, 0, len(page.Blocks))
	for _, view := range page.Blocks {
		if view.Output != "" {
			blocks = append(blocks, view.Output)
		}
	}
	data := map[string]any{
		"page":        page,
		"blocks":      blocks,
		"stylesheets": r.stylesheets,
		"editScript":  AssetURL(EditorScript),
	}
	if r.inlineStyles {
		data["inlineStyles"] = bundledStylesheet()
	}
	result, err := r.templates.RenderTemplate("templates/page.tmpl", data)
	if err != nil {
		return nil, fmt.Errorf("vanilla renderer: render template: %w", err)
	}
	return []byte(result), nil
}

// Sanitize cleans rich text with the renderer's policy.
func (r *Renderer) Sanitize(html string) string {
	return r.policy.Sanitize(html)
}

// Package gotemplate implements template.Engine with pongo2, the Django
// flavoured syntax extension definitions are written in.
package gotemplate

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-pagebuilder/pkg/model"
	"github.com/goliatone/go-pagebuilder/pkg/render/template"
)

// Option configures New.
type Option func(*Engine)

// WithFS adds a template file system. File systems added later shadow
// earlier ones, so a definitions directory can override bundled templates.
func WithFS(files fs.FS) Option {
	return func(e *Engine) {
		if files != nil {
			e.sources = append([]fs.FS{files}, e.sources...)
		}
	}
}

// WithExtension sets the extension appended to bare template names.
// Defaults to ".tmpl".
func WithExtension(ext string) Option {
	return func(e *Engine) {
		ext = strings.TrimSpace(ext)
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if ext != "" {
			e.extension = ext
		}
	}
}

// WithGlobals exposes values to every template, for example a site name or
// an asset prefix.
func WithGlobals(values map[string]any) Option {
	return func(e *Engine) {
		for key, value := range values {
			if key = strings.TrimSpace(key); key != "" {
				e.globals[key] = value
			}
		}
	}
}

// Engine is a pongo2 template set with a cache of parsed files.
type Engine struct {
	sources   []fs.FS
	extension string
	globals   pongo2.Context

	set   *pongo2.TemplateSet
	mu    sync.Mutex
	files map[string]*pongo2.Template
}

var _ template.Engine = (*Engine)(nil)

// New builds an engine over the configured file systems. At least one is
// required; inline templates can still include nothing else.
func New(options ...Option) (*Engine, error) {
	e := &Engine{extension: ".tmpl", globals: pongo2.Context{}, files: map[string]*pongo2.Template{}}
	for _, opt := range options {
		if opt != nil {
			opt(e)
		}
	}
	if len(e.sources) == 0 {
		return nil, errors.New("gotemplate: a template file system is required")
	}

	loaders := make([]pongo2.TemplateLoader, 0, len(e.sources))
	for _, files := range e.sources {
		loaders = append(loaders, pongo2.NewFSLoader(files))
	}
	e.set = pongo2.NewSet("pagebuilder", loaders...)
	e.set.Globals = e.globals
	registerFilters()
	return e, nil
}

// RenderTemplate implements template.Engine.
func (e *Engine) RenderTemplate(name string, data any) (string, error) {
	if path.Ext(name) == "" {
		name += e.extension
	}
	tmpl, err := e.file(name)
	if err != nil {
		return "", err
	}
	return compiled{tmpl: tmpl, label: name}.Execute(data)
}

// RenderString implements template.Engine.
func (e *Engine) RenderString(source string, data any) (string, error) {
	tmpl, err := e.Compile(source)
	if err != nil {
		return "", err
	}
	return tmpl.Execute(data)
}

// Compile implements template.Engine.
func (e *Engine) Compile(source string) (template.Template, error) {
	tmpl, err := e.set.FromString(source)
	if err != nil {
		return nil, fmt.Errorf("gotemplate: parse inline template: %w", err)
	}
	return compiled{tmpl: tmpl, label: "inline"}, nil
}

func (e *Engine) file(name string) (*pongo2.Template, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if tmpl, ok := e.files[name]; ok {
		return tmpl, nil
	}
	tmpl, err := e.set.FromFile(name)
	if err != nil {
		return nil, fmt.Errorf("gotemplate: load %s: %w", name, err)
	}
	e.files[name] = tmpl
	return tmpl, nil
}

type compiled struct {
	tmpl  *pongo2.Template
	label string
}

func (c compiled) Execute(data any) (string, error) {
	ctx, err := contextOf(data)
	if err != nil {
		return "", fmt.Errorf("gotemplate: %s: %w", c.label, err)
	}
	out, err := c.tmpl.Execute(ctx)
	if err != nil {
		return "", fmt.Errorf("gotemplate: execute %s: %w", c.label, err)
	}
	return out, nil
}

// contextOf turns template data into a pongo2 context. Structs go through
// JSON so templates see their json tag names.
func contextOf(data any) (pongo2.Context, error) {
	switch v := data.(type) {
	case nil:
		return pongo2.Context{}, nil
	case pongo2.Context:
		return v, nil
	case map[string]any:
		return pongo2.Context(v), nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode data: %w", err)
	}
	ctx := pongo2.Context{}
	if err := json.Unmarshal(raw, &ctx); err != nil {
		return nil, fmt.Errorf("data must be an object: %w", err)
	}
	return ctx, nil
}

var filtersOnce sync.Once

// registerFilters installs the pagebuilder filters. pongo2 filters are
// process wide and a host may already define one of the names.
func registerFilters() {
	filtersOnce.Do(func() {
		filters := map[string]pongo2.FilterFunction{
			"stringify": func(in, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
				return pongo2.AsValue(model.Stringify(in.Interface())), nil
			},
			"tojson": func(in, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
				raw, err := json.Marshal(in.Interface())
				if err != nil {
					return nil, &pongo2.Error{Sender: "filter:tojson", OrigError: err}
				}
				return pongo2.AsValue(string(raw)), nil
			},
			"trim": func(in, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
				return pongo2.AsValue(strings.TrimSpace(in.String())), nil
			},
		}
		for name, fn := range filters {
			if !pongo2.FilterExists(name) {
				_ = pongo2.RegisterFilter(name, fn)
			}
		}
	})
}

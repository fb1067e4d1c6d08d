package vanilla

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-pagebuilder/pkg/model"
	"github.com/goliatone/go-pagebuilder/pkg/render"
	rendertemplate "github.com/goliatone/go-pagebuilder/pkg/render/template"
)

// inlineWidget renders a template supplied as text, typically by an
// extension definition file.
type inlineWidget struct {
	r    *Renderer
	slug string
	tmpl rendertemplate.Template
}

// TemplateWidget compiles source into a widget for slug. Templates see node,
// config, record, children and tabs; richtext config values are exposed
// sanitised under html so they can be emitted with the safe filter.
func (r *Renderer) TemplateWidget(slug, source string) (render.Widget, error) {
	if strings.TrimSpace(source) == "" {
		return nil, fmt.Errorf("vanilla renderer: template for %q is empty", slug)
	}
	tmpl, err := r.templates.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("vanilla renderer: compile %q: %w", slug, err)
	}
	return inlineWidget{r: r, slug: slug, tmpl: tmpl}, nil
}

func (w inlineWidget) Render(_ context.Context, props render.Props) (string, error) {
	tabs, _ := prepareTabs(props)
	data := map[string]any{
		"node":     nodeData(props),
		"config":   props.Config,
		"record":   props.Ambient.Record,
		"resource": props.Ambient.Resource,
		"children": childOutputs(props.Children),
		"tabs":     tabs["tabs"],
		"html":     w.r.sanitisedRichText(props.Schema, props.Config),
	}
	output, err := w.tmpl.Execute(data)
	if err != nil {
		return "", fmt.Errorf("vanilla renderer: render %s: %w", w.slug, err)
	}
	return wrapNode(props, output), nil
}

func (r *Renderer) sanitisedRichText(schema []model.FieldSchema, config map[string]any) map[string]string {
	out := map[string]string{}
	for _, field := range schema {
		switch field.Kind {
		case model.FieldKindRichText:
			out[field.Name] = r.Sanitize(model.Stringify(config[field.Name]))
		case model.FieldKindGroup:
			for key, value := range r.sanitisedRichText(field.Fields, config) {
				out[key] = value
			}
		}
	}
	return out
}

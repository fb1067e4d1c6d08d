package vanilla

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"slices"
	"strings"

	"github.com/goliatone/go-pagebuilder/pkg/forms"
	"github.com/goliatone/go-pagebuilder/pkg/model"
	"github.com/goliatone/go-pagebuilder/pkg/registry"
	"github.com/goliatone/go-pagebuilder/pkg/render"
	"github.com/goliatone/go-pagebuilder/pkg/renderers/vanilla/components"
)

// FormOptions describes the edit form around a resolved field form.
type FormOptions struct {
	Title        string
	Action       string
	Method       string
	SubmitLabel  string
	DeleteAction string
	Hidden       map[string]string
	// Fields resolves custom controls. Kinds without a registered control
	// fall back to the built-in ones.
	Fields *registry.Registry[registry.FieldType]
}

// Control returns the built-in control for kind.
func (r *Renderer) Control(kind model.FieldKind) (forms.Control, bool) {
	name := r.controls.NameFor(kind)
	if name == "" {
		return nil, false
	}
	if _, ok := r.controls.Descriptor(name); !ok {
		return nil, false
	}
	return r.namedControl(name), true
}

func (r *Renderer) namedControl(name string) forms.Control {
	return forms.ControlFunc(func(_ context.Context, field forms.FieldView) (string, error) {
		descriptor, ok := r.controls.Descriptor(name)
		if !ok {
			return "", fmt.Errorf("control %q not registered for field %q", name, field.Path)
		}
		var buf bytes.Buffer
		data := components.ComponentData{Template: r.templates, ID: controlID(field.Path)}
		if err := descriptor.Renderer(&buf, field, data); err != nil {
			return "", fmt.Errorf("render control %q for field %q: %w", name, field.Path, err)
		}
		return buf.String(), nil
	})
}

// RenderForm renders the edit form for one node.
func (r *Renderer) RenderForm(ctx context.Context, form forms.Form, opts FormOptions) (string, error) {
	fr := &formRenderer{r: r, opts: opts, used: map[string]struct{}{}}
	body, err := fr.rows(ctx, form.Rows)
	if err != nil {
		return "", err
	}

	names := make([]string, 0, len(fr.used))
	for name := range fr.used {
		names = append(names, name)
	}
	slices.Sort(names)
	stylesheets, scripts := r.controls.Assets(names)

	method := strings.ToUpper(strings.TrimSpace(opts.Method))
	if method == "" {
		method = "POST"
	}
	result, err := r.templates.RenderTemplate("templates/form.tmpl", map[string]any{
		"title":        opts.Title,
		"action":       opts.Action,
		"method":       method,
		"submitLabel":  stringOr(opts.SubmitLabel, "Save"),
		"deleteAction": opts.DeleteAction,
		"hidden":       render.SortedHiddenFields(opts.Hidden),
		"formErrors":   form.FormErrors,
		"body":         body,
		"stylesheets":  stylesheets,
		"scripts":      scripts,
	})
	if err != nil {
		return "", fmt.Errorf("vanilla renderer: render form: %w", err)
	}
	return result, nil
}

type formRenderer struct {
	r    *Renderer
	opts FormOptions
	used map[string]struct{}
}

func (fr *formRenderer) rows(ctx context.Context, rows []forms.Row) (string, error) {
	var builder strings.Builder
	for _, row := range rows {
		builder.WriteString(`<div class="pb-row">`)
		for _, field := range row.Fields {
			markup, err := fr.field(ctx, field)
			if err != nil {
				return "", err
			}
			builder.WriteString(markup)
		}
		builder.WriteString("</div>\n")
	}
	return builder.String(), nil
}

func (fr *formRenderer) field(ctx context.Context, field forms.FieldView) (string, error) {
	switch field.Schema.Kind {
	case model.FieldKindGroup:
		inner, err := fr.rows(ctx, field.Children)
		if err != nil {
			return "", err
		}
		return fieldset(field, "pb-group", inner), nil
	case model.FieldKindRepeater:
		return fr.repeater(ctx, field)
	}

	control, name, err := fr.control(field)
	if err != nil {
		return "", err
	}
	markup, err := control.RenderControl(ctx, field)
	if err != nil {
		return "", err
	}
	if name != "" {
		fr.used[name] = struct{}{}
	}
	return buildFieldMarkup(field, markup), nil
}

// control prefers a control registered for the field's type key.
func (fr *formRenderer) control(field forms.FieldView) (forms.Control, string, error) {
	if fr.opts.Fields != nil {
		if def, ok := fr.opts.Fields.Get(field.Schema.TypeKey()); ok && def.Control != nil {
			return def.Control, fr.r.controls.NameFor(field.Schema.Kind), nil
		}
	}
	name := fr.r.controls.NameFor(field.Schema.Kind)
	if name == "" {
		name = components.NameInput
	}
	if _, ok := fr.r.controls.Descriptor(name); !ok {
		return nil, "", fmt.Errorf("control %q not registered for field %q", name, field.Path)
	}
	return fr.r.namedControl(name), name, nil
}

func (fr *formRenderer) repeater(ctx context.Context, field forms.FieldView) (string, error) {
	var builder strings.Builder
	for _, item := range field.Items {
		inner, err := fr.rows(ctx, item.Rows)
		if err != nil {
			return "", err
		}
		builder.WriteString(`<fieldset class="pb-item" data-path="`)
		builder.WriteString(html.EscapeString(item.Path))
		builder.WriteString(`"><legend>`)
		builder.WriteString(html.EscapeString(item.Label))
		builder.WriteString(`</legend>`)
		builder.WriteString(inner)
		builder.WriteString(`<button type="submit" name="_remove" value="`)
		builder.WriteString(html.EscapeString(item.Path))
		builder.WriteString(`" class="pb-button pb-link">Remove</button></fieldset>`)
	}
	builder.WriteString(`<button type="submit" name="_append" value="`)
	builder.WriteString(html.EscapeString(field.Path))
	builder.WriteString(`" class="pb-button pb-secondary">Add `)
	builder.WriteString(html.EscapeString(strings.ToLower(field.Schema.DisplayLabel())))
	builder.WriteString(`</button>`)
	return fieldset(field, "pb-repeater", builder.String()), nil
}

func fieldset(field forms.FieldView, class, inner string) string {
	var builder strings.Builder
	builder.WriteString(`<fieldset class="`)
	builder.WriteString(class)
	builder.WriteString(` pb-span-`)
	builder.WriteString(fmt.Sprint(field.Columns))
	builder.WriteString(`" id="`)
	builder.WriteString(html.EscapeString(controlID(field.Path)))
	builder.WriteString(`">`)
	if label := field.Schema.DisplayLabel(); label != "" {
		builder.WriteString(`<legend>`)
		builder.WriteString(html.EscapeString(label))
		builder.WriteString(`</legend>`)
	}
	writeDescription(&builder, field)
	builder.WriteString(inner)
	writeErrors(&builder, field)
	builder.WriteString(`</fieldset>`)
	return builder.String()
}

func buildFieldMarkup(field forms.FieldView, control string) string {
	var builder strings.Builder
	builder.Grow(len(control) + 256)

	builder.WriteString(`<div class="pb-field pb-span-`)
	builder.WriteString(fmt.Sprint(field.Columns))
	if len(field.Errors) > 0 {
		builder.WriteString(` pb-has-error`)
	}
	if field.Disabled {
		builder.WriteString(` pb-disabled`)
	}
	builder.WriteString(`" data-field="`)
	builder.WriteString(html.EscapeString(field.Path))
	builder.WriteString(`" data-kind="`)
	builder.WriteString(html.EscapeString(string(field.Schema.Kind)))
	builder.WriteString("\">\n")

	if label := strings.TrimSpace(field.Schema.DisplayLabel()); label != "" {
		builder.WriteString(`    <label for="`)
		builder.WriteString(html.EscapeString(controlID(field.Path)))
		builder.WriteString(`">`)
		builder.WriteString(html.EscapeString(label))
		if field.Schema.Required {
			builder.WriteString(` *`)
		}
		builder.WriteString("</label>\n")
	}

	for _, line := range strings.Split(control, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		builder.WriteString("    ")
		builder.WriteString(line)
		builder.WriteByte('\n')
	}

	writeDescription(&builder, field)
	writeErrors(&builder, field)
	builder.WriteString("</div>\n")
	return builder.String()
}

func writeDescription(builder *strings.Builder, field forms.FieldView) {
	if desc := strings.TrimSpace(field.Schema.Description); desc != "" {
		builder.WriteString(`    <small class="pb-help">`)
		builder.WriteString(html.EscapeString(desc))
		builder.WriteString("</small>\n")
	}
}

func writeErrors(builder *strings.Builder, field forms.FieldView) {
	for _, message := range field.Errors {
		builder.WriteString(`    <p class="pb-error">`)
		builder.WriteString(html.EscapeString(message))
		builder.WriteString("</p>\n")
	}
}

func controlID(path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return ""
	}
	return "pb-" + strings.ReplaceAll(trimmed, ".", "-")
}

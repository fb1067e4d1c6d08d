package components

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/goliatone/go-pagebuilder/pkg/forms"
	"github.com/goliatone/go-pagebuilder/pkg/model"
)

const templatePrefix = "templates/controls/"

// Canonical control names.
const (
	NameInput    = "input"
	NameTextarea = "textarea"
	NameRichText = "richtext"
	NameSelect   = "select"
	NameToggle   = "toggle"
)

// RichTextScript boots the rich text editor on richtext controls.
const RichTextScript = "/assets/pagebuilder-editor.js"

// NewDefaultRegistry constructs a registry with the built-in controls.
func NewDefaultRegistry() *Registry {
	registry := New()

	registry.MustRegister(NameInput, Descriptor{
		Renderer: templateRenderer(templatePrefix + "input.tmpl"),
	})
	registry.MustRegister(NameTextarea, Descriptor{
		Renderer: templateRenderer(templatePrefix + "textarea.tmpl"),
	})
	registry.MustRegister(NameRichText, Descriptor{
		Renderer: templateRenderer(templatePrefix + "richtext.tmpl"),
		Scripts:  []Script{{Src: RichTextScript, Defer: true}},
	})
	registry.MustRegister(NameSelect, Descriptor{
		Renderer: templateRenderer(templatePrefix + "select.tmpl"),
	})
	registry.MustRegister(NameToggle, Descriptor{
		Renderer: templateRenderer(templatePrefix + "toggle.tmpl"),
	})

	return registry
}

// NameFor maps a field kind to the control that edits it. Repeater and
// group kinds are laid out by the form renderer and map to "".
func NameFor(kind model.FieldKind) string {
	switch kind {
	case model.FieldKindTextarea:
		return NameTextarea
	case model.FieldKindRichText:
		return NameRichText
	case model.FieldKindDropdown, model.FieldKindMultiSelect:
		return NameSelect
	case model.FieldKindSwitch, model.FieldKindCheckbox:
		return NameToggle
	case model.FieldKindRepeater, model.FieldKindGroup:
		return ""
	default:
		return NameInput
	}
}

func templateRenderer(templateName string) Renderer {
	return func(buf *bytes.Buffer, field forms.FieldView, data ComponentData) error {
		if data.Template == nil {
			return fmt.Errorf("components: template renderer not configured for %q", templateName)
		}
		rendered, err := data.Template.RenderTemplate(templateName, payload(field, data))
		if err != nil {
			return fmt.Errorf("components: render template %q: %w", templateName, err)
		}
		buf.WriteString(rendered)
		return nil
	}
}

func payload(field forms.FieldView, data ComponentData) map[string]any {
	schema := field.Schema
	return map[string]any{
		"id":          data.ID,
		"name":        field.Path,
		"kind":        string(schema.Kind),
		"inputType":   inputType(schema.Kind),
		"value":       model.Stringify(field.Value),
		"checked":     model.Truthy(field.Value),
		"multiple":    schema.Kind == model.FieldKindMultiSelect,
		"options":     optionViews(schema.Options, field.Value),
		"placeholder": schema.Placeholder,
		"required":    schema.Required,
		"disabled":    field.Disabled,
		"min":         numberAttr(schema.Min),
		"max":         numberAttr(schema.Max),
		"step":        numberAttr(schema.Step),
		"invalid":     len(field.Errors) > 0,
	}
}

func inputType(kind model.FieldKind) string {
	switch kind {
	case model.FieldKindNumber:
		return "number"
	case model.FieldKindSlider:
		return "range"
	case model.FieldKindColor:
		return "color"
	case model.FieldKindDate:
		return "date"
	case model.FieldKindHidden:
		return "hidden"
	default:
		return "text"
	}
}

type optionView struct {
	Value    string
	Label    string
	Selected bool
}

func optionViews(options []model.FieldOption, value any) []optionView {
	selected := selectedValues(value)
	out := make([]optionView, 0, len(options))
	for _, option := range options {
		label := option.Label
		if label == "" {
			label = option.Value
		}
		out = append(out, optionView{Value: option.Value, Label: label, Selected: selected[option.Value]})
	}
	return out
}

func selectedValues(value any) map[string]bool {
	out := map[string]bool{}
	if items, ok := model.ToSlice(value); ok {
		for _, item := range items {
			out[model.Stringify(item)] = true
		}
		return out
	}
	if text := strings.TrimSpace(model.Stringify(value)); text != "" {
		out[text] = true
	}
	return out
}

func numberAttr(v *float64) string {
	if v == nil {
		return ""
	}
	return model.Stringify(*v)
}

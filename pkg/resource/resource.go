// Package resource describes data resources from an OpenAPI 3 document so
// editors can offer their fields in column, filter and record schemas.
package resource

import (
	"errors"
	"strings"

	"github.com/goliatone/go-pagebuilder/pkg/builtins"
	"github.com/goliatone/go-pagebuilder/pkg/model"
)

// ErrUnknownResource is returned when a document has no schema for a name.
var ErrUnknownResource = errors.New("resource: unknown resource")

// Resource is one component schema of a document.
type Resource struct {
	Name        string  `json:"name"`
	Schema      string  `json:"schema"`
	Description string  `json:"description,omitempty"`
	Fields      []Field `json:"fields"`
}

// Field is one property of a resource.
type Field struct {
	Name        string   `json:"name"`
	Label       string   `json:"label,omitempty"`
	Type        string   `json:"type,omitempty"`
	Format      string   `json:"format,omitempty"`
	ItemType    string   `json:"itemType,omitempty"`
	Kind        string   `json:"kind,omitempty"`
	Description string   `json:"description,omitempty"`
	Required    bool     `json:"required,omitempty"`
	ReadOnly    bool     `json:"readOnly,omitempty"`
	Enum        []string `json:"enum,omitempty"`
	Default     any      `json:"default,omitempty"`
	Min         *float64 `json:"min,omitempty"`
	Max         *float64 `json:"max,omitempty"`
	Order       float64  `json:"order,omitempty"`
	Fields      []Field  `json:"fields,omitempty"`
}

// DisplayLabel returns the label or a humanised name.
func (f Field) DisplayLabel() string {
	if label := strings.TrimSpace(f.Label); label != "" {
		return label
	}
	name := strings.TrimSpace(strings.NewReplacer("_", " ", "-", " ").Replace(f.Name))
	if name == "" {
		return ""
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

// Field returns the named field.
func (r Resource) Field(name string) (Field, bool) {
	for _, field := range r.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return Field{}, false
}

// Options lists the resource's top-level fields as dropdown options.
func (r Resource) Options() []model.FieldOption {
	options := make([]model.FieldOption, 0, len(r.Fields))
	for _, field := range r.Fields {
		options = append(options, model.FieldOption{Value: field.Name, Label: field.DisplayLabel()})
	}
	return options
}

// FormSchema converts the resource into an edit form schema. Read only fields
// are hidden. Nested objects have no flat form representation and are left out
// unless an item list turns them into a repeater.
func (r Resource) FormSchema() []model.FieldSchema {
	return formSchema(r.Fields)
}

func formSchema(fields []Field) []model.FieldSchema {
	out := make([]model.FieldSchema, 0, len(fields))
	for _, field := range fields {
		schema, ok := fieldSchema(field)
		if ok {
			out = append(out, schema)
		}
	}
	return out
}

func fieldSchema(field Field) (model.FieldSchema, bool) {
	schema := model.FieldSchema{
		Name:        field.Name,
		Label:       field.DisplayLabel(),
		Description: field.Description,
		Required:    field.Required,
		Hidden:      field.ReadOnly,
		Default:     field.Default,
		Min:         field.Min,
		Max:         field.Max,
		Options:     enumOptions(field.Enum),
	}
	if field.Kind != "" {
		schema.Kind = model.FieldKind(field.Kind)
		if schema.Kind.HasNested() {
			schema.Fields = formSchema(field.Fields)
		}
		return schema, true
	}
	switch field.Type {
	case "boolean":
		schema.Kind = model.FieldKindSwitch
	case "integer":
		step := 1.0
		schema.Kind = model.FieldKindNumber
		schema.Step = &step
	case "number":
		schema.Kind = model.FieldKindNumber
	case "array":
		if len(field.Fields) > 0 {
			schema.Kind = model.FieldKindRepeater
			schema.Fields = formSchema(field.Fields)
			schema.Options = nil
			break
		}
		schema.Kind = model.FieldKindMultiSelect
	case "object":
		return model.FieldSchema{}, false
	default:
		schema.Kind = stringKind(field)
	}
	return schema, true
}

func stringKind(field Field) model.FieldKind {
	if len(field.Enum) > 0 {
		return model.FieldKindDropdown
	}
	switch field.Format {
	case "date", "date-time":
		return model.FieldKindDate
	case "color":
		return model.FieldKindColor
	case "html":
		return model.FieldKindRichText
	case "textarea", "markdown":
		return model.FieldKindTextarea
	}
	return model.FieldKindText
}

// ColumnSlug suggests the built-in column type that displays the field.
func ColumnSlug(field Field) string {
	switch {
	case len(field.Enum) > 0:
		return builtins.ColumnBadge
	case field.Type == "integer" || field.Type == "number":
		return builtins.ColumnNumber
	case field.Format == "date" || field.Format == "date-time":
		return builtins.ColumnDate
	case field.Format == "uri" || field.Format == "url":
		return builtins.ColumnLink
	}
	return builtins.ColumnText
}

// FilterSlug suggests the built-in filter type that narrows by the field.
func FilterSlug(field Field) string {
	switch {
	case len(field.Enum) > 0:
		return builtins.FilterSelect
	case field.Type == "boolean":
		return builtins.FilterBoolean
	case field.Format == "date" || field.Format == "date-time":
		return builtins.FilterDate
	}
	return builtins.FilterText
}

func enumOptions(values []string) []model.FieldOption {
	if len(values) == 0 {
		return nil
	}
	options := make([]model.FieldOption, 0, len(values))
	for _, value := range values {
		options = append(options, model.FieldOption{Value: value})
	}
	return options
}

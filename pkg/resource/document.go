package resource

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// Extension keys read from component schemas and their properties.
const (
	ExtensionResource = "x-pagebuilder-resource"
	ExtensionLabel    = "x-pagebuilder-label"
	ExtensionKind     = "x-pagebuilder-kind"
	ExtensionOrder    = "x-pagebuilder-order"
)

// ParseOptions controls Parse.
type ParseOptions struct {
	// Validate runs the document validator, skipping examples.
	Validate bool
	// Location is reported in errors.
	Location string
}

// Document is a parsed OpenAPI 3 document.
type Document struct {
	location string
	spec     *openapi3.T
}

// Parse decodes an OpenAPI document from JSON or YAML.
func Parse(ctx context.Context, raw []byte, options ParseOptions) (*Document, error) {
	if len(raw) == 0 {
		return nil, errors.New("resource: document payload is empty")
	}
	loader := &openapi3.Loader{Context: ctx}
	spec, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("resource: parse %s: %w", options.Location, err)
	}
	if options.Validate {
		if err := spec.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
			return nil, fmt.Errorf("resource: validate %s: %w", options.Location, err)
		}
	}
	return &Document{location: options.Location, spec: spec}, nil
}

// Location is where the document was read from.
func (d *Document) Location() string { return d.location }

// Title returns info.title.
func (d *Document) Title() string {
	if d.spec.Info == nil {
		return ""
	}
	return d.spec.Info.Title
}

// Names lists the resource names the document describes, sorted. A component
// schema is named by its x-pagebuilder-resource extension when present.
func (d *Document) Names() []string {
	var names []string
	for key, ref := range d.schemas() {
		names = append(names, resourceName(key, ref))
	}
	sort.Strings(names)
	return names
}

// Resource builds the description of the named resource. Names match the
// resource extension first, then the component key ignoring case.
func (d *Document) Resource(name string) (Resource, error) {
	want := strings.TrimSpace(name)
	if want == "" {
		return Resource{}, errors.New("resource: name is required")
	}
	schemas := d.schemas()
	var match *openapi3.SchemaRef
	var key string
	for candidate, ref := range schemas {
		if resourceName(candidate, ref) == want {
			match, key = ref, candidate
			break
		}
	}
	if match == nil {
		for candidate, ref := range schemas {
			if strings.EqualFold(candidate, want) {
				match, key = ref, candidate
				break
			}
		}
	}
	if match == nil || match.Value == nil {
		return Resource{}, fmt.Errorf("%w: %q", ErrUnknownResource, want)
	}
	return Resource{
		Name:        want,
		Schema:      key,
		Description: match.Value.Description,
		Fields:      convertProperties(match.Value, map[*openapi3.Schema]bool{}),
	}, nil
}

func (d *Document) schemas() openapi3.Schemas {
	if d.spec == nil || d.spec.Components == nil {
		return nil
	}
	return d.spec.Components.Schemas
}

func resourceName(key string, ref *openapi3.SchemaRef) string {
	if ref != nil && ref.Value != nil {
		if value, ok := ref.Value.Extensions[ExtensionResource].(string); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return key
}

// convertProperties flattens an object schema into fields sorted by the
// order extension, then by name. seen guards against recursive references.
func convertProperties(schema *openapi3.Schema, seen map[*openapi3.Schema]bool) []Field {
	if schema == nil || len(schema.Properties) == 0 || seen[schema] {
		return nil
	}
	seen[schema] = true
	defer delete(seen, schema)

	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}
	fields := make([]Field, 0, len(schema.Properties))
	for name, ref := range schema.Properties {
		field := convertField(name, ref, seen)
		field.Required = required[name]
		fields = append(fields, field)
	}
	sort.SliceStable(fields, func(i, j int) bool {
		if fields[i].Order != fields[j].Order {
			return fields[i].Order < fields[j].Order
		}
		return fields[i].Name < fields[j].Name
	})
	return fields
}

func convertField(name string, ref *openapi3.SchemaRef, seen map[*openapi3.Schema]bool) Field {
	field := Field{Name: name}
	if ref == nil || ref.Value == nil {
		return field
	}
	src := ref.Value
	field.Type = firstSchemaType(src.Type)
	field.Format = src.Format
	field.Label = src.Title
	field.Description = src.Description
	field.Default = src.Default
	field.ReadOnly = src.ReadOnly
	field.Enum = enumStrings(src.Enum)
	if src.Min != nil {
		value := *src.Min
		field.Min = &value
	}
	if src.Max != nil {
		value := *src.Max
		field.Max = &value
	}
	if label, ok := src.Extensions[ExtensionLabel].(string); ok {
		field.Label = label
	}
	if kind, ok := src.Extensions[ExtensionKind].(string); ok {
		field.Kind = kind
	}
	if order, ok := src.Extensions[ExtensionOrder].(float64); ok {
		field.Order = order
	}
	switch field.Type {
	case "object":
		field.Fields = convertProperties(src, seen)
	case "array":
		if src.Items != nil && src.Items.Value != nil {
			items := src.Items.Value
			field.ItemType = firstSchemaType(items.Type)
			if len(field.Enum) == 0 {
				field.Enum = enumStrings(items.Enum)
			}
			field.Fields = convertProperties(items, seen)
		}
	}
	return field
}

func firstSchemaType(types *openapi3.Types) string {
	if types == nil {
		return ""
	}
	values := types.Slice()
	switch len(values) {
	case 0:
		return ""
	case 1:
		return values[0]
	default:
		for _, value := range values {
			if value != "null" {
				return value
			}
		}
		return values[0]
	}
}

func enumStrings(values []any) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, value := range values {
		if value == nil {
			continue
		}
		out = append(out, fmt.Sprint(value))
	}
	return out
}

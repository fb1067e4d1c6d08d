package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// FieldKind enumerates the editing controls a FieldSchema can request. The
// kind doubles as the key into the field-type registry.
type FieldKind string

const (
	FieldKindText        FieldKind = "text"
	FieldKindTextarea    FieldKind = "textarea"
	FieldKindRichText    FieldKind = "richtext"
	FieldKindNumber      FieldKind = "number"
	FieldKindDropdown    FieldKind = "dropdown"
	FieldKindMultiSelect FieldKind = "multiselect"
	FieldKindSwitch      FieldKind = "switch"
	FieldKindCheckbox    FieldKind = "checkbox"
	FieldKindSlider      FieldKind = "slider"
	FieldKindColor       FieldKind = "color"
	FieldKindDate        FieldKind = "date"
	FieldKindIcon        FieldKind = "icon"
	FieldKindHidden      FieldKind = "hidden"
	FieldKindRepeater    FieldKind = "repeater"
	FieldKindGroup       FieldKind = "group"
	FieldKindCustom      FieldKind = "custom"
)

// HasNested reports whether the kind carries a nested sub-schema.
func (k FieldKind) HasNested() bool {
	return k == FieldKindRepeater || k == FieldKindGroup
}

// GridColumns is the column count spans are expressed against.
const GridColumns = 12

// Span is a layout weight: one of the named widths or a numeric column count
// serialised as a string. JSON and YAML numbers are accepted on decode.
type Span string

const (
	SpanFull          Span = "full"
	SpanThreeQuarters Span = "three-quarters"
	SpanTwoThirds     Span = "two-thirds"
	SpanHalf          Span = "half"
	SpanThird         Span = "third"
	SpanQuarter       Span = "quarter"
)

var namedSpans = map[Span]int{
	SpanFull:          12,
	SpanThreeQuarters: 9,
	SpanTwoThirds:     8,
	SpanHalf:          6,
	SpanThird:         4,
	SpanQuarter:       3,
}

// Columns resolves the span into a column count on a GridColumns grid. Empty
// or unrecognised spans take the full row; numeric spans are clamped to
// [1, GridColumns].
func (s Span) Columns() int {
	trimmed := Span(strings.ToLower(strings.TrimSpace(string(s))))
	if trimmed == "" {
		return GridColumns
	}
	if cols, ok := namedSpans[trimmed]; ok {
		return cols
	}
	n, err := strconv.Atoi(string(trimmed))
	if err != nil {
		return GridColumns
	}
	if n < 1 {
		return 1
	}
	if n > GridColumns {
		return GridColumns
	}
	return n
}

// UnmarshalJSON accepts either a string or a number.
func (s *Span) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("model: decode span: %w", err)
	}
	*s = spanFromValue(raw)
	return nil
}

// UnmarshalYAML accepts either a string or a number.
func (s *Span) UnmarshalYAML(node *yaml.Node) error {
	var raw any
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("model: decode span: %w", err)
	}
	*s = spanFromValue(raw)
	return nil
}

func spanFromValue(raw any) Span {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return Span(strings.TrimSpace(v))
	default:
		if n, ok := ToInt(v); ok {
			return Span(strconv.Itoa(n))
		}
		return Span(Stringify(v))
	}
}

// FieldOption is one entry of an enumerated field (dropdown, multiselect).
type FieldOption struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
}

// FieldSchema describes one editable property of a type's configuration.
// Repeater and group kinds carry their sub-form in Fields.
type FieldSchema struct {
	Name        string            `json:"name" yaml:"name"`
	Kind        FieldKind         `json:"kind" yaml:"kind"`
	Label       string            `json:"label,omitempty" yaml:"label,omitempty"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Placeholder string            `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Required    bool              `json:"required,omitempty" yaml:"required,omitempty"`
	Hidden      bool              `json:"hidden,omitempty" yaml:"hidden,omitempty"`
	Default     any               `json:"default,omitempty" yaml:"default,omitempty"`
	Span        Span              `json:"span,omitempty" yaml:"span,omitempty"`
	Trigger     *TriggerRule      `json:"trigger,omitempty" yaml:"trigger,omitempty"`
	Options     []FieldOption     `json:"options,omitempty" yaml:"options,omitempty"`
	Fields      []FieldSchema     `json:"fields,omitempty" yaml:"fields,omitempty"`
	Min         *float64          `json:"min,omitempty" yaml:"min,omitempty"`
	Max         *float64          `json:"max,omitempty" yaml:"max,omitempty"`
	Step        *float64          `json:"step,omitempty" yaml:"step,omitempty"`
	Component   string            `json:"component,omitempty" yaml:"component,omitempty"`
	ItemLabel   string            `json:"itemLabel,omitempty" yaml:"itemLabel,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// DisplayLabel returns the label, falling back to the field name.
func (f FieldSchema) DisplayLabel() string {
	if label := strings.TrimSpace(f.Label); label != "" {
		return label
	}
	return f.Name
}

// TypeKey is the field-type registry key for the field. Custom fields resolve
// through Component when it is set.
func (f FieldSchema) TypeKey() string {
	if f.Kind == FieldKindCustom {
		if component := strings.TrimSpace(f.Component); component != "" {
			return component
		}
	}
	return string(f.Kind)
}

// Lookup finds a field by name among the schema entries, descending into
// group children because groups share their parent's value scope. Repeater
// children are a separate scope and are not searched.
func Lookup(schema []FieldSchema, name string) (FieldSchema, bool) {
	for _, field := range schema {
		if field.Name == name {
			return field, true
		}
		if field.Kind == FieldKindGroup {
			if nested, ok := Lookup(field.Fields, name); ok {
				return nested, true
			}
		}
	}
	return FieldSchema{}, false
}

// ScopeNames returns the names of every field that reads from the value map
// the schema is rendered against (top-level entries plus group children).
func ScopeNames(schema []FieldSchema) []string {
	var names []string
	for _, field := range schema {
		if field.Name != "" && field.Kind != FieldKindGroup {
			names = append(names, field.Name)
		}
		if field.Kind == FieldKindGroup {
			names = append(names, ScopeNames(field.Fields)...)
		}
	}
	return names
}

// TriggerAction enumerates what a trigger does when its condition matches.
type TriggerAction string

const (
	TriggerShow    TriggerAction = "show"
	TriggerHide    TriggerAction = "hide"
	TriggerEnable  TriggerAction = "enable"
	TriggerDisable TriggerAction = "disable"
	TriggerEmpty   TriggerAction = "empty"
)

// Trigger conditions that test truthiness instead of values.
const (
	ConditionChecked   = "checked"
	ConditionUnchecked = "unchecked"
)

// TriggerRule makes a field conditional on a sibling field's value. Condition
// is "checked", "unchecked" or one or more value[...] tokens such as
// "value[draft][review*]".
type TriggerRule struct {
	Action    TriggerAction `json:"action" yaml:"action"`
	Field     string        `json:"field" yaml:"field"`
	Condition string        `json:"condition" yaml:"condition"`
}

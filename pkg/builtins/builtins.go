// Package builtins holds the definitions every registry set starts with.
// They carry schemas only; renderer packages attach widgets and controls.
package builtins

import (
	"github.com/goliatone/go-pagebuilder/pkg/ambient"
	"github.com/goliatone/go-pagebuilder/pkg/blocks"
	"github.com/goliatone/go-pagebuilder/pkg/model"
	"github.com/goliatone/go-pagebuilder/pkg/registry"
)

// Block slugs.
const (
	BlockHeader  = "header"
	BlockText    = "text"
	BlockRecord  = "record"
	BlockTable   = "table"
	BlockFilters = "filters"
	BlockGrid    = blocks.SlugGrid
	BlockTabs    = blocks.SlugTabs
	BlockFields  = "field-grid"
)

// Column slugs.
const (
	ColumnText   = "text"
	ColumnNumber = "number"
	ColumnDate   = "date"
	ColumnBadge  = "badge"
	ColumnLink   = "link"
)

// Filter slugs.
const (
	FilterText    = "text"
	FilterSelect  = "select"
	FilterBoolean = "boolean"
	FilterDate    = "date-range"
)

// Filter operators.
const (
	OpEquals   = "eq"
	OpContains = "contains"
	OpIn       = "in"
	OpBetween  = "between"
)

// Definitions returns a fresh copy of the built-in definitions.
func Definitions() registry.Definitions {
	return registry.Definitions{
		Blocks:  Blocks(),
		Columns: Columns(),
		Filters: Filters(),
		Fields:  Fields(),
	}
}

// NewSet builds a registry set from the built-ins.
func NewSet(options ...registry.Option) *registry.Set {
	return registry.NewSet(Definitions(), options...)
}

// Blocks returns the built-in block types.
func Blocks() []registry.BlockType {
	return []registry.BlockType{
		{
			Slug:     BlockHeader,
			Label:    "Header",
			Icon:     "heading",
			Category: "content",
			Needs:    []ambient.Key{ambient.KeyResource, ambient.KeyRecord},
			Fields: []model.FieldSchema{
				{Name: "title", Kind: model.FieldKindText, Label: "Title", Required: true, Span: model.SpanTwoThirds},
				{Name: "align", Kind: model.FieldKindDropdown, Label: "Alignment", Default: "left", Span: model.SpanThird, Options: options("left", "center", "right")},
				{Name: "subtitle", Kind: model.FieldKindText, Label: "Subtitle"},
				{Name: "showActions", Kind: model.FieldKindSwitch, Label: "Show actions"},
				{
					Name:      "actions",
					Kind:      model.FieldKindRepeater,
					Label:     "Actions",
					ItemLabel: "label",
					Trigger:   &model.TriggerRule{Action: model.TriggerShow, Field: "showActions", Condition: model.ConditionChecked},
					Fields: []model.FieldSchema{
						{Name: "label", Kind: model.FieldKindText, Label: "Label", Required: true, Span: model.SpanHalf},
						{Name: "variant", Kind: model.FieldKindDropdown, Label: "Variant", Default: "primary", Span: model.SpanHalf, Options: options("primary", "secondary", "link")},
						{Name: "url", Kind: model.FieldKindText, Label: "URL", Required: true},
					},
				},
			},
		},
		{
			Slug:     BlockText,
			Label:    "Text",
			Icon:     "text",
			Category: "content",
			Fields: []model.FieldSchema{
				{Name: "format", Kind: model.FieldKindDropdown, Label: "Format", Default: "plain", Options: options("plain", "html")},
				{Name: "body", Kind: model.FieldKindTextarea, Label: "Body", Trigger: &model.TriggerRule{Action: model.TriggerShow, Field: "format", Condition: "value[plain]"}},
				{Name: "html", Kind: model.FieldKindRichText, Label: "Body", Trigger: &model.TriggerRule{Action: model.TriggerShow, Field: "format", Condition: "value[html]"}},
			},
		},
		{
			Slug:        BlockRecord,
			Label:       "Record fields",
			Description: "Shows fields of the current record.",
			Icon:        "list",
			Category:    "data",
			Needs:       []ambient.Key{ambient.KeyRecord},
			Fields: []model.FieldSchema{
				{Name: "title", Kind: model.FieldKindText, Label: "Title"},
				{Name: "fields", Kind: model.FieldKindMultiSelect, Label: "Fields", Required: true},
				{Name: "emptyText", Kind: model.FieldKindText, Label: "Empty text", Default: "-"},
			},
		},
		{
			Slug:        BlockTable,
			Label:       "Table",
			Description: "Lists records; columns are child nodes.",
			Icon:        "table",
			Category:    "data",
			Kind:        model.NodeGrid,
			Needs:       []ambient.Key{ambient.KeyResource, ambient.KeyList, ambient.KeySort, ambient.KeyFilters},
			Fields: []model.FieldSchema{
				{Name: blocks.KeyRegistryType, Kind: model.FieldKindHidden, Default: string(model.RegistryColumn)},
				{Name: "perPage", Kind: model.FieldKindNumber, Label: "Rows per page", Default: 20, Min: ptr(1), Max: ptr(200), Span: model.SpanHalf},
				{Name: "sortable", Kind: model.FieldKindSwitch, Label: "Sortable", Default: true, Span: model.SpanHalf},
				{Name: "emptyText", Kind: model.FieldKindText, Label: "Empty text", Default: "No records"},
			},
		},
		{
			Slug:        BlockFilters,
			Label:       "Filters",
			Description: "Filter bar; filters are child nodes.",
			Icon:        "filter",
			Category:    "data",
			Kind:        model.NodeGrid,
			Needs:       []ambient.Key{ambient.KeyResource, ambient.KeyFilters},
			Fields: []model.FieldSchema{
				{Name: blocks.KeyRegistryType, Kind: model.FieldKindHidden, Default: string(model.RegistryFilter)},
				{Name: "submitLabel", Kind: model.FieldKindText, Label: "Submit label", Default: "Apply"},
			},
		},
		{
			Slug:     BlockGrid,
			Label:    "Grid",
			Icon:     "grid",
			Category: "layout",
			Kind:     model.NodeGrid,
			Fields:   layoutFields(),
		},
		{
			Slug:     BlockFields,
			Label:    "Field grid",
			Icon:     "form",
			Category: "layout",
			Kind:     model.NodeGrid,
			Fields: append([]model.FieldSchema{
				{Name: blocks.KeyRegistryType, Kind: model.FieldKindHidden, Default: string(model.RegistryField)},
			}, layoutFields()[1:]...),
		},
		{
			Slug:     BlockTabs,
			Label:    "Tabs",
			Icon:     "tabs",
			Category: "layout",
			Kind:     model.NodeTabs,
			Fields: []model.FieldSchema{
				{
					Name:      blocks.KeyTabs,
					Kind:      model.FieldKindRepeater,
					Label:     "Tabs",
					ItemLabel: "label",
					Fields: []model.FieldSchema{
						{Name: "id", Kind: model.FieldKindHidden},
						{Name: "label", Kind: model.FieldKindText, Label: "Label", Required: true},
					},
				},
			},
		},
	}
}

func layoutFields() []model.FieldSchema {
	return []model.FieldSchema{
		{Name: blocks.KeyRegistryType, Kind: model.FieldKindDropdown, Label: "Children", Default: string(model.RegistryBlock), Options: options(
			string(model.RegistryBlock), string(model.RegistryField), string(model.RegistryColumn), string(model.RegistryFilter),
		)},
		{Name: blocks.KeyColumnsMobile, Kind: model.FieldKindSlider, Label: "Mobile columns", Default: blocks.DefaultColumnsMobile, Min: ptr(1), Max: ptr(4), Span: model.SpanThird},
		{Name: blocks.KeyColumnsTablet, Kind: model.FieldKindSlider, Label: "Tablet columns", Default: blocks.DefaultColumnsTablet, Min: ptr(1), Max: ptr(6), Span: model.SpanThird},
		{Name: blocks.KeyColumnsDesktop, Kind: model.FieldKindSlider, Label: "Desktop columns", Default: blocks.DefaultColumnsDesktop, Min: ptr(1), Max: ptr(12), Span: model.SpanThird},
	}
}

// Columns returns the built-in column types.
func Columns() []registry.ColumnType {
	return []registry.ColumnType{
		{Slug: ColumnText, Label: "Text", Fields: columnFields()},
		{Slug: ColumnNumber, Label: "Number", Fields: append(columnFields(),
			model.FieldSchema{Name: "decimals", Kind: model.FieldKindNumber, Label: "Decimals", Default: 0, Min: ptr(0), Max: ptr(6)},
		)},
		{Slug: ColumnDate, Label: "Date", Fields: append(columnFields(),
			model.FieldSchema{Name: "layout", Kind: model.FieldKindText, Label: "Layout", Default: "2006-01-02"},
		)},
		{Slug: ColumnBadge, Label: "Badge", Fields: append(columnFields(),
			model.FieldSchema{Name: "color", Kind: model.FieldKindColor, Label: "Color"},
		)},
		{Slug: ColumnLink, Label: "Link", Fields: append(columnFields(),
			model.FieldSchema{Name: "href", Kind: model.FieldKindText, Label: "URL pattern", Placeholder: "/posts/{id}", Required: true},
		)},
	}
}

func columnFields() []model.FieldSchema {
	return []model.FieldSchema{
		{Name: "field", Kind: model.FieldKindDropdown, Label: "Field", Required: true, Span: model.SpanHalf},
		{Name: "label", Kind: model.FieldKindText, Label: "Heading", Span: model.SpanHalf},
		{Name: "sortable", Kind: model.FieldKindCheckbox, Label: "Sortable"},
	}
}

// Filters returns the built-in filter types.
func Filters() []registry.FilterType {
	return []registry.FilterType{
		{Slug: FilterText, Label: "Text search", Operators: []string{OpContains, OpEquals}, Fields: filterFields(OpContains, OpEquals)},
		{Slug: FilterSelect, Label: "Select", Operators: []string{OpEquals, OpIn}, Fields: append(filterFields(OpEquals, OpIn),
			model.FieldSchema{Name: "choices", Kind: model.FieldKindRepeater, Label: "Choices", ItemLabel: "label", Fields: []model.FieldSchema{
				{Name: "value", Kind: model.FieldKindText, Label: "Value", Required: true, Span: model.SpanHalf},
				{Name: "label", Kind: model.FieldKindText, Label: "Label", Span: model.SpanHalf},
			}},
		)},
		{Slug: FilterBoolean, Label: "Yes / no", Operators: []string{OpEquals}, Fields: filterFields(OpEquals)},
		{Slug: FilterDate, Label: "Date range", Operators: []string{OpBetween}, Fields: filterFields(OpBetween)},
	}
}

func filterFields(operators ...string) []model.FieldSchema {
	return []model.FieldSchema{
		{Name: "field", Kind: model.FieldKindDropdown, Label: "Field", Required: true, Span: model.SpanHalf},
		{Name: "label", Kind: model.FieldKindText, Label: "Label", Span: model.SpanHalf},
		{Name: "operator", Kind: model.FieldKindDropdown, Label: "Operator", Default: operators[0], Options: options(operators...)},
	}
}

// Fields returns the built-in field types. The fields of a field type are
// what a field node placed in a field grid is configured with.
func Fields() []registry.FieldType {
	kinds := []struct {
		kind  model.FieldKind
		label string
	}{
		{model.FieldKindText, "Text"},
		{model.FieldKindTextarea, "Text area"},
		{model.FieldKindRichText, "Rich text"},
		{model.FieldKindNumber, "Number"},
		{model.FieldKindDropdown, "Dropdown"},
		{model.FieldKindMultiSelect, "Multi select"},
		{model.FieldKindSwitch, "Switch"},
		{model.FieldKindCheckbox, "Checkbox"},
		{model.FieldKindSlider, "Slider"},
		{model.FieldKindColor, "Color"},
		{model.FieldKindDate, "Date"},
		{model.FieldKindIcon, "Icon"},
		{model.FieldKindHidden, "Hidden"},
		{model.FieldKindRepeater, "Repeater"},
		{model.FieldKindGroup, "Group"},
	}
	out := make([]registry.FieldType, 0, len(kinds))
	for _, entry := range kinds {
		out = append(out, registry.FieldType{
			Type:   string(entry.kind),
			Label:  entry.label,
			Fields: fieldNodeFields(),
		})
	}
	return out
}

func fieldNodeFields() []model.FieldSchema {
	return []model.FieldSchema{
		{Name: "field", Kind: model.FieldKindDropdown, Label: "Field", Required: true, Span: model.SpanHalf},
		{Name: "label", Kind: model.FieldKindText, Label: "Label", Span: model.SpanHalf},
		{Name: "span", Kind: model.FieldKindDropdown, Label: "Width", Default: string(model.SpanFull), Options: options(
			string(model.SpanFull), string(model.SpanThreeQuarters), string(model.SpanTwoThirds),
			string(model.SpanHalf), string(model.SpanThird), string(model.SpanQuarter),
		)},
	}
}

func options(values ...string) []model.FieldOption {
	out := make([]model.FieldOption, 0, len(values))
	for _, value := range values {
		out = append(out, model.FieldOption{Value: value})
	}
	return out
}

func ptr(v float64) *float64 { return &v }

package forms

import (
	"strconv"
	"strings"

	"github.com/goliatone/go-pagebuilder/pkg/model"
	"github.com/goliatone/go-pagebuilder/pkg/visibility"
)

// Form is a resolved schema ready for a control renderer.
type Form struct {
	Rows       []Row          `json:"rows"`
	Values     map[string]any `json:"values"`
	FormErrors []string       `json:"formErrors,omitempty"`
}

// Row is a run of fields whose spans fit in one grid row.
type Row struct {
	Fields []FieldView `json:"fields"`
}

// FieldView is one visible field with its current value.
type FieldView struct {
	Schema model.FieldSchema `json:"schema"`
	// Path addresses the value inside the form values, for example "title" or
	// "items.2.label" for a repeater item field.
	Path     string   `json:"path"`
	Value    any      `json:"value,omitempty"`
	Columns  int      `json:"columns"`
	Disabled bool     `json:"disabled,omitempty"`
	Errors   []string `json:"errors,omitempty"`
	// Children holds the inlined rows of a group.
	Children []Row `json:"children,omitempty"`
	// Items holds one sub-form per element of a repeater value.
	Items []ItemView `json:"items,omitempty"`
}

// ItemView is one repeater element.
type ItemView struct {
	Index int    `json:"index"`
	Label string `json:"label"`
	Path  string `json:"path"`
	Rows  []Row  `json:"rows"`
}

// Fields flattens the form into its visible fields, depth first.
func (f Form) Fields() []FieldView {
	var out []FieldView
	collectFields(f.Rows, &out)
	return out
}

// Field returns the visible field at path.
func (f Form) Field(path string) (FieldView, bool) {
	for _, field := range f.Fields() {
		if field.Path == path {
			return field, true
		}
	}
	return FieldView{}, false
}

func collectFields(rows []Row, out *[]FieldView) {
	for _, row := range rows {
		for _, field := range row.Fields {
			*out = append(*out, field)
			collectFields(field.Children, out)
			for _, item := range field.Items {
				collectFields(item.Rows, out)
			}
		}
	}
}

// Option customises Resolve.
type Option func(*resolver)

type resolver struct {
	evaluator  visibility.Evaluator
	errors     map[string][]string
	formErrors []string
}

// WithEvaluator replaces the trigger evaluator.
func WithEvaluator(evaluator visibility.Evaluator) Option {
	return func(r *resolver) {
		if evaluator != nil {
			r.evaluator = evaluator
		}
	}
}

// WithErrors attaches field errors, keyed by field path, to the resolved
// views.
func WithErrors(errs map[string][]string) Option {
	return func(r *resolver) {
		r.errors = errs
	}
}

// WithFormErrors attaches form-level messages.
func WithFormErrors(messages ...string) Option {
	return func(r *resolver) {
		r.formErrors = append(r.formErrors, messages...)
	}
}

// Resolve lays out schema against values.
func Resolve(schema []model.FieldSchema, values map[string]any, options ...Option) Form {
	r := &resolver{evaluator: visibility.Default}
	for _, option := range options {
		if option != nil {
			option(r)
		}
	}
	if values == nil {
		values = map[string]any{}
	}
	return Form{
		Rows:       r.rows(schema, values, ""),
		Values:     values,
		FormErrors: normalizeMessages(r.formErrors),
	}
}

func (r *resolver) rows(schema []model.FieldSchema, scope map[string]any, prefix string) []Row {
	var views []FieldView
	for _, field := range schema {
		if view, ok := r.field(field, scope, prefix); ok {
			views = append(views, view)
		}
	}
	return layout(views)
}

func (r *resolver) field(field model.FieldSchema, scope map[string]any, prefix string) (FieldView, bool) {
	if field.Hidden || field.Kind == model.FieldKindHidden {
		return FieldView{}, false
	}
	result := r.evaluator.Evaluate(field.Trigger, scope)
	if !result.Visible {
		return FieldView{}, false
	}

	view := FieldView{
		Schema:   field,
		Path:     joinPath(prefix, field.Name),
		Columns:  field.Span.Columns(),
		Disabled: result.Disabled(),
	}

	switch field.Kind {
	case model.FieldKindGroup:
		// Groups read from the enclosing scope and keep its prefix.
		view.Children = r.rows(field.Fields, scope, prefix)
	case model.FieldKindRepeater:
		view.Value = scope[field.Name]
		entries, _ := model.ToSlice(scope[field.Name])
		for idx, entry := range entries {
			// Items keep their raw position so paths match Decode.
			item, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			itemPath := joinPath(view.Path, strconv.Itoa(idx))
			view.Items = append(view.Items, ItemView{
				Index: idx,
				Label: itemLabel(field, item, idx),
				Path:  itemPath,
				Rows:  r.rows(field.Fields, item, itemPath),
			})
		}
	default:
		view.Value = scope[field.Name]
	}

	if r.errors != nil {
		view.Errors = normalizeMessages(r.errors[view.Path])
	}
	return view, true
}

// itemLabel uses the item field named by ItemLabel when it has a value.
func itemLabel(field model.FieldSchema, item map[string]any, idx int) string {
	if key := strings.TrimSpace(field.ItemLabel); key != "" {
		if label := model.Stringify(item[key]); label != "" {
			return label
		}
	}
	return field.DisplayLabel() + " " + strconv.Itoa(idx+1)
}

// layout packs fields into rows without exceeding the grid width.
func layout(views []FieldView) []Row {
	if len(views) == 0 {
		return nil
	}
	var (
		rows  []Row
		row   Row
		width int
	)
	for _, view := range views {
		if width+view.Columns > model.GridColumns && len(row.Fields) > 0 {
			rows = append(rows, row)
			row = Row{}
			width = 0
		}
		row.Fields = append(row.Fields, view)
		width += view.Columns
	}
	if len(row.Fields) > 0 {
		rows = append(rows, row)
	}
	return rows
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	if name == "" {
		return prefix
	}
	return prefix + "." + name
}

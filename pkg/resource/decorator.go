package resource

import (
	"github.com/goliatone/go-pagebuilder/pkg/model"
)

// Field names whose options list resource fields.
const (
	FieldPicker = "field"
	FieldsList  = "fields"
)

// Decorator fills field pickers with the fields of one resource. Pickers
// that already declare options are left alone.
type Decorator struct {
	resource Resource
	options  []model.FieldOption
}

var _ model.Decorator = (*Decorator)(nil)

// NewDecorator builds a Decorator for res.
func NewDecorator(res Resource) *Decorator {
	return &Decorator{resource: res, options: res.Options()}
}

// Resource returns the resource the decorator reads from.
func (d *Decorator) Resource() Resource { return d.resource }

// Decorate implements model.Decorator.
func (d *Decorator) Decorate(_ string, schema []model.FieldSchema) ([]model.FieldSchema, error) {
	out := model.CloneSchema(schema)
	d.fill(out)
	return out, nil
}

func (d *Decorator) fill(schema []model.FieldSchema) {
	for idx := range schema {
		field := &schema[idx]
		if field.Kind.HasNested() {
			d.fill(field.Fields)
			continue
		}
		if len(field.Options) > 0 {
			continue
		}
		switch {
		case field.Name == FieldPicker && field.Kind == model.FieldKindDropdown,
			field.Name == FieldsList && field.Kind == model.FieldKindMultiSelect:
			field.Options = append([]model.FieldOption(nil), d.options...)
		}
	}
}

package registry

import (
	"github.com/goliatone/go-pagebuilder/pkg/ambient"
	"github.com/goliatone/go-pagebuilder/pkg/forms"
	"github.com/goliatone/go-pagebuilder/pkg/model"
	"github.com/goliatone/go-pagebuilder/pkg/render"
)

// BlockType is a page block definition.
type BlockType struct {
	Slug        string              `json:"slug"`
	Label       string              `json:"label,omitempty"`
	Description string              `json:"description,omitempty"`
	Icon        string              `json:"icon,omitempty"`
	Category    string              `json:"category,omitempty"`
	Fields      []model.FieldSchema `json:"fields,omitempty"`
	// Kind marks container blocks. Empty means plain.
	Kind model.NodeKind `json:"kind,omitempty"`
	// Needs lists the ambient props handed to the widget. Everything else
	// is withheld.
	Needs  []ambient.Key `json:"needs,omitempty"`
	Widget render.Widget `json:"-"`
}

// Key implements Definition.
func (b BlockType) Key() string { return b.Slug }

// ColumnType renders one table column.
type ColumnType struct {
	Slug        string              `json:"slug"`
	Label       string              `json:"label,omitempty"`
	Description string              `json:"description,omitempty"`
	Fields      []model.FieldSchema `json:"fields,omitempty"`
	Widget      render.Widget       `json:"-"`
}

// Key implements Definition.
func (c ColumnType) Key() string { return c.Slug }

// FilterType renders one list filter.
type FilterType struct {
	Slug        string              `json:"slug"`
	Label       string              `json:"label,omitempty"`
	Description string              `json:"description,omitempty"`
	Fields      []model.FieldSchema `json:"fields,omitempty"`
	Operators   []string            `json:"operators,omitempty"`
	Widget      render.Widget       `json:"-"`
}

// Key implements Definition.
func (f FilterType) Key() string { return f.Slug }

// FieldType backs one field kind. Control renders the input in edit forms;
// Widget renders the field when it is placed as a node inside a field grid.
type FieldType struct {
	Type        string              `json:"type"`
	Label       string              `json:"label,omitempty"`
	Description string              `json:"description,omitempty"`
	Fields      []model.FieldSchema `json:"fields,omitempty"`
	Control     forms.Control       `json:"-"`
	Widget      render.Widget       `json:"-"`
}

// Key implements Definition.
func (f FieldType) Key() string { return f.Type }

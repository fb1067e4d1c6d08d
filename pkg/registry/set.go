package registry

import (
	"github.com/goliatone/go-pagebuilder/pkg/ambient"
	"github.com/goliatone/go-pagebuilder/pkg/model"
	"github.com/goliatone/go-pagebuilder/pkg/render"
)

// Definitions groups definitions for the four registries.
type Definitions struct {
	Blocks  []BlockType
	Columns []ColumnType
	Filters []FilterType
	Fields  []FieldType
}

// Set holds the four registries of one editing session.
type Set struct {
	Blocks  *Registry[BlockType]
	Columns *Registry[ColumnType]
	Filters *Registry[FilterType]
	Fields  *Registry[FieldType]
}

// NewSet builds a Set from built-in definitions. Options apply to every
// registry; each registry is named after its RegistryType.
func NewSet(builtins Definitions, opts ...Option) *Set {
	named := func(name model.RegistryType) []Option {
		return append([]Option{WithName(string(name))}, opts...)
	}
	return &Set{
		Blocks:  New(builtins.Blocks, named(model.RegistryBlock)...),
		Columns: New(builtins.Columns, named(model.RegistryColumn)...),
		Filters: New(builtins.Filters, named(model.RegistryFilter)...),
		Fields:  New(builtins.Fields, named(model.RegistryField)...),
	}
}

// Extend registers defs after what is already present so they shadow
// entries sharing a key.
func (s *Set) Extend(defs Definitions) {
	for _, def := range defs.Blocks {
		s.Blocks.Register(def)
	}
	for _, def := range defs.Columns {
		s.Columns.Register(def)
	}
	for _, def := range defs.Filters {
		s.Filters.Register(def)
	}
	for _, def := range defs.Fields {
		s.Fields.Register(def)
	}
}

// Clone copies every registry so the copy can be extended independently.
func (s *Set) Clone() *Set {
	return &Set{
		Blocks:  s.Blocks.Clone(),
		Columns: s.Columns.Clone(),
		Filters: s.Filters.Clone(),
		Fields:  s.Fields.Clone(),
	}
}

// Resolved is the registry-independent view of a definition that the
// composer works with.
type Resolved struct {
	Registry model.RegistryType
	Key      string
	Label    string
	Schema   []model.FieldSchema
	Kind     model.NodeKind
	Needs    []ambient.Key
	Widget   render.Widget
}

// Resolve looks key up in the registry selected by registryType.
func (s *Set) Resolve(registryType model.RegistryType, key string) (Resolved, bool) {
	switch registryType {
	case model.RegistryField:
		def, ok := s.Fields.Get(key)
		if !ok {
			return Resolved{}, false
		}
		return Resolved{Registry: registryType, Key: def.Type, Label: def.Label, Schema: def.Fields, Kind: model.NodePlain, Widget: def.Widget}, true
	case model.RegistryFilter:
		def, ok := s.Filters.Get(key)
		if !ok {
			return Resolved{}, false
		}
		return Resolved{Registry: registryType, Key: def.Slug, Label: def.Label, Schema: def.Fields, Kind: model.NodePlain, Needs: []ambient.Key{ambient.KeyFilters}, Widget: def.Widget}, true
	case model.RegistryColumn:
		def, ok := s.Columns.Get(key)
		if !ok {
			return Resolved{}, false
		}
		return Resolved{Registry: registryType, Key: def.Slug, Label: def.Label, Schema: def.Fields, Kind: model.NodePlain, Needs: []ambient.Key{ambient.KeyRecord}, Widget: def.Widget}, true
	default:
		def, ok := s.Blocks.Get(key)
		if !ok {
			return Resolved{}, false
		}
		return Resolved{Registry: model.RegistryBlock, Key: def.Slug, Label: def.Label, Schema: def.Fields, Kind: kindOrPlain(def.Kind), Needs: def.Needs, Widget: def.Widget}, true
	}
}

// KindOf returns the structural kind of a block slug. Unknown slugs are
// plain.
func (s *Set) KindOf(slug string) model.NodeKind {
	def, ok := s.Blocks.Get(slug)
	if !ok {
		return model.NodePlain
	}
	return kindOrPlain(def.Kind)
}

// Schema returns the config schema for key in the given registry.
func (s *Set) Schema(registryType model.RegistryType, key string) ([]model.FieldSchema, bool) {
	resolved, ok := s.Resolve(registryType, key)
	if !ok {
		return nil, false
	}
	return resolved.Schema, true
}

// Descriptor is a serialisable summary of one definition.
type Descriptor struct {
	Key         string              `json:"key"`
	Label       string              `json:"label,omitempty"`
	Description string              `json:"description,omitempty"`
	Category    string              `json:"category,omitempty"`
	Kind        model.NodeKind      `json:"kind,omitempty"`
	Fields      []model.FieldSchema `json:"fields,omitempty"`
	Operators   []string            `json:"operators,omitempty"`
}

// Describe lists the definitions of one registry in registration order.
func (s *Set) Describe(registryType model.RegistryType) []Descriptor {
	var out []Descriptor
	switch registryType {
	case model.RegistryField:
		for _, def := range s.Fields.All() {
			out = append(out, Descriptor{Key: def.Type, Label: def.Label, Description: def.Description, Fields: def.Fields})
		}
	case model.RegistryFilter:
		for _, def := range s.Filters.All() {
			out = append(out, Descriptor{Key: def.Slug, Label: def.Label, Description: def.Description, Fields: def.Fields, Operators: def.Operators})
		}
	case model.RegistryColumn:
		for _, def := range s.Columns.All() {
			out = append(out, Descriptor{Key: def.Slug, Label: def.Label, Description: def.Description, Fields: def.Fields})
		}
	default:
		for _, def := range s.Blocks.All() {
			out = append(out, Descriptor{Key: def.Slug, Label: def.Label, Description: def.Description, Category: def.Category, Kind: kindOrPlain(def.Kind), Fields: def.Fields})
		}
	}
	return out
}

func kindOrPlain(kind model.NodeKind) model.NodeKind {
	if kind == "" {
		return model.NodePlain
	}
	return kind
}

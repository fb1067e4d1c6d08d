// Package definitions loads caller supplied block, column and filter types
// from YAML or JSON files and registers them after the built-ins, so they
// shadow built-ins sharing a slug.
package definitions

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/goliatone/go-pagebuilder/pkg/ambient"
	"github.com/goliatone/go-pagebuilder/pkg/model"
	"github.com/goliatone/go-pagebuilder/pkg/registry"
	"github.com/goliatone/go-pagebuilder/pkg/render"
)

// Compiler turns a definition template into a widget.
type Compiler interface {
	TemplateWidget(slug, source string) (render.Widget, error)
}

// File is the content of one definition file.
type File struct {
	Blocks  []Block  `json:"blocks,omitempty" yaml:"blocks,omitempty" validate:"dive"`
	Columns []Column `json:"columns,omitempty" yaml:"columns,omitempty" validate:"dive"`
	Filters []Filter `json:"filters,omitempty" yaml:"filters,omitempty" validate:"dive"`
}

// Block declares a block type.
type Block struct {
	Slug        string              `json:"slug" yaml:"slug" validate:"required,max=64,excludesall=/"`
	Label       string              `json:"label,omitempty" yaml:"label,omitempty"`
	Description string              `json:"description,omitempty" yaml:"description,omitempty"`
	Icon        string              `json:"icon,omitempty" yaml:"icon,omitempty"`
	Category    string              `json:"category,omitempty" yaml:"category,omitempty"`
	Kind        model.NodeKind      `json:"kind,omitempty" yaml:"kind,omitempty" validate:"omitempty,oneof=plain grid tabs"`
	Needs       []ambient.Key       `json:"needs,omitempty" yaml:"needs,omitempty" validate:"dive,oneof=resource record filters sort list source"`
	Fields      []model.FieldSchema `json:"fields,omitempty" yaml:"fields,omitempty"`
	Template    string              `json:"template,omitempty" yaml:"template,omitempty"`
}

// Column declares a table column type.
type Column struct {
	Slug        string              `json:"slug" yaml:"slug" validate:"required,max=64,excludesall=/"`
	Label       string              `json:"label,omitempty" yaml:"label,omitempty"`
	Description string              `json:"description,omitempty" yaml:"description,omitempty"`
	Fields      []model.FieldSchema `json:"fields,omitempty" yaml:"fields,omitempty"`
	Template    string              `json:"template,omitempty" yaml:"template,omitempty"`
}

// Filter declares a list filter type.
type Filter struct {
	Slug        string              `json:"slug" yaml:"slug" validate:"required,max=64,excludesall=/"`
	Label       string              `json:"label,omitempty" yaml:"label,omitempty"`
	Description string              `json:"description,omitempty" yaml:"description,omitempty"`
	Operators   []string            `json:"operators,omitempty" yaml:"operators,omitempty"`
	Fields      []model.FieldSchema `json:"fields,omitempty" yaml:"fields,omitempty"`
	Template    string              `json:"template,omitempty" yaml:"template,omitempty"`
}

var validate = validator.New()

// Validate checks slugs, kinds and field schemas.
func (f File) Validate() error {
	if err := validate.Struct(f); err != nil {
		return err
	}
	for _, block := range f.Blocks {
		if err := validateFields(block.Slug, block.Fields); err != nil {
			return err
		}
	}
	for _, column := range f.Columns {
		if err := validateFields(column.Slug, column.Fields); err != nil {
			return err
		}
	}
	for _, filter := range f.Filters {
		if err := validateFields(filter.Slug, filter.Fields); err != nil {
			return err
		}
	}
	return nil
}

func validateFields(slug string, fields []model.FieldSchema) error {
	seen := map[string]bool{}
	for _, field := range fields {
		name := strings.TrimSpace(field.Name)
		if name == "" && field.Kind != model.FieldKindGroup {
			return fmt.Errorf("type %q declares a field without a name", slug)
		}
		if field.Kind == "" {
			return fmt.Errorf("type %q field %q has no kind", slug, name)
		}
		if name != "" && seen[name] {
			return fmt.Errorf("type %q declares field %q twice", slug, name)
		}
		seen[name] = true
		if field.Trigger != nil && strings.TrimSpace(field.Trigger.Field) == "" {
			return fmt.Errorf("type %q field %q trigger has no field", slug, name)
		}
		if field.Kind.HasNested() {
			if err := validateFields(slug, field.Fields); err != nil {
				return err
			}
		}
	}
	return nil
}

// Catalog is the set of loaded definition files keyed by path.
type Catalog struct {
	files map[string]File
}

// NewCatalog builds a catalog from already parsed files.
func NewCatalog(files map[string]File) *Catalog {
	catalog := &Catalog{files: make(map[string]File, len(files))}
	for path, file := range files {
		catalog.files[path] = file
	}
	return catalog
}

// Paths lists the source files, sorted.
func (c *Catalog) Paths() []string {
	return model.SortedKeys(c.files)
}

// File returns the parsed content of path.
func (c *Catalog) File(path string) (File, bool) {
	file, ok := c.files[path]
	return file, ok
}

// Definitions converts the catalog into registry definitions, walking files
// in path order. Templates are compiled with compiler; a nil compiler leaves
// widgets unset for a renderer to bind.
func (c *Catalog) Definitions(compiler Compiler) (registry.Definitions, error) {
	var defs registry.Definitions
	for _, path := range c.Paths() {
		file := c.files[path]
		for _, block := range file.Blocks {
			widget, err := compile(compiler, block.Slug, block.Template)
			if err != nil {
				return registry.Definitions{}, fmt.Errorf("definitions: %s: %w", path, err)
			}
			defs.Blocks = append(defs.Blocks, registry.BlockType{
				Slug:        block.Slug,
				Label:       block.Label,
				Description: block.Description,
				Icon:        block.Icon,
				Category:    block.Category,
				Kind:        block.Kind,
				Needs:       append([]ambient.Key(nil), block.Needs...),
				Fields:      model.CloneSchema(block.Fields),
				Widget:      widget,
			})
		}
		for _, column := range file.Columns {
			widget, err := compile(compiler, column.Slug, column.Template)
			if err != nil {
				return registry.Definitions{}, fmt.Errorf("definitions: %s: %w", path, err)
			}
			defs.Columns = append(defs.Columns, registry.ColumnType{
				Slug:        column.Slug,
				Label:       column.Label,
				Description: column.Description,
				Fields:      model.CloneSchema(column.Fields),
				Widget:      widget,
			})
		}
		for _, filter := range file.Filters {
			widget, err := compile(compiler, filter.Slug, filter.Template)
			if err != nil {
				return registry.Definitions{}, fmt.Errorf("definitions: %s: %w", path, err)
			}
			defs.Filters = append(defs.Filters, registry.FilterType{
				Slug:        filter.Slug,
				Label:       filter.Label,
				Description: filter.Description,
				Operators:   append([]string(nil), filter.Operators...),
				Fields:      model.CloneSchema(filter.Fields),
				Widget:      widget,
			})
		}
	}
	return defs, nil
}

// keys lists the slugs the catalog declares per registry.
func (c *Catalog) keys() map[model.RegistryType][]string {
	out := map[model.RegistryType][]string{}
	for _, file := range c.files {
		for _, block := range file.Blocks {
			out[model.RegistryBlock] = append(out[model.RegistryBlock], block.Slug)
		}
		for _, column := range file.Columns {
			out[model.RegistryColumn] = append(out[model.RegistryColumn], column.Slug)
		}
		for _, filter := range file.Filters {
			out[model.RegistryFilter] = append(out[model.RegistryFilter], filter.Slug)
		}
	}
	for key := range out {
		sort.Strings(out[key])
	}
	return out
}

func compile(compiler Compiler, slug, source string) (render.Widget, error) {
	if compiler == nil || strings.TrimSpace(source) == "" {
		return nil, nil
	}
	return compiler.TemplateWidget(slug, source)
}

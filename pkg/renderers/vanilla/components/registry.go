package components

import (
	"bytes"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/goliatone/go-pagebuilder/pkg/forms"
	"github.com/goliatone/go-pagebuilder/pkg/model"
	rendertemplate "github.com/goliatone/go-pagebuilder/pkg/render/template"
)

// Renderer writes the HTML control of one resolved field into buf.
type Renderer func(buf *bytes.Buffer, field forms.FieldView, data ComponentData) error

// ComponentData is what a control renderer gets besides the field.
type ComponentData struct {
	Template rendertemplate.Engine
	// ID is the DOM id the surrounding label points at.
	ID string
}

// Script is JavaScript a control needs, emitted once per form.
type Script struct {
	Src    string
	Type   string
	Inline string
	Defer  bool
	Module bool
}

func (s Script) key() string {
	if s.Src != "" {
		return "src:" + s.Src
	}
	return "inline:" + s.Inline
}

// Descriptor is a named control and the assets it depends on.
type Descriptor struct {
	Name        string
	Renderer    Renderer
	Stylesheets []string
	Scripts     []Script
}

func (d Descriptor) clone() Descriptor {
	d.Stylesheets = slices.Clone(d.Stylesheets)
	d.Scripts = slices.Clone(d.Scripts)
	return d
}

// Registry holds the edit-form controls by name and the field kinds each
// control edits. Kinds without an explicit binding use NameFor.
type Registry struct {
	mu       sync.RWMutex
	controls map[string]Descriptor
	kinds    map[model.FieldKind]string
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{controls: map[string]Descriptor{}, kinds: map[model.FieldKind]string{}}
}

// Clone copies the registry so a renderer can be customised without
// touching the defaults.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := New()
	for name, descriptor := range r.controls {
		out.controls[name] = descriptor.clone()
	}
	out.kinds = maps.Clone(r.kinds)
	return out
}

// Register adds or replaces the control called name.
func (r *Registry) Register(name string, descriptor Descriptor) error {
	name = normalize(name)
	switch {
	case name == "":
		return fmt.Errorf("components: component name is required")
	case descriptor.Renderer == nil:
		return fmt.Errorf("components: renderer for %q is nil", name)
	}
	descriptor.Name = name
	r.mu.Lock()
	r.controls[name] = descriptor.clone()
	r.mu.Unlock()
	return nil
}

// MustRegister is Register for init-time wiring.
func (r *Registry) MustRegister(name string, descriptor Descriptor) {
	if err := r.Register(name, descriptor); err != nil {
		panic(err)
	}
}

// Bind makes name the control for fields of kind, for example a colour
// picker for color fields.
func (r *Registry) Bind(kind model.FieldKind, name string) error {
	name = normalize(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.controls[name]; !ok {
		return fmt.Errorf("components: control %q not registered", name)
	}
	r.kinds[kind] = name
	return nil
}

// NameFor returns the control that edits kind, or "" for kinds the form
// lays out itself.
func (r *Registry) NameFor(kind model.FieldKind) string {
	r.mu.RLock()
	bound, ok := r.kinds[kind]
	r.mu.RUnlock()
	if ok {
		return bound
	}
	return NameFor(kind)
}

// Descriptor looks up a control by name.
func (r *Registry) Descriptor(name string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	descriptor, ok := r.controls[normalize(name)]
	return descriptor.clone(), ok
}

// Names lists the registered controls, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.controls))
}

// Assets collects the stylesheets and scripts of the named controls,
// first occurrence wins.
func (r *Registry) Assets(names []string) ([]string, []Script) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var stylesheets []string
	var scripts []Script
	seen := map[string]bool{}
	for _, name := range names {
		descriptor, ok := r.controls[normalize(name)]
		if !ok {
			continue
		}
		for _, href := range descriptor.Stylesheets {
			if href != "" && !seen["css:"+href] {
				seen["css:"+href] = true
				stylesheets = append(stylesheets, href)
			}
		}
		for _, script := range descriptor.Scripts {
			if key := script.key(); !seen[key] {
				seen[key] = true
				scripts = append(scripts, script)
			}
		}
	}
	return stylesheets, scripts
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

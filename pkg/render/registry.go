package render

import (
	"fmt"
	"mime"
	"sort"
	"strings"
	"sync"
)

// Registry maps output format names to page renderers. Duplicate names are
// rejected: output formats are wired once by the host, unlike type slugs.
type Registry struct {
	mu      sync.RWMutex
	byName  map[string]Renderer
	aliases map[string]string
	order   []string
}

// NewRegistry creates a registry holding the given renderers.
func NewRegistry(renderers ...Renderer) (*Registry, error) {
	reg := &Registry{byName: map[string]Renderer{}, aliases: map[string]string{}}
	for _, renderer := range renderers {
		if err := reg.Register(renderer); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// Register adds a renderer under its Name().
func (r *Registry) Register(renderer Renderer) error {
	if renderer == nil {
		return fmt.Errorf("render: renderer is required")
	}
	name := strings.TrimSpace(renderer.Name())
	if name == "" {
		return fmt.Errorf("render: renderer name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.taken(name) {
		return fmt.Errorf("render: renderer %q already registered", name)
	}
	r.byName[name] = renderer
	r.order = append(r.order, name)
	return nil
}

// Alias lets callers ask for a renderer under another name, such as "html"
// for the vanilla renderer.
func (r *Registry) Alias(alias, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[name]; !ok {
		return fmt.Errorf("render: renderer %q not found", name)
	}
	if r.taken(alias) {
		return fmt.Errorf("render: renderer %q already registered", alias)
	}
	r.aliases[alias] = name
	return nil
}

func (r *Registry) taken(name string) bool {
	_, registered := r.byName[name]
	_, aliased := r.aliases[name]
	return registered || aliased
}

// Get resolves a renderer by name or alias.
func (r *Registry) Get(name string) (Renderer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if target, ok := r.aliases[name]; ok {
		name = target
	}
	renderer, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("render: renderer %q not found", name)
	}
	return renderer, nil
}

// Negotiate picks the renderer for an Accept header. Media ranges are tried
// in header order and quality values are ignored. "*/*" matches nothing so
// callers keep their own default.
func (r *Registry) Negotiate(accept string) (Renderer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, part := range strings.Split(accept, ",") {
		want, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		if want == "*/*" {
			continue
		}
		for _, name := range r.order {
			renderer := r.byName[name]
			have, _, err := mime.ParseMediaType(renderer.ContentType())
			if err != nil {
				continue
			}
			if have == want || (strings.HasSuffix(want, "/*") && strings.HasPrefix(have, strings.TrimSuffix(want, "*"))) {
				return renderer, true
			}
		}
	}
	return nil, false
}

// List returns the sorted renderer names, aliases excluded.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := append([]string(nil), r.order...)
	sort.Strings(names)
	return names
}

// Has reports whether name resolves to a renderer.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.taken(name)
}

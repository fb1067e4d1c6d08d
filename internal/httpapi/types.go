package httpapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/goliatone/go-pagebuilder/pkg/model"
	"github.com/goliatone/go-pagebuilder/pkg/pages"
	"github.com/goliatone/go-pagebuilder/pkg/registry"
	"github.com/goliatone/go-pagebuilder/pkg/resource"
)

var registryTypes = []model.RegistryType{
	model.RegistryBlock,
	model.RegistryColumn,
	model.RegistryFilter,
	model.RegistryField,
}

// listTypes describes one registry, or all four when none is named.
func (s *Server) listTypes(w http.ResponseWriter, r *http.Request) {
	if name := chi.URLParam(r, "registry"); name != "" {
		registryType, ok := parseRegistry(name)
		if !ok {
			writeError(w, http.StatusNotFound, "unknown registry "+name, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"registry": registryType,
			"types":    describe(s.deps.Registries, registryType),
		})
		return
	}
	out := make(map[model.RegistryType][]registry.Descriptor, len(registryTypes))
	for _, registryType := range registryTypes {
		out[registryType] = describe(s.deps.Registries, registryType)
	}
	writeJSON(w, http.StatusOK, out)
}

func describe(set *registry.Set, registryType model.RegistryType) []registry.Descriptor {
	descriptors := set.Describe(registryType)
	if descriptors == nil {
		return []registry.Descriptor{}
	}
	return descriptors
}

// parseRegistry accepts the singular registry names and their plurals.
func parseRegistry(name string) (model.RegistryType, bool) {
	for _, registryType := range registryTypes {
		if name == string(registryType) || name == string(registryType)+"s" {
			return registryType, true
		}
	}
	return "", false
}

// ResourceResponse is the body of GET /api/resources/{name}.
type ResourceResponse struct {
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	Options     []model.FieldOption `json:"options"`
	Fields      []model.FieldSchema `json:"fields"`
	Columns     map[string]string   `json:"columns"`
	Filters     map[string]string   `json:"filters"`
}

func (s *Server) listResources(w http.ResponseWriter, _ *http.Request) {
	if s.deps.Document == nil {
		writeJSON(w, http.StatusOK, map[string]any{"resources": []string{}})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"title":     s.deps.Document.Title(),
		"resources": s.deps.Document.Names(),
	})
}

func (s *Server) getResource(w http.ResponseWriter, r *http.Request) {
	if s.deps.Document == nil {
		writeError(w, http.StatusNotFound, "no resource document loaded", nil)
		return
	}
	res, err := s.deps.Document.Resource(chi.URLParam(r, "name"))
	if err != nil {
		if errors.Is(err, resource.ErrUnknownResource) {
			writeError(w, http.StatusNotFound, err.Error(), nil)
			return
		}
		s.fail(w, r, err)
		return
	}
	body := ResourceResponse{
		Name:        res.Name,
		Description: res.Description,
		Options:     res.Options(),
		Fields:      res.FormSchema(),
		Columns:     make(map[string]string, len(res.Fields)),
		Filters:     make(map[string]string, len(res.Fields)),
	}
	for _, field := range res.Fields {
		body.Columns[field.Name] = resource.ColumnSlug(field)
		body.Filters[field.Name] = resource.FilterSlug(field)
	}
	writeJSON(w, http.StatusOK, body)
}

// decoratorFor returns the option decorator of the resource a page path is
// scoped to, or nil when no document is loaded or the resource is unknown.
func (s *Server) decoratorFor(path string) model.Decorator {
	if s.deps.Document == nil {
		return nil
	}
	name, _, err := pages.ParsePath(path)
	if err != nil {
		return nil
	}
	res, err := s.deps.Document.Resource(name)
	if err != nil {
		s.logger.Debug().Str("resource", name).Msg("no resource schema for page")
		return nil
	}
	return resource.NewDecorator(res)
}

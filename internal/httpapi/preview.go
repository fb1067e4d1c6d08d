package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/goliatone/go-pagebuilder/pkg/ambient"
	"github.com/goliatone/go-pagebuilder/pkg/compose"
	"github.com/goliatone/go-pagebuilder/pkg/model"
	"github.com/goliatone/go-pagebuilder/pkg/pages"
	"github.com/goliatone/go-pagebuilder/pkg/render"
)

const filterPrefix = "filter."

// preview renders a stored page in the requested format. Rendering never
// writes: the commit callback is nil.
func (s *Server) preview(w http.ResponseWriter, r *http.Request) {
	path, err := pagePath(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	query := r.URL.Query()
	renderer, err := s.rendererFor(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	page, err := s.deps.Store.Fetch(r.Context(), path)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	env, err := s.envFor(r.Context(), path, page, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	env.EditMode = truthyParam(query.Get("edit"))

	view := s.composer.RenderPage(r.Context(), page, env, nil)
	output, err := renderer.Render(r.Context(), view)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", renderer.ContentType())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(output)
}

// rendererFor honours ?format first, then the Accept header, then HTML.
func (s *Server) rendererFor(r *http.Request) (render.Renderer, error) {
	if format := r.URL.Query().Get("format"); format != "" {
		return s.deps.Renderers.Get(format)
	}
	if renderer, ok := s.deps.Renderers.Negotiate(r.Header.Get("Accept")); ok {
		return renderer, nil
	}
	return s.deps.Renderers.Get(s.deps.HTML.Name())
}

// envFor gathers the ambient props of a preview. Show pages read the record
// named by ?id; the other views list records with ?page, ?perPage, ?sort,
// ?order and filter.<name> parameters.
func (s *Server) envFor(ctx context.Context, path string, page model.PageConfig, r *http.Request) (compose.Env, error) {
	resourceName, view, err := pages.ParsePath(path)
	if err != nil {
		return compose.Env{}, err
	}
	if page.ResourceID != "" {
		resourceName = page.ResourceID
	}
	query := r.URL.Query()

	filterValues := map[string]any{}
	for key, values := range query {
		if name, ok := strings.CutPrefix(key, filterPrefix); ok && name != "" && len(values) > 0 {
			filterValues[name] = values[len(values)-1]
		}
	}
	props := ambient.Props{
		Resource: resourceName,
		Filters:  ambient.NewFilterMap(filterValues),
		Source:   s.deps.Source,
	}
	if field := query.Get("sort"); field != "" {
		order := ambient.SortAsc
		if strings.EqualFold(query.Get("order"), string(ambient.SortDesc)) {
			order = ambient.SortDesc
		}
		props.Sort = &ambient.SortState{Field: field, Order: order}
	}

	if s.deps.Source != nil {
		switch {
		case view == pages.ViewShow:
			if id := query.Get("id"); id != "" {
				record, err := s.deps.Source.Read(ctx, resourceName, id)
				if err != nil {
					return compose.Env{}, err
				}
				props.Record = record
			}
		default:
			list, err := s.deps.Source.List(ctx, resourceName, ambient.ListParams{
				Page:    intParam(query.Get("page"), 1),
				PerPage: intParam(query.Get("perPage"), 25),
				Sort:    props.Sort,
				Filters: filterValues,
			})
			if err != nil {
				return compose.Env{}, err
			}
			props.List = &list
		}
	}
	return compose.Env{Path: path, Ambient: props}, nil
}

func truthyParam(raw string) bool {
	value, err := strconv.ParseBool(raw)
	return err == nil && value
}

func intParam(raw string, fallback int) int {
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

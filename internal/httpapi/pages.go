package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/goliatone/go-pagebuilder/internal/storage/sqlite"
	"github.com/goliatone/go-pagebuilder/pkg/blocks"
	"github.com/goliatone/go-pagebuilder/pkg/editor"
	"github.com/goliatone/go-pagebuilder/pkg/model"
	"github.com/goliatone/go-pagebuilder/pkg/pages"
)

const maxBodyBytes = 4 << 20

// historyStore is implemented by stores that keep page revisions.
type historyStore interface {
	History(ctx context.Context, path string) ([]sqlite.Revision, error)
	FetchRevision(ctx context.Context, path string, revision int64) (model.PageConfig, error)
}

func (s *Server) listPages(w http.ResponseWriter, r *http.Request) {
	lister, ok := s.deps.Store.(pages.Lister)
	if !ok {
		writeError(w, http.StatusNotImplemented, "store cannot list pages", nil)
		return
	}
	paths, err := lister.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if paths == nil {
		paths = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"pages": paths})
}

func (s *Server) getPage(w http.ResponseWriter, r *http.Request) {
	path, err := pagePath(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	page, err := s.deps.Store.Fetch(r.Context(), path)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) patchPage(w http.ResponseWriter, r *http.Request) {
	path, err := pagePath(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var patch model.PagePatch
	if err := decodeBody(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if err := s.validate.Struct(patch); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid patch", validationFields(err))
		return
	}
	if patch.Blocks != nil {
		// Unknown slugs are kept: they render as placeholders and stay
		// editable.
		if issues := blocks.Validate(patch.Blocks, s.deps.Registries, nil); len(issues) > 0 {
			fields := make(map[string][]string, len(issues))
			for _, issue := range issues {
				fields[issue.Path] = append(fields[issue.Path], issue.Message)
			}
			writeError(w, http.StatusUnprocessableEntity, "invalid block tree", fields)
			return
		}
	}
	page, err := s.deps.Store.Patch(r.Context(), path, patch)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.logger.Info().Str("path", path).Int64("revision", page.Revision).Msg("page patched")
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) pageHistory(w http.ResponseWriter, r *http.Request) {
	store, ok := s.deps.Store.(historyStore)
	if !ok {
		writeError(w, http.StatusNotImplemented, "store keeps no history", nil)
		return
	}
	path, err := pagePath(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if raw := r.URL.Query().Get("revision"); raw != "" {
		revision, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || revision <= 0 {
			writeError(w, http.StatusBadRequest, "revision must be a positive integer", nil)
			return
		}
		page, err := store.FetchRevision(r.Context(), path, revision)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, page)
		return
	}
	revisions, err := store.History(r.Context(), path)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if revisions == nil {
		revisions = []sqlite.Revision{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"path": path, "revisions": revisions})
}

// AddBlockRequest is the body of POST /api/blocks/*.
type AddBlockRequest struct {
	Slug   string `json:"slug" validate:"required"`
	Parent string `json:"parent,omitempty"`
	Tab    string `json:"tab,omitempty" validate:"excluded_without=Parent"`
	Index  *int   `json:"index,omitempty" validate:"omitempty,min=0"`
}

func (s *Server) addBlock(w http.ResponseWriter, r *http.Request) {
	path, err := pagePath(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req AddBlockRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid request", validationFields(err))
		return
	}
	session, err := s.openSession(r.Context(), path)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	defer session.Close()

	target := blocks.Root()
	switch {
	case req.Tab != "":
		target = blocks.InTab(req.Parent, req.Tab)
	case req.Parent != "":
		target = blocks.InGrid(req.Parent)
	}
	index := -1
	if req.Index != nil {
		index = *req.Index
	}
	block, err := session.AddBlock(r.Context(), target, req.Slug, index)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"block": block, "page": session.Page()})
}

// UpdateNodeRequest is the body of POST /api/nodes/*.
type UpdateNodeRequest struct {
	ID      string   `json:"id" validate:"required"`
	Visible *bool    `json:"visible,omitempty" validate:"required_without=Order"`
	Order   *float64 `json:"order,omitempty"`
}

func (s *Server) updateNode(w http.ResponseWriter, r *http.Request) {
	path, err := pagePath(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req UpdateNodeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid request", validationFields(err))
		return
	}
	session, err := s.openSession(r.Context(), path)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	defer session.Close()

	if req.Visible != nil {
		if err := session.SetVisible(r.Context(), req.ID, *req.Visible); err != nil {
			s.fail(w, r, err)
			return
		}
	}
	if req.Order != nil {
		if err := session.SetOrder(r.Context(), req.ID, *req.Order); err != nil {
			s.fail(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, session.Page())
}

// openSession opens an editor session on path wired with the server's
// observer, decorator and preservation policy.
func (s *Server) openSession(ctx context.Context, path string) (*editor.Session, error) {
	options := []editor.Option{
		editor.WithLogger(s.logger),
		editor.WithPreserveUnknownKeys(s.deps.PreserveUnknown),
	}
	if s.deps.Metrics != nil {
		options = append(options, editor.WithObserver(s.deps.Metrics))
	}
	if decorator := s.decoratorFor(path); decorator != nil {
		options = append(options, editor.WithDecorator(decorator))
	}
	return editor.Open(ctx, s.deps.Store, path, s.composer, options...)
}

func decodeBody(r *http.Request, out any) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

// validationFields turns validator errors into field messages keyed by the
// struct namespace without its root type.
func validationFields(err error) map[string][]string {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return map[string][]string{"_form": {err.Error()}}
	}
	fields := make(map[string][]string, len(errs))
	for _, fe := range errs {
		key := fe.Namespace()
		if _, rest, ok := strings.Cut(key, "."); ok {
			key = rest
		}
		fields[key] = append(fields[key], fmt.Sprintf("failed %s", fe.Tag()))
	}
	return fields
}

package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/goliatone/go-pagebuilder/pkg/editor"
	"github.com/goliatone/go-pagebuilder/pkg/forms"
	"github.com/goliatone/go-pagebuilder/pkg/render"
	"github.com/goliatone/go-pagebuilder/pkg/renderers/vanilla"
)

// Submit button names carried by the edit form.
const (
	formAppend = "_append"
	formRemove = "_remove"
	formCancel = "_cancel"
	formOp     = "op"
	opDelete   = "delete"
)

// editForm opens the modal of one node and renders its form. The node is
// named by ?node or picked from ?chain, the innermost-first id chain the
// editor script collects on click.
func (s *Server) editForm(w http.ResponseWriter, r *http.Request) {
	path, err := pagePath(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	session, err := s.openSession(r.Context(), path)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	defer session.Close()

	query := r.URL.Query()
	var modal *editor.Modal
	if raw := query.Get("chain"); raw != "" {
		var ok bool
		modal, ok = session.Dispatch(splitChain(raw))
		if !ok {
			writeError(w, http.StatusNotFound, "no editable node in selection", nil)
			return
		}
	} else {
		modal, err = session.Select(query.Get("node"))
		if err != nil {
			s.fail(w, r, err)
			return
		}
	}
	s.renderModal(w, r, path, session.Page().Revision, modal, http.StatusOK)
}

// submitForm applies a posted edit form. Repeater buttons re-render the form
// with the item added or removed; the submit button saves; the delete action
// removes the node. Successful writes redirect to the edit preview.
func (s *Server) submitForm(w http.ResponseWriter, r *http.Request) {
	path, err := pagePath(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form body", nil)
		return
	}
	done := "/preview/" + path + "?edit=1"
	if r.PostForm.Get(formCancel) != "" {
		http.Redirect(w, r, done, http.StatusSeeOther)
		return
	}

	session, err := s.openSession(r.Context(), path)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	defer session.Close()

	submitted := render.ParseEditContext(r.PostForm)
	nodeID := submitted.NodeID
	if nodeID == "" {
		nodeID = r.URL.Query().Get("node")
	}
	modal, err := session.Select(nodeID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	revision := session.Page().Revision

	if err := modal.Replace(forms.Decode(modal.Schema(), r.PostForm, modal.Draft())); err != nil {
		s.fail(w, r, err)
		return
	}
	if submitted.Stale(revision) {
		s.logger.Warn().Str("path", path).Str("node", nodeID).Int64("revision", revision).Msg("edit form submitted against an old revision")
		s.renderModalError(w, r, path, revision, modal, editor.MessageStale, http.StatusConflict)
		return
	}

	switch {
	case r.URL.Query().Get(formOp) == opDelete:
		if err := modal.Delete(r.Context()); err != nil {
			s.renderModal(w, r, path, revision, modal, statusFor(err))
			return
		}
		http.Redirect(w, r, done, http.StatusSeeOther)
		return
	case r.PostForm.Get(formAppend) != "":
		if _, err := modal.AppendItem(r.PostForm.Get(formAppend)); err != nil {
			writeError(w, http.StatusBadRequest, err.Error(), nil)
			return
		}
		s.renderModal(w, r, path, revision, modal, http.StatusOK)
		return
	case r.PostForm.Get(formRemove) != "":
		itemPath, index, err := splitItemPath(r.PostForm.Get(formRemove))
		if err == nil {
			err = modal.RemoveItem(itemPath, index)
		}
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error(), nil)
			return
		}
		s.renderModal(w, r, path, revision, modal, http.StatusOK)
		return
	}

	if err := modal.Save(r.Context()); err != nil {
		status := statusFor(err)
		if errors.Is(err, editor.ErrValidation) {
			status = http.StatusUnprocessableEntity
		}
		s.renderModal(w, r, path, revision, modal, status)
		return
	}
	http.Redirect(w, r, done, http.StatusSeeOther)
}

func (s *Server) renderModal(w http.ResponseWriter, r *http.Request, path string, revision int64, modal *editor.Modal, status int) {
	s.writeForm(w, r, path, revision, modal, modal.Form(), status)
}

func (s *Server) renderModalError(w http.ResponseWriter, r *http.Request, path string, revision int64, modal *editor.Modal, message string, status int) {
	form := modal.Form()
	form.FormErrors = forms.MergeFormErrors(form.FormErrors, message)
	s.writeForm(w, r, path, revision, modal, form, status)
}

func (s *Server) writeForm(w http.ResponseWriter, r *http.Request, path string, revision int64, modal *editor.Modal, form forms.Form, status int) {
	action := "/edit/" + path + "?node=" + url.QueryEscape(modal.NodeID())
	markup, err := s.deps.HTML.RenderForm(r.Context(), form, vanilla.FormOptions{
		Title:        "Edit " + modal.Label(),
		Action:       action,
		DeleteAction: action + "&" + formOp + "=" + opDelete,
		Hidden:       render.EditContext{NodeID: modal.NodeID(), PagePath: path, Revision: revision}.Hidden(nil),
		Fields:       s.deps.Registries.Fields,
	})
	if err != nil {
		s.fail(w, r, fmt.Errorf("httpapi: render form: %w", err))
		return
	}
	writeHTML(w, status, markup)
}

func splitChain(raw string) []string {
	var chain []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			chain = append(chain, id)
		}
	}
	return chain
}

// splitItemPath splits "links.2" into the repeater path and the item index.
func splitItemPath(raw string) (string, int, error) {
	idx := strings.LastIndex(raw, ".")
	if idx <= 0 {
		return "", 0, fmt.Errorf("invalid item path %q", raw)
	}
	index, err := strconv.Atoi(raw[idx+1:])
	if err != nil {
		return "", 0, fmt.Errorf("invalid item path %q", raw)
	}
	return raw[:idx], index, nil
}

package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/goliatone/go-pagebuilder/pkg/ambient"
	"github.com/goliatone/go-pagebuilder/pkg/blocks"
	"github.com/goliatone/go-pagebuilder/pkg/editor"
	"github.com/goliatone/go-pagebuilder/pkg/pages"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError writes the error body the pages client decodes.
func writeError(w http.ResponseWriter, status int, message string, fields map[string][]string) {
	writeJSON(w, status, pages.ErrorBody{Error: message, Fields: fields})
}

func writeHTML(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// statusFor maps domain errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, pages.ErrNotFound), errors.Is(err, blocks.ErrNodeNotFound),
		errors.Is(err, ambient.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, pages.ErrStaleRevision), errors.Is(err, editor.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, pages.ErrInvalidPath):
		return http.StatusBadRequest
	case errors.Is(err, editor.ErrValidation), errors.Is(err, editor.ErrUnknownType),
		errors.Is(err, blocks.ErrDuplicateID), errors.Is(err, blocks.ErrNotContainer):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, status, http.StatusText(status), nil)
		return
	}
	if status == http.StatusConflict {
		s.logger.Warn().Err(err).Str("path", r.URL.Path).Msg("write rejected")
	}
	writeError(w, status, err.Error(), nil)
}

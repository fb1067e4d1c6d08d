package tui

import (
	"errors"

	"github.com/goliatone/go-pagebuilder/pkg/model"
)

// State is the draft a prompt session edits plus the errors of the last
// rejected save, both keyed by dotted paths such as "actions.0.url".
type State struct {
	values map[string]any
	errors map[string][]string
}

// NewState copies prefill and errs so prompting never touches the modal.
func NewState(prefill map[string]any, errs map[string][]string) *State {
	values := model.CloneMap(prefill)
	if values == nil {
		values = map[string]any{}
	}
	copied := make(map[string][]string, len(errs))
	for path, messages := range errs {
		copied[path] = append([]string(nil), messages...)
	}
	return &State{values: values, errors: copied}
}

// Values returns the edited draft.
func (s *State) Values() map[string]any {
	if s == nil {
		return nil
	}
	return s.values
}

// Errors returns the errors of paths not answered since the session began.
func (s *State) Errors() map[string][]string {
	if s == nil {
		return nil
	}
	return s.errors
}

// ErrorsFor returns the errors attached to path.
func (s *State) ErrorsFor(path string) []string {
	if s == nil {
		return nil
	}
	return s.errors[path]
}

// GetValue reads the value at path.
func (s *State) GetValue(path string) (any, bool) {
	if s == nil {
		return nil, false
	}
	return model.GetPath(s.values, path)
}

// Scope returns the map that fields under prefix evaluate their triggers
// against. The empty prefix is the root; repeater items are "links.0".
func (s *State) Scope(prefix string) map[string]any {
	if s == nil {
		return nil
	}
	if prefix == "" {
		return s.values
	}
	value, ok := model.GetPath(s.values, prefix)
	if !ok {
		return nil
	}
	scope, _ := value.(map[string]any)
	return scope
}

// SetValue writes value at path. Repeater items must exist before their
// fields are written.
func (s *State) SetValue(path string, value any) error {
	if s == nil {
		return errors.New("tui: state is nil")
	}
	if err := model.SetPath(s.values, path, value); err != nil {
		return err
	}
	delete(s.errors, path)
	return nil
}

package editor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-pagebuilder/pkg/forms"
	"github.com/goliatone/go-pagebuilder/pkg/model"
	"github.com/goliatone/go-pagebuilder/pkg/pages"
	"github.com/goliatone/go-pagebuilder/pkg/render"
)

// MessageStale is the form error shown when the page changed underneath a
// draft.
const MessageStale = "the page changed since it was loaded, reload and save again"

// Modal holds the draft of one node while it is edited.
type Modal struct {
	session  *Session
	nodeID   string
	typeKey  string
	label    string
	registry model.RegistryType
	schema   []model.FieldSchema

	mu          sync.Mutex
	state       State
	draft       map[string]any
	fieldErrors forms.ValidationErrors
	formError   string
}

func newModal(session *Session, view *render.View, schema []model.FieldSchema) *Modal {
	return &Modal{
		session:  session,
		nodeID:   view.ID,
		typeKey:  view.TypeKey,
		label:    view.Label,
		registry: view.Registry,
		schema:   schema,
		state:    StateViewing,
		draft:    model.CloneMap(view.Config),
	}
}

// open moves a fresh modal into Editing.
func (m *Modal) open() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.transitionLocked(StateSelected); err != nil {
		return err
	}
	if m.draft == nil {
		m.draft = map[string]any{}
	}
	return m.transitionLocked(StateEditing)
}

func (m *Modal) transitionLocked(to State) error {
	if err := checkTransition(m.state, to); err != nil {
		return err
	}
	m.state = to
	return nil
}

// NodeID returns the id of the edited node.
func (m *Modal) NodeID() string { return m.nodeID }

// TypeKey returns the type of the edited node.
func (m *Modal) TypeKey() string { return m.typeKey }

// Label returns the type label of the edited node.
func (m *Modal) Label() string { return m.label }

// Schema returns the config schema of the edited node.
func (m *Modal) Schema() []model.FieldSchema { return m.schema }

// State returns the current state.
func (m *Modal) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Draft returns a copy of the draft values.
func (m *Modal) Draft() map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return model.CloneMap(m.draft)
}

// FormError returns the form-level error of the last failed operation.
func (m *Modal) FormError() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.formError
}

// FieldErrors returns the validation errors of the last rejected save.
func (m *Modal) FieldErrors() forms.ValidationErrors {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fieldErrors
}

// Form resolves the draft against the node schema, including the errors of
// the last failed save.
func (m *Modal) Form() forms.Form {
	m.mu.Lock()
	defer m.mu.Unlock()
	options := []forms.Option{forms.WithEvaluator(m.session.evaluator), forms.WithErrors(m.fieldErrors)}
	if m.formError != "" {
		options = append(options, forms.WithFormErrors(m.formError))
	}
	return forms.Resolve(m.schema, model.CloneMap(m.draft), options...)
}

func (m *Modal) editable() error {
	switch {
	case m.state == StateEditing:
		return nil
	case m.state.Busy():
		return ErrBusy
	case m.state.Terminal():
		return ErrClosed
	default:
		return fmt.Errorf("%w: %s is not editable", ErrInvalidState, m.state)
	}
}

// Set writes one draft value. Paths are dotted, with numeric segments for
// repeater items: "title", "links.0.url".
func (m *Modal) Set(path string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.editable(); err != nil {
		return err
	}
	if err := model.SetPath(m.draft, path, value); err != nil {
		return err
	}
	delete(m.fieldErrors, path)
	return nil
}

// Get reads one draft value.
func (m *Modal) Get(path string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := model.GetPath(m.draft, path)
	return model.CloneValue(value), ok
}

// Replace swaps the whole draft.
func (m *Modal) Replace(values map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.editable(); err != nil {
		return err
	}
	m.draft = model.CloneMap(values)
	if m.draft == nil {
		m.draft = map[string]any{}
	}
	m.fieldErrors = nil
	return nil
}

// AppendItem adds an item to the repeater at path, seeded from the repeater
// sub-schema defaults. It returns the new item index.
func (m *Modal) AppendItem(path string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.editable(); err != nil {
		return 0, err
	}
	field, ok := repeaterSchema(m.schema, path)
	if !ok {
		return 0, fmt.Errorf("editor: %q is not a repeater", path)
	}
	current, _ := model.GetPath(m.draft, path)
	items, _ := model.ToSlice(current)
	items = append(append([]any(nil), items...), forms.Defaults(field.Fields))
	if err := model.SetPath(m.draft, path, items); err != nil {
		return 0, err
	}
	return len(items) - 1, nil
}

// RemoveItem drops item index from the repeater at path.
func (m *Modal) RemoveItem(path string, index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.editable(); err != nil {
		return err
	}
	current, _ := model.GetPath(m.draft, path)
	items, ok := model.ToSlice(current)
	if !ok || index < 0 || index >= len(items) {
		return fmt.Errorf("editor: item %d of %q out of range", index, path)
	}
	next := make([]any, 0, len(items)-1)
	next = append(next, items[:index]...)
	next = append(next, items[index+1:]...)
	return model.SetPath(m.draft, path, next)
}

// Save validates the draft and writes it through the node's update callback.
// Validation failures keep the modal in Editing and return an error wrapping
// ErrValidation. Write failures keep the draft and set the form error. On
// success the modal is finished.
func (m *Modal) Save(ctx context.Context) error {
	started := time.Now()
	err := m.save(ctx)
	if !errors.Is(err, ErrBusy) && !errors.Is(err, ErrValidation) {
		m.session.observe(OpSave, started, err)
	}
	return err
}

func (m *Modal) save(ctx context.Context) error {
	m.mu.Lock()
	if err := m.editable(); err != nil {
		m.mu.Unlock()
		return err
	}
	if errs := forms.Validate(m.schema, m.draft, m.session.evaluator); errs != nil {
		m.fieldErrors = errs
		m.mu.Unlock()
		return fmt.Errorf("%w: %w", ErrValidation, errs)
	}
	m.fieldErrors = nil
	m.formError = ""
	draft := model.CloneMap(m.draft)
	if err := m.transitionLocked(StateSaving); err != nil {
		m.mu.Unlock()
		return err
	}
	m.mu.Unlock()

	err := m.session.write(func() error {
		view, err := m.session.node(m.nodeID)
		if err != nil {
			return err
		}
		config := draft
		if m.session.preserveUnknown {
			config = preserveUnknown(m.schema, view.Config, draft)
		}
		if view.Update == nil {
			return fmt.Errorf("editor: node %q is read only", m.nodeID)
		}
		return view.Update(ctx, config)
	})
	return m.finish(err, StateViewing)
}

// Delete removes the node, and its subtree, through its delete callback.
func (m *Modal) Delete(ctx context.Context) error {
	started := time.Now()
	m.mu.Lock()
	if err := m.editable(); err != nil {
		m.mu.Unlock()
		return err
	}
	m.formError = ""
	if err := m.transitionLocked(StateDeleting); err != nil {
		m.mu.Unlock()
		return err
	}
	m.mu.Unlock()

	err := m.session.write(func() error {
		view, err := m.session.node(m.nodeID)
		if err != nil {
			return err
		}
		if view.Delete == nil {
			return fmt.Errorf("editor: node %q is read only", m.nodeID)
		}
		return view.Delete(ctx)
	})
	err = m.finish(err, StateRemoved)
	m.session.observe(OpDelete, started, err)
	return err
}

func (m *Modal) finish(err error, success State) error {
	m.mu.Lock()
	if err != nil {
		m.formError = err.Error()
		var rejected *forms.RejectedError
		switch {
		case errors.Is(err, pages.ErrStaleRevision):
			m.formError = MessageStale
		case errors.As(err, &rejected):
			mapping := forms.MapErrorPayload(m.schema, rejected.Fields)
			m.fieldErrors = forms.ValidationErrors(mapping.Fields)
			m.formError = strings.Join(mapping.Form, "; ")
		}
		_ = m.transitionLocked(StateEditing)
		m.mu.Unlock()
		return err
	}
	_ = m.transitionLocked(success)
	m.mu.Unlock()
	m.session.forget(m)
	return nil
}

// Cancel discards the draft. A modal with a write in flight cannot be
// cancelled.
func (m *Modal) Cancel() error {
	m.mu.Lock()
	if err := m.editable(); err != nil {
		m.mu.Unlock()
		return err
	}
	_ = m.transitionLocked(StateCancelled)
	m.draft = nil
	m.mu.Unlock()
	m.session.forget(m)
	return nil
}

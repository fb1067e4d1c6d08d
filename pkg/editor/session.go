package editor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-pagebuilder/pkg/ambient"
	"github.com/goliatone/go-pagebuilder/pkg/blocks"
	"github.com/goliatone/go-pagebuilder/pkg/compose"
	"github.com/goliatone/go-pagebuilder/pkg/forms"
	"github.com/goliatone/go-pagebuilder/pkg/model"
	"github.com/goliatone/go-pagebuilder/pkg/pages"
	"github.com/goliatone/go-pagebuilder/pkg/render"
	"github.com/goliatone/go-pagebuilder/pkg/selectable"
	"github.com/goliatone/go-pagebuilder/pkg/visibility"
)

// Operation names reported to the Observer.
const (
	OpSave       = "save"
	OpDelete     = "delete"
	OpAdd        = "add"
	OpVisibility = "visibility"
	OpOrder      = "order"
)

// Observer is notified of every write the session attempts.
type Observer interface {
	ObserveWrite(op string, err error, elapsed time.Duration)
}

// Option customises a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithAmbient sets the ambient props handed to widgets.
func WithAmbient(props ambient.Props) Option {
	return func(s *Session) {
		s.env.Ambient = props
	}
}

// WithEditMode toggles edit mode rendering. Sessions edit by default.
func WithEditMode(enabled bool) Option {
	return func(s *Session) {
		s.env.EditMode = enabled
	}
}

// WithEvaluator replaces the trigger evaluator used by modal forms.
func WithEvaluator(evaluator visibility.Evaluator) Option {
	return func(s *Session) {
		if evaluator != nil {
			s.evaluator = evaluator
		}
	}
}

// WithPreserveUnknownKeys keeps config keys the type schema does not declare
// when a draft is saved. It is off by default and the draft replaces the
// config wholesale.
func WithPreserveUnknownKeys(enabled bool) Option {
	return func(s *Session) {
		s.preserveUnknown = enabled
	}
}

// WithSelectable sets the selection registry. Sessions create their own when
// none is given.
func WithSelectable(reg *selectable.Registry) Option {
	return func(s *Session) {
		if reg != nil {
			s.selector = reg
		}
	}
}

// WithObserver installs a write observer.
func WithObserver(observer Observer) Option {
	return func(s *Session) {
		s.observer = observer
	}
}

// WithCreateMissing controls whether Open starts from an empty page when the
// store has none at the path. It is on by default.
func WithCreateMissing(enabled bool) Option {
	return func(s *Session) {
		s.createMissing = enabled
	}
}

// WithDecorator enriches each type schema before a modal opens on it.
func WithDecorator(decorator model.Decorator) Option {
	return func(s *Session) {
		s.decorator = decorator
	}
}

// Session edits the page stored at one path.
type Session struct {
	store    pages.Store
	path     string
	composer *compose.Composer
	selector *selectable.Registry
	logger   zerolog.Logger
	observer Observer

	evaluator       visibility.Evaluator
	decorator       model.Decorator
	preserveUnknown bool
	createMissing   bool

	// writeMu serialises session writes so at most one patch is in flight.
	writeMu sync.Mutex

	mu     sync.RWMutex
	env    compose.Env
	page   model.PageConfig
	view   *render.PageView
	modals map[string]*Modal
	closed bool
}

// Open fetches the page at path and renders it.
func Open(ctx context.Context, store pages.Store, path string, composer *compose.Composer, options ...Option) (*Session, error) {
	if store == nil || composer == nil {
		return nil, fmt.Errorf("editor: store and composer are required")
	}
	clean, err := pages.NormalizePath(path)
	if err != nil {
		return nil, fmt.Errorf("editor: open: %w", err)
	}
	s := &Session{
		store:         store,
		path:          clean,
		composer:      composer,
		selector:      selectable.New(),
		logger:        zerolog.Nop(),
		evaluator:     visibility.Default,
		createMissing: true,
		env:           compose.Env{Path: clean, EditMode: true},
		modals:        make(map[string]*Modal),
	}
	for _, option := range options {
		if option != nil {
			option(s)
		}
	}
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) load(ctx context.Context) error {
	page, err := s.store.Fetch(ctx, s.path)
	switch {
	case errors.Is(err, pages.ErrNotFound) && s.createMissing:
		page = pages.NewPage(s.path)
	case err != nil:
		return fmt.Errorf("editor: fetch %s: %w", s.path, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyLocked(ctx, page)
	return nil
}

// applyLocked stores page and re-renders. Callers hold s.mu.
func (s *Session) applyLocked(ctx context.Context, page model.PageConfig) {
	s.page = page
	s.view = s.composer.RenderPage(ctx, page, s.env, s.commitAt(page.Revision))
	s.bindSelectableLocked()
}

func (s *Session) bindSelectableLocked() {
	s.selector.Reset()
	s.view.Walk(func(view *render.View) bool {
		id := view.ID
		if id == "" {
			return true
		}
		_, _ = s.selector.Register(id, func() {
			if _, err := s.Select(id); err != nil {
				s.logger.Debug().Err(err).Str("node", id).Msg("editor: select failed")
			}
		})
		return true
	})
}

// Path returns the storage path of the page.
func (s *Session) Path() string { return s.path }

// Page returns a copy of the current page.
func (s *Session) Page() model.PageConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.page.Clone()
}

// View returns the latest render of the page.
func (s *Session) View() *render.PageView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

// Selectable exposes the selection registry bound to the rendered nodes.
func (s *Session) Selectable() *selectable.Registry {
	return s.selector
}

// Reload refetches the page, typically after a stale revision. Open modals
// keep their drafts.
func (s *Session) Reload(ctx context.Context) error {
	if s.isClosed() {
		return ErrClosed
	}
	return s.load(ctx)
}

// Select opens a modal for the node with the given id, or returns the modal
// already open for it.
func (s *Session) Select(id string) (*Modal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	if modal, ok := s.modals[id]; ok {
		return modal, nil
	}
	view := s.view.Find(id)
	if view == nil {
		return nil, fmt.Errorf("%w: %q", blocks.ErrNodeNotFound, id)
	}
	schema, _ := s.composer.Registries().Schema(view.Registry, view.TypeKey)
	if s.decorator != nil {
		decorated, err := s.decorator.Decorate(view.TypeKey, schema)
		if err != nil {
			return nil, fmt.Errorf("editor: decorate %q: %w", view.TypeKey, err)
		}
		schema = decorated
	}
	modal := newModal(s, view, schema)
	if err := modal.open(); err != nil {
		return nil, err
	}
	s.modals[id] = modal
	return modal, nil
}

// Dispatch routes a selection given as an id chain, innermost first, to the
// deepest registered node and returns its modal.
func (s *Session) Dispatch(chain []string) (*Modal, bool) {
	id, ok := s.selector.Dispatch(chain)
	if !ok {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	modal, ok := s.modals[id]
	return modal, ok
}

// Modal returns the open modal of a node.
func (s *Session) Modal(id string) (*Modal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	modal, ok := s.modals[id]
	return modal, ok
}

func (s *Session) forget(modal *Modal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if current, ok := s.modals[modal.nodeID]; ok && current == modal {
		delete(s.modals, modal.nodeID)
	}
}

// node returns the view currently rendered for id.
func (s *Session) node(id string) (*render.View, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	view := s.view.Find(id)
	if view == nil {
		return nil, fmt.Errorf("%w: %q", blocks.ErrNodeNotFound, id)
	}
	return view, nil
}

// write runs fn with writes serialised. Node lookups done inside fn see the
// tree produced by the previous write.
func (s *Session) write(fn func() error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return fn()
}

// commitAt returns the top-level CommitFunc for a render of the page at
// revision. Trees built from an older render carry the older revision, so
// stores with revision checks reject them instead of dropping newer edits.
func (s *Session) commitAt(revision int64) compose.CommitFunc {
	return func(ctx context.Context, next []model.BlockConfig) error {
		return s.commit(ctx, next, revision)
	}
}

func (s *Session) commit(ctx context.Context, next []model.BlockConfig, revision int64) error {
	if s.isClosed() {
		return ErrClosed
	}

	page, err := s.store.Patch(ctx, s.path, model.PagePatch{Blocks: next, Revision: revision})
	if err != nil {
		if errors.Is(err, pages.ErrStaleRevision) {
			s.logger.Warn().Str("path", s.path).Int64("revision", revision).Msg("editor: stale revision")
		}
		return fmt.Errorf("editor: save %s: %w", s.path, err)
	}

	s.mu.Lock()
	s.applyLocked(ctx, page)
	s.mu.Unlock()
	return nil
}

func (s *Session) observe(op string, started time.Time, err error) {
	if s.observer != nil {
		s.observer.ObserveWrite(op, err, time.Since(started))
	}
}

// AddBlock creates a node of type slug under target at index, seeding its
// config from the type schema defaults. The created node is returned.
func (s *Session) AddBlock(ctx context.Context, target blocks.Target, slug string, index int) (model.BlockConfig, error) {
	started := time.Now()
	block, err := s.addBlock(ctx, target, slug, index)
	s.observe(OpAdd, started, err)
	return block, err
}

func (s *Session) addBlock(ctx context.Context, target blocks.Target, slug string, index int) (model.BlockConfig, error) {
	set := s.composer.Registries()
	registryType := model.RegistryBlock
	if target.ParentID != "" {
		parent, err := s.node(target.ParentID)
		if err != nil {
			return model.BlockConfig{}, err
		}
		registryType = childRegistry(parent, target.TabID)
	}
	schema, ok := set.Schema(registryType, slug)
	if !ok {
		return model.BlockConfig{}, fmt.Errorf("%w: add block: %s type %q", ErrUnknownType, registryType, slug)
	}
	block := blocks.NewBlock(slug, forms.Defaults(schema))

	err := s.write(func() error {
		current := s.Page()
		next, err := blocks.Insert(current.Blocks, target, block, index, set)
		if err != nil {
			return fmt.Errorf("editor: add block: %w", err)
		}
		return s.commit(ctx, next, current.Revision)
	})
	if err != nil {
		return model.BlockConfig{}, err
	}
	return block, nil
}

func childRegistry(parent *render.View, tabID string) model.RegistryType {
	switch parent.Kind {
	case model.NodeGrid:
		return model.ParseRegistryType(parent.Config[blocks.KeyRegistryType])
	case model.NodeTabs:
		node := blocks.Decode(model.BlockConfig{ID: parent.ID, Slug: parent.TypeKey, Config: parent.Config}, blocks.KindsFunc(func(string) model.NodeKind { return model.NodeTabs }))
		if tab, ok := node.(blocks.Tabs).Tab(tabID); ok {
			return tab.Layout.Registry
		}
	}
	return model.RegistryBlock
}

// SetVisible toggles the visible flag of a node.
func (s *Session) SetVisible(ctx context.Context, id string, visible bool) error {
	started := time.Now()
	err := s.updateNode(ctx, id, func(block model.BlockConfig) model.BlockConfig {
		block.Visible = &visible
		return block
	})
	s.observe(OpVisibility, started, err)
	return err
}

// SetOrder sets the order weight of a node.
func (s *Session) SetOrder(ctx context.Context, id string, order float64) error {
	started := time.Now()
	err := s.updateNode(ctx, id, func(block model.BlockConfig) model.BlockConfig {
		block.Order = &order
		return block
	})
	s.observe(OpOrder, started, err)
	return err
}

func (s *Session) updateNode(ctx context.Context, id string, fn func(model.BlockConfig) model.BlockConfig) error {
	if s.isClosed() {
		return ErrClosed
	}
	return s.write(func() error {
		current := s.Page()
		next, err := blocks.Update(current.Blocks, id, s.composer.Registries(), fn)
		if err != nil {
			return fmt.Errorf("editor: update %q: %w", id, err)
		}
		return s.commit(ctx, next, current.Revision)
	})
}

// Close discards open drafts and tears down the selection registry.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.modals = make(map[string]*Modal)
	s.selector.Close()
}

func (s *Session) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

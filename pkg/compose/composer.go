package compose

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-pagebuilder/pkg/ambient"
	"github.com/goliatone/go-pagebuilder/pkg/blocks"
	"github.com/goliatone/go-pagebuilder/pkg/model"
	"github.com/goliatone/go-pagebuilder/pkg/registry"
	"github.com/goliatone/go-pagebuilder/pkg/render"
)

// CommitFunc receives the rewritten top-level block list after an edit.
type CommitFunc func(ctx context.Context, blocks []model.BlockConfig) error

// Observer is notified after each node renders.
type Observer interface {
	NodeRendered(registry model.RegistryType, typeKey string, status render.Status, elapsed time.Duration)
}

// Env is the ambient render context shared by every node of a page.
type Env struct {
	Path     string
	EditMode bool
	Ambient  ambient.Props
}

// Option customises a Composer.
type Option func(*Composer)

// WithLogger sets the logger used for placeholders and widget failures.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Composer) {
		c.logger = logger
	}
}

// WithObserver installs a render observer.
func WithObserver(observer Observer) Option {
	return func(c *Composer) {
		c.observer = observer
	}
}

// WithPlaceholder sets the widget that renders unknown and failed nodes.
func WithPlaceholder(widget render.Widget) Option {
	return func(c *Composer) {
		c.placeholder = widget
	}
}

// Composer renders page trees.
type Composer struct {
	set         *registry.Set
	logger      zerolog.Logger
	observer    Observer
	placeholder render.Widget
}

// New builds a Composer resolving against set.
func New(set *registry.Set, options ...Option) *Composer {
	c := &Composer{set: set, logger: zerolog.Nop()}
	for _, option := range options {
		if option != nil {
			option(c)
		}
	}
	return c
}

// Registries exposes the registry set the composer resolves against.
func (c *Composer) Registries() *registry.Set {
	return c.set
}

// RenderPage renders every top-level node of page. Edits made through the
// resulting views end in a single commit call.
func (c *Composer) RenderPage(ctx context.Context, page model.PageConfig, env Env, commit CommitFunc) *render.PageView {
	view := &render.PageView{
		PageID:     page.ID,
		ResourceID: page.ResourceID,
		Path:       env.Path,
		Revision:   page.Revision,
		EditMode:   env.EditMode,
	}
	top := model.CloneBlocks(page.Blocks)
	for _, entry := range blocks.Arrange(top, env.EditMode) {
		id := entry.Block.ID
		update := func(ctx context.Context, config map[string]any) error {
			next, err := replaceTop(top, id, config)
			if err != nil {
				return err
			}
			return invoke(ctx, commit, next)
		}
		remove := func(ctx context.Context) error {
			next, err := removeTop(top, id)
			if err != nil {
				return err
			}
			return invoke(ctx, commit, next)
		}
		view.Blocks = append(view.Blocks, c.renderNode(ctx, entry.Block, model.RegistryBlock, env, entry.Dimmed, update, remove))
	}
	return view
}

// RenderNode renders a single node with the supplied callbacks.
func (c *Composer) RenderNode(ctx context.Context, block model.BlockConfig, registryType model.RegistryType, env Env, update render.UpdateFunc, remove render.DeleteFunc) *render.View {
	return c.renderNode(ctx, block, registryType, env, false, update, remove)
}

func (c *Composer) renderNode(ctx context.Context, block model.BlockConfig, registryType model.RegistryType, env Env, dimmed bool, update render.UpdateFunc, remove render.DeleteFunc) *render.View {
	started := time.Now()
	view := &render.View{
		ID:       block.ID,
		TypeKey:  block.TypeKey(),
		Kind:     model.NodePlain,
		Registry: registryType,
		Config:   model.CloneMap(block.Config),
		EditMode: env.EditMode,
		Dimmed:   dimmed,
		Update:   update,
		Delete:   remove,
	}
	if view.Config == nil {
		view.Config = map[string]any{}
	}
	defer func() {
		if c.observer != nil {
			c.observer.NodeRendered(registryType, view.TypeKey, view.Status, time.Since(started))
		}
	}()

	resolved, ok := c.set.Resolve(registryType, view.TypeKey)
	if !ok {
		view.Status = render.StatusUnknown
		view.Message = fmt.Sprintf("unknown %s type %q", registryType, view.TypeKey)
		c.logger.Warn().Str("node", block.ID).Str("registry", string(registryType)).Str("type", view.TypeKey).Msg("compose: unknown type")
		c.renderPlaceholder(ctx, view)
		return view
	}
	view.Label = resolved.Label
	view.Kind = resolved.Kind

	props := render.Props{
		NodeID:         block.ID,
		TypeKey:        resolved.Key,
		Label:          resolved.Label,
		Config:         view.Config,
		Schema:         resolved.Schema,
		EditMode:       env.EditMode,
		Dimmed:         dimmed,
		OnConfigUpdate: update,
		OnDelete:       remove,
		Ambient:        env.Ambient.Select(resolved.Needs),
	}

	kinds := blocks.KindsFunc(func(string) model.NodeKind { return resolved.Kind })
	switch node := blocks.Decode(block, kinds).(type) {
	case blocks.Grid:
		view.Columns = columnsOf(node.Layout)
		view.Children = c.renderChildren(ctx, block, node.Children, node.Layout.Registry, env, update, kinds)
		props.Children = view.Children
	case blocks.Tabs:
		for _, tab := range node.Tabs {
			view.Tabs = append(view.Tabs, render.TabView{
				ID:       tab.ID,
				Label:    tab.Label,
				Columns:  columnsOf(tab.Layout),
				Children: c.renderChildren(ctx, block, tab.Children, tab.Layout.Registry, env, update, kinds),
			})
		}
		props.Tabs = view.Tabs
	}

	if resolved.Widget == nil {
		view.Status = render.StatusOK
		return view
	}
	output, err := safeRender(ctx, resolved.Widget, props)
	if err != nil {
		view.Status = render.StatusFailed
		view.Message = err.Error()
		c.logger.Warn().Err(err).Str("node", block.ID).Str("type", view.TypeKey).Msg("compose: widget failed")
		c.renderPlaceholder(ctx, view)
		return view
	}
	view.Status = render.StatusOK
	view.Output = output
	return view
}

// renderChildren renders the direct children of parent. Their callbacks
// rewrite one level and hand the parent config to the parent's update.
func (c *Composer) renderChildren(ctx context.Context, parent model.BlockConfig, children []model.BlockConfig, registryType model.RegistryType, env Env, parentUpdate render.UpdateFunc, kinds blocks.Kinds) []*render.View {
	var views []*render.View
	for _, entry := range blocks.Arrange(children, env.EditMode) {
		childID := entry.Block.ID
		update := func(ctx context.Context, config map[string]any) error {
			next, err := blocks.ReplaceChildConfig(parent, childID, config, kinds)
			if err != nil {
				return err
			}
			return invokeUpdate(ctx, parentUpdate, next.Config)
		}
		remove := func(ctx context.Context) error {
			next, err := blocks.RemoveChild(parent, childID, kinds)
			if err != nil {
				return err
			}
			return invokeUpdate(ctx, parentUpdate, next.Config)
		}
		views = append(views, c.renderNode(ctx, entry.Block, registryType, env, entry.Dimmed, update, remove))
	}
	return views
}

func (c *Composer) renderPlaceholder(ctx context.Context, view *render.View) {
	if c.placeholder == nil {
		return
	}
	output, err := safeRender(ctx, c.placeholder, render.Props{
		NodeID:         view.ID,
		TypeKey:        view.TypeKey,
		Label:          view.Message,
		Config:         view.Config,
		EditMode:       view.EditMode,
		Dimmed:         view.Dimmed,
		OnConfigUpdate: view.Update,
		OnDelete:       view.Delete,
	})
	if err == nil {
		view.Output = output
	}
}

func safeRender(ctx context.Context, widget render.Widget, props render.Props) (output string, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("compose: widget panicked: %v", recovered)
		}
	}()
	return widget.Render(ctx, props)
}

func columnsOf(layout blocks.Layout) *render.Columns {
	return &render.Columns{Mobile: layout.Mobile, Tablet: layout.Tablet, Desktop: layout.Desktop}
}

func replaceTop(top []model.BlockConfig, id string, config map[string]any) ([]model.BlockConfig, error) {
	next := make([]model.BlockConfig, len(top))
	found := false
	for idx, block := range top {
		if block.ID == id {
			next[idx] = block.WithConfig(config)
			found = true
			continue
		}
		next[idx] = block.Clone()
	}
	if !found {
		return nil, fmt.Errorf("%w: %q", blocks.ErrNodeNotFound, id)
	}
	return next, nil
}

func removeTop(top []model.BlockConfig, id string) ([]model.BlockConfig, error) {
	next := make([]model.BlockConfig, 0, len(top))
	for _, block := range top {
		if block.ID == id {
			continue
		}
		next = append(next, block.Clone())
	}
	if len(next) == len(top) {
		return nil, fmt.Errorf("%w: %q", blocks.ErrNodeNotFound, id)
	}
	return next, nil
}

func invoke(ctx context.Context, commit CommitFunc, next []model.BlockConfig) error {
	if commit == nil {
		return fmt.Errorf("compose: page is read only")
	}
	return commit(ctx, next)
}

func invokeUpdate(ctx context.Context, update render.UpdateFunc, config map[string]any) error {
	if update == nil {
		return fmt.Errorf("compose: parent is read only")
	}
	return update(ctx, config)
}

package render

import (
	"context"

	"github.com/goliatone/go-pagebuilder/pkg/ambient"
	"github.com/goliatone/go-pagebuilder/pkg/model"
)

// UpdateFunc persists a replacement config for the node it is bound to.
type UpdateFunc func(ctx context.Context, config map[string]any) error

// DeleteFunc removes the node it is bound to from its parent.
type DeleteFunc func(ctx context.Context) error

// Props is everything a widget receives for one node.
type Props struct {
	NodeID   string
	TypeKey  string
	Label    string
	Config   map[string]any
	Schema   []model.FieldSchema
	EditMode bool
	// Dimmed marks a node with visible=false that is only shown because the
	// page is being edited.
	Dimmed         bool
	OnConfigUpdate UpdateFunc
	OnDelete       DeleteFunc
	Ambient        ambient.Props
	// Children and Tabs are already rendered when the widget runs.
	Children []*View
	Tabs     []TabView
}

// Widget renders one node into a markup fragment.
type Widget interface {
	Render(ctx context.Context, props Props) (string, error)
}

// WidgetFunc adapts a function into a Widget.
type WidgetFunc func(ctx context.Context, props Props) (string, error)

// Render calls the underlying function.
func (fn WidgetFunc) Render(ctx context.Context, props Props) (string, error) {
	return fn(ctx, props)
}

package render

import "github.com/goliatone/go-pagebuilder/pkg/model"

// Status reports how a node resolved.
type Status string

const (
	StatusOK Status = "ok"
	// StatusUnknown means the type key was not found in the registry the
	// node resolves against.
	StatusUnknown Status = "unknown"
	// StatusFailed means the widget returned an error or panicked.
	StatusFailed Status = "failed"
)

// View is the resolved form of one tree node.
type View struct {
	ID       string             `json:"id"`
	TypeKey  string             `json:"slug"`
	Kind     model.NodeKind     `json:"kind"`
	Registry model.RegistryType `json:"registry"`
	Label    string             `json:"label,omitempty"`
	Config   map[string]any     `json:"config"`
	Status   Status             `json:"status"`
	Message  string             `json:"message,omitempty"`
	EditMode bool               `json:"editMode,omitempty"`
	Dimmed   bool               `json:"dimmed,omitempty"`
	Output   string             `json:"output,omitempty"`
	Children []*View            `json:"children,omitempty"`
	Tabs     []TabView          `json:"tabs,omitempty"`
	// Grid layout, set for grid nodes and tab panes.
	Columns *Columns `json:"columns,omitempty"`

	Update UpdateFunc `json:"-"`
	Delete DeleteFunc `json:"-"`
}

// TabView is one resolved tab of a tabs node.
type TabView struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Columns  *Columns `json:"columns,omitempty"`
	Children []*View  `json:"children,omitempty"`
}

// Columns is a responsive column count.
type Columns struct {
	Mobile  int `json:"mobile"`
	Tablet  int `json:"tablet"`
	Desktop int `json:"desktop"`
}

// Find returns the view with the given id in this subtree.
func (v *View) Find(id string) *View {
	if v == nil {
		return nil
	}
	if v.ID == id {
		return v
	}
	for _, child := range v.Children {
		if found := child.Find(id); found != nil {
			return found
		}
	}
	for _, tab := range v.Tabs {
		for _, child := range tab.Children {
			if found := child.Find(id); found != nil {
				return found
			}
		}
	}
	return nil
}

// Walk visits the subtree depth first, parents before children. Returning
// false from fn skips the node's children.
func (v *View) Walk(fn func(*View) bool) {
	if v == nil || !fn(v) {
		return
	}
	for _, child := range v.Children {
		child.Walk(fn)
	}
	for _, tab := range v.Tabs {
		for _, child := range tab.Children {
			child.Walk(fn)
		}
	}
}

// PageView is a fully resolved page.
type PageView struct {
	PageID     string  `json:"id"`
	ResourceID string  `json:"resourceId"`
	Path       string  `json:"path"`
	Revision   int64   `json:"revision,omitempty"`
	EditMode   bool    `json:"editMode,omitempty"`
	Blocks     []*View `json:"blocks"`
}

// Find returns the view with the given id anywhere on the page.
func (p *PageView) Find(id string) *View {
	if p == nil {
		return nil
	}
	for _, block := range p.Blocks {
		if found := block.Find(id); found != nil {
			return found
		}
	}
	return nil
}

// Walk visits every view on the page.
func (p *PageView) Walk(fn func(*View) bool) {
	if p == nil {
		return
	}
	for _, block := range p.Blocks {
		block.Walk(fn)
	}
}

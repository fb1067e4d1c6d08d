package blocks

import (
	"strings"

	"github.com/goliatone/go-pagebuilder/pkg/model"
)

// Config keys of container nodes.
const (
	KeyBlocks         = "blocks"
	KeyTabs           = "tabs"
	KeyItems          = "items"
	KeyGridConfig     = "gridConfig"
	KeyRegistryType   = "registryType"
	KeyColumnsMobile  = "columnsMobile"
	KeyColumnsTablet  = "columnsTablet"
	KeyColumnsDesktop = "columnsDesktop"
)

// Default column counts for grids that do not set them.
const (
	DefaultColumnsMobile  = 1
	DefaultColumnsTablet  = 2
	DefaultColumnsDesktop = 3
)

// Node is one decoded tree node: Plain, Grid or Tabs.
type Node interface {
	Kind() model.NodeKind
	Block() model.BlockConfig
}

// Plain is a leaf node.
type Plain struct {
	block model.BlockConfig
}

// Kind implements Node.
func (Plain) Kind() model.NodeKind { return model.NodePlain }

// Block implements Node.
func (p Plain) Block() model.BlockConfig { return p.block }

// Layout is the child layout of a grid or a tab pane.
type Layout struct {
	Registry model.RegistryType
	Mobile   int
	Tablet   int
	Desktop  int
}

// Grid is a container laying its children out in responsive columns.
type Grid struct {
	block    model.BlockConfig
	Layout   Layout
	Children []model.BlockConfig
}

// Kind implements Node.
func (Grid) Kind() model.NodeKind { return model.NodeGrid }

// Block implements Node.
func (g Grid) Block() model.BlockConfig { return g.block }

// Tab is one pane of a tabs node.
type Tab struct {
	Index int
	ID    string
	Label string
	// Legacy reports that Children were read from the blocks array because
	// the tab has no items array.
	Legacy   bool
	Layout   Layout
	Children []model.BlockConfig
}

// Tabs is a container of named panes.
type Tabs struct {
	block model.BlockConfig
	Tabs  []Tab
}

// Kind implements Node.
func (Tabs) Kind() model.NodeKind { return model.NodeTabs }

// Block implements Node.
func (t Tabs) Block() model.BlockConfig { return t.block }

// Tab returns the pane with the given id.
func (t Tabs) Tab(id string) (Tab, bool) {
	for _, tab := range t.Tabs {
		if tab.ID == id {
			return tab, true
		}
	}
	return Tab{}, false
}

// Decode classifies block by the kind its slug resolves to. Malformed child
// entries are skipped; they remain in the stored config.
func Decode(block model.BlockConfig, kinds Kinds) Node {
	switch kindsOrStandard(kinds).KindOf(block.TypeKey()) {
	case model.NodeGrid:
		children, _ := model.BlocksFromValue(block.Config[KeyBlocks])
		return Grid{block: block, Layout: layoutFrom(block.Config), Children: children}
	case model.NodeTabs:
		node := Tabs{block: block}
		for idx, raw := range rawTabs(block.Config) {
			tab, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			node.Tabs = append(node.Tabs, decodeTab(idx, tab))
		}
		return node
	default:
		return Plain{block: block}
	}
}

func decodeTab(idx int, tab map[string]any) Tab {
	out := Tab{
		Index: idx,
		ID:    model.Stringify(tab["id"]),
		Label: strings.TrimSpace(model.Stringify(tab["label"])),
	}
	gridConfig, _ := tab[KeyGridConfig].(map[string]any)
	out.Layout = layoutFrom(gridConfig)
	key := paneKey(tab)
	out.Legacy = key == KeyBlocks
	out.Children, _ = model.BlocksFromValue(tab[key])
	return out
}

// paneKey picks the array a tab renders from: items when present, otherwise
// the legacy blocks array.
func paneKey(tab map[string]any) string {
	if _, ok := tab[KeyItems]; ok {
		return KeyItems
	}
	if _, ok := tab[KeyBlocks]; ok {
		return KeyBlocks
	}
	return KeyItems
}

func layoutFrom(config map[string]any) Layout {
	return Layout{
		Registry: model.ParseRegistryType(config[KeyRegistryType]),
		Mobile:   columnsOr(config[KeyColumnsMobile], DefaultColumnsMobile),
		Tablet:   columnsOr(config[KeyColumnsTablet], DefaultColumnsTablet),
		Desktop:  columnsOr(config[KeyColumnsDesktop], DefaultColumnsDesktop),
	}
}

func columnsOr(raw any, fallback int) int {
	if n, ok := model.ToInt(raw); ok && n > 0 {
		if n > model.GridColumns {
			return model.GridColumns
		}
		return n
	}
	return fallback
}

func rawTabs(config map[string]any) []any {
	items, _ := model.ToSlice(config[KeyTabs])
	return items
}

package blocks

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-pagebuilder/pkg/model"
)

var (
	// ErrNodeNotFound is returned when no node carries the requested id.
	ErrNodeNotFound = errors.New("blocks: node not found")
	// ErrDuplicateID is returned when an insert would repeat an existing id.
	ErrDuplicateID = errors.New("blocks: duplicate node id")
	// ErrNotContainer is returned when an insert targets a plain node or a
	// tab that does not exist.
	ErrNotContainer = errors.New("blocks: target is not a container")
)

// matchFunc decides what happens to a node. Returning handled=false leaves it
// in place and descends into its children; handled=true splices replacement
// in its position.
type matchFunc func(block model.BlockConfig) (replacement []any, handled bool)

// rewriteEntries walks entries depth first and applies fn. Untouched entries,
// including ones that cannot be decoded, are returned as the same values.
func rewriteEntries(entries []any, kinds Kinds, fn matchFunc) ([]any, bool) {
	out := make([]any, 0, len(entries))
	changed := false
	for _, raw := range entries {
		block, ok := decodeEntry(raw)
		if !ok {
			out = append(out, raw)
			continue
		}
		if replacement, handled := fn(block); handled {
			out = append(out, replacement...)
			changed = true
			continue
		}
		if rewritten, ok := rewriteChildren(block, kinds, fn); ok {
			out = append(out, rewritten.ToMap())
			changed = true
			continue
		}
		out = append(out, raw)
	}
	return out, changed
}

func rewriteChildren(block model.BlockConfig, kinds Kinds, fn matchFunc) (model.BlockConfig, bool) {
	config := block.Config
	changed := false
	for _, s := range slotsOf(block, kinds) {
		if rewritten, ok := rewriteEntries(readSlot(config, s), kinds, fn); ok {
			config = writeSlot(config, s, rewritten)
			changed = true
		}
	}
	if !changed {
		return block, false
	}
	out := block
	out.Config = config
	return out, true
}

func rewriteTree(blocks []model.BlockConfig, kinds Kinds, fn matchFunc) ([]model.BlockConfig, bool, error) {
	rewritten, changed := rewriteEntries(model.BlocksToValue(blocks), kindsOrStandard(kinds), fn)
	if !changed {
		return model.CloneBlocks(blocks), false, nil
	}
	out, errs := model.BlocksFromValue(rewritten)
	if len(errs) > 0 {
		return nil, true, fmt.Errorf("blocks: rewrite: %w", errors.Join(errs...))
	}
	return out, true, nil
}

// Update replaces the node with the given id by fn(node). The rest of the
// tree is copied unchanged.
func Update(blocks []model.BlockConfig, id string, kinds Kinds, fn func(model.BlockConfig) model.BlockConfig) ([]model.BlockConfig, error) {
	out, changed, err := rewriteTree(blocks, kinds, func(block model.BlockConfig) ([]any, bool) {
		if block.ID != id {
			return nil, false
		}
		return []any{fn(block.Clone()).ToMap()}, true
	})
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, fmt.Errorf("%w: %q", ErrNodeNotFound, id)
	}
	return out, nil
}

// ReplaceConfig swaps the config of the node with the given id. The new
// config replaces the old one wholesale. Applying the same config twice
// yields the same tree.
func ReplaceConfig(blocks []model.BlockConfig, id string, config map[string]any, kinds Kinds) ([]model.BlockConfig, error) {
	return Update(blocks, id, kinds, func(block model.BlockConfig) model.BlockConfig {
		return block.WithConfig(config)
	})
}

// Remove deletes the node with the given id and its whole subtree.
func Remove(blocks []model.BlockConfig, id string, kinds Kinds) ([]model.BlockConfig, error) {
	out, changed, err := rewriteTree(blocks, kinds, func(block model.BlockConfig) ([]any, bool) {
		if block.ID != id {
			return nil, false
		}
		return nil, true
	})
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, fmt.Errorf("%w: %q", ErrNodeNotFound, id)
	}
	return out, nil
}

// Target addresses where Insert places a node.
type Target struct {
	// ParentID is the grid or tabs node receiving the child. Empty means
	// the page root.
	ParentID string
	// TabID selects the pane when ParentID is a tabs node.
	TabID string
}

// Root targets the top level of the page.
func Root() Target { return Target{} }

// InGrid targets a grid node.
func InGrid(gridID string) Target { return Target{ParentID: gridID} }

// InTab targets one pane of a tabs node.
func InTab(tabsID, tabID string) Target { return Target{ParentID: tabsID, TabID: tabID} }

// Insert places node under target at index. A negative or out of range index
// appends. Ids already used anywhere in the tree are rejected.
func Insert(blocks []model.BlockConfig, target Target, node model.BlockConfig, index int, kinds Kinds) ([]model.BlockConfig, error) {
	kinds = kindsOrStandard(kinds)
	if err := checkIDs(blocks, node, kinds); err != nil {
		return nil, err
	}

	if target.ParentID == "" {
		out := model.CloneBlocks(blocks)
		if index < 0 || index > len(out) {
			index = len(out)
		}
		out = append(out, model.BlockConfig{})
		copy(out[index+1:], out[index:])
		out[index] = node.Clone()
		return out, nil
	}

	var insertErr error
	out, changed, err := rewriteTree(blocks, kinds, func(block model.BlockConfig) ([]any, bool) {
		if block.ID != target.ParentID {
			return nil, false
		}
		updated, err := InsertChild(block, target.TabID, node, index, kinds)
		if err != nil {
			insertErr = err
			return []any{block.ToMap()}, true
		}
		return []any{updated.ToMap()}, true
	})
	if insertErr != nil {
		return nil, insertErr
	}
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, fmt.Errorf("%w: %q", ErrNodeNotFound, target.ParentID)
	}
	return out, nil
}

func checkIDs(blocks []model.BlockConfig, node model.BlockConfig, kinds Kinds) error {
	existing := make(map[string]struct{})
	for _, id := range CollectIDs(blocks, kinds) {
		existing[id] = struct{}{}
	}
	for _, id := range CollectIDs([]model.BlockConfig{node}, kinds) {
		if id == "" {
			return fmt.Errorf("blocks: insert: node id is required")
		}
		if _, taken := existing[id]; taken {
			return fmt.Errorf("%w: %q", ErrDuplicateID, id)
		}
		existing[id] = struct{}{}
	}
	return nil
}

// Find returns the node with the given id anywhere in the tree.
func Find(blocks []model.BlockConfig, id string, kinds Kinds) (model.BlockConfig, bool) {
	var (
		found model.BlockConfig
		ok    bool
	)
	Walk(blocks, kinds, func(visit Visit) bool {
		if ok {
			return false
		}
		if visit.Block.ID == id {
			found, ok = visit.Block, true
			return false
		}
		return true
	})
	return found, ok
}

// Visit describes one node seen by Walk.
type Visit struct {
	Block model.BlockConfig
	// ParentID and TabID locate the node; both are empty at the root.
	ParentID string
	TabID    string
	// Registry is the registry the node's slug resolves against.
	Registry model.RegistryType
	Depth    int
	Path     string
}

// Walk visits every decodable node depth first, parents before children.
// Returning false skips the node's subtree.
func Walk(blocks []model.BlockConfig, kinds Kinds, fn func(Visit) bool) {
	kinds = kindsOrStandard(kinds)
	for idx, block := range blocks {
		walkNode(block, Visit{Registry: model.RegistryBlock, Path: fmt.Sprintf("blocks[%d]", idx)}, kinds, fn)
	}
}

func walkNode(block model.BlockConfig, visit Visit, kinds Kinds, fn func(Visit) bool) {
	visit.Block = block
	if !fn(visit) {
		return
	}
	// Each slot is walked so nodes only present in a legacy tab array are
	// still reachable.
	for _, s := range slotsOf(block, kinds) {
		child := Visit{ParentID: block.ID, Depth: visit.Depth + 1}
		if s.tab < 0 {
			child.Registry = layoutFrom(block.Config).Registry
			child.Path = fmt.Sprintf("%s.config.blocks", visit.Path)
		} else {
			tab, _ := rawTabs(block.Config)[s.tab].(map[string]any)
			gridConfig, _ := tab[KeyGridConfig].(map[string]any)
			child.TabID = model.Stringify(tab["id"])
			child.Registry = layoutFrom(gridConfig).Registry
			child.Path = fmt.Sprintf("%s.config.tabs[%d].%s", visit.Path, s.tab, s.key)
		}
		base := child.Path
		for idx, raw := range readSlot(block.Config, s) {
			entry, ok := decodeEntry(raw)
			if !ok {
				continue
			}
			// items and blocks of one tab usually mirror each other.
			if s.tab >= 0 && s.key == KeyBlocks && tabHasItemWithID(block.Config, s.tab, entry.ID) {
				continue
			}
			child.Path = fmt.Sprintf("%s[%d]", base, idx)
			walkNode(entry, child, kinds, fn)
		}
	}
}

func tabHasItemWithID(config map[string]any, tab int, id string) bool {
	for _, raw := range readSlot(config, slot{tab: tab, key: KeyItems}) {
		if entry, ok := decodeEntry(raw); ok && entry.ID == id {
			return true
		}
	}
	return false
}

// CollectIDs lists every node id in walk order.
func CollectIDs(blocks []model.BlockConfig, kinds Kinds) []string {
	var ids []string
	Walk(blocks, kinds, func(visit Visit) bool {
		ids = append(ids, visit.Block.ID)
		return true
	})
	return ids
}

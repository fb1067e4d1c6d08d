package blocks

import (
	"fmt"

	"github.com/goliatone/go-pagebuilder/pkg/model"
)

// The one-level rewrites below only look at the direct children of parent.
// The composer chains them: a child edit rewrites its entry in the parent
// config, then the parent's own update callback takes it from there.

// ReplaceChild swaps the direct child of parent that shares child.ID. Every
// child array carrying the id is updated, so a tab's items and legacy blocks
// stay in step.
func ReplaceChild(parent model.BlockConfig, child model.BlockConfig, kinds Kinds) (model.BlockConfig, error) {
	return rewriteDirect(parent, child.ID, kinds, func(model.BlockConfig) []any {
		return []any{child.ToMap()}
	})
}

// ReplaceChildConfig swaps the config of a direct child of parent.
func ReplaceChildConfig(parent model.BlockConfig, childID string, config map[string]any, kinds Kinds) (model.BlockConfig, error) {
	return rewriteDirect(parent, childID, kinds, func(child model.BlockConfig) []any {
		return []any{child.WithConfig(config).ToMap()}
	})
}

// RemoveChild drops the direct child of parent with the given id.
func RemoveChild(parent model.BlockConfig, childID string, kinds Kinds) (model.BlockConfig, error) {
	return rewriteDirect(parent, childID, kinds, func(model.BlockConfig) []any {
		return nil
	})
}

func rewriteDirect(parent model.BlockConfig, childID string, kinds Kinds, fn func(model.BlockConfig) []any) (model.BlockConfig, error) {
	kinds = kindsOrStandard(kinds)
	config := parent.Config
	found := false
	for _, s := range slotsOf(parent, kinds) {
		entries := readSlot(config, s)
		out := make([]any, 0, len(entries))
		hit := false
		for _, raw := range entries {
			entry, ok := decodeEntry(raw)
			if ok && entry.ID == childID {
				out = append(out, fn(entry.Clone())...)
				hit = true
				continue
			}
			out = append(out, raw)
		}
		if hit {
			config = writeSlot(config, s, out)
			found = true
		}
	}
	if !found {
		return model.BlockConfig{}, fmt.Errorf("%w: %q in %q", ErrNodeNotFound, childID, parent.ID)
	}
	updated := parent
	updated.Config = config
	return updated, nil
}

// InsertChild adds child to a grid parent, or to the tab tabID of a tabs
// parent, at index. A negative or out of range index appends.
func InsertChild(parent model.BlockConfig, tabID string, child model.BlockConfig, index int, kinds Kinds) (model.BlockConfig, error) {
	kinds = kindsOrStandard(kinds)
	var slots []slot
	switch kinds.KindOf(parent.TypeKey()) {
	case model.NodeGrid:
		slots = []slot{{tab: -1, key: KeyBlocks}}
	case model.NodeTabs:
		var ok bool
		if slots, ok = tabSlots(parent, tabID); !ok {
			return model.BlockConfig{}, fmt.Errorf("%w: tab %q in %q", ErrNotContainer, tabID, parent.ID)
		}
	default:
		return model.BlockConfig{}, fmt.Errorf("%w: %q", ErrNotContainer, parent.ID)
	}

	config := parent.Config
	if config == nil {
		config = map[string]any{}
	}
	for _, s := range slots {
		config = writeSlot(config, s, insertAt(readSlot(config, s), child.ToMap(), index))
	}
	updated := parent
	updated.Config = config
	return updated, nil
}

func insertAt(entries []any, entry any, index int) []any {
	out := make([]any, 0, len(entries)+1)
	if index < 0 || index > len(entries) {
		index = len(entries)
	}
	out = append(out, entries[:index]...)
	out = append(out, entry)
	out = append(out, entries[index:]...)
	return out
}

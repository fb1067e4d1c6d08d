package blocks

import "github.com/goliatone/go-pagebuilder/pkg/model"

// slot addresses one child array inside a container config: config.blocks
// for grids (tab < 0), config.tabs[tab][key] for tabs.
type slot struct {
	tab int
	key string
}

// slotsOf lists every child array of block. Tabs contribute both their
// items and legacy blocks arrays when present.
func slotsOf(block model.BlockConfig, kinds Kinds) []slot {
	switch kinds.KindOf(block.TypeKey()) {
	case model.NodeGrid:
		return []slot{{tab: -1, key: KeyBlocks}}
	case model.NodeTabs:
		var slots []slot
		for idx, raw := range rawTabs(block.Config) {
			tab, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			for _, key := range []string{KeyItems, KeyBlocks} {
				if _, has := tab[key]; has {
					slots = append(slots, slot{tab: idx, key: key})
				}
			}
		}
		return slots
	default:
		return nil
	}
}

// tabSlots lists the child arrays of the tab with the given id, creating an
// items slot when the tab has neither array.
func tabSlots(block model.BlockConfig, tabID string) ([]slot, bool) {
	for idx, raw := range rawTabs(block.Config) {
		tab, ok := raw.(map[string]any)
		if !ok || model.Stringify(tab["id"]) != tabID {
			continue
		}
		var slots []slot
		for _, key := range []string{KeyItems, KeyBlocks} {
			if _, has := tab[key]; has {
				slots = append(slots, slot{tab: idx, key: key})
			}
		}
		if len(slots) == 0 {
			slots = append(slots, slot{tab: idx, key: KeyItems})
		}
		return slots, true
	}
	return nil, false
}

func readSlot(config map[string]any, s slot) []any {
	if s.tab < 0 {
		items, _ := model.ToSlice(config[s.key])
		return items
	}
	tabs := rawTabs(config)
	if s.tab >= len(tabs) {
		return nil
	}
	tab, _ := tabs[s.tab].(map[string]any)
	items, _ := model.ToSlice(tab[s.key])
	return items
}

// writeSlot returns a shallow copy of config with the slot replaced. Maps on
// the path to the slot are copied; everything else is shared.
func writeSlot(config map[string]any, s slot, entries []any) map[string]any {
	out := shallowCopy(config)
	if entries == nil {
		entries = []any{}
	}
	if s.tab < 0 {
		out[s.key] = entries
		return out
	}
	tabs := append([]any(nil), rawTabs(config)...)
	if s.tab >= len(tabs) {
		return out
	}
	tab, _ := tabs[s.tab].(map[string]any)
	tab = shallowCopy(tab)
	tab[s.key] = entries
	tabs[s.tab] = tab
	out[KeyTabs] = tabs
	return out
}

func shallowCopy(in map[string]any) map[string]any {
	out := make(map[string]any, len(in)+1)
	for key, value := range in {
		out[key] = value
	}
	return out
}

// decodeEntry reads one raw child entry. Entries that are not objects are
// reported as not ok and must be carried through untouched.
func decodeEntry(raw any) (model.BlockConfig, bool) {
	switch entry := raw.(type) {
	case map[string]any:
		block, err := model.BlockFromMap(entry)
		if err != nil {
			return model.BlockConfig{}, false
		}
		return block, true
	case model.BlockConfig:
		return entry, true
	default:
		return model.BlockConfig{}, false
	}
}

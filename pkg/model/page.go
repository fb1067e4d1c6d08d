package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// BlockConfig is one node of the page tree. Config is interpreted by the
// schema of the type registered under Slug. Unmodelled keys are carried in
// Extra so nodes written by other tools round-trip untouched.
type BlockConfig struct {
	ID      string         `json:"id" validate:"required"`
	Slug    string         `json:"slug" validate:"required"`
	Config  map[string]any `json:"config"`
	Visible *bool          `json:"visible,omitempty"`
	Order   *float64       `json:"order,omitempty"`
	Extra   map[string]any `json:"-"`
}

var blockConfigKeys = map[string]struct{}{
	"id": {}, "slug": {}, "config": {}, "visible": {}, "order": {},
}

// IsVisible reports the visible flag; nodes without one are visible.
func (b BlockConfig) IsVisible() bool {
	return b.Visible == nil || *b.Visible
}

// OrderValue returns the order weight, 0 when absent.
func (b BlockConfig) OrderValue() float64 {
	if b.Order == nil {
		return 0
	}
	return *b.Order
}

// TypeKey returns the registry key of the node. Field and filter grid items
// written by older editors carry "type" instead of "slug".
func (b BlockConfig) TypeKey() string {
	if slug := strings.TrimSpace(b.Slug); slug != "" {
		return slug
	}
	if raw, ok := b.Extra["type"].(string); ok {
		return strings.TrimSpace(raw)
	}
	return ""
}

// Clone returns a deep copy of the node.
func (b BlockConfig) Clone() BlockConfig {
	out := b
	out.Config = CloneMap(b.Config)
	out.Extra = CloneMap(b.Extra)
	if b.Visible != nil {
		v := *b.Visible
		out.Visible = &v
	}
	if b.Order != nil {
		o := *b.Order
		out.Order = &o
	}
	return out
}

// WithConfig returns a copy of the node carrying config (deep copied).
func (b BlockConfig) WithConfig(config map[string]any) BlockConfig {
	out := b.Clone()
	out.Config = CloneMap(config)
	if out.Config == nil {
		out.Config = map[string]any{}
	}
	return out
}

// MarshalJSON writes the modelled keys plus Extra. An absent config is
// written as an empty object.
func (b BlockConfig) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.ToMap())
}

// UnmarshalJSON decodes the modelled keys and keeps the rest in Extra.
func (b *BlockConfig) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("model: decode block: %w", err)
	}
	decoded, err := BlockFromMap(raw)
	if err != nil {
		return err
	}
	*b = decoded
	return nil
}

// BlockFromMap converts a generic map (as found inside config.blocks) into a
// BlockConfig.
func BlockFromMap(raw map[string]any) (BlockConfig, error) {
	var block BlockConfig
	if raw == nil {
		return block, fmt.Errorf("model: block entry is empty")
	}
	// Keys decoded into a typed field are consumed; anything else,
	// including a modelled key of the wrong type, stays in Extra.
	consumed := map[string]struct{}{"config": {}}
	switch id := raw["id"].(type) {
	case string:
		block.ID = id
		consumed["id"] = struct{}{}
	case nil:
	default:
		block.ID = Stringify(id)
	}
	if slug, ok := raw["slug"].(string); ok {
		block.Slug = slug
		consumed["slug"] = struct{}{}
	}
	switch cfg := raw["config"].(type) {
	case map[string]any:
		block.Config = CloneMap(cfg)
	case nil:
	default:
		return BlockConfig{}, fmt.Errorf("model: block %q config must be an object", block.ID)
	}
	if visible, ok := raw["visible"].(bool); ok {
		block.Visible = &visible
		consumed["visible"] = struct{}{}
	}
	if order, ok := ToFloat(raw["order"]); ok {
		block.Order = &order
		consumed["order"] = struct{}{}
	}
	for key, value := range raw {
		if _, done := consumed[key]; done {
			continue
		}
		if block.Extra == nil {
			block.Extra = make(map[string]any)
		}
		block.Extra[key] = CloneValue(value)
	}
	return block, nil
}

// ToMap converts the node into the generic shape embedded in parent configs.
// Modelled keys that were stored with another type are written back as read
// until the node sets them.
func (b BlockConfig) ToMap() map[string]any {
	out := make(map[string]any, len(b.Extra)+5)
	for key, value := range b.Extra {
		if _, modelled := blockConfigKeys[key]; modelled {
			continue
		}
		out[key] = CloneValue(value)
	}
	out["id"] = b.ID
	if raw, ok := b.Extra["id"]; ok && Stringify(raw) == b.ID {
		out["id"] = CloneValue(raw)
	}
	out["slug"] = b.Slug
	if raw, ok := b.Extra["slug"]; ok && b.Slug == "" {
		out["slug"] = CloneValue(raw)
	}
	if b.Config == nil {
		out["config"] = map[string]any{}
	} else {
		out["config"] = CloneMap(b.Config)
	}
	if b.Visible != nil {
		out["visible"] = *b.Visible
	} else if raw, ok := b.Extra["visible"]; ok {
		out["visible"] = CloneValue(raw)
	}
	if b.Order != nil {
		out["order"] = *b.Order
	} else if raw, ok := b.Extra["order"]; ok {
		out["order"] = CloneValue(raw)
	}
	return out
}

// BlocksFromValue decodes a config value holding a list of nodes. Entries that
// are not objects are skipped and reported in the returned error list so a
// single malformed child does not hide its siblings.
func BlocksFromValue(value any) ([]BlockConfig, []error) {
	items, ok := ToSlice(value)
	if !ok {
		return nil, nil
	}
	out := make([]BlockConfig, 0, len(items))
	var errs []error
	for idx, item := range items {
		switch entry := item.(type) {
		case map[string]any:
			block, err := BlockFromMap(entry)
			if err != nil {
				errs = append(errs, fmt.Errorf("model: entry %d: %w", idx, err))
				continue
			}
			out = append(out, block)
		case BlockConfig:
			out = append(out, entry.Clone())
		default:
			errs = append(errs, fmt.Errorf("model: entry %d is %T, want object", idx, item))
		}
	}
	return out, errs
}

// BlocksToValue encodes nodes into the generic list shape stored in configs.
func BlocksToValue(blocks []BlockConfig) []any {
	out := make([]any, 0, len(blocks))
	for _, block := range blocks {
		out = append(out, block.ToMap())
	}
	return out
}

// CloneBlocks deep copies a node slice. A nil input yields nil.
func CloneBlocks(blocks []BlockConfig) []BlockConfig {
	if blocks == nil {
		return nil
	}
	out := make([]BlockConfig, len(blocks))
	for idx, block := range blocks {
		out[idx] = block.Clone()
	}
	return out
}

// PageConfig is the root of a page tree. Revision is a hardening addition:
// stores that support it bump it on every write and reject patches carrying a
// stale value.
type PageConfig struct {
	ID         string        `json:"id"`
	ResourceID string        `json:"resourceId"`
	Blocks     []BlockConfig `json:"blocks"`
	Revision   int64         `json:"revision,omitempty"`
}

// Clone deep copies the page.
func (p PageConfig) Clone() PageConfig {
	out := p
	out.Blocks = CloneBlocks(p.Blocks)
	return out
}

// PagePatch is the partial document sent to the persistence collaborator.
// Nil fields are left untouched. A non-zero Revision asks the store to reject
// the write unless it matches the stored revision.
type PagePatch struct {
	ResourceID *string       `json:"resourceId,omitempty"`
	Blocks     []BlockConfig `json:"blocks" validate:"omitempty,dive"`
	Revision   int64         `json:"revision,omitempty"`
}

// Apply returns page with the patch applied. Revision handling is left to
// the store.
func (p PagePatch) Apply(page PageConfig) PageConfig {
	out := page.Clone()
	if p.ResourceID != nil {
		out.ResourceID = *p.ResourceID
	}
	if p.Blocks != nil {
		out.Blocks = CloneBlocks(p.Blocks)
	}
	return out
}

// NodeKind discriminates the structural variants of the page tree. Plain
// nodes are leaves; grid nodes embed config.blocks; tabs nodes embed
// config.tabs, each tab holding its own child list.
type NodeKind string

const (
	NodePlain NodeKind = "plain"
	NodeGrid  NodeKind = "grid"
	NodeTabs  NodeKind = "tabs"
)

// RegistryType selects which registry a grid's children resolve against.
type RegistryType string

const (
	RegistryBlock  RegistryType = "block"
	RegistryField  RegistryType = "field"
	RegistryFilter RegistryType = "filter"
	RegistryColumn RegistryType = "column"
)

// ParseRegistryType normalises a raw registryType value; anything unknown
// falls back to RegistryBlock.
func ParseRegistryType(raw any) RegistryType {
	value, _ := raw.(string)
	switch RegistryType(strings.ToLower(strings.TrimSpace(value))) {
	case RegistryField:
		return RegistryField
	case RegistryFilter:
		return RegistryFilter
	case RegistryColumn:
		return RegistryColumn
	default:
		return RegistryBlock
	}
}

// SortedKeys returns the keys of m in lexical order.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

package blocks

import (
	"sort"

	"github.com/goliatone/go-pagebuilder/pkg/model"
)

// Sorted returns a copy of blocks ordered by ascending order value. Nodes
// without one count as 0; ties keep their array position.
func Sorted(blocks []model.BlockConfig) []model.BlockConfig {
	out := append([]model.BlockConfig(nil), blocks...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OrderValue() < out[j].OrderValue()
	})
	return out
}

// Entry is a node scheduled for rendering.
type Entry struct {
	Block model.BlockConfig
	// Dimmed marks a hidden node shown only because the page is edited.
	Dimmed bool
}

// Arrange sorts blocks and drops hidden ones. In edit mode hidden nodes are
// kept and dimmed so they can be switched back on.
func Arrange(blocks []model.BlockConfig, editMode bool) []Entry {
	sorted := Sorted(blocks)
	out := make([]Entry, 0, len(sorted))
	for _, block := range sorted {
		if !block.IsVisible() {
			if !editMode {
				continue
			}
			out = append(out, Entry{Block: block, Dimmed: true})
			continue
		}
		out = append(out, Entry{Block: block})
	}
	return out
}

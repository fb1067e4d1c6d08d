package blocks

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-pagebuilder/pkg/model"
)

// IDPrefix starts every minted node id.
const IDPrefix = "block_"

var now = time.Now

// NewID mints a node id from the current time and a random suffix, for
// example "block_1718000000000_3f2a9c1e".
func NewID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return IDPrefix + strconv.FormatInt(now().UnixMilli(), 10) + "_" + suffix
}

// NewBlock builds a node of type slug with a fresh id. A nil config becomes
// an empty map.
func NewBlock(slug string, config map[string]any) model.BlockConfig {
	block := model.BlockConfig{ID: NewID(), Slug: slug}
	return block.WithConfig(config)
}

// NewTab builds a tab entry with a fresh id and an empty items array.
func NewTab(label string) map[string]any {
	return map[string]any{
		"id":     "tab_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8],
		"label":  label,
		KeyItems: []any{},
	}
}

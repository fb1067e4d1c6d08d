package builtins

import (
	"testing"

	"github.com/goliatone/go-pagebuilder/pkg/blocks"
	"github.com/goliatone/go-pagebuilder/pkg/forms"
	"github.com/goliatone/go-pagebuilder/pkg/model"
)

func TestNewSetRegistersEveryDefinition(t *testing.T) {
	set := NewSet()

	for _, slug := range []string{BlockHeader, BlockText, BlockRecord, BlockTable, BlockFilters, BlockGrid, BlockTabs, BlockFields} {
		if !set.Blocks.Has(slug) {
			t.Fatalf("expected block %q", slug)
		}
	}
	if set.Columns.Len() != 5 || set.Filters.Len() != 4 {
		t.Fatalf("unexpected column/filter counts: %d/%d", set.Columns.Len(), set.Filters.Len())
	}
	if set.Fields.Len() != 15 {
		t.Fatalf("expected 15 field types, got %d", set.Fields.Len())
	}
}

func TestContainerKinds(t *testing.T) {
	set := NewSet()
	cases := map[string]model.NodeKind{
		BlockGrid:    model.NodeGrid,
		BlockTable:   model.NodeGrid,
		BlockFilters: model.NodeGrid,
		BlockFields:  model.NodeGrid,
		BlockTabs:    model.NodeTabs,
		BlockHeader:  model.NodePlain,
	}
	for slug, want := range cases {
		if got := set.KindOf(slug); got != want {
			t.Fatalf("%s: expected %s, got %s", slug, want, got)
		}
	}
}

func TestTableDefaultsResolveColumnsRegistry(t *testing.T) {
	set := NewSet()
	schema, _ := set.Schema(model.RegistryBlock, BlockTable)
	block := blocks.NewBlock(BlockTable, forms.Defaults(schema))

	grid, ok := blocks.Decode(block, set).(blocks.Grid)
	if !ok {
		t.Fatalf("expected grid node")
	}
	if grid.Layout.Registry != model.RegistryColumn {
		t.Fatalf("expected column registry, got %s", grid.Layout.Registry)
	}
}

func TestHeaderActionsFollowSwitch(t *testing.T) {
	schema, _ := NewSet().Schema(model.RegistryBlock, BlockHeader)

	form := forms.Resolve(schema, map[string]any{"title": "Posts"})
	if _, ok := form.Field("actions"); ok {
		t.Fatalf("actions should be hidden until showActions is on")
	}
	form = forms.Resolve(schema, map[string]any{"title": "Posts", "showActions": true})
	if _, ok := form.Field("actions"); !ok {
		t.Fatalf("actions should show once showActions is on")
	}
}

func TestDefinitionsReturnsFreshCopies(t *testing.T) {
	first := Definitions()
	first.Blocks[0].Label = "changed"
	if Definitions().Blocks[0].Label != "Header" {
		t.Fatalf("definitions leaked a mutation")
	}
}

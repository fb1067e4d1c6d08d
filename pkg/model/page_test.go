package model

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBlockConfigPreservesUnknownKeys(t *testing.T) {
	raw := []byte(`{"id":"b1","slug":"header","config":{"title":"Hi"},"order":2,"legacyFlag":true,"type":"header"}`)

	var block BlockConfig
	if err := json.Unmarshal(raw, &block); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if block.OrderValue() != 2 {
		t.Fatalf("expected order 2, got %v", block.OrderValue())
	}
	if !block.IsVisible() {
		t.Fatalf("expected block without visible flag to be visible")
	}

	out, err := json.Marshal(block)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var want, got map[string]any
	_ = json.Unmarshal(raw, &want)
	_ = json.Unmarshal(out, &got)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestBlockFromMapKeepsMistypedModelledKeys(t *testing.T) {
	raw := map[string]any{
		"id":      float64(7),
		"slug":    "header",
		"config":  map[string]any{},
		"visible": "yes",
		"order":   "first",
	}
	block, err := BlockFromMap(raw)
	if err != nil {
		t.Fatalf("BlockFromMap: %v", err)
	}
	if block.ID != "7" || block.Visible != nil || block.Order != nil {
		t.Fatalf("unexpected block %+v", block)
	}
	if diff := cmp.Diff(raw, block.ToMap()); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}

	hidden := false
	block.Visible = &hidden
	if got := block.ToMap()["visible"]; got != false {
		t.Fatalf("explicit visible should win, got %v", got)
	}
}

func TestBlockConfigNilConfigWritesEmptyObject(t *testing.T) {
	out, err := json.Marshal(BlockConfig{ID: "a", Slug: "text"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"config":{},"id":"a","slug":"text"}` {
		t.Fatalf("unexpected payload %s", out)
	}
}

func TestBlockConfigTypeKeyFallsBackToType(t *testing.T) {
	block, err := BlockFromMap(map[string]any{"id": "f1", "type": "text", "config": map[string]any{}})
	if err != nil {
		t.Fatalf("BlockFromMap: %v", err)
	}
	if block.TypeKey() != "text" {
		t.Fatalf("expected type fallback, got %q", block.TypeKey())
	}
}

func TestBlocksFromValueSkipsMalformedEntries(t *testing.T) {
	value := []any{
		map[string]any{"id": "a", "slug": "x"},
		"oops",
		map[string]any{"id": "b", "slug": "y", "config": "bad"},
	}
	blocks, errs := BlocksFromValue(value)
	if len(blocks) != 1 || blocks[0].ID != "a" {
		t.Fatalf("expected only block a, got %+v", blocks)
	}
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %v", errs)
	}
}

func TestCloneIsDeep(t *testing.T) {
	block := BlockConfig{ID: "g", Slug: "grid", Config: map[string]any{
		"blocks": []any{map[string]any{"id": "c", "slug": "text"}},
	}}
	clone := block.Clone()
	clone.Config["blocks"].([]any)[0].(map[string]any)["id"] = "changed"

	if block.Config["blocks"].([]any)[0].(map[string]any)["id"] != "c" {
		t.Fatalf("clone shares nested state with original")
	}
}

func TestPagePatchApply(t *testing.T) {
	page := PageConfig{ID: "p", ResourceID: "posts", Blocks: []BlockConfig{{ID: "a", Slug: "x"}}}
	resource := "users"
	patched := PagePatch{ResourceID: &resource}.Apply(page)
	if patched.ResourceID != "users" || len(patched.Blocks) != 1 {
		t.Fatalf("unexpected patched page %+v", patched)
	}
	emptied := PagePatch{Blocks: []BlockConfig{}}.Apply(page)
	if len(emptied.Blocks) != 0 {
		t.Fatalf("expected empty blocks, got %+v", emptied.Blocks)
	}
}

func TestSpanColumns(t *testing.T) {
	cases := map[Span]int{
		"":      12,
		"full":  12,
		"half":  6,
		"Third": 4,
		"3":     3,
		"40":    12,
		"0":     1,
		"weird": 12,
	}
	for span, want := range cases {
		if got := span.Columns(); got != want {
			t.Fatalf("span %q: expected %d, got %d", span, want, got)
		}
	}
}

func TestSpanDecodesNumbers(t *testing.T) {
	var field FieldSchema
	if err := json.Unmarshal([]byte(`{"name":"a","kind":"text","span":4}`), &field); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if field.Span != "4" || field.Span.Columns() != 4 {
		t.Fatalf("expected numeric span 4, got %q", field.Span)
	}
}

func TestLookupDescendsIntoGroupsOnly(t *testing.T) {
	schema := []FieldSchema{
		{Name: "layout", Kind: FieldKindGroup, Fields: []FieldSchema{{Name: "columns", Kind: FieldKindNumber}}},
		{Name: "items", Kind: FieldKindRepeater, Fields: []FieldSchema{{Name: "label", Kind: FieldKindText}}},
	}
	if _, ok := Lookup(schema, "columns"); !ok {
		t.Fatalf("expected group child to be found")
	}
	if _, ok := Lookup(schema, "label"); ok {
		t.Fatalf("expected repeater child to stay out of scope")
	}
	if diff := cmp.Diff([]string{"columns", "items"}, ScopeNames(schema)); diff != "" {
		t.Fatalf("scope names mismatch (-want +got):\n%s", diff)
	}
}

package model

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSetPathAndGetPath(t *testing.T) {
	root := map[string]any{
		"title": "Posts",
		"links": []any{map[string]any{"url": "/a"}},
	}
	if err := SetPath(root, "links.0.url", "/b"); err != nil {
		t.Fatalf("set nested: %v", err)
	}
	if err := SetPath(root, "style.color", "red"); err != nil {
		t.Fatalf("set missing map: %v", err)
	}
	want := map[string]any{
		"title": "Posts",
		"links": []any{map[string]any{"url": "/b"}},
		"style": map[string]any{"color": "red"},
	}
	if diff := cmp.Diff(want, root); diff != "" {
		t.Fatalf("root mismatch (-want +got):\n%s", diff)
	}

	if value, ok := GetPath(root, ".links.0.url."); !ok || value != "/b" {
		t.Fatalf("expected /b, got %v %v", value, ok)
	}
	if _, ok := GetPath(root, "links.3.url"); ok {
		t.Fatalf("out of range index must miss")
	}
	if err := SetPath(root, "links.3.url", "/c"); err == nil {
		t.Fatalf("expected out of range error")
	}
	if err := SetPath(root, "title.sub", "x"); err == nil {
		t.Fatalf("expected error descending into a string")
	}
	if err := SetPath(root, " ", "x"); err == nil {
		t.Fatalf("expected empty path error")
	}
}

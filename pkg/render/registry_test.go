package render_test

import (
	"context"
	"strings"
	"testing"

	"github.com/goliatone/go-pagebuilder/pkg/model"
	"github.com/goliatone/go-pagebuilder/pkg/render"
)

func TestRegistryRejectsDuplicates(t *testing.T) {
	reg, err := render.NewRegistry(render.JSONRenderer{})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if err := reg.Register(render.JSONRenderer{Indent: true}); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
	if !reg.Has("json") {
		t.Fatalf("expected json renderer to be registered")
	}
	if _, err := reg.Get("html"); err == nil {
		t.Fatalf("expected missing renderer error")
	}
}

type textRenderer struct{}

func (textRenderer) Name() string        { return "text" }
func (textRenderer) ContentType() string { return "text/plain; charset=utf-8" }
func (textRenderer) Render(context.Context, *render.PageView) ([]byte, error) {
	return []byte("ok"), nil
}

func TestRegistryAliasesAndNegotiation(t *testing.T) {
	reg, err := render.NewRegistry(render.JSONRenderer{}, textRenderer{})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if err := reg.Alias("plain", "text"); err != nil {
		t.Fatalf("Alias: %v", err)
	}
	if err := reg.Alias("json", "text"); err == nil {
		t.Fatalf("expected alias colliding with a renderer name to fail")
	}
	if err := reg.Alias("pdf", "missing"); err == nil {
		t.Fatalf("expected alias to an unknown renderer to fail")
	}
	renderer, err := reg.Get("plain")
	if err != nil || renderer.Name() != "text" {
		t.Fatalf("expected alias to resolve text renderer, got %v, %v", renderer, err)
	}
	if got := reg.List(); len(got) != 2 || got[0] != "json" || got[1] != "text" {
		t.Fatalf("unexpected names %v", got)
	}

	cases := []struct {
		accept string
		want   string
	}{
		{accept: "text/plain", want: "text"},
		{accept: "text/*;q=0.8, application/json", want: "text"},
		{accept: "image/png, application/json", want: "json"},
		{accept: "*/*", want: ""},
		{accept: "", want: ""},
	}
	for _, tc := range cases {
		renderer, ok := reg.Negotiate(tc.accept)
		got := ""
		if ok {
			got = renderer.Name()
		}
		if got != tc.want {
			t.Fatalf("Negotiate(%q) = %q, want %q", tc.accept, got, tc.want)
		}
	}
}

func TestJSONRendererOmitsCallbacks(t *testing.T) {
	page := &render.PageView{
		PageID: "p1",
		Path:   "posts",
		Blocks: []*render.View{{
			ID:      "b1",
			TypeKey: "header",
			Kind:    model.NodePlain,
			Status:  render.StatusOK,
			Config:  map[string]any{"title": "Posts"},
			Update:  func(context.Context, map[string]any) error { return nil },
		}},
	}
	out, err := render.JSONRenderer{}.Render(context.Background(), page)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(string(out), `"slug":"header"`) {
		t.Fatalf("unexpected payload %s", out)
	}
}

func TestViewFindDescendsIntoTabs(t *testing.T) {
	leaf := &render.View{ID: "leaf"}
	root := &render.View{ID: "tabs", Tabs: []render.TabView{{ID: "t1", Children: []*render.View{{ID: "grid", Children: []*render.View{leaf}}}}}}
	page := &render.PageView{Blocks: []*render.View{root}}
	if page.Find("leaf") != leaf {
		t.Fatalf("expected to find nested leaf")
	}
	count := 0
	page.Walk(func(*render.View) bool { count++; return true })
	if count != 3 {
		t.Fatalf("expected 3 views walked, got %d", count)
	}
}

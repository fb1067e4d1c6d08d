package gotemplate

import (
	"strings"
	"testing"
	"testing/fstest"
)

func newEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	files := fstest.MapFS{"hello.tmpl": {Data: []byte("Hello {{ name }}!")}}
	engine, err := New(append([]Option{WithFS(files)}, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return engine
}

func TestRenderTemplateAppendsExtension(t *testing.T) {
	engine := newEngine(t)
	for _, name := range []string{"hello", "hello.tmpl"} {
		got, err := engine.RenderTemplate(name, map[string]any{"name": "Ada"})
		if err != nil {
			t.Fatalf("RenderTemplate(%s): %v", name, err)
		}
		if strings.TrimSpace(got) != "Hello Ada!" {
			t.Fatalf("unexpected output %q", got)
		}
	}
	if _, err := engine.RenderTemplate("missing", nil); err == nil {
		t.Fatalf("expected missing template error")
	}
}

func TestLaterFileSystemsShadowEarlierOnes(t *testing.T) {
	override := fstest.MapFS{"hello.tmpl": {Data: []byte("Hi {{ name }}")}}
	engine := newEngine(t, WithFS(override))
	got, err := engine.RenderTemplate("hello", map[string]any{"name": "Ada"})
	if err != nil {
		t.Fatalf("RenderTemplate: %v", err)
	}
	if got != "Hi Ada" {
		t.Fatalf("expected override to win, got %q", got)
	}
}

func TestRenderStringEscapesByDefault(t *testing.T) {
	engine := newEngine(t)
	got, err := engine.RenderString(`<p>{{ title }}</p>`, map[string]any{"title": "<b>x</b>"})
	if err != nil {
		t.Fatalf("RenderString: %v", err)
	}
	if got != "<p>&lt;b&gt;x&lt;/b&gt;</p>" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestCompiledTemplatesRenderRepeatedly(t *testing.T) {
	engine := newEngine(t, WithGlobals(map[string]any{"site": "Admin"}))
	tmpl, err := engine.Compile(`{{ site }}: {{ n|stringify }}`)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	cases := map[string]any{"Admin: 3": 3.0, "Admin: four": "four"}
	for want, n := range cases {
		got, err := tmpl.Execute(map[string]any{"n": n})
		if err != nil {
			t.Fatalf("Execute: %v", err)
		}
		if got != want {
			t.Fatalf("expected %q, got %q", want, got)
		}
	}
	if _, err := engine.Compile(`{% if %}`); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestStructDataUsesJSONNames(t *testing.T) {
	engine := newEngine(t)
	data := struct {
		Title string `json:"title"`
	}{Title: "Posts"}
	got, err := engine.RenderString(`{{ title|trim }}`, data)
	if err != nil {
		t.Fatalf("RenderString: %v", err)
	}
	if got != "Posts" {
		t.Fatalf("unexpected output %q", got)
	}
	if _, err := engine.RenderString(`x`, []string{"a"}); err == nil {
		t.Fatalf("expected non-object data to fail")
	}
}

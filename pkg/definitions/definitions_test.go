package definitions

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-pagebuilder/pkg/ambient"
	"github.com/goliatone/go-pagebuilder/pkg/model"
	"github.com/goliatone/go-pagebuilder/pkg/registry"
	"github.com/goliatone/go-pagebuilder/pkg/render"
)

type fakeCompiler struct {
	compiled []string
	fail     string
}

func (c *fakeCompiler) TemplateWidget(slug, source string) (render.Widget, error) {
	if slug == c.fail {
		return nil, errors.New("bad template")
	}
	c.compiled = append(c.compiled, slug)
	return render.WidgetFunc(func(context.Context, render.Props) (string, error) {
		return "tmpl:" + slug, nil
	}), nil
}

func readFixture(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile("testdata/callout.yaml")
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return data
}

func TestParseYAML(t *testing.T) {
	file, err := Parse(readFixture(t), "callout.yaml")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(file.Blocks) != 1 || len(file.Columns) != 1 {
		t.Fatalf("unexpected file %+v", file)
	}
	block := file.Blocks[0]
	if diff := cmp.Diff([]ambient.Key{ambient.KeyRecord}, block.Needs); diff != "" {
		t.Fatalf("needs mismatch (-want +got):\n%s", diff)
	}
	body, _ := model.Lookup(block.Fields, "body")
	if body.Span.Columns() != 8 {
		t.Fatalf("expected numeric span, got %q", body.Span)
	}
	label, _ := model.Lookup(block.Fields, "dismissLabel")
	if label.Trigger == nil || label.Trigger.Condition != model.ConditionChecked {
		t.Fatalf("expected trigger, got %+v", label.Trigger)
	}
	if !strings.Contains(block.Template, "html.body|safe") {
		t.Fatalf("expected template text, got %q", block.Template)
	}
}

func TestParseJSON(t *testing.T) {
	file, err := Parse([]byte(`{"filters":[{"slug":"range","operators":["between"],"fields":[{"name":"field","kind":"dropdown"}]}]}`), "range.json")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(file.Filters) != 1 || file.Filters[0].Operators[0] != "between" {
		t.Fatalf("unexpected file %+v", file)
	}
}

func TestParseRejectsInvalidFiles(t *testing.T) {
	cases := map[string]string{
		"empty":        "  ",
		"syntax":       "blocks: [",
		"missing slug": "blocks:\n  - label: Nope\n",
		"bad kind":     "blocks:\n  - slug: x\n    kind: carousel\n",
		"bad need":     "blocks:\n  - slug: x\n    needs: [session]\n",
		"slash slug":   "blocks:\n  - slug: a/b\n",
		"nameless":     "blocks:\n  - slug: x\n    fields:\n      - kind: text\n",
		"kindless":     "blocks:\n  - slug: x\n    fields:\n      - name: title\n",
		"duplicate":    "blocks:\n  - slug: x\n    fields:\n      - {name: a, kind: text}\n      - {name: a, kind: text}\n",
		"nested":       "blocks:\n  - slug: x\n    fields:\n      - name: items\n        kind: repeater\n        fields:\n          - name: label\n",
	}
	for name, raw := range cases {
		if _, err := Parse([]byte(raw), name); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestCatalogDefinitionsCompileTemplates(t *testing.T) {
	catalog, err := LoadFS(fstest.MapFS{
		"a/callout.yaml": &fstest.MapFile{Data: readFixture(t)},
		"README.md":      &fstest.MapFile{Data: []byte("ignored")},
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff([]string{"a/callout.yaml"}, catalog.Paths()); diff != "" {
		t.Fatalf("paths mismatch (-want +got):\n%s", diff)
	}

	compiler := &fakeCompiler{}
	defs, err := catalog.Definitions(compiler)
	if err != nil {
		t.Fatalf("definitions: %v", err)
	}
	if diff := cmp.Diff([]string{"callout"}, compiler.compiled); diff != "" {
		t.Fatalf("only templated types compile (-want +got):\n%s", diff)
	}
	if defs.Blocks[0].Widget == nil || defs.Columns[0].Widget != nil {
		t.Fatalf("unexpected widgets %+v %+v", defs.Blocks[0], defs.Columns[0])
	}

	if _, err := catalog.Definitions(&fakeCompiler{fail: "callout"}); err == nil {
		t.Fatalf("expected compile error")
	}
}

func builtinSet() *registry.Set {
	return registry.NewSet(registry.Definitions{
		Blocks: []registry.BlockType{
			{Slug: "header", Label: "Header"},
			{Slug: "text", Label: "Text"},
		},
	})
}

func TestRegisterShadowsBuiltins(t *testing.T) {
	set := builtinSet()
	files := fstest.MapFS{"text.yaml": &fstest.MapFile{Data: []byte("blocks:\n  - slug: text\n    label: Fancy text\n")}}
	if _, err := Register(set, files, nil, nil); err != nil {
		t.Fatalf("register: %v", err)
	}
	def, _ := set.Blocks.Get("text")
	if def.Label != "Fancy text" {
		t.Fatalf("expected shadowing definition, got %q", def.Label)
	}
	if diff := cmp.Diff([]string{"header", "text"}, set.Blocks.Keys()); diff != "" {
		t.Fatalf("shadowing keeps first-registration order (-want +got):\n%s", diff)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestWatcherReloadRestoresShadowedAndDropsRemoved(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "custom.yaml"), "blocks:\n  - slug: text\n    label: Fancy\n  - slug: banner\n    label: Banner\n")

	set := builtinSet()
	bound := 0
	watcher, err := NewWatcher(dir, set, WithBinder(func(defs registry.Definitions) registry.Definitions {
		bound++
		return defs
	}))
	if err != nil {
		t.Fatalf("watcher: %v", err)
	}
	if err := watcher.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	if !set.Blocks.Has("banner") || bound != 1 {
		t.Fatalf("expected banner to be registered through the binder")
	}

	writeFile(t, filepath.Join(dir, "custom.yaml"), "blocks:\n  - slug: hero\n")
	if err := watcher.Reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if set.Blocks.Has("banner") {
		t.Fatalf("removed slug should be unregistered")
	}
	text, _ := set.Blocks.Get("text")
	if text.Label != "Text" {
		t.Fatalf("expected builtin to be restored, got %q", text.Label)
	}
	if !set.Blocks.Has("hero") {
		t.Fatalf("expected new slug")
	}

	writeFile(t, filepath.Join(dir, "custom.yaml"), "blocks: [")
	if err := watcher.Reload(); err == nil {
		t.Fatalf("expected parse error")
	}
	if !set.Blocks.Has("hero") {
		t.Fatalf("failed reload must keep previous definitions")
	}
}

func TestWatcherPicksUpFileChanges(t *testing.T) {
	dir := t.TempDir()
	set := builtinSet()
	reloaded := make(chan *Catalog, 8)
	watcher, err := NewWatcher(dir, set, WithDebounce(10*time.Millisecond), OnReload(func(c *Catalog) {
		reloaded <- c
	}))
	if err != nil {
		t.Fatalf("watcher: %v", err)
	}
	if err := watcher.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	<-reloaded
	if err := watcher.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer watcher.Stop()

	writeFile(t, filepath.Join(dir, "quote.yaml"), "blocks:\n  - slug: quote\n")
	deadline := time.After(5 * time.Second)
	for !set.Blocks.Has("quote") {
		select {
		case <-reloaded:
		case <-deadline:
			t.Fatalf("timed out waiting for reload")
		}
	}
}

package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-pagebuilder/pkg/model"
	"github.com/goliatone/go-pagebuilder/pkg/pages"
	"github.com/goliatone/go-pagebuilder/pkg/renderers/tui"
	"github.com/goliatone/go-pagebuilder/pkg/testsupport"
)

const recordsYAML = `posts:
  - id: "1"
    title: First
    status: published
  - id: "2"
    title: Second
    status: draft
`

func run(t *testing.T, rt *runtime, args ...string) (string, error) {
	t.Helper()
	if rt == nil {
		rt = newRuntime()
	}
	cmd := newRootCommandFor(rt, "test")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--log-level", "disabled"))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeSample(t *testing.T, page model.PageConfig) (string, string) {
	t.Helper()
	dir := t.TempDir()
	file := filepath.Join(dir, "posts.yaml")
	if err := pages.WriteFile(file, page); err != nil {
		t.Fatalf("write page: %v", err)
	}
	records := filepath.Join(dir, "records.yaml")
	if err := os.WriteFile(records, []byte(recordsYAML), 0o644); err != nil {
		t.Fatalf("write records: %v", err)
	}
	return file, records
}

func TestRenderCommandHTML(t *testing.T) {
	file, records := writeSample(t, testsupport.SamplePage())

	out, err := run(t, nil, "render", file, "--records", records)
	if err != nil {
		t.Fatalf("render: %v\n%s", err, out)
	}
	testsupport.AssertContains(t, out, "Posts", "First", "Second")
	testsupport.AssertNotContains(t, out, "Draft note")

	out, err = run(t, nil, "render", file, "--edit")
	if err != nil {
		t.Fatalf("render edit mode: %v", err)
	}
	testsupport.AssertContains(t, out, "Draft note")
}

func TestRenderCommandJSONToFile(t *testing.T) {
	file, _ := writeSample(t, testsupport.SamplePage())
	target := filepath.Join(t.TempDir(), "view.json")

	if out, err := run(t, nil, "render", file, "--format", "json", "--output", target); err != nil {
		t.Fatalf("render: %v\n%s", err, out)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var view struct {
		Path   string           `json:"path"`
		Blocks []map[string]any `json:"blocks"`
	}
	if err := json.Unmarshal(data, &view); err != nil {
		t.Fatalf("decode view: %v\n%s", err, data)
	}
	if view.Path != "posts" || len(view.Blocks) == 0 {
		t.Fatalf("unexpected view %+v", view)
	}

	if _, err := run(t, nil, "render", file, "--format", "pdf"); err == nil {
		t.Fatalf("expected unknown format error")
	}
}

func TestValidateCommand(t *testing.T) {
	file, _ := writeSample(t, testsupport.SamplePage())
	out, err := run(t, nil, "validate", file)
	if err != nil {
		t.Fatalf("validate: %v\n%s", err, out)
	}
	testsupport.AssertContains(t, out, file+": ok")

	broken := testsupport.SamplePage()
	broken.Blocks = append(broken.Blocks,
		model.BlockConfig{ID: "hdr", Slug: "header"},
		model.BlockConfig{ID: "mystery", Slug: "carousel"},
	)
	brokenFile, _ := writeSample(t, broken)

	out, err = run(t, nil, "validate", brokenFile)
	if !errors.Is(err, errInvalidPages) {
		t.Fatalf("expected errInvalidPages, got %v", err)
	}
	testsupport.AssertContains(t, out, "duplicate_id")
	testsupport.AssertNotContains(t, out, "unknown_slug")

	out, err = run(t, nil, "validate", "--strict", "--json", brokenFile)
	if !errors.Is(err, errInvalidPages) {
		t.Fatalf("expected errInvalidPages, got %v", err)
	}
	var report map[string][]map[string]any
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode report: %v\n%s", err, out)
	}
	codes := map[string]bool{}
	for _, issue := range report[brokenFile] {
		codes[issue["code"].(string)] = true
	}
	if !codes["duplicate_id"] || !codes["unknown_slug"] {
		t.Fatalf("expected duplicate and unknown issues, got %v", codes)
	}
}

func TestTypesCommand(t *testing.T) {
	out, err := run(t, nil, "types", "blocks", "--json")
	if err != nil {
		t.Fatalf("types: %v", err)
	}
	var report map[string][]map[string]any
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	found := false
	for _, desc := range report["block"] {
		if desc["key"] == "header" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected header block in %v", report)
	}

	out, err = run(t, nil, "types")
	if err != nil {
		t.Fatalf("types table: %v", err)
	}
	testsupport.AssertContains(t, out, "REGISTRY", "column", "filter", "field")

	if _, err := run(t, nil, "types", "widgets"); err == nil {
		t.Fatalf("expected unknown registry error")
	}
}

func TestFieldsCommand(t *testing.T) {
	doc := filepath.Join("..", "..", "..", "pkg", "resource", "testdata", "posts.yaml")

	out, err := run(t, nil, "fields", "--openapi", doc)
	if err != nil {
		t.Fatalf("fields: %v\n%s", err, out)
	}
	testsupport.AssertContains(t, out, "posts")

	out, err = run(t, nil, "fields", "--openapi", doc, "--resource", "posts")
	if err != nil {
		t.Fatalf("fields: %v\n%s", err, out)
	}
	testsupport.AssertContains(t, out, "FIELD", "Headline", "status", "badge")

	if _, err := run(t, nil, "fields"); err == nil {
		t.Fatalf("expected missing document error")
	}
}

// answerDriver accepts every default and answers text inputs by label.
type answerDriver struct {
	inputs map[string]string
	save   bool
}

func (d *answerDriver) Input(_ context.Context, cfg tui.InputConfig) (string, error) {
	if answer, ok := d.inputs[cfg.Message]; ok {
		return answer, nil
	}
	return cfg.Default, nil
}

func (d *answerDriver) Confirm(_ context.Context, cfg tui.ConfirmConfig) (bool, error) {
	if cfg.Message == "Save changes?" {
		return d.save, nil
	}
	return cfg.Default, nil
}

func (d *answerDriver) Select(_ context.Context, cfg tui.SelectConfig) (int, error) {
	if cfg.DefaultIndex < 0 {
		return 0, nil
	}
	return cfg.DefaultIndex, nil
}

func (d *answerDriver) MultiSelect(_ context.Context, cfg tui.SelectConfig) ([]int, error) {
	return cfg.Defaults, nil
}

func (d *answerDriver) TextArea(_ context.Context, cfg tui.TextAreaConfig) (string, error) {
	return cfg.Default, nil
}

func (d *answerDriver) Info(context.Context, string) error { return nil }

func TestEditCommandSavesPageFile(t *testing.T) {
	file, _ := writeSample(t, testsupport.SamplePage())
	rt := newRuntime()
	rt.prompts = &answerDriver{inputs: map[string]string{"Title": "Articles"}, save: true}

	if out, err := run(t, rt, "edit", file, "--node", "hdr"); err != nil {
		t.Fatalf("edit: %v\n%s", err, out)
	}
	page, err := pages.ReadFile(file)
	if err != nil {
		t.Fatalf("read page: %v", err)
	}
	if page.Revision != 1 || page.Blocks[0].Config["title"] != "Articles" {
		t.Fatalf("expected saved title at revision 1, got %d %v", page.Revision, page.Blocks[0].Config)
	}
	if page.Blocks[0].Config["subtitle"] != "All posts" {
		t.Fatalf("expected subtitle kept, got %v", page.Blocks[0].Config)
	}
}

func TestEditCommandDiscard(t *testing.T) {
	file, _ := writeSample(t, testsupport.SamplePage())
	rt := newRuntime()
	rt.prompts = &answerDriver{inputs: map[string]string{"Title": "Articles"}}

	out, err := run(t, rt, "edit", file, "--node", "hdr")
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if !strings.Contains(out, "No changes written.") {
		t.Fatalf("expected discard notice, got %q", out)
	}
	page, err := pages.ReadFile(file)
	if err != nil {
		t.Fatalf("read page: %v", err)
	}
	if page.Revision != 0 || page.Blocks[0].Config["title"] != "Posts" {
		t.Fatalf("discarded edit must not write, got %d %v", page.Revision, page.Blocks[0].Config)
	}
}

func TestStoreLocation(t *testing.T) {
	dir, path := storeLocation(filepath.Join("pages", "posts", "show.yaml"))
	if dir != "pages" || path != "posts/show" {
		t.Fatalf("unexpected show location %q %q", dir, path)
	}
	dir, path = storeLocation(filepath.Join("pages", "posts.yaml"))
	if dir != "pages" || path != "posts" {
		t.Fatalf("unexpected list location %q %q", dir, path)
	}
}

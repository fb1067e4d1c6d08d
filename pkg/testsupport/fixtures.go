// Package testsupport holds fixtures shared by package tests.
package testsupport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-pagebuilder/pkg/ambient"
	"github.com/goliatone/go-pagebuilder/pkg/model"
	"github.com/goliatone/go-pagebuilder/pkg/pages"
)

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}

// SamplePage is a list page with a header, a filter bar and a table, plus a
// tabs block holding a nested grid.
func SamplePage() model.PageConfig {
	visible := false
	return model.PageConfig{
		ID:         "page_posts",
		ResourceID: "posts",
		Blocks: []model.BlockConfig{
			{ID: "hdr", Slug: "header", Config: map[string]any{"title": "Posts", "subtitle": "All posts"}},
			{ID: "flt", Slug: "filters", Config: map[string]any{
				"registryType": "filter",
				"blocks": []any{
					map[string]any{"id": "f_status", "slug": "select", "config": map[string]any{
						"field": "status", "operator": "eq",
						"choices": []any{
							map[string]any{"value": "draft", "label": "Draft"},
							map[string]any{"value": "published", "label": "Published"},
						},
					}},
				},
			}},
			{ID: "tbl", Slug: "table", Config: map[string]any{
				"registryType": "column",
				"blocks": []any{
					map[string]any{"id": "c_title", "slug": "text", "config": map[string]any{"field": "title", "label": "Title"}},
					map[string]any{"id": "c_status", "slug": "badge", "config": map[string]any{"field": "status"}},
				},
			}},
			{ID: "tabs", Slug: "tabs", Config: map[string]any{
				"tabs": []any{
					map[string]any{"id": "t1", "label": "Details", "items": []any{
						map[string]any{"id": "g1", "slug": "grid", "config": map[string]any{
							"blocks": []any{
								map[string]any{"id": "g1_text", "slug": "text", "config": map[string]any{"body": "Hello"}},
							},
						}},
					}},
				},
			}},
			{ID: "hidden_note", Slug: "text", Visible: &visible, Config: map[string]any{"body": "Draft note"}},
		},
	}
}

// SampleSource serves the records SamplePage lists.
func SampleSource() ambient.StaticSource {
	return ambient.StaticSource{Records: map[string][]map[string]any{
		"posts": {
			{"id": "1", "title": "First", "status": "published"},
			{"id": "2", "title": "Second", "status": "draft"},
		},
	}}
}

// MustLoadPage loads a page fixture, failing the test on error.
func MustLoadPage(t *testing.T, path string) model.PageConfig {
	t.Helper()

	page, err := LoadPage(path)
	if err != nil {
		t.Fatalf("load page: %v", err)
	}
	return page
}

// LoadPage reads a JSON or YAML page fixture.
func LoadPage(path string) (model.PageConfig, error) {
	if path == "" {
		return model.PageConfig{}, errors.New("testsupport: page path is required")
	}
	page, err := pages.ReadFile(path)
	if err != nil {
		return model.PageConfig{}, fmt.Errorf("testsupport: %w", err)
	}
	return page, nil
}

// MustLoadJSON decodes a JSON file into out.
func MustLoadJSON(t *testing.T, path string, out any) {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		t.Fatalf("unmarshal fixture: %v", err)
	}
}

// Diff returns a diff string if the values differ.
func Diff(want, got any, opts ...cmp.Option) string {
	return cmp.Diff(want, got, opts...)
}

// CaptureTemplateOutput executes a render function that writes to an
// io.Writer, returning both the string result and the writer contents.
func CaptureTemplateOutput(t *testing.T, render func(io.Writer) (string, error)) (string, string) {
	t.Helper()

	var buf bytes.Buffer
	out, err := render(&buf)
	if err != nil {
		t.Fatalf("render template: %v", err)
	}

	return out, buf.String()
}

// AssertContains fails when any of the fragments is missing from output.
func AssertContains(t *testing.T, output string, fragments ...string) {
	t.Helper()
	for _, fragment := range fragments {
		if !strings.Contains(output, fragment) {
			t.Fatalf("expected output to contain %q\n%s", fragment, output)
		}
	}
}

// AssertNotContains fails when any of the fragments is present in output.
func AssertNotContains(t *testing.T, output string, fragments ...string) {
	t.Helper()
	for _, fragment := range fragments {
		if strings.Contains(output, fragment) {
			t.Fatalf("expected output not to contain %q\n%s", fragment, output)
		}
	}
}

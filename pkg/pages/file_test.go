package pages

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-pagebuilder/pkg/model"
)

const postsYAML = `id: page_posts
resourceId: posts
revision: 3
blocks:
  - id: hdr
    slug: header
    config:
      title: Posts
`

func writePage(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write page: %v", err)
	}
}

func TestFileStoreFetchYAML(t *testing.T) {
	dir := t.TempDir()
	writePage(t, dir, "posts.yaml", postsYAML)

	page, err := NewFileStore(dir).Fetch(context.Background(), "/posts/")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if page.ID != "page_posts" || page.Revision != 3 || len(page.Blocks) != 1 {
		t.Fatalf("unexpected page %+v", page)
	}
	if page.Blocks[0].Config["title"] != "Posts" {
		t.Fatalf("expected header title, got %v", page.Blocks[0].Config)
	}
}

func TestFileStorePatchWritesBack(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writePage(t, dir, "posts.yaml", postsYAML)
	store := NewFileStore(dir)

	blocks := []model.BlockConfig{{ID: "hdr", Slug: "header", Config: map[string]any{"title": "Articles"}}}
	page, err := store.Patch(ctx, "posts", model.PagePatch{Blocks: blocks, Revision: 3})
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	if page.Revision != 4 {
		t.Fatalf("expected revision 4, got %d", page.Revision)
	}

	reloaded, err := store.Fetch(ctx, "posts")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if reloaded.Revision != 4 || reloaded.Blocks[0].Config["title"] != "Articles" {
		t.Fatalf("page on disk not updated: %+v", reloaded)
	}
	data, err := os.ReadFile(filepath.Join(dir, "posts.yaml"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), "Articles") {
		t.Fatalf("expected YAML to carry the new title:\n%s", data)
	}

	if _, err := store.Patch(ctx, "posts", model.PagePatch{Blocks: blocks, Revision: 3}); !errors.Is(err, ErrStaleRevision) {
		t.Fatalf("expected ErrStaleRevision, got %v", err)
	}
}

func TestFileStoreKeepsJSONAndCreatesShowPages(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writePage(t, dir, "users.json", `{"id":"page_users","resourceId":"users","blocks":[]}`)
	store := NewFileStore(dir)

	if _, err := store.Patch(ctx, "users", model.PagePatch{Blocks: []model.BlockConfig{}}); err != nil {
		t.Fatalf("patch json page: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "users.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("json page must not be rewritten as yaml, stat err %v", err)
	}

	created, err := store.Patch(ctx, "users/show", model.PagePatch{Blocks: []model.BlockConfig{}})
	if err != nil {
		t.Fatalf("create show page: %v", err)
	}
	if created.Revision != 1 || created.ResourceID != "users" {
		t.Fatalf("unexpected created page %+v", created)
	}
	if _, err := os.Stat(filepath.Join(dir, "users", "show.yaml")); err != nil {
		t.Fatalf("expected show page file: %v", err)
	}

	paths, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if diff := cmp.Diff([]string{"users", "users/show"}, paths); diff != "" {
		t.Fatalf("paths mismatch (-want +got):\n%s", diff)
	}
}

func TestFileStoreMissingPages(t *testing.T) {
	store := NewFileStore(t.TempDir())
	if _, err := store.Fetch(context.Background(), "posts"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.Patch(context.Background(), "posts", model.PagePatch{Revision: 2}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for a revisioned patch, got %v", err)
	}
}

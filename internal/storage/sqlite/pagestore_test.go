package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-pagebuilder/internal/storage/sqlite"
	"github.com/goliatone/go-pagebuilder/pkg/model"
	"github.com/goliatone/go-pagebuilder/pkg/pages"
)

func setupStore(t *testing.T) *sqlite.PageStore {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "pages.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := db.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return sqlite.NewPageStore(db)
}

func headerBlocks(title string) []model.BlockConfig {
	return []model.BlockConfig{{
		ID:     "h1",
		Slug:   "header",
		Config: map[string]any{"title": title, "legacy": map[string]any{"keep": true}},
	}}
}

func TestPatchCreatesAndBumpsRevision(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	if _, err := store.Fetch(ctx, "posts"); !errors.Is(err, pages.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	created, err := store.Patch(ctx, "/posts/", model.PagePatch{Blocks: headerBlocks("Posts")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Revision != 1 || created.ID != "posts" || created.ResourceID != "posts" {
		t.Fatalf("unexpected created page %+v", created)
	}

	fetched, err := store.Fetch(ctx, "posts")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if diff := cmp.Diff(created, fetched); diff != "" {
		t.Fatalf("stored page mismatch (-want +got):\n%s", diff)
	}

	updated, err := store.Patch(ctx, "posts", model.PagePatch{Blocks: headerBlocks("All posts"), Revision: 1})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Revision != 2 {
		t.Fatalf("expected revision 2, got %d", updated.Revision)
	}
}

func TestPatchRejectsStaleRevision(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	if _, err := store.Patch(ctx, "posts", model.PagePatch{Blocks: headerBlocks("One")}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := store.Patch(ctx, "posts", model.PagePatch{Blocks: headerBlocks("Two"), Revision: 1}); err != nil {
		t.Fatalf("update: %v", err)
	}
	_, err := store.Patch(ctx, "posts", model.PagePatch{Blocks: headerBlocks("Three"), Revision: 1})
	if !errors.Is(err, pages.ErrStaleRevision) {
		t.Fatalf("expected ErrStaleRevision, got %v", err)
	}
	page, _ := store.Fetch(ctx, "posts")
	if page.Blocks[0].Config["title"] != "Two" {
		t.Fatalf("stale write must not land, got %v", page.Blocks[0].Config)
	}

	if _, err := store.Patch(ctx, "comments", model.PagePatch{Revision: 3}); !errors.Is(err, pages.ErrNotFound) {
		t.Fatalf("revisioned patch of a missing page should fail, got %v", err)
	}
}

func TestResourcePatchKeepsBlocks(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	if _, err := store.Patch(ctx, "posts/show", model.PagePatch{Blocks: headerBlocks("Post")}); err != nil {
		t.Fatalf("create: %v", err)
	}
	resource := "articles"
	page, err := store.Patch(ctx, "posts/show", model.PagePatch{ResourceID: &resource})
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	if page.ResourceID != "articles" || len(page.Blocks) != 1 {
		t.Fatalf("nil blocks must be left untouched, got %+v", page)
	}
	if page.Blocks[0].Config["legacy"] == nil {
		t.Fatalf("unknown config keys must round-trip, got %v", page.Blocks[0].Config)
	}
}

func TestConcurrentPatchesAgainstOneRevision(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	if _, err := store.Patch(ctx, "posts", model.PagePatch{Blocks: headerBlocks("Base")}); err != nil {
		t.Fatalf("create: %v", err)
	}

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		wins  int
		stale int
	)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Patch(ctx, "posts", model.PagePatch{Blocks: headerBlocks("Race"), Revision: 1})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, pages.ErrStaleRevision):
				stale++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
	if wins != 1 || stale != 3 {
		t.Fatalf("expected exactly one winner, got %d wins %d stale", wins, stale)
	}
}

func TestListAndHistory(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	for _, path := range []string{"posts/show", "authors", "posts"} {
		if _, err := store.Patch(ctx, path, model.PagePatch{Blocks: headerBlocks(path)}); err != nil {
			t.Fatalf("create %s: %v", path, err)
		}
	}
	if _, err := store.Patch(ctx, "posts", model.PagePatch{Blocks: headerBlocks("second")}); err != nil {
		t.Fatalf("update: %v", err)
	}

	paths, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if diff := cmp.Diff([]string{"authors", "posts", "posts/show"}, paths); diff != "" {
		t.Fatalf("paths mismatch (-want +got):\n%s", diff)
	}

	history, err := store.History(ctx, "posts")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 || history[0].Revision != 2 {
		t.Fatalf("unexpected history %+v", history)
	}
	first, err := store.FetchRevision(ctx, "posts", 1)
	if err != nil {
		t.Fatalf("fetch revision: %v", err)
	}
	if first.Blocks[0].Config["title"] != "posts" || first.ID != "posts" {
		t.Fatalf("unexpected first revision %+v", first)
	}
	if _, err := store.FetchRevision(ctx, "posts", 9); !errors.Is(err, pages.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	db, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()
	for i := 0; i < 2; i++ {
		if err := db.Migrate(); err != nil {
			t.Fatalf("migrate pass %d: %v", i, err)
		}
	}
}

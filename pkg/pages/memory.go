package pages

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/goliatone/go-pagebuilder/pkg/model"
)

// MemoryStore keeps pages in a map. Patching a missing path with a zero
// revision creates the page.
type MemoryStore struct {
	mu    sync.RWMutex
	pages map[string]model.PageConfig
}

// NewMemoryStore returns a store seeded with pages keyed by path.
func NewMemoryStore(seed map[string]model.PageConfig) *MemoryStore {
	store := &MemoryStore{pages: make(map[string]model.PageConfig, len(seed))}
	for path, page := range seed {
		if clean, err := NormalizePath(path); err == nil {
			store.pages[clean] = page.Clone()
		}
	}
	return store
}

// Fetch implements Store.
func (s *MemoryStore) Fetch(ctx context.Context, path string) (model.PageConfig, error) {
	if err := ctx.Err(); err != nil {
		return model.PageConfig{}, err
	}
	clean, err := NormalizePath(path)
	if err != nil {
		return model.PageConfig{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	page, ok := s.pages[clean]
	if !ok {
		return model.PageConfig{}, fmt.Errorf("%w: %s", ErrNotFound, clean)
	}
	return page.Clone(), nil
}

// Patch implements Store.
func (s *MemoryStore) Patch(ctx context.Context, path string, patch model.PagePatch) (model.PageConfig, error) {
	if err := ctx.Err(); err != nil {
		return model.PageConfig{}, err
	}
	clean, err := NormalizePath(path)
	if err != nil {
		return model.PageConfig{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	page, ok := s.pages[clean]
	if !ok {
		if patch.Revision != 0 {
			return model.PageConfig{}, fmt.Errorf("%w: %s", ErrNotFound, clean)
		}
		page = NewPage(clean)
	}
	if err := CheckRevision(page.Revision, patch); err != nil {
		return model.PageConfig{}, fmt.Errorf("%w: %s at %d, patch at %d", err, clean, page.Revision, patch.Revision)
	}
	next := patch.Apply(page)
	next.Revision = page.Revision + 1
	s.pages[clean] = next
	return next.Clone(), nil
}

// List implements Lister.
func (s *MemoryStore) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	paths := make([]string, 0, len(s.pages))
	for path := range s.pages {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths, nil
}

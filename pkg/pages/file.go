package pages

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-pagebuilder/pkg/model"
)

// Extensions recognised by FileStore, in lookup order.
var pageExtensions = []string{".yaml", ".yml", ".json"}

// FileStore keeps one YAML or JSON document per page under a directory.
// "posts" maps to <dir>/posts.yaml and "posts/show" to <dir>/posts/show.yaml.
// Existing files keep their format; new pages are written as YAML.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore returns a store rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Fetch implements Store.
func (s *FileStore) Fetch(ctx context.Context, path string) (model.PageConfig, error) {
	if err := ctx.Err(); err != nil {
		return model.PageConfig{}, err
	}
	clean, err := NormalizePath(path)
	if err != nil {
		return model.PageConfig{}, err
	}
	file, ok := s.locate(clean)
	if !ok {
		return model.PageConfig{}, fmt.Errorf("%w: %s", ErrNotFound, clean)
	}
	return ReadFile(file)
}

// Patch implements Store.
func (s *FileStore) Patch(ctx context.Context, path string, patch model.PagePatch) (model.PageConfig, error) {
	if err := ctx.Err(); err != nil {
		return model.PageConfig{}, err
	}
	clean, err := NormalizePath(path)
	if err != nil {
		return model.PageConfig{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	file, ok := s.locate(clean)
	var page model.PageConfig
	if ok {
		if page, err = ReadFile(file); err != nil {
			return model.PageConfig{}, err
		}
	} else {
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
	if err := WriteFile(file, next); err != nil {
		return model.PageConfig{}, err
	}
	return next, nil
}

// List implements Lister.
func (s *FileStore) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	err := filepath.WalkDir(s.dir, func(file string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() || !isPageFile(file) {
			return nil
		}
		rel, err := filepath.Rel(s.dir, file)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(strings.TrimSuffix(rel, filepath.Ext(rel)))
		if clean, err := NormalizePath(rel); err == nil {
			seen[clean] = true
		}
		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("pages: list %s: %w", s.dir, err)
	}
	paths := make([]string, 0, len(seen))
	for path := range seen {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths, nil
}

// locate returns the file holding path and whether it exists. Missing pages
// resolve to the YAML file a first write creates.
func (s *FileStore) locate(path string) (string, bool) {
	base := filepath.Join(s.dir, filepath.FromSlash(path))
	for _, ext := range pageExtensions {
		if info, err := os.Stat(base + ext); err == nil && !info.IsDir() {
			return base + ext, true
		}
	}
	return base + pageExtensions[0], false
}

func isPageFile(file string) bool {
	ext := strings.ToLower(filepath.Ext(file))
	for _, candidate := range pageExtensions {
		if ext == candidate {
			return true
		}
	}
	return false
}

func isYAML(file string) bool {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// ReadFile decodes a page document. YAML documents are bridged through JSON
// so block configs decode the same way regardless of the file format.
func ReadFile(file string) (model.PageConfig, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return model.PageConfig{}, fmt.Errorf("%w: %s", ErrNotFound, file)
		}
		return model.PageConfig{}, fmt.Errorf("pages: read %s: %w", file, err)
	}
	return Decode(data, isYAML(file))
}

// Decode parses a page document in YAML or JSON.
func Decode(data []byte, yamlDocument bool) (model.PageConfig, error) {
	if yamlDocument {
		var raw map[string]any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return model.PageConfig{}, fmt.Errorf("pages: decode yaml: %w", err)
		}
		converted, err := json.Marshal(raw)
		if err != nil {
			return model.PageConfig{}, fmt.Errorf("pages: convert yaml: %w", err)
		}
		data = converted
	}
	var page model.PageConfig
	if err := json.Unmarshal(data, &page); err != nil {
		return model.PageConfig{}, fmt.Errorf("pages: decode page: %w", err)
	}
	if page.Blocks == nil {
		page.Blocks = []model.BlockConfig{}
	}
	return page, nil
}

// Encode renders a page as YAML or indented JSON.
func Encode(page model.PageConfig, yamlDocument bool) ([]byte, error) {
	data, err := json.MarshalIndent(page, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("pages: encode page: %w", err)
	}
	if !yamlDocument {
		return append(data, '\n'), nil
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("pages: convert page: %w", err)
	}
	out, err := yaml.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("pages: encode yaml: %w", err)
	}
	return out, nil
}

// WriteFile replaces file with the encoded page. The document is written to
// a sibling temp file first so readers never see a partial write.
func WriteFile(file string, page model.PageConfig) error {
	data, err := Encode(page, isYAML(file))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return fmt.Errorf("pages: create dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(file), ".page-*")
	if err != nil {
		return fmt.Errorf("pages: create temp: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("pages: write %s: %w", file, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("pages: write %s: %w", file, err)
	}
	if err := os.Rename(tmp.Name(), file); err != nil {
		return fmt.Errorf("pages: replace %s: %w", file, err)
	}
	return nil
}

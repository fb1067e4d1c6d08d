// Package pages defines the persistence contract for page trees and ships
// an in-memory store and an HTTP client that speak it.
//
// Pages are addressed by a resource scoped path: "<resource>" holds the
// list, edit and create pages of a resource and "<resource>/show" holds its
// show page. Stores bump PageConfig.Revision on every write. A patch carrying
// a non-zero revision that does not match the stored one is rejected with
// ErrStaleRevision; a zero revision writes unconditionally.
package pages

import (
	"context"
	"errors"
	"strings"

	"github.com/goliatone/go-pagebuilder/pkg/model"
)

var (
	// ErrNotFound is returned when no page is stored at a path.
	ErrNotFound = errors.New("pages: page not found")
	// ErrStaleRevision is returned when a patch was built against an older
	// revision than the stored one.
	ErrStaleRevision = errors.New("pages: stale revision")
	// ErrInvalidPath is returned for empty or malformed paths.
	ErrInvalidPath = errors.New("pages: invalid path")
)

// Store fetches and patches page configs.
type Store interface {
	Fetch(ctx context.Context, path string) (model.PageConfig, error)
	Patch(ctx context.Context, path string, patch model.PagePatch) (model.PageConfig, error)
}

// Lister is implemented by stores that can enumerate their paths.
type Lister interface {
	List(ctx context.Context) ([]string, error)
}

// View is the kind of page a path addresses.
type View string

const (
	ViewList   View = "list"
	ViewShow   View = "show"
	ViewEdit   View = "edit"
	ViewCreate View = "create"
)

// Path returns the storage path of a resource view. Only the show view has
// its own page; list, edit and create share the resource page.
func Path(resource string, view View) string {
	resource = strings.Trim(strings.TrimSpace(resource), "/")
	if view == ViewShow {
		return resource + "/show"
	}
	return resource
}

// ParsePath splits a storage path into its resource and view. Paths without
// a show suffix report ViewList.
func ParsePath(path string) (string, View, error) {
	clean := strings.Trim(strings.TrimSpace(path), "/")
	if clean == "" {
		return "", "", ErrInvalidPath
	}
	if resource, ok := strings.CutSuffix(clean, "/show"); ok {
		if resource == "" {
			return "", "", ErrInvalidPath
		}
		return resource, ViewShow, nil
	}
	return clean, ViewList, nil
}

// NormalizePath trims slashes and whitespace.
func NormalizePath(path string) (string, error) {
	resource, view, err := ParsePath(path)
	if err != nil {
		return "", err
	}
	return Path(resource, view), nil
}

// CheckRevision applies the revision rule shared by every store.
func CheckRevision(stored int64, patch model.PagePatch) error {
	if patch.Revision != 0 && patch.Revision != stored {
		return ErrStaleRevision
	}
	return nil
}

// NewPage builds the empty page stored at path before its first write.
func NewPage(path string) model.PageConfig {
	resource, _, _ := ParsePath(path)
	return model.PageConfig{
		ID:         path,
		ResourceID: resource,
		Blocks:     []model.BlockConfig{},
	}
}

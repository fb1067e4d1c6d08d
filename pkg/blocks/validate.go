package blocks

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-pagebuilder/pkg/model"
)

// IssueCode classifies a tree problem.
type IssueCode string

const (
	IssueEmptyID     IssueCode = "empty_id"
	IssueEmptySlug   IssueCode = "empty_slug"
	IssueDuplicateID IssueCode = "duplicate_id"
	IssueUnknownSlug IssueCode = "unknown_slug"
)

// Issue is one problem found by Validate.
type Issue struct {
	Code     IssueCode          `json:"code"`
	NodeID   string             `json:"id,omitempty"`
	Slug     string             `json:"slug,omitempty"`
	Path     string             `json:"path"`
	Registry model.RegistryType `json:"registry,omitempty"`
	Message  string             `json:"message"`
}

// Issues is the result of Validate.
type Issues []Issue

// Err folds the issues into one error. Duplicate ids wrap ErrDuplicateID.
func (issues Issues) Err() error {
	if len(issues) == 0 {
		return nil
	}
	errs := make([]error, 0, len(issues))
	for _, issue := range issues {
		if issue.Code == IssueDuplicateID {
			errs = append(errs, fmt.Errorf("%w at %s: %s", ErrDuplicateID, issue.Path, issue.NodeID))
			continue
		}
		errs = append(errs, fmt.Errorf("blocks: %s at %s", issue.Message, issue.Path))
	}
	return errors.Join(errs...)
}

// KnownFunc reports whether slug resolves in the registry of registryType.
type KnownFunc func(registryType model.RegistryType, slug string) bool

// Validate checks the structural invariants of a tree: every node has an id
// and a slug, ids are unique across the tree, and slugs resolve when known is
// set. Problems are reported, not fixed.
func Validate(blocks []model.BlockConfig, kinds Kinds, known KnownFunc) Issues {
	var issues Issues
	seen := make(map[string]string)
	Walk(blocks, kinds, func(visit Visit) bool {
		block := visit.Block
		slug := block.TypeKey()
		id := strings.TrimSpace(block.ID)
		switch {
		case id == "":
			issues = append(issues, Issue{Code: IssueEmptyID, Slug: slug, Path: visit.Path, Message: "node has no id"})
		default:
			if first, dup := seen[id]; dup {
				issues = append(issues, Issue{Code: IssueDuplicateID, NodeID: id, Slug: slug, Path: visit.Path, Message: "id already used at " + first})
			} else {
				seen[id] = visit.Path
			}
		}
		if slug == "" {
			issues = append(issues, Issue{Code: IssueEmptySlug, NodeID: id, Path: visit.Path, Message: "node has no slug"})
		} else if known != nil && !known(visit.Registry, slug) {
			issues = append(issues, Issue{Code: IssueUnknownSlug, NodeID: id, Slug: slug, Path: visit.Path, Registry: visit.Registry, Message: fmt.Sprintf("unknown %s type %q", visit.Registry, slug)})
		}
		return true
	})
	return issues
}

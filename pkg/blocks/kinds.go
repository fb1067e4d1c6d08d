package blocks

import "github.com/goliatone/go-pagebuilder/pkg/model"

// Kinds reports the structural kind of a slug. registry.Set implements it.
type Kinds interface {
	KindOf(slug string) model.NodeKind
}

// KindsFunc adapts a function into Kinds.
type KindsFunc func(slug string) model.NodeKind

// KindOf calls the underlying function.
func (fn KindsFunc) KindOf(slug string) model.NodeKind { return fn(slug) }

// Slugs of the built-in container blocks.
const (
	SlugGrid = "grid"
	SlugTabs = "tabs"
)

// StandardKinds treats "grid" and "tabs" as containers and everything else
// as plain.
var StandardKinds Kinds = KindsFunc(func(slug string) model.NodeKind {
	switch slug {
	case SlugGrid:
		return model.NodeGrid
	case SlugTabs:
		return model.NodeTabs
	default:
		return model.NodePlain
	}
})

func kindsOrStandard(kinds Kinds) Kinds {
	if kinds == nil {
		return StandardKinds
	}
	return kinds
}

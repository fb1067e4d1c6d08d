package editor

import (
	"strconv"

	"github.com/goliatone/go-pagebuilder/pkg/model"
)

// repeaterSchema finds the repeater addressed by path, skipping item
// indexes: "links" and "sections.0.links" both work.
func repeaterSchema(schema []model.FieldSchema, path string) (model.FieldSchema, bool) {
	current := schema
	var found model.FieldSchema
	ok := false
	for _, segment := range model.SplitPath(path) {
		if _, err := strconv.Atoi(segment); err == nil {
			continue
		}
		field, hit := model.Lookup(current, segment)
		if !hit {
			return model.FieldSchema{}, false
		}
		found, ok = field, true
		current = field.Fields
	}
	return found, ok && found.Kind == model.FieldKindRepeater
}

// preserveUnknown copies keys of persisted that schema does not declare into
// draft, leaving declared keys to the draft alone.
func preserveUnknown(schema []model.FieldSchema, persisted, draft map[string]any) map[string]any {
	out := model.CloneMap(draft)
	if out == nil {
		out = map[string]any{}
	}
	declared := make(map[string]struct{})
	for _, name := range model.ScopeNames(schema) {
		declared[name] = struct{}{}
	}
	for key, value := range persisted {
		if _, ok := declared[key]; ok {
			continue
		}
		if _, ok := out[key]; ok {
			continue
		}
		out[key] = model.CloneValue(value)
	}
	return out
}

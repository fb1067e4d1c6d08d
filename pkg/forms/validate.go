package forms

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-pagebuilder/pkg/model"
	"github.com/goliatone/go-pagebuilder/pkg/visibility"
)

// MessageRequired is the message attached to an empty required field.
const MessageRequired = "is required"

// ValidationErrors maps field paths to messages.
type ValidationErrors map[string][]string

// Error lists the failing fields in a stable order.
func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "forms: validation failed"
	}
	keys := make([]string, 0, len(v))
	for key := range v {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s %s", key, strings.Join(v[key], ", ")))
	}
	return "forms: validation failed: " + strings.Join(parts, "; ")
}

// Has reports whether path failed.
func (v ValidationErrors) Has(path string) bool {
	_, ok := v[path]
	return ok
}

// Validate checks required fields against values. Fields hidden by their
// trigger or flagged hidden are skipped. It returns nil when the values pass.
func Validate(schema []model.FieldSchema, values map[string]any, evaluator visibility.Evaluator) ValidationErrors {
	if evaluator == nil {
		evaluator = visibility.Default
	}
	errs := ValidationErrors{}
	validateScope(schema, values, "", evaluator, errs)
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func validateScope(schema []model.FieldSchema, scope map[string]any, prefix string, evaluator visibility.Evaluator, errs ValidationErrors) {
	for _, field := range schema {
		if field.Hidden || field.Kind == model.FieldKindHidden {
			continue
		}
		if !evaluator.Evaluate(field.Trigger, scope).Visible {
			continue
		}
		path := joinPath(prefix, field.Name)

		switch field.Kind {
		case model.FieldKindGroup:
			validateScope(field.Fields, scope, prefix, evaluator, errs)
			continue
		case model.FieldKindRepeater:
			entries, _ := model.ToSlice(scope[field.Name])
			for idx, entry := range entries {
				item, ok := entry.(map[string]any)
				if !ok {
					continue
				}
				validateScope(field.Fields, item, joinPath(path, strconv.Itoa(idx)), evaluator, errs)
			}
		}

		if field.Required && model.IsEmpty(scope[field.Name]) {
			errs[path] = append(errs[path], MessageRequired)
		}
	}
}

// Submit validates draft and invokes fn only when it passes. Validation
// failures are returned as ValidationErrors.
func Submit(schema []model.FieldSchema, draft map[string]any, evaluator visibility.Evaluator, fn func(map[string]any) error) error {
	if errs := Validate(schema, draft, evaluator); errs != nil {
		return errs
	}
	if fn == nil {
		return nil
	}
	return fn(draft)
}

package forms

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/goliatone/go-pagebuilder/pkg/model"
)

// Decode overlays submitted form values onto current and returns the new
// values. Keys follow FieldView.Path. Fields that were not submitted keep
// their current value, which covers fields hidden by a trigger. Repeater
// items are decoded against the items already present in current; adding and
// removing items is left to the caller.
func Decode(schema []model.FieldSchema, submitted url.Values, current map[string]any) map[string]any {
	out := model.CloneMap(current)
	if out == nil {
		out = map[string]any{}
	}
	decodeScope(schema, submitted, out, "")
	return out
}

func decodeScope(schema []model.FieldSchema, submitted url.Values, scope map[string]any, prefix string) {
	for _, field := range schema {
		switch field.Kind {
		case model.FieldKindGroup:
			decodeScope(field.Fields, submitted, scope, prefix)
			continue
		case model.FieldKindRepeater:
			items, _ := model.ToSlice(scope[field.Name])
			path := joinPath(prefix, field.Name)
			next := make([]any, 0, len(items))
			for idx, raw := range items {
				item, ok := raw.(map[string]any)
				if !ok {
					next = append(next, raw)
					continue
				}
				item = model.CloneMap(item)
				decodeScope(field.Fields, submitted, item, joinPath(path, strconv.Itoa(idx)))
				next = append(next, item)
			}
			if len(items) > 0 {
				scope[field.Name] = next
			}
			continue
		}
		if field.Name == "" {
			continue
		}
		raw, ok := submitted[joinPath(prefix, field.Name)]
		if !ok {
			continue
		}
		if value, keep := coerce(field, raw); keep {
			scope[field.Name] = value
		}
	}
}

// coerce converts the submitted strings of one control into the value type
// the field kind stores.
func coerce(field model.FieldSchema, raw []string) (any, bool) {
	last := ""
	if len(raw) > 0 {
		last = strings.TrimSpace(raw[len(raw)-1])
	}
	switch field.Kind {
	case model.FieldKindSwitch, model.FieldKindCheckbox:
		// Toggles post a hidden "false" ahead of the checkbox value.
		value, err := strconv.ParseBool(last)
		if err != nil {
			return false, true
		}
		return value, true
	case model.FieldKindNumber, model.FieldKindSlider:
		if last == "" {
			return nil, true
		}
		if number, err := strconv.ParseFloat(last, 64); err == nil {
			return number, true
		}
		return last, true
	case model.FieldKindMultiSelect:
		values := make([]any, 0, len(raw))
		for _, entry := range raw {
			if entry = strings.TrimSpace(entry); entry != "" {
				values = append(values, entry)
			}
		}
		return values, true
	default:
		return last, true
	}
}

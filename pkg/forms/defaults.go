package forms

import "github.com/goliatone/go-pagebuilder/pkg/model"

// Defaults returns the value map produced by schema defaults alone.
func Defaults(schema []model.FieldSchema) map[string]any {
	return ApplyDefaults(schema, nil)
}

// ApplyDefaults returns a copy of values with absent entries filled from
// schema defaults. Group children write into the same map. Repeater items get
// their sub-schema defaults applied item by item.
func ApplyDefaults(schema []model.FieldSchema, values map[string]any) map[string]any {
	out := model.CloneMap(values)
	if out == nil {
		out = map[string]any{}
	}
	fillDefaults(schema, out)
	return out
}

func fillDefaults(schema []model.FieldSchema, scope map[string]any) {
	for _, field := range schema {
		switch field.Kind {
		case model.FieldKindGroup:
			fillDefaults(field.Fields, scope)
			continue
		case model.FieldKindRepeater:
			if _, ok := scope[field.Name]; !ok && field.Default != nil {
				scope[field.Name] = model.CloneValue(field.Default)
			}
			items, ok := model.ToSlice(scope[field.Name])
			if !ok {
				continue
			}
			filled := make([]any, 0, len(items))
			for _, item := range items {
				itemMap, isMap := item.(map[string]any)
				if !isMap {
					filled = append(filled, item)
					continue
				}
				fillDefaults(field.Fields, itemMap)
				filled = append(filled, itemMap)
			}
			scope[field.Name] = filled
			continue
		}
		if field.Name == "" || field.Default == nil {
			continue
		}
		if _, ok := scope[field.Name]; !ok {
			scope[field.Name] = model.CloneValue(field.Default)
		}
	}
}

package model

// Decorator enriches a type's field schema before it is rendered as an edit
// form, for example by filling dropdown options from a resource description.
// Implementations must not mutate the input slice.
type Decorator interface {
	Decorate(typeKey string, schema []FieldSchema) ([]FieldSchema, error)
}

// DecoratorFunc adapts a function into a Decorator.
type DecoratorFunc func(typeKey string, schema []FieldSchema) ([]FieldSchema, error)

// Decorate calls the underlying function.
func (fn DecoratorFunc) Decorate(typeKey string, schema []FieldSchema) ([]FieldSchema, error) {
	return fn(typeKey, schema)
}

// CloneSchema deep copies a field schema slice.
func CloneSchema(schema []FieldSchema) []FieldSchema {
	if schema == nil {
		return nil
	}
	out := make([]FieldSchema, len(schema))
	for idx, field := range schema {
		out[idx] = cloneField(field)
	}
	return out
}

func cloneField(field FieldSchema) FieldSchema {
	out := field
	out.Default = CloneValue(field.Default)
	if field.Trigger != nil {
		trigger := *field.Trigger
		out.Trigger = &trigger
	}
	if field.Options != nil {
		out.Options = append([]FieldOption(nil), field.Options...)
	}
	out.Fields = CloneSchema(field.Fields)
	if field.Metadata != nil {
		out.Metadata = make(map[string]string, len(field.Metadata))
		for key, value := range field.Metadata {
			out.Metadata[key] = value
		}
	}
	return out
}

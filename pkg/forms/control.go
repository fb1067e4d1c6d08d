package forms

import "context"

// Control renders the input markup for one field of an edit form. Field
// types registered in the field registry provide one.
type Control interface {
	RenderControl(ctx context.Context, field FieldView) (string, error)
}

// ControlFunc adapts a function into a Control.
type ControlFunc func(ctx context.Context, field FieldView) (string, error)

// RenderControl calls the underlying function.
func (fn ControlFunc) RenderControl(ctx context.Context, field FieldView) (string, error) {
	return fn(ctx, field)
}

package render

import "context"

// Renderer converts a resolved page into a byte representation.
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, page *PageView) ([]byte, error)
}

package render

import (
	"context"
	"encoding/json"
	"fmt"
)

// JSONRenderer emits the resolved view tree. Useful for headless editors that
// draw widgets client-side from the resolved types and configs.
type JSONRenderer struct {
	Indent bool
}

// Name reports the renderer identifier.
func (JSONRenderer) Name() string { return "json" }

// ContentType reports the MIME type of the output.
func (JSONRenderer) ContentType() string { return "application/json" }

// Render marshals the page view.
func (r JSONRenderer) Render(_ context.Context, page *PageView) ([]byte, error) {
	if page == nil {
		return nil, fmt.Errorf("render: page view is nil")
	}
	if r.Indent {
		return json.MarshalIndent(page, "", "  ")
	}
	return json.Marshal(page)
}

package template

// Engine renders the HTML templates of the vanilla renderer and the inline
// templates of extension definitions. Data is a map or any value that
// marshals to a JSON object.
type Engine interface {
	// RenderTemplate renders a template from the engine's file system. Names
	// without an extension get the engine default.
	RenderTemplate(name string, data any) (string, error)
	// RenderString compiles and renders source in one go.
	RenderString(source string, data any) (string, error)
	// Compile parses source once for repeated rendering.
	Compile(source string) (Template, error)
}

// Template is a compiled template.
type Template interface {
	Execute(data any) (string, error)
}

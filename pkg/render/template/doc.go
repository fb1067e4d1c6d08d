// Package template defines the template engine seam used by the HTML widgets
// and by template-backed extension definitions. The gotemplate subpackage
// provides the pongo2 implementation.
package template

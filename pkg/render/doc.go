// Package render defines the contracts between the composition engine and
// the code that produces markup: the Widget a type definition carries, the
// Props a widget receives, the View tree composition produces, and the page
// level Renderer that turns a resolved page into bytes (HTML, JSON).
//
// Widgets are opaque to the engine. It only invokes them with the props of
// one node and stores whatever fragment they return on that node's View.
package render

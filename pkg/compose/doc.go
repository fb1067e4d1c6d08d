// Package compose resolves a page tree against a registry set and renders it
// into a render.PageView.
//
// Every node is handed an update and a delete callback bound to its id.
// Container children get composed callbacks instead: a child edit rewrites
// the child's entry in the parent config and then calls the parent's own
// update callback. Only the top level talks to the commit function, so an
// edit at any depth produces exactly one commit holding the rewritten tree.
//
// Rendering never fails. Unknown types become placeholder views with their
// callbacks still bound, and widget errors or panics are captured on the
// view of the node that caused them.
package compose

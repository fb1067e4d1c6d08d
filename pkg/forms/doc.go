// Package forms resolves a field schema and a value map into a renderable
// form: invisible fields are dropped, the rest are laid out in rows on a
// twelve column grid, repeaters expand into one sub-form per item and groups
// are inlined.
//
// Trigger scoping follows the value map the field reads from. Fields inside a
// repeater item only see the siblings of that item. Group children share the
// scope of the group, so a trigger inside a group can reference any field of
// the enclosing form.
//
// Validation covers a single rule: required fields must be non-empty. Submit
// blocks the callback until that holds.
package forms

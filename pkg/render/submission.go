package render

import (
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// Hidden input names the edit form posts back alongside the visible fields.
const (
	HiddenNodeID   = "_node"
	HiddenPagePath = "_page"
	HiddenRevision = "_revision"
)

// EditContext identifies the node, page and revision an edit form was
// rendered for. Revision 0 means unknown.
type EditContext struct {
	NodeID   string
	PagePath string
	Revision int64
}

// Hidden returns the hidden inputs carrying c on top of extra. Blank names
// in extra are dropped.
func (c EditContext) Hidden(extra map[string]string) map[string]string {
	out := make(map[string]string, len(extra)+3)
	for name, value := range extra {
		if name = strings.TrimSpace(name); name != "" {
			out[name] = value
		}
	}
	if c.NodeID != "" {
		out[HiddenNodeID] = c.NodeID
	}
	if c.PagePath != "" {
		out[HiddenPagePath] = c.PagePath
	}
	if c.Revision > 0 {
		out[HiddenRevision] = strconv.FormatInt(c.Revision, 10)
	}
	return out
}

// Stale reports whether the form was rendered for a revision other than
// current. Forms without a revision are never stale.
func (c EditContext) Stale(current int64) bool {
	return c.Revision > 0 && c.Revision != current
}

// ParseEditContext reads the hidden inputs of a submitted edit form. A
// malformed revision reads as 0.
func ParseEditContext(form url.Values) EditContext {
	revision, err := strconv.ParseInt(strings.TrimSpace(form.Get(HiddenRevision)), 10, 64)
	if err != nil || revision < 0 {
		revision = 0
	}
	return EditContext{
		NodeID:   strings.TrimSpace(form.Get(HiddenNodeID)),
		PagePath: strings.TrimSpace(form.Get(HiddenPagePath)),
		Revision: revision,
	}
}

// HiddenField is one hidden input as the form template iterates them.
type HiddenField struct {
	Name  string
	Value string
}

// SortedHiddenFields orders hidden inputs by name so markup is stable.
func SortedHiddenFields(fields map[string]string) []HiddenField {
	out := make([]HiddenField, 0, len(fields))
	for name, value := range fields {
		out = append(out, HiddenField{Name: name, Value: value})
	}
	slices.SortFunc(out, func(a, b HiddenField) int { return strings.Compare(a.Name, b.Name) })
	return out
}

package render_test

import (
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-pagebuilder/pkg/render"
)

func TestEditContextRoundTripsThroughHiddenInputs(t *testing.T) {
	ctx := render.EditContext{NodeID: "block_1", PagePath: "posts", Revision: 4}
	hidden := ctx.Hidden(map[string]string{" return ": "/preview/posts", "": "ignored"})

	want := []render.HiddenField{
		{Name: render.HiddenNodeID, Value: "block_1"},
		{Name: render.HiddenPagePath, Value: "posts"},
		{Name: render.HiddenRevision, Value: "4"},
		{Name: "return", Value: "/preview/posts"},
	}
	if diff := cmp.Diff(want, render.SortedHiddenFields(hidden)); diff != "" {
		t.Fatalf("hidden fields mismatch (-want +got):\n%s", diff)
	}

	form := url.Values{}
	for name, value := range hidden {
		form.Set(name, value)
	}
	if diff := cmp.Diff(ctx, render.ParseEditContext(form)); diff != "" {
		t.Fatalf("parsed context mismatch (-want +got):\n%s", diff)
	}
}

func TestEditContextStale(t *testing.T) {
	cases := []struct {
		revision string
		current  int64
		stale    bool
	}{
		{revision: "", current: 3},
		{revision: "junk", current: 3},
		{revision: "3", current: 3},
		{revision: "2", current: 3, stale: true},
	}
	for _, tc := range cases {
		ctx := render.ParseEditContext(url.Values{render.HiddenRevision: {tc.revision}})
		if got := ctx.Stale(tc.current); got != tc.stale {
			t.Fatalf("revision %q at %d: stale %v, want %v", tc.revision, tc.current, got, tc.stale)
		}
	}
}

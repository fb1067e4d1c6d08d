package registry

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-pagebuilder/pkg/model"
)

type def struct {
	key   string
	value int
}

func (d def) Key() string { return d.key }

func TestRegisterGetLastWriteWins(t *testing.T) {
	reg := New[def](nil)

	reg.Register(def{key: "a", value: 1})
	got, ok := reg.Get("a")
	if !ok || got.value != 1 {
		t.Fatalf("expected a=1, got %+v ok=%v", got, ok)
	}

	reg.Register(def{key: "a", value: 2})
	got, _ = reg.Get("a")
	if got.value != 2 {
		t.Fatalf("expected last registration to win, got %+v", got)
	}
	if reg.Len() != 1 {
		t.Fatalf("expected one entry, got %d", reg.Len())
	}

	if !reg.Unregister("a") {
		t.Fatalf("expected unregister to report removal")
	}
	if _, ok := reg.Get("a"); ok {
		t.Fatalf("expected a to be gone")
	}
	if reg.Unregister("a") {
		t.Fatalf("expected second unregister to be a no-op")
	}
}

func TestBuiltinsThenShadowKeepsOrder(t *testing.T) {
	reg := New([]def{{key: "a", value: 1}, {key: "b", value: 1}, {key: "c", value: 1}})
	reg.Register(def{key: "b", value: 2})

	var keys []string
	for _, d := range reg.All() {
		keys = append(keys, d.key)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, keys); diff != "" {
		t.Fatalf("unexpected order (-want +got):\n%s", diff)
	}
	if got, _ := reg.Get("b"); got.value != 2 {
		t.Fatalf("expected shadowed b, got %+v", got)
	}
}

func TestDiagnostics(t *testing.T) {
	var seen []Diagnostic
	reg := New([]def{{key: "a"}},
		WithName("block"),
		WithWarnOnOverwrite(true),
		WithDiagnostics(func(d Diagnostic) { seen = append(seen, d) }),
	)

	if reg.Register(def{key: "  "}) {
		t.Fatalf("expected blank key to be rejected")
	}
	reg.Register(def{key: "a"})

	want := []Diagnostic{
		{Registry: "block", Kind: DiagnosticMissingKey, Message: "definition has no key, ignored"},
		{Registry: "block", Kind: DiagnosticOverwrite, Key: "a", Message: "definition replaced"},
	}
	if diff := cmp.Diff(want, seen); diff != "" {
		t.Fatalf("unexpected diagnostics (-want +got):\n%s", diff)
	}
}

func TestOverwriteIsSilentByDefault(t *testing.T) {
	calls := 0
	reg := New([]def{{key: "a"}}, WithDiagnostics(func(Diagnostic) { calls++ }))
	reg.Register(def{key: "a"})
	if calls != 0 {
		t.Fatalf("expected no overwrite diagnostic without WithWarnOnOverwrite, got %d", calls)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	reg := New([]def{{key: "a"}})
	cloned := reg.Clone()
	cloned.Register(def{key: "b"})
	if reg.Has("b") {
		t.Fatalf("expected clone mutations to stay local")
	}
	if !cloned.Has("a") {
		t.Fatalf("expected clone to carry existing entries")
	}
}

func TestSetResolveAndKind(t *testing.T) {
	set := NewSet(Definitions{
		Blocks: []BlockType{
			{Slug: "a", Label: "A"},
			{Slug: "grid", Kind: model.NodeGrid},
		},
		Fields:  []FieldType{{Type: "text", Label: "Text"}},
		Filters: []FilterType{{Slug: "select"}},
	})

	resolved, ok := set.Resolve(model.RegistryBlock, "a")
	if !ok || resolved.Key != "a" || resolved.Kind != model.NodePlain {
		t.Fatalf("unexpected resolution %+v ok=%v", resolved, ok)
	}
	if _, ok := set.Resolve(model.RegistryBlock, "text"); ok {
		t.Fatalf("expected field type to be absent from the block registry")
	}
	if resolved, ok := set.Resolve(model.RegistryField, "text"); !ok || resolved.Registry != model.RegistryField {
		t.Fatalf("expected field registry resolution, got %+v", resolved)
	}
	if set.KindOf("grid") != model.NodeGrid || set.KindOf("missing") != model.NodePlain {
		t.Fatalf("unexpected kinds")
	}

	set.Extend(Definitions{Blocks: []BlockType{{Slug: "a", Label: "Custom A"}}})
	if resolved, _ := set.Resolve(model.RegistryBlock, "a"); resolved.Label != "Custom A" {
		t.Fatalf("expected extension to shadow built-in, got %q", resolved.Label)
	}

	var keys []string
	for _, d := range set.Describe(model.RegistryBlock) {
		keys = append(keys, d.Key)
	}
	if diff := cmp.Diff([]string{"a", "grid"}, keys); diff != "" {
		t.Fatalf("unexpected descriptors (-want +got):\n%s", diff)
	}
}

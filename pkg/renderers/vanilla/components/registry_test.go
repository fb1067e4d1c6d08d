package components

import (
	"bytes"
	"testing"

	"github.com/goliatone/go-pagebuilder/pkg/forms"
	"github.com/goliatone/go-pagebuilder/pkg/model"
)

func TestRegistryDescriptorClone(t *testing.T) {
	reg := New()
	renderer := func(buf *bytes.Buffer, field forms.FieldView, data ComponentData) error { return nil }

	if err := reg.Register("test", Descriptor{Renderer: renderer, Stylesheets: []string{"/a.css"}}); err != nil {
		t.Fatalf("register: %v", err)
	}

	desc, ok := reg.Descriptor("TEST")
	if !ok {
		t.Fatalf("descriptor not found")
	}

	desc.Stylesheets = append(desc.Stylesheets, "/mutated.css")

	original, _ := reg.Descriptor("test")
	if len(original.Stylesheets) != 1 || original.Stylesheets[0] != "/a.css" {
		t.Fatalf("registry descriptor mutated: %#v", original.Stylesheets)
	}
}

func TestRegistryRejectsNilRenderer(t *testing.T) {
	if err := New().Register("broken", Descriptor{}); err == nil {
		t.Fatalf("expected error for nil renderer")
	}
}

func TestRegistryAssetsDeduplicates(t *testing.T) {
	reg := New()
	renderer := func(buf *bytes.Buffer, field forms.FieldView, data ComponentData) error { return nil }

	reg.MustRegister("input", Descriptor{
		Renderer:    renderer,
		Stylesheets: []string{"/shared.css", "/input.css"},
		Scripts:     []Script{{Src: "/shared.js"}},
	})
	reg.MustRegister("select", Descriptor{
		Renderer:    renderer,
		Stylesheets: []string{"/shared.css", "/select.css"},
		Scripts:     []Script{{Src: "/shared.js"}, {Src: "/select.js"}},
	})

	styles, scripts := reg.Assets([]string{"input", "select"})
	if len(styles) != 3 {
		t.Fatalf("expected 3 unique stylesheets, got %d: %v", len(styles), styles)
	}
	if len(scripts) != 2 {
		t.Fatalf("expected 2 unique scripts, got %d: %v", len(scripts), scripts)
	}
}

func TestNameFor(t *testing.T) {
	cases := map[model.FieldKind]string{
		model.FieldKindText:        NameInput,
		model.FieldKindSlider:      NameInput,
		model.FieldKindTextarea:    NameTextarea,
		model.FieldKindRichText:    NameRichText,
		model.FieldKindMultiSelect: NameSelect,
		model.FieldKindSwitch:      NameToggle,
		model.FieldKindRepeater:    "",
	}
	for kind, want := range cases {
		if got := NameFor(kind); got != want {
			t.Fatalf("%s: expected %q, got %q", kind, want, got)
		}
	}
}

func TestRegistryBindsKinds(t *testing.T) {
	reg := NewDefaultRegistry()
	if err := reg.Bind(model.FieldKindColor, "swatch"); err == nil {
		t.Fatalf("expected binding to an unknown control to fail")
	}
	reg.MustRegister("swatch", Descriptor{Renderer: func(*bytes.Buffer, forms.FieldView, ComponentData) error { return nil }})
	cloned := reg.Clone()
	if err := reg.Bind(model.FieldKindColor, "Swatch"); err != nil {
		t.Fatalf("bind: %v", err)
	}
	if got := reg.NameFor(model.FieldKindColor); got != "swatch" {
		t.Fatalf("expected bound control, got %q", got)
	}
	if got := cloned.NameFor(model.FieldKindColor); got != NameInput {
		t.Fatalf("clone must not see later bindings, got %q", got)
	}
	if got := reg.NameFor(model.FieldKindTextarea); got != NameTextarea {
		t.Fatalf("unbound kinds use the defaults, got %q", got)
	}
}

func TestDefaultsRequireTemplate(t *testing.T) {
	desc, _ := NewDefaultRegistry().Descriptor(NameInput)
	var buf bytes.Buffer
	if err := desc.Renderer(&buf, forms.FieldView{Path: "title"}, ComponentData{}); err == nil {
		t.Fatalf("expected error without a template renderer")
	}
}

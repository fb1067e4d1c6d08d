package metrics_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/goliatone/go-pagebuilder/internal/metrics"
	"github.com/goliatone/go-pagebuilder/pkg/editor"
	"github.com/goliatone/go-pagebuilder/pkg/model"
	"github.com/goliatone/go-pagebuilder/pkg/pages"
	"github.com/goliatone/go-pagebuilder/pkg/render"
)

// sample returns the value of the series of name whose labels match.
func sample(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			if !matches(metric, labels) {
				continue
			}
			switch {
			case metric.GetCounter() != nil:
				return metric.GetCounter().GetValue()
			case metric.GetHistogram() != nil:
				return float64(metric.GetHistogram().GetSampleCount())
			}
		}
	}
	return 0
}

func matches(metric *dto.Metric, labels map[string]string) bool {
	found := 0
	for _, pair := range metric.GetLabel() {
		if want, ok := labels[pair.GetName()]; ok {
			if want != pair.GetValue() {
				return false
			}
			found++
		}
	}
	return found == len(labels)
}

func TestNodeRendered(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	m.NodeRendered(model.RegistryBlock, "header", render.StatusOK, time.Millisecond)
	m.NodeRendered(model.RegistryBlock, "header", render.StatusOK, time.Millisecond)
	m.NodeRendered(model.RegistryColumn, "text", render.StatusUnknown, time.Millisecond)

	if got := sample(t, reg, "pagebuilder_nodes_rendered_total", map[string]string{"registry": "block", "type": "header", "status": "ok"}); got != 2 {
		t.Fatalf("expected 2 header renders, got %v", got)
	}
	if got := sample(t, reg, "pagebuilder_node_render_duration_seconds", map[string]string{"registry": "column"}); got != 1 {
		t.Fatalf("expected one column observation, got %v", got)
	}
}

func TestObserveWriteOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	m.ObserveWrite("save", nil, time.Millisecond)
	m.ObserveWrite("save", fmt.Errorf("patch: %w", pages.ErrStaleRevision), time.Millisecond)
	m.ObserveWrite("delete", errors.New("boom"), time.Millisecond)

	cases := map[[2]string]float64{
		{"save", "ok"}:      1,
		{"save", "stale"}:   1,
		{"delete", "error"}: 1,
	}
	for labels, want := range cases {
		if got := sample(t, reg, "pagebuilder_editor_writes_total", map[string]string{"op": labels[0], "outcome": labels[1]}); got != want {
			t.Fatalf("%v: got %v, want %v", labels, got, want)
		}
	}
}

func TestOutcome(t *testing.T) {
	cases := map[string]error{
		"ok":      nil,
		"stale":   pages.ErrStaleRevision,
		"invalid": editor.ErrValidation,
		"busy":    editor.ErrBusy,
		"error":   errors.New("x"),
	}
	for want, err := range cases {
		if got := metrics.Outcome(err); got != want {
			t.Fatalf("Outcome(%v) = %q, want %q", err, got, want)
		}
	}
}

func TestObserveRequestAndReloads(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)
	m.ObserveRequest("GET", "/api/pages/*", 200, time.Millisecond)
	m.DefinitionsReloaded()

	if got := sample(t, reg, "pagebuilder_http_requests_total", map[string]string{"method": "GET", "route": "/api/pages/*", "status": "200"}); got != 1 {
		t.Fatalf("expected one request, got %v", got)
	}
	if got := sample(t, reg, "pagebuilder_definition_reloads_total", nil); got != 1 {
		t.Fatalf("expected one reload, got %v", got)
	}
}

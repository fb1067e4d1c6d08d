// Package metrics provides Prometheus collectors for the page builder.
package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/goliatone/go-pagebuilder/pkg/compose"
	"github.com/goliatone/go-pagebuilder/pkg/editor"
	"github.com/goliatone/go-pagebuilder/pkg/model"
	"github.com/goliatone/go-pagebuilder/pkg/pages"
	"github.com/goliatone/go-pagebuilder/pkg/render"
)

const namespace = "pagebuilder"

// Collector holds every page builder metric.
type Collector struct {
	NodesRendered      *prometheus.CounterVec
	NodeRenderDuration *prometheus.HistogramVec

	EditorWrites        *prometheus.CounterVec
	EditorWriteDuration *prometheus.HistogramVec

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	DefinitionReloads prometheus.Counter
}

var (
	_ compose.Observer = (*Collector)(nil)
	_ editor.Observer  = (*Collector)(nil)
)

// New registers the collectors with the default Prometheus registerer.
func New() *Collector {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the collectors with reg.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		NodesRendered: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "nodes_rendered_total",
				Help:      "Page tree nodes rendered, by registry, type and status",
			},
			[]string{"registry", "type", "status"},
		),
		NodeRenderDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "node_render_duration_seconds",
				Help:      "Widget render time per node",
				Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
			},
			[]string{"registry"},
		),
		EditorWrites: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "editor_writes_total",
				Help:      "Editor writes by operation and outcome",
			},
			[]string{"op", "outcome"},
		),
		EditorWriteDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "editor_write_duration_seconds",
				Help:      "Editor write duration including the store round trip",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		DefinitionReloads: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "definition_reloads_total",
				Help:      "Successful extension definition reloads",
			},
		),
	}
}

// NodeRendered implements compose.Observer.
func (c *Collector) NodeRendered(registry model.RegistryType, typeKey string, status render.Status, elapsed time.Duration) {
	c.NodesRendered.WithLabelValues(string(registry), typeKey, string(status)).Inc()
	c.NodeRenderDuration.WithLabelValues(string(registry)).Observe(elapsed.Seconds())
}

// ObserveWrite implements editor.Observer.
func (c *Collector) ObserveWrite(op string, err error, elapsed time.Duration) {
	c.EditorWrites.WithLabelValues(op, Outcome(err)).Inc()
	c.EditorWriteDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// ObserveRequest records one HTTP request.
func (c *Collector) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	c.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.RequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// DefinitionsReloaded counts a definition reload.
func (c *Collector) DefinitionsReloaded() {
	c.DefinitionReloads.Inc()
}

// Outcome classifies a write error for the outcome label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, pages.ErrStaleRevision):
		return "stale"
	case errors.Is(err, editor.ErrValidation):
		return "invalid"
	case errors.Is(err, editor.ErrBusy):
		return "busy"
	}
	return "error"
}

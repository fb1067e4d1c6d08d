// Package registry maps type keys (block, column and filter slugs, field
// types) to their definitions.
//
// Registries are session scoped: a Set is built from an explicit list of
// built-in definitions and extended by callers afterwards. Registering a key
// that already exists replaces the earlier definition, which is how custom
// definitions shadow built-ins. Malformed input never fails the host; it is
// dropped and reported through the diagnostic channel.
package registry

import (
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Definition is anything that can live in a Registry.
type Definition interface {
	Key() string
}

// DiagnosticKind classifies registry diagnostics.
type DiagnosticKind string

const (
	// DiagnosticOverwrite fires when a key is registered again.
	DiagnosticOverwrite DiagnosticKind = "overwrite"
	// DiagnosticMissingKey fires when a definition without a key is
	// registered. The call is a no-op.
	DiagnosticMissingKey DiagnosticKind = "missing_key"
)

// Diagnostic describes a recoverable registry event.
type Diagnostic struct {
	Registry string
	Kind     DiagnosticKind
	Key      string
	Message  string
}

// DiagnosticFunc receives diagnostics as they happen.
type DiagnosticFunc func(Diagnostic)

type options struct {
	name            string
	logger          zerolog.Logger
	diagnostics     DiagnosticFunc
	warnOnOverwrite bool
}

// Option customises a registry.
type Option func(*options)

// WithName labels diagnostics and log lines.
func WithName(name string) Option {
	return func(o *options) {
		o.name = strings.TrimSpace(name)
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithDiagnostics installs a diagnostic callback.
func WithDiagnostics(fn DiagnosticFunc) Option {
	return func(o *options) {
		o.diagnostics = fn
	}
}

// WithWarnOnOverwrite reports overwrites. Overwrites are still accepted.
func WithWarnOnOverwrite(enabled bool) Option {
	return func(o *options) {
		o.warnOnOverwrite = enabled
	}
}

// Registry stores definitions keyed by Definition.Key. Last write wins.
type Registry[T Definition] struct {
	mu      sync.RWMutex
	opts    options
	entries map[string]T
	order   []string
}

// New builds a registry holding builtins, registered in order.
func New[T Definition](builtins []T, opts ...Option) *Registry[T] {
	cfg := options{logger: zerolog.Nop()}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	r := &Registry[T]{
		opts:    cfg,
		entries: make(map[string]T, len(builtins)),
	}
	for _, def := range builtins {
		r.Register(def)
	}
	return r
}

// Register stores def under its key, replacing any earlier definition. A
// definition without a key is ignored. The return value reports whether def
// was stored.
func (r *Registry[T]) Register(def T) bool {
	key := normalizeKey(def.Key())
	if key == "" {
		r.report(Diagnostic{Kind: DiagnosticMissingKey, Message: "definition has no key, ignored"})
		return false
	}

	r.mu.Lock()
	_, exists := r.entries[key]
	r.entries[key] = def
	if !exists {
		r.order = append(r.order, key)
	}
	r.mu.Unlock()

	if exists && r.opts.warnOnOverwrite {
		r.report(Diagnostic{Kind: DiagnosticOverwrite, Key: key, Message: "definition replaced"})
	}
	return true
}

// Unregister removes key. It reports whether an entry was removed.
func (r *Registry[T]) Unregister(key string) bool {
	key = normalizeKey(key)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[key]; !ok {
		return false
	}
	delete(r.entries, key)
	for idx, existing := range r.order {
		if existing == key {
			r.order = append(r.order[:idx:idx], r.order[idx+1:]...)
			break
		}
	}
	return true
}

// Get returns the definition stored under key.
func (r *Registry[T]) Get(key string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.entries[normalizeKey(key)]
	return def, ok
}

// Has reports whether key is registered.
func (r *Registry[T]) Has(key string) bool {
	_, ok := r.Get(key)
	return ok
}

// All returns every definition in first-registration order. Overwriting a
// key keeps its original position.
func (r *Registry[T]) All() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]T, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.entries[key])
	}
	return out
}

// Keys returns the registered keys in registration order.
func (r *Registry[T]) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Len returns the number of registered keys.
func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Name returns the registry label.
func (r *Registry[T]) Name() string {
	return r.opts.name
}

// Clone returns an independent registry with the same entries and options.
func (r *Registry[T]) Clone() *Registry[T] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cloned := &Registry[T]{
		opts:    r.opts,
		entries: make(map[string]T, len(r.entries)),
		order:   append([]string(nil), r.order...),
	}
	for key, def := range r.entries {
		cloned.entries[key] = def
	}
	return cloned
}

func (r *Registry[T]) report(d Diagnostic) {
	d.Registry = r.opts.name
	r.opts.logger.Warn().
		Str("registry", d.Registry).
		Str("kind", string(d.Kind)).
		Str("key", d.Key).
		Msg(d.Message)
	if r.opts.diagnostics != nil {
		r.opts.diagnostics(d)
	}
}

func normalizeKey(key string) string {
	return strings.TrimSpace(key)
}

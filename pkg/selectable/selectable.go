// Package selectable routes a pointer selection to the deepest editable node
// under it.
//
// Editable regions nest, so a selection inside a tab inside a grid lies
// within several selectable nodes at once. Callers pass the id chain of the
// selection, innermost first, and Dispatch fires the callback of the
// innermost registered node only. A Registry belongs to one editing session
// and is torn down with it.
package selectable

import (
	"errors"
	"strings"
	"sync"
)

// ErrClosed is returned after Close.
var ErrClosed = errors.New("selectable: registry closed")

// Callback is fired when its node is selected.
type Callback func()

// Registry maps node ids to selection callbacks.
type Registry struct {
	mu        sync.RWMutex
	callbacks map[string]binding
	seq       uint64
	closed    bool
}

type binding struct {
	fn  Callback
	seq uint64
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{callbacks: make(map[string]binding)}
}

// Register binds fn to id, replacing any earlier binding. The returned
// function removes the binding if it is still the current one.
func (r *Registry) Register(id string, fn Callback) (func(), error) {
	id = strings.TrimSpace(id)
	if id == "" || fn == nil {
		return func() {}, errors.New("selectable: id and callback are required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return func() {}, ErrClosed
	}
	r.seq++
	seq := r.seq
	r.callbacks[id] = binding{fn: fn, seq: seq}
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if existing, ok := r.callbacks[id]; ok && existing.seq == seq {
			delete(r.callbacks, id)
		}
	}, nil
}

// Unregister removes id.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.callbacks, strings.TrimSpace(id))
}

// Has reports whether id has a callback.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.callbacks[strings.TrimSpace(id)]
	return ok
}

// Trigger fires the callback bound to id. It reports whether one ran.
func (r *Registry) Trigger(id string) bool {
	r.mu.RLock()
	bound, ok := r.callbacks[strings.TrimSpace(id)]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	bound.fn()
	return true
}

// Dispatch walks chain from the innermost id outwards and fires the first
// registered callback. Exactly one callback runs at most; the id of the
// node that handled the selection is returned.
func (r *Registry) Dispatch(chain []string) (string, bool) {
	r.mu.RLock()
	var (
		handler Callback
		target  string
	)
	for _, id := range chain {
		if bound, ok := r.callbacks[strings.TrimSpace(id)]; ok {
			handler, target = bound.fn, strings.TrimSpace(id)
			break
		}
	}
	r.mu.RUnlock()
	if handler == nil {
		return "", false
	}
	handler()
	return target, true
}

// Len returns the number of bindings.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.callbacks)
}

// Reset drops every binding but keeps the registry usable.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callbacks = make(map[string]binding)
}

// Close drops every binding and rejects further registrations.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callbacks = make(map[string]binding)
	r.closed = true
}

package definitions

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-pagebuilder/pkg/model"
	"github.com/goliatone/go-pagebuilder/pkg/registry"
)

// BindFunc fills in what loaded definitions leave unset, such as widgets for
// definitions without a template.
type BindFunc func(registry.Definitions) registry.Definitions

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithCompiler compiles definition templates into widgets.
func WithCompiler(compiler Compiler) WatcherOption {
	return func(w *Watcher) {
		w.compiler = compiler
	}
}

// WithBinder runs bind over every loaded batch before it is registered.
func WithBinder(bind BindFunc) WatcherOption {
	return func(w *Watcher) {
		w.bind = bind
	}
}

// WithLogger sets the watcher logger.
func WithLogger(logger zerolog.Logger) WatcherOption {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// WithDebounce coalesces bursts of file events. Zero reloads on every event.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// OnReload registers a callback invoked after each successful reload.
func OnReload(fn func(*Catalog)) WatcherOption {
	return func(w *Watcher) {
		if fn != nil {
			w.onReload = append(w.onReload, fn)
		}
	}
}

// Watcher keeps a registry set in step with a directory of definition files.
// Slugs that disappear from disk are unregistered, or restored to the entry
// they shadowed when the set had one before the watcher started.
type Watcher struct {
	dir      string
	set      *registry.Set
	base     *registry.Set
	compiler Compiler
	bind     BindFunc
	logger   zerolog.Logger
	debounce time.Duration
	onReload []func(*Catalog)

	mu      sync.Mutex
	current *Catalog

	fsw    *fsnotify.Watcher
	stopCh chan struct{}
	done   chan struct{}
}

// NewWatcher prepares a watcher for dir. Nothing is loaded until Load.
func NewWatcher(dir string, set *registry.Set, options ...WatcherOption) (*Watcher, error) {
	if set == nil {
		return nil, errors.New("definitions: registry set is required")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("definitions: resolve %s: %w", dir, err)
	}
	w := &Watcher{
		dir:      abs,
		set:      set,
		base:     set.Clone(),
		logger:   zerolog.Nop(),
		debounce: 100 * time.Millisecond,
		current:  NewCatalog(nil),
	}
	for _, option := range options {
		if option != nil {
			option(w)
		}
	}
	return w, nil
}

// Dir is the watched directory.
func (w *Watcher) Dir() string { return w.dir }

// Catalog returns the last successfully applied catalog.
func (w *Watcher) Catalog() *Catalog {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Load reads the directory and registers its definitions.
func (w *Watcher) Load() error {
	return w.Reload()
}

// Reload re-reads the directory. On error the registered definitions are
// left as they were.
func (w *Watcher) Reload() error {
	next, err := LoadFS(os.DirFS(w.dir))
	if err != nil {
		w.logger.Error().Err(err).Str("dir", w.dir).Msg("definitions reload failed, keeping previous definitions")
		return err
	}
	defs, err := next.Definitions(w.compiler)
	if err != nil {
		w.logger.Error().Err(err).Str("dir", w.dir).Msg("definitions compile failed, keeping previous definitions")
		return err
	}
	if w.bind != nil {
		defs = w.bind(defs)
	}

	w.mu.Lock()
	previous := w.current
	w.set.Extend(defs)
	removed := w.restore(previous.keys(), next.keys())
	w.current = next
	callbacks := append([]func(*Catalog){}, w.onReload...)
	w.mu.Unlock()

	w.logger.Info().
		Str("dir", w.dir).
		Int("files", len(next.Paths())).
		Int("blocks", len(defs.Blocks)).
		Int("columns", len(defs.Columns)).
		Int("filters", len(defs.Filters)).
		Int("removed", removed).
		Msg("definitions loaded")
	for _, fn := range callbacks {
		fn(next)
	}
	return nil
}

// restore handles slugs present before but not after a reload.
func (w *Watcher) restore(before, after map[model.RegistryType][]string) int {
	removed := 0
	for registryType, keys := range before {
		kept := map[string]bool{}
		for _, key := range after[registryType] {
			kept[key] = true
		}
		for _, key := range keys {
			if kept[key] {
				continue
			}
			removed++
			w.restoreKey(registryType, key)
		}
	}
	return removed
}

func (w *Watcher) restoreKey(registryType model.RegistryType, key string) {
	switch registryType {
	case model.RegistryBlock:
		if def, ok := w.base.Blocks.Get(key); ok {
			w.set.Blocks.Register(def)
			return
		}
		w.set.Blocks.Unregister(key)
	case model.RegistryColumn:
		if def, ok := w.base.Columns.Get(key); ok {
			w.set.Columns.Register(def)
			return
		}
		w.set.Columns.Unregister(key)
	case model.RegistryFilter:
		if def, ok := w.base.Filters.Get(key); ok {
			w.set.Filters.Register(def)
			return
		}
		w.set.Filters.Unregister(key)
	}
}

// Start watches the directory tree and reloads on change until Stop.
func (w *Watcher) Start() error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("definitions: create watcher: %w", err)
	}
	err = filepath.WalkDir(w.dir, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() {
			return fsw.Add(path)
		}
		return nil
	})
	if err != nil {
		_ = fsw.Close()
		return fmt.Errorf("definitions: watch %s: %w", w.dir, err)
	}
	w.fsw = fsw
	w.stopCh = make(chan struct{})
	w.done = make(chan struct{})
	go w.loop()
	w.logger.Info().Str("dir", w.dir).Msg("watching definitions for changes")
	return nil
}

// Stop ends the watch loop and waits for it to exit.
func (w *Watcher) Stop() {
	if w.fsw == nil {
		return
	}
	close(w.stopCh)
	_ = w.fsw.Close()
	<-w.done
	w.fsw = nil
}

func (w *Watcher) loop() {
	defer close(w.done)
	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = w.fsw.Add(event.Name)
				}
			}
			if !IsDefinitionFile(event.Name) || event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.logger.Debug().Str("event", event.Op.String()).Str("file", event.Name).Msg("definition file changed")
			if w.debounce <= 0 {
				_ = w.Reload()
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			pending = timer.C
		case <-pending:
			pending = nil
			_ = w.Reload()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error().Err(err).Msg("definitions watcher error")
		case <-w.stopCh:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// Register loads fsys once and extends set with its definitions.
func Register(set *registry.Set, fsys fs.FS, compiler Compiler, bind BindFunc) (*Catalog, error) {
	catalog, err := LoadFS(fsys)
	if err != nil {
		return nil, err
	}
	defs, err := catalog.Definitions(compiler)
	if err != nil {
		return nil, err
	}
	if bind != nil {
		defs = bind(defs)
	}
	set.Extend(defs)
	return catalog, nil
}

package library

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

const (
	// DefaultDebounce is how long the watcher waits for more changes before emitting.
	DefaultDebounce = 200 * time.Millisecond

	eventChannelBuffer = 64
)

// Operation is the kind of change reported for a pipeline file.
type Operation string

const (
	OpWrite  Operation = "write"
	OpRemove Operation = "remove"
)

// Event is a debounced change of one pipeline file.
type Event struct {
	ID   string
	Path string
	Op   Operation
}

// Watcher reports changes to the pipeline files of a library. Several events for the same
// file within the debounce delay are merged into one.
type Watcher struct {
	lib      *Library
	debounce time.Duration
	watcher  *fsnotify.Watcher

	pendingMu sync.Mutex
	pending   map[string]struct{}

	events chan Event
}

// NewWatcher creates a watcher for lib. A non-positive debounce uses DefaultDebounce.
func NewWatcher(lib *Library, debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "unable to create file watcher")
	}

	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	return &Watcher{
		lib:      lib,
		debounce: debounce,
		watcher:  fsw,
		pending:  make(map[string]struct{}),
		events:   make(chan Event, eventChannelBuffer),
	}, nil
}

// Events returns the channel of change events. It is closed when the watcher stops.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Start watches the library directory and its subdirectories until ctx is done or Close
// is called.
func (w *Watcher) Start(ctx context.Context) error {
	err := os.MkdirAll(w.lib.dir, 0o755)
	if err != nil {
		return errors.Wrapf(err, "unable to create %s", w.lib.dir)
	}

	err = filepath.WalkDir(w.lib.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.lib.dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}

		return w.add(path)
	})
	if err != nil {
		return errors.Wrapf(err, "unable to watch %s", w.lib.dir)
	}

	go w.process(ctx)

	w.lib.logger.Info("library watcher started",
		slog.String("dir", w.lib.dir),
		slog.String("pattern", w.lib.pattern),
		slog.Duration("debounce", w.debounce),
	)

	return nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) add(dir string) error {
	err := w.watcher.Add(dir)
	if err != nil {
		return errors.Wrapf(err, "unable to watch %s", dir)
	}
	w.lib.logger.Debug("watching directory", slog.String("path", dir))

	return nil
}

func (w *Watcher) process(ctx context.Context) {
	defer close(w.events)

	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.lib.logger.Error("library watcher error", slog.String("error", err.Error()))
		case <-ticker.C:
			w.flush(ctx)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.add(event.Name); err != nil {
				w.lib.logger.Warn("unable to watch new directory", slog.String("error", err.Error()))
			}
			return
		}
	}

	rel, err := filepath.Rel(w.lib.dir, event.Name)
	if err != nil || !w.lib.Matches(rel) {
		return
	}

	w.pendingMu.Lock()
	w.pending[event.Name] = struct{}{}
	w.pendingMu.Unlock()
}

func (w *Watcher) flush(ctx context.Context) {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	toProcess := w.pending
	w.pending = make(map[string]struct{})
	w.pendingMu.Unlock()

	paths := make([]string, 0, len(toProcess))
	for p := range toProcess {
		paths = append(paths, p)
	}
	slices.Sort(paths)

	for _, p := range paths {
		rel, _ := filepath.Rel(w.lib.dir, p)
		event := Event{ID: idOf(filepath.ToSlash(rel)), Path: p, Op: OpWrite}
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			event.Op = OpRemove
		}

		select {
		case <-ctx.Done():
			return
		case w.events <- event:
			w.lib.logger.Debug("pipeline changed",
				slog.String("id", event.ID),
				slog.String("op", string(event.Op)),
			)
		}
	}
}

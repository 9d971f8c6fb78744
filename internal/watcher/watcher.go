// Package watcher monitors an inbox directory for incoming book files using
// fsnotify with settle-delay debouncing, so a file still being copied in is
// not picked up half-written.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// pendingEvent tracks a file that may still be changing
type pendingEvent struct {
	path    string
	size    int64
	modTime time.Time
	isNew   bool
	timer   *time.Timer
}

// Watcher watches a directory for settled book files.
type Watcher struct {
	logger  *slog.Logger
	opts    Options
	watcher *fsnotify.Watcher

	pending map[string]*pendingEvent // path -> pending event info
	known   map[string]bool          // paths seen before, for added vs modified
	mu      sync.Mutex

	events chan Event
	errors chan error
}

// New creates an inbox watcher.
func New(logger *slog.Logger, opts Options) (*Watcher, error) {
	opts.setDefaults()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	return &Watcher{
		logger:  logger,
		opts:    opts,
		watcher: fsw,
		pending: make(map[string]*pendingEvent),
		known:   make(map[string]bool),
		events:  make(chan Event, 100),
		errors:  make(chan error, 10),
	}, nil
}

// Watch adds a directory to be monitored. Files already present are recorded
// as known so only later changes produce events.
func (w *Watcher) Watch(dir string) error {
	dir = filepath.Clean(dir)

	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("stat watch path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch path is not a directory: %s", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read watch directory: %w", err)
	}
	w.mu.Lock()
	for _, e := range entries {
		if !e.IsDir() && w.opts.wanted(e.Name()) {
			w.known[filepath.Join(dir, e.Name())] = true
		}
	}
	w.mu.Unlock()

	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("add watch: %w", err)
	}
	w.logger.Info("watching inbox", "dir", dir, "settle_delay", w.opts.SettleDelay)
	return nil
}

// Start processes events until the context is cancelled. It blocks.
func (w *Watcher) Start(ctx context.Context) error {
	defer w.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			w.cancelPending()
			return ctx.Err()

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ev)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			select {
			case w.errors <- err:
			default:
				w.logger.Warn("dropping watcher error, channel full", "error", err)
			}
		}
	}
}

// Events returns the channel for receiving settled book file events
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Errors returns the channel for receiving errors
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// handleEvent debounces raw fsnotify events into settled Events.
func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if !w.opts.wanted(ev.Name) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename) {
		if p, ok := w.pending[ev.Name]; ok {
			p.timer.Stop()
			delete(w.pending, ev.Name)
		}
		if w.known[ev.Name] {
			delete(w.known, ev.Name)
			w.emit(Event{Type: EventRemoved, Path: ev.Name})
		}
		return
	}

	if !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Write) {
		return
	}

	info, err := os.Stat(ev.Name)
	if err != nil {
		return
	}

	if p, ok := w.pending[ev.Name]; ok {
		// Still being written; push the settle timer out.
		p.size = info.Size()
		p.modTime = info.ModTime()
		p.timer.Reset(w.opts.SettleDelay)
		return
	}

	p := &pendingEvent{
		path:    ev.Name,
		size:    info.Size(),
		modTime: info.ModTime(),
		isNew:   !w.known[ev.Name],
	}
	p.timer = time.AfterFunc(w.opts.SettleDelay, func() {
		w.settle(p)
	})
	w.pending[ev.Name] = p
}

// settle fires when a file has stopped changing for the settle delay.
func (w *Watcher) settle(p *pendingEvent) {
	w.mu.Lock()
	defer w.mu.Unlock()

	delete(w.pending, p.path)

	info, err := os.Stat(p.path)
	if err != nil {
		// Gone before it settled.
		return
	}

	w.known[p.path] = true

	eventType := EventModified
	if p.isNew {
		eventType = EventAdded
	}
	w.emit(Event{
		Type:    eventType,
		Path:    p.path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	})
}

// emit sends without blocking the event loop. Callers slower than the buffer
// lose events, which for an inbox means the file is picked up on next restart.
func (w *Watcher) emit(ev Event) {
	select {
	case w.events <- ev:
		w.logger.Debug("book file event", "type", ev.Type.String(), "path", ev.Path)
	default:
		w.logger.Warn("dropping event, channel full", "path", ev.Path)
	}
}

// cancelPending stops outstanding settle timers.
func (w *Watcher) cancelPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, p := range w.pending {
		p.timer.Stop()
		delete(w.pending, path)
	}
}

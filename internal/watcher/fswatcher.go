package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// ErrStopped is returned by Start on a watcher that was already stopped.
var ErrStopped = errors.New("watcher stopped")

var configNames = map[string]bool{
	".kwsearch.yaml": true,
	".kwsearch.yml":  true,
}

// FSWatcher watches a directory tree with fsnotify.
type FSWatcher struct {
	opts      Options
	logger    *slog.Logger
	fsw       *fsnotify.Watcher
	debouncer *Debouncer

	events chan []FileEvent
	errors chan error
	ready  chan struct{}
	stopCh chan struct{}

	mu      sync.RWMutex
	root    string
	ignore  gitignore.Matcher
	stopped bool
}

// New creates an FSWatcher. A nil logger uses slog.Default.
func New(opts Options, logger *slog.Logger) (*FSWatcher, error) {
	opts = opts.WithDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	return &FSWatcher{
		opts:      opts,
		logger:    logger,
		fsw:       fsw,
		debouncer: NewDebouncer(opts.DebounceWindow, logger),
		events:    make(chan []FileEvent, opts.EventBufferSize),
		errors:    make(chan error, 8),
		ready:     make(chan struct{}),
		stopCh:    make(chan struct{}),
	}, nil
}

// Start watches root until ctx is cancelled or Stop is called. It blocks;
// Ready is closed once every directory has been registered.
func (w *FSWatcher) Start(ctx context.Context, root string) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolve watch root: %w", err)
	}

	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return ErrStopped
	}
	w.root = absRoot
	w.mu.Unlock()

	w.reloadIgnore()
	if err := w.addRecursive(absRoot); err != nil {
		return fmt.Errorf("watch %s: %w", root, err)
	}
	close(w.ready)

	w.logger.Debug("watch_started", slog.String("root", absRoot))
	go w.forward()

	for {
		select {
		case <-ctx.Done():
			_ = w.Stop()
			return ctx.Err()
		case <-w.stopCh:
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.emitError(err)
		}
	}
}

// Ready is closed when Start has registered the whole tree.
func (w *FSWatcher) Ready() <-chan struct{} {
	return w.ready
}

// Events returns debounced batches. It is closed by Stop.
func (w *FSWatcher) Events() <-chan []FileEvent {
	return w.events
}

// Errors returns non-fatal fsnotify errors. It is closed by Stop.
func (w *FSWatcher) Errors() <-chan error {
	return w.errors
}

// Root returns the absolute watched directory.
func (w *FSWatcher) Root() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.root
}

// Stop releases the fsnotify handle and closes both channels. Safe to call
// more than once.
func (w *FSWatcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.stopCh)
	w.debouncer.Stop()
	err := w.fsw.Close()
	close(w.events)
	close(w.errors)
	return err
}

func (w *FSWatcher) handle(ev fsnotify.Event) {
	rel, err := filepath.Rel(w.Root(), ev.Name)
	if err != nil || rel == "." {
		return
	}
	rel = filepath.ToSlash(rel)

	isDir := false
	if info, err := os.Stat(ev.Name); err == nil {
		isDir = info.IsDir()
	}

	if w.ignored(rel, isDir) {
		return
	}

	now := time.Now()
	base := filepath.Base(ev.Name)
	switch {
	case base == ".gitignore":
		w.reloadIgnore()
		w.debouncer.Add(FileEvent{Path: rel, Operation: OpGitignoreChange, Timestamp: now})
		return
	case configNames[base]:
		w.debouncer.Add(FileEvent{Path: rel, Operation: OpConfigChange, Timestamp: now})
		return
	}

	var op Operation
	switch {
	case ev.Has(fsnotify.Create):
		op = OpCreate
		if isDir {
			if err := w.addRecursive(ev.Name); err != nil {
				w.emitError(err)
			}
		}
	case ev.Has(fsnotify.Write):
		op = OpModify
	case ev.Has(fsnotify.Remove):
		op = OpDelete
	case ev.Has(fsnotify.Rename):
		op = OpRename
	default:
		return // chmod
	}

	w.debouncer.Add(FileEvent{Path: rel, Operation: op, IsDir: isDir, Timestamp: now})
}

func (w *FSWatcher) forward() {
	for batch := range w.debouncer.Output() {
		w.emit(batch)
	}
}

// addRecursive registers dir and every non-ignored directory below it.
func (w *FSWatcher) addRecursive(dir string) error {
	root := w.Root()
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		rel, _ := filepath.Rel(root, path)
		if rel != "." && w.ignored(filepath.ToSlash(rel), true) {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}

func (w *FSWatcher) ignored(rel string, isDir bool) bool {
	parts := strings.Split(rel, "/")
	for _, p := range parts {
		if p == ".git" {
			return true
		}
	}

	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.ignore != nil && w.ignore.Match(parts, isDir)
}

// reloadIgnore rebuilds the matcher from .gitignore files and IgnorePatterns.
func (w *FSWatcher) reloadIgnore() {
	root := w.Root()

	var patterns []gitignore.Pattern
	if w.opts.RespectGitignore {
		ps, err := gitignore.ReadPatterns(osfs.New(root), nil)
		if err != nil {
			w.logger.Warn("gitignore_read_failed",
				slog.String("root", root),
				slog.String("error", err.Error()))
		}
		patterns = append(patterns, ps...)
	}
	for _, p := range w.opts.IgnorePatterns {
		patterns = append(patterns, gitignore.ParsePattern(p, nil))
	}

	w.mu.Lock()
	w.ignore = gitignore.NewMatcher(patterns)
	w.mu.Unlock()
}

// emit holds the read lock across the send so Stop cannot close events
// underneath it.
func (w *FSWatcher) emit(batch []FileEvent) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.stopped {
		return
	}
	select {
	case w.events <- batch:
	default:
		w.logger.Warn("watch_batch_dropped", slog.Int("batch_size", len(batch)))
	}
}

func (w *FSWatcher) emitError(err error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.stopped {
		return
	}
	select {
	case w.errors <- err:
	default:
	}
}

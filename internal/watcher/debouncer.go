package watcher

import (
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Debouncer collects events until the window passes with no new event, then
// emits them as one batch sorted by path. Events for the same path merge:
//   - CREATE then MODIFY stays CREATE
//   - CREATE then DELETE drops the path
//   - DELETE then CREATE becomes MODIFY
//   - anything else keeps the latest event
type Debouncer struct {
	window time.Duration
	logger *slog.Logger

	mu      sync.Mutex
	pending map[string]pendingEvent
	timer   *time.Timer
	output  chan []FileEvent
	stopped bool
}

type pendingEvent struct {
	event FileEvent
	first Operation
}

// NewDebouncer creates a Debouncer. A nil logger uses slog.Default.
func NewDebouncer(window time.Duration, logger *slog.Logger) *Debouncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Debouncer{
		window:  window,
		logger:  logger,
		pending: make(map[string]pendingEvent),
		output:  make(chan []FileEvent, 8),
	}
}

// Add queues an event and restarts the quiet window.
func (d *Debouncer) Add(event FileEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	if prev, ok := d.pending[event.Path]; ok {
		merged, keep := merge(prev, event)
		if keep {
			d.pending[event.Path] = pendingEvent{event: merged, first: prev.first}
		} else {
			delete(d.pending, event.Path)
		}
	} else {
		d.pending[event.Path] = pendingEvent{event: event, first: event.Operation}
	}

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.flush)
}

// merge folds next into prev. keep is false when the two cancel out.
func merge(prev pendingEvent, next FileEvent) (merged FileEvent, keep bool) {
	switch {
	case prev.first == OpCreate && next.Operation == OpModify:
		return prev.event, true
	case prev.first == OpCreate && next.Operation == OpDelete:
		return FileEvent{}, false
	case prev.first == OpDelete && next.Operation == OpCreate:
		next.Operation = OpModify
		return next, true
	default:
		return next, true
	}
}

// Pending returns the number of paths waiting for the next flush.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

func (d *Debouncer) flush() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped || len(d.pending) == 0 {
		return
	}

	batch := make([]FileEvent, 0, len(d.pending))
	for _, pe := range d.pending {
		batch = append(batch, pe.event)
	}
	sort.Slice(batch, func(i, j int) bool { return batch[i].Path < batch[j].Path })
	d.pending = make(map[string]pendingEvent)

	select {
	case d.output <- batch:
	default:
		d.logger.Warn("watch_batch_dropped", slog.Int("batch_size", len(batch)))
	}
}

// Output returns the batch channel. It is closed by Stop.
func (d *Debouncer) Output() <-chan []FileEvent {
	return d.output
}

// Stop discards pending events and closes Output. Safe to call twice.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
	close(d.output)
}

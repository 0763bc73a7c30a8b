package watcher

import (
	"time"
)

// Operation is the kind of change behind a FileEvent.
type Operation int

const (
	// OpCreate indicates a new file or directory.
	OpCreate Operation = iota
	// OpModify indicates a write to an existing file.
	OpModify
	// OpDelete indicates a removed file or directory.
	OpDelete
	// OpRename indicates a file or directory moved away from Path.
	OpRename
	// OpGitignoreChange indicates a .gitignore was edited. The watcher has
	// already reloaded its own ignore rules when this is emitted.
	OpGitignoreChange
	// OpConfigChange indicates .kwsearch.yaml or .kwsearch.yml was edited.
	OpConfigChange
)

// String returns the upper-case name of the operation.
func (op Operation) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpModify:
		return "MODIFY"
	case OpDelete:
		return "DELETE"
	case OpRename:
		return "RENAME"
	case OpGitignoreChange:
		return "GITIGNORE_CHANGE"
	case OpConfigChange:
		return "CONFIG_CHANGE"
	default:
		return "UNKNOWN"
	}
}

// FileEvent is one change under the watched root.
type FileEvent struct {
	// Path is relative to the watched root, slash separated.
	Path string

	Operation Operation
	IsDir     bool
	Timestamp time.Time
}

// Options configures an FSWatcher.
type Options struct {
	// DebounceWindow is how long the watcher waits for quiet before
	// emitting a batch. Default: 300ms
	DebounceWindow time.Duration

	// EventBufferSize is the capacity of the batch channel. Default: 16
	EventBufferSize int

	// IgnorePatterns use gitignore syntax and apply on top of .gitignore.
	IgnorePatterns []string

	// RespectGitignore loads every .gitignore under the root.
	RespectGitignore bool
}

// DefaultOptions returns the options used by `kwsearch watch`.
func DefaultOptions() Options {
	return Options{
		DebounceWindow:   300 * time.Millisecond,
		EventBufferSize:  16,
		RespectGitignore: true,
	}
}

// WithDefaults fills zero durations and sizes from DefaultOptions.
func (o Options) WithDefaults() Options {
	defaults := DefaultOptions()
	if o.DebounceWindow <= 0 {
		o.DebounceWindow = defaults.DebounceWindow
	}
	if o.EventBufferSize <= 0 {
		o.EventBufferSize = defaults.EventBufferSize
	}
	return o
}

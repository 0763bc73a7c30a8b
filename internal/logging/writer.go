package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/gofrs/flock"
)

// RotatingWriter implements io.Writer with size-based rotation.
//
// Several kwsearch processes may append to the same file: the parent and
// each isolated worker. Every write and rotation holds an exclusive lock on
// <path>.lock, and a writer whose file was rotated away by another process
// reopens the path before writing.
type RotatingWriter struct {
	path     string
	maxSize  int64
	maxFiles int
	lock     *flock.Flock

	mu   sync.Mutex
	file *os.File
}

// NewRotatingWriter creates a rotating log writer.
// maxSizeMB is the size in megabytes before rotation; maxFiles is how many
// rotated files to keep.
func NewRotatingWriter(path string, maxSizeMB, maxFiles int) (*RotatingWriter, error) {
	if maxSizeMB <= 0 {
		maxSizeMB = 10
	}
	if maxFiles <= 0 {
		maxFiles = 5
	}

	w := &RotatingWriter{
		path:     path,
		maxSize:  int64(maxSizeMB) * 1024 * 1024,
		maxFiles: maxFiles,
		lock:     flock.New(path + ".lock"),
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	if err := w.openFile(); err != nil {
		return nil, err
	}

	return w, nil
}

// Write appends p, rotating first when p would push the file past maxSize.
func (w *RotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.lock.Lock(); err != nil {
		return 0, fmt.Errorf("failed to acquire log lock: %w", err)
	}
	defer func() { _ = w.lock.Unlock() }()

	if err := w.reopenIfRotated(); err != nil {
		return 0, err
	}

	size, err := w.size()
	if err != nil {
		return 0, err
	}
	if size > 0 && size+int64(len(p)) > w.maxSize {
		if err := w.rotate(); err != nil {
			// keep writing to the current file
			_, _ = fmt.Fprintf(os.Stderr, "log rotation failed: %v\n", err)
			if w.file == nil {
				if err := w.openFile(); err != nil {
					return 0, err
				}
			}
		}
	}

	n, err := w.file.Write(p)
	if err == nil {
		_ = w.file.Sync()
	}
	return n, err
}

// Close closes the underlying file.
func (w *RotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

// Sync flushes the file to disk.
func (w *RotatingWriter) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file != nil {
		return w.file.Sync()
	}
	return nil
}

// Path returns the active log file path.
func (w *RotatingWriter) Path() string {
	return w.path
}

func (w *RotatingWriter) openFile() error {
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	w.file = f
	return nil
}

func (w *RotatingWriter) size() (int64, error) {
	info, err := w.file.Stat()
	if err != nil {
		return 0, fmt.Errorf("failed to stat log file: %w", err)
	}
	return info.Size(), nil
}

// reopenIfRotated reopens the path when another process renamed the file
// this writer holds.
func (w *RotatingWriter) reopenIfRotated() error {
	if w.file == nil {
		return w.openFile()
	}

	held, err := w.file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat log file: %w", err)
	}
	current, err := os.Stat(w.path)
	if err == nil && os.SameFile(held, current) {
		return nil
	}

	_ = w.file.Close()
	return w.openFile()
}

// rotate shifts kwsearch.log -> kwsearch.log.1 -> ... and drops files past maxFiles.
// Caller holds the lock.
func (w *RotatingWriter) rotate() error {
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	w.file = nil

	base := filepath.Base(w.path)
	matches, err := filepath.Glob(filepath.Join(filepath.Dir(w.path), base+".*"))
	if err != nil {
		return fmt.Errorf("failed to find rotated files: %w", err)
	}

	type rotated struct {
		path string
		num  int
	}
	var files []rotated
	for _, m := range matches {
		num, err := strconv.Atoi(strings.TrimPrefix(filepath.Base(m), base+"."))
		if err != nil {
			continue // the .lock file and strays
		}
		files = append(files, rotated{path: m, num: num})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].num > files[j].num })

	for _, f := range files {
		if f.num >= w.maxFiles {
			_ = os.Remove(f.path)
			continue
		}
		_ = os.Rename(f.path, fmt.Sprintf("%s.%d", w.path, f.num+1))
	}

	if err := os.Rename(w.path, w.path+".1"); err != nil && !os.IsNotExist(err) {
		_ = w.openFile()
		return fmt.Errorf("failed to rotate log file: %w", err)
	}

	return w.openFile()
}

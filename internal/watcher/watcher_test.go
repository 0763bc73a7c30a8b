package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/kwsearch/internal/logging"
)

func TestOperation_String(t *testing.T) {
	assert.Equal(t, "CREATE", OpCreate.String())
	assert.Equal(t, "MODIFY", OpModify.String())
	assert.Equal(t, "DELETE", OpDelete.String())
	assert.Equal(t, "RENAME", OpRename.String())
	assert.Equal(t, "GITIGNORE_CHANGE", OpGitignoreChange.String())
	assert.Equal(t, "CONFIG_CHANGE", OpConfigChange.String())
	assert.Equal(t, "UNKNOWN", Operation(99).String())
}

func TestOptions_WithDefaults(t *testing.T) {
	opts := Options{}.WithDefaults()
	assert.Equal(t, 300*time.Millisecond, opts.DebounceWindow)
	assert.Equal(t, 16, opts.EventBufferSize)

	opts = Options{DebounceWindow: time.Second, EventBufferSize: 2}.WithDefaults()
	assert.Equal(t, time.Second, opts.DebounceWindow)
	assert.Equal(t, 2, opts.EventBufferSize)
}

// startWatcher runs w on dir in the background and waits until it is ready.
func startWatcher(t *testing.T, opts Options, dir string) *FSWatcher {
	t.Helper()

	w, err := New(opts, logging.Discard())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Start(ctx, dir)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		_ = w.Stop()
	})

	select {
	case <-w.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("watcher never became ready")
	}
	return w
}

// collect gathers events until one for path arrives.
func collect(t *testing.T, w *FSWatcher, path string) FileEvent {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case batch, ok := <-w.Events():
			require.True(t, ok, "events closed")
			for _, ev := range batch {
				if ev.Path == path {
					return ev
				}
			}
		case <-deadline:
			t.Fatalf("no event for %s", path)
			return FileEvent{}
		}
	}
}

func TestFSWatcher_CreateFile(t *testing.T) {
	dir := t.TempDir()
	w := startWatcher(t, Options{DebounceWindow: 20 * time.Millisecond}, dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.txt"), []byte("error"), 0o644))

	ev := collect(t, w, "new.txt")
	assert.Equal(t, OpCreate, ev.Operation)
	assert.False(t, ev.IsDir)
}

func TestFSWatcher_NestedDirectoryCreatedLater(t *testing.T) {
	dir := t.TempDir()
	w := startWatcher(t, Options{DebounceWindow: 20 * time.Millisecond}, dir)

	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))
	collect(t, w, "sub")

	require.NoError(t, os.WriteFile(filepath.Join(sub, "inner.txt"), []byte("x"), 0o644))
	ev := collect(t, w, "sub/inner.txt")
	assert.Equal(t, OpCreate, ev.Operation)
}

func TestFSWatcher_IgnorePatterns(t *testing.T) {
	dir := t.TempDir()
	w := startWatcher(t, Options{
		DebounceWindow: 20 * time.Millisecond,
		IgnorePatterns: []string{"*.log"},
	}, dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "skip.log"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keep.txt"), []byte("x"), 0o644))

	ev := collect(t, w, "keep.txt")
	assert.Equal(t, OpCreate, ev.Operation)
}

func TestFSWatcher_GitignoreAndConfigChanges(t *testing.T) {
	dir := t.TempDir()
	w := startWatcher(t, Options{DebounceWindow: 20 * time.Millisecond, RespectGitignore: true}, dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("ignored/\n"), 0o644))
	ev := collect(t, w, ".gitignore")
	assert.Equal(t, OpGitignoreChange, ev.Operation)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".kwsearch.yaml"), []byte("version: 1\n"), 0o644))
	ev = collect(t, w, ".kwsearch.yaml")
	assert.Equal(t, OpConfigChange, ev.Operation)
}

func TestFSWatcher_GitDirectoryIgnored(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0o755))
	w := startWatcher(t, Options{DebounceWindow: 20 * time.Millisecond}, dir)

	assert.True(t, w.ignored(".git/HEAD", false))
	assert.True(t, w.ignored(".git", true))
	assert.False(t, w.ignored("notes.txt", false))
}

func TestFSWatcher_StopClosesChannels(t *testing.T) {
	w, err := New(DefaultOptions(), logging.Discard())
	require.NoError(t, err)

	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())

	_, ok := <-w.Events()
	assert.False(t, ok)
	_, ok = <-w.Errors()
	assert.False(t, ok)

	assert.ErrorIs(t, w.Start(context.Background(), t.TempDir()), ErrStopped)
}

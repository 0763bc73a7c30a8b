package runner

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/kwsearch/internal/config"
	kwerrors "github.com/Aman-CERP/kwsearch/internal/errors"
	"github.com/Aman-CERP/kwsearch/internal/logging"
	"github.com/Aman-CERP/kwsearch/internal/ui"
	"github.com/Aman-CERP/kwsearch/internal/worker"
)

const childEnv = "KWSEARCH_RUNNER_CHILD"

func TestMain(m *testing.M) {
	if os.Getenv(childEnv) == "1" {
		if err := worker.Serve(context.Background(), os.Stdin, os.Stdout, worker.ServeOptions{Logger: logging.Discard()}); err != nil {
			os.Exit(2)
		}
		os.Exit(0)
	}
	os.Exit(m.Run())
}

// writeCorpus creates the three-file example: a has Python, b has error,
// c has both.
func writeCorpus(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"a.txt":     "Python is a language",
		"b.txt":     "an error occurred",
		"c.txt":     "Python raised an error",
		"notes.md":  "Python error process",
		"sub/d.txt": "nothing here",
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func newTestRunner(t *testing.T, renderer ui.Renderer) *Runner {
	t.Helper()
	r, err := NewRunner(Dependencies{
		Renderer:      renderer,
		Logger:        logging.Discard(),
		WorkerOptions: []worker.Option{worker.WithCommand(os.Args[0], "-test.run=^$"), worker.WithEnv(childEnv + "=1")},
		WorkerStderr:  &bytes.Buffer{},
	})
	require.NoError(t, err)
	return r
}

func TestRunner_Run_Shared(t *testing.T) {
	// Given: the three-file corpus plus files the lister skips
	dir := writeCorpus(t)
	r := newTestRunner(t, nil)

	// When: searching with the shared strategy
	res, err := r.Run(context.Background(), RunConfig{
		Directory:  dir,
		Extensions: []string{".txt"},
		Keywords:   []string{"Python", "error", "process"},
		Strategy:   "shared",
		MaxWorkers: 4,
	})

	// Then: only .txt files are searched and matches follow the corpus
	require.NoError(t, err)
	rep := res.Report
	assert.Equal(t, 4, rep.Files)
	assert.Equal(t, 4, rep.Workers)
	assert.ElementsMatch(t, []string{filepath.Join(dir, "a.txt"), filepath.Join(dir, "c.txt")}, rep.Result.Get("Python"))
	assert.ElementsMatch(t, []string{filepath.Join(dir, "b.txt"), filepath.Join(dir, "c.txt")}, rep.Result.Get("error"))
	assert.Empty(t, rep.Result.Get("process"))
	assert.Zero(t, res.Warnings)
}

func TestRunner_Run_Isolated(t *testing.T) {
	dir := writeCorpus(t)
	r := newTestRunner(t, nil)

	res, err := r.Run(context.Background(), RunConfig{
		Directory:  dir,
		Extensions: []string{".txt"},
		Keywords:   []string{"Python", "error"},
		Strategy:   "process",
		MaxWorkers: 2,
	})

	require.NoError(t, err)
	assert.Equal(t, "isolated", string(res.Report.Strategy))
	assert.Equal(t, 2, res.Report.Workers)
	assert.Len(t, res.Report.Result.Get("Python"), 2)
	assert.Len(t, res.Report.Result.Get("error"), 2)
}

func TestRunner_Run_ExplicitFiles(t *testing.T) {
	dir := writeCorpus(t)
	r := newTestRunner(t, nil)

	res, err := r.Run(context.Background(), RunConfig{
		Directory: "/does/not/matter",
		Files:     []string{filepath.Join(dir, "notes.md")},
		Keywords:  []string{"process"},
		Strategy:  "shared",
	})

	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "notes.md")}, res.Report.Result.Get("process"))
}

func TestRunner_Run_CountsUnreadableFiles(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}

	dir := writeCorpus(t)
	locked := filepath.Join(dir, "locked.txt")
	require.NoError(t, os.WriteFile(locked, []byte("Python"), 0o644))
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o644) })

	for _, strategy := range []string{"shared", "isolated"} {
		t.Run(strategy, func(t *testing.T) {
			buf := &bytes.Buffer{}
			r := newTestRunner(t, ui.NewPlainRenderer(ui.NewConfig(buf)))

			res, err := r.Run(context.Background(), RunConfig{
				Files:    []string{locked, filepath.Join(dir, "a.txt")},
				Keywords: []string{"Python"},
				Strategy: strategy,
			})

			require.NoError(t, err)
			assert.Equal(t, 1, res.Warnings)
			assert.Equal(t, []string{filepath.Join(dir, "a.txt")}, res.Report.Result.Get("Python"))
			assert.Contains(t, buf.String(), "1 warnings")
		})
	}
}

func TestRunner_Run_ReportsProgress(t *testing.T) {
	dir := writeCorpus(t)
	buf := &bytes.Buffer{}
	r := newTestRunner(t, ui.NewPlainRenderer(ui.NewConfig(buf)))

	_, err := r.Run(context.Background(), RunConfig{
		Directory:  dir,
		Extensions: []string{".txt"},
		Keywords:   []string{"Python"},
		Strategy:   "shared",
		MaxWorkers: 2,
	})

	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "[LIST] 4 files")
	assert.Contains(t, out, "[SCAN] 2/2 chunks")
	assert.Contains(t, out, "Complete: 4 files")
}

func TestRunner_Run_Errors(t *testing.T) {
	r := newTestRunner(t, nil)

	t.Run("unknown strategy", func(t *testing.T) {
		_, err := r.Run(context.Background(), RunConfig{Directory: t.TempDir(), Strategy: "gpu"})
		require.Error(t, err)
		assert.Equal(t, kwerrors.ErrCodeInvalidStrategy, kwerrors.GetCode(err))
		assert.True(t, IsUserError(err))
	})

	t.Run("missing directory", func(t *testing.T) {
		_, err := r.Run(context.Background(), RunConfig{Directory: filepath.Join(t.TempDir(), "nope"), Strategy: "shared"})
		require.Error(t, err)
		assert.Equal(t, kwerrors.ErrCodeDirectoryNotFound, kwerrors.GetCode(err))
		assert.True(t, IsUserError(err))
	})

	t.Run("spawn failure", func(t *testing.T) {
		bad, err := NewRunner(Dependencies{
			Logger:        logging.Discard(),
			WorkerOptions: []worker.Option{worker.WithCommand(filepath.Join(t.TempDir(), "missing-binary"))},
		})
		require.NoError(t, err)

		_, err = bad.Run(context.Background(), RunConfig{Directory: writeCorpus(t), Extensions: []string{".txt"}, Keywords: []string{"x"}, Strategy: "isolated"})
		require.Error(t, err)
		assert.Equal(t, kwerrors.ErrCodeWorkerSpawn, kwerrors.GetCode(err))
		assert.False(t, IsUserError(err))
	})
}

func TestRunner_Compare_SameMatches(t *testing.T) {
	dir := writeCorpus(t)
	r := newTestRunner(t, nil)

	shared, isolated, err := r.Compare(context.Background(), RunConfig{
		Directory:  dir,
		Extensions: []string{".txt"},
		Keywords:   []string{"Python", "error", "process"},
		MaxWorkers: 3,
	})

	require.NoError(t, err)
	assert.Equal(t, "shared", string(shared.Report.Strategy))
	assert.Equal(t, "isolated", string(isolated.Report.Strategy))
	assert.True(t, shared.Report.Result.SameMatches(isolated.Report.Result))
}

func TestRunner_Run_NULBytesAndSizeCap(t *testing.T) {
	// Given: a NUL-containing text file, a plain one, and one over the cap
	dir := t.TempDir()
	files := map[string]string{
		"a.txt":     "Python\x00error",
		"b.txt":     "Python",
		"large.txt": "Python " + strings.Repeat("x", 2048),
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}

	for _, strategy := range []string{"shared", "isolated"} {
		t.Run(strategy, func(t *testing.T) {
			r := newTestRunner(t, nil)

			// When: listing with a 1KB cap and searching
			res, err := r.Run(context.Background(), RunConfig{
				Directory:   dir,
				Extensions:  []string{".txt"},
				MaxFileSize: 1024,
				Keywords:    []string{"Python", "error"},
				Strategy:    strategy,
			})

			// Then: the NUL file is searched and the large file counts as a warning
			require.NoError(t, err)
			assert.ElementsMatch(t, []string{filepath.Join(dir, "a.txt"), filepath.Join(dir, "b.txt")}, res.Report.Result.Get("Python"))
			assert.Equal(t, []string{filepath.Join(dir, "a.txt")}, res.Report.Result.Get("error"))
			assert.Equal(t, 1, res.Warnings)
		})
	}
}

func TestFromConfig(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Search.Keywords = []string{"a"}
	cfg.Paths.Directory = "/data"

	rc := FromConfig(cfg)

	assert.Equal(t, []string{"a"}, rc.Keywords)
	assert.Equal(t, "/data", rc.Directory)
	assert.Equal(t, cfg.Search.Strategy, rc.Strategy)
	assert.Equal(t, cfg.Search.MaxWorkers, rc.MaxWorkers)
	assert.Equal(t, cfg.Paths.Extensions, rc.Extensions)
	assert.Nil(t, rc.Files)
}

package cmd

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kwerrors "github.com/Aman-CERP/kwsearch/internal/errors"
)

type searchJSON struct {
	RunID      string              `json:"run_id"`
	Strategy   string              `json:"strategy"`
	Workers    int                 `json:"workers"`
	Files      int                 `json:"files"`
	Results    map[string][]string `json:"results"`
	DurationMS float64             `json:"duration_ms"`
}

func TestSearchCmd_Text(t *testing.T) {
	// Given: the three-file corpus
	dir := writeCorpus(t)

	// When: searching with default strategy
	out, _, err := executeCmd(t, "search", "--dir", dir, "-k", "Python,error,process")
	require.NoError(t, err)

	// Then: each keyword is listed with its files
	assert.Contains(t, out, "shared strategy: 3 files")
	assert.Contains(t, out, "Python (2)")
	assert.Contains(t, out, "  "+filepath.Join(dir, "a.txt"))
	assert.Contains(t, out, "  "+filepath.Join(dir, "b.txt"))
	assert.Contains(t, out, "error (1)")
	assert.Contains(t, out, "process (0)")
	assert.Contains(t, out, "  no matches")
	assert.NotContains(t, out, "c.txt")
}

func TestSearchCmd_JSON(t *testing.T) {
	dir := writeCorpus(t)

	out, _, err := executeCmd(t, "search", "--dir", dir,
		"-k", "Python", "-k", "error", "-k", "process",
		"--max-workers", "2", "--format", "json")
	require.NoError(t, err)

	var got searchJSON
	require.NoError(t, json.Unmarshal([]byte(out), &got))

	assert.Equal(t, "shared", got.Strategy)
	assert.Equal(t, 2, got.Workers)
	assert.Equal(t, 3, got.Files)
	assert.NotEmpty(t, got.RunID)
	assert.ElementsMatch(t, []string{filepath.Join(dir, "a.txt"), filepath.Join(dir, "b.txt")}, got.Results["Python"])
	assert.Equal(t, []string{filepath.Join(dir, "a.txt")}, got.Results["error"])
	assert.Equal(t, []string{}, got.Results["process"])

	// keys follow keyword order
	assert.Less(t, strings.Index(out, `"Python"`), strings.Index(out, `"error"`))
	assert.Less(t, strings.Index(out, `"error"`), strings.Index(out, `"process"`))
}

func TestSearchCmd_ExplicitFiles(t *testing.T) {
	dir := writeCorpus(t)
	b := filepath.Join(dir, "b.txt")
	missing := filepath.Join(dir, "missing.txt")

	out, _, err := executeCmd(t, "search", "-k", "Python", "--format", "json", b, missing)
	require.NoError(t, err)

	var got searchJSON
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 2, got.Files)
	assert.Equal(t, []string{b}, got.Results["Python"])
}

func TestSearchCmd_SingleWorker(t *testing.T) {
	dir := writeCorpus(t)

	out, _, err := executeCmd(t, "search", "--dir", dir, "-k", "Python", "-w", "1", "--format", "json")
	require.NoError(t, err)

	var got searchJSON
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 1, got.Workers)
	assert.Len(t, got.Results["Python"], 2)
}

func TestSearchCmd_EmptyDirectory(t *testing.T) {
	out, _, err := executeCmd(t, "search", "--dir", t.TempDir(), "-k", "Python", "--format", "json")
	require.NoError(t, err)

	var got searchJSON
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 0, got.Files)
	assert.Equal(t, 0, got.Workers)
	assert.Equal(t, []string{}, got.Results["Python"])
}

func TestSearchCmd_Isolated(t *testing.T) {
	// Given: child processes that re-run this test binary as a worker
	t.Setenv(childEnv, "1")
	dir := writeCorpus(t)

	// When: searching with the isolated strategy
	out, _, err := executeCmd(t, "search", "--dir", dir,
		"-k", "Python,error", "--strategy", "isolated", "--format", "json")
	require.NoError(t, err)

	// Then: results match the shared strategy
	var got searchJSON
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "isolated", got.Strategy)
	assert.ElementsMatch(t, []string{filepath.Join(dir, "a.txt"), filepath.Join(dir, "b.txt")}, got.Results["Python"])
	assert.Equal(t, []string{filepath.Join(dir, "a.txt")}, got.Results["error"])
}

func TestSearchCmd_Compare(t *testing.T) {
	t.Setenv(childEnv, "1")
	dir := writeCorpus(t)

	out, _, err := executeCmd(t, "search", "--dir", dir, "-k", "Python,error", "--compare", "--format", "json")
	require.NoError(t, err)

	var got struct {
		Shared      searchJSON `json:"shared"`
		Isolated    searchJSON `json:"isolated"`
		SameMatches bool       `json:"same_matches"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.True(t, got.SameMatches)
	assert.Equal(t, "shared", got.Shared.Strategy)
	assert.Equal(t, "isolated", got.Isolated.Strategy)
	assert.Equal(t, 3, got.Isolated.Files)
}

func TestSearchCmd_CompareText(t *testing.T) {
	t.Setenv(childEnv, "1")
	dir := writeCorpus(t)

	out, _, err := executeCmd(t, "search", "--dir", dir, "-k", "Python", "--compare")
	require.NoError(t, err)

	assert.Contains(t, out, "shared strategy:")
	assert.Contains(t, out, "isolated strategy:")
	assert.Contains(t, out, "found the same matches")
}

func TestSearchCmd_ProgressGoesToStderr(t *testing.T) {
	dir := writeCorpus(t)

	out, errOut, err := executeCmd(t, "search", "--dir", dir, "-k", "Python", "--progress", "--format", "json")
	require.NoError(t, err)

	assert.Contains(t, errOut, "[LIST] 3 files")
	assert.Contains(t, errOut, "[SCAN]")
	assert.Contains(t, errOut, "Complete: 3 files")
	assert.True(t, json.Valid([]byte(out)), "stdout should hold only the JSON report")
}

func TestSearchCmd_Errors(t *testing.T) {
	dir := writeCorpus(t)

	tests := []struct {
		name string
		args []string
		code string
	}{
		{"unknown strategy", []string{"search", "--dir", dir, "--strategy", "fork"}, kwerrors.ErrCodeInvalidStrategy},
		{"zero workers", []string{"search", "--dir", dir, "--max-workers", "0"}, kwerrors.ErrCodeConfigInvalid},
		{"unknown format", []string{"search", "--dir", dir, "--format", "xml"}, kwerrors.ErrCodeInvalidInput},
		{"missing directory", []string{"search", "--dir", filepath.Join(dir, "nope")}, kwerrors.ErrCodeDirectoryNotFound},
		{"empty keyword", []string{"search", "--dir", dir, "-k", "Python,,error"}, kwerrors.ErrCodeConfigInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := executeCmd(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.code, kwerrors.GetCode(err))
		})
	}
}

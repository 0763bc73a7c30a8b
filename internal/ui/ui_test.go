package ui

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Aman-CERP/kwsearch/internal/search"
)

func TestStage_StringAndIcon(t *testing.T) {
	tests := []struct {
		stage Stage
		name  string
		icon  string
	}{
		{StageListing, "Listing", "LIST"},
		{StagePartitioning, "Partitioning", "SPLIT"},
		{StageScanning, "Scanning", "SCAN"},
		{StageAggregating, "Aggregating", "MERGE"},
		{StageComplete, "Complete", "DONE"},
		{Stage(42), "Unknown", "???"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.stage.String())
			assert.Equal(t, tt.icon, tt.stage.Icon())
		})
	}
}

func TestStageFromState(t *testing.T) {
	tests := []struct {
		state search.State
		want  Stage
		ok    bool
	}{
		{search.StateIdle, 0, false},
		{search.StatePartitioning, StagePartitioning, true},
		{search.StateDispatching, StageScanning, true},
		{search.StateAwaitingCompletion, StageScanning, true},
		{search.StateAggregating, StageAggregating, true},
		{search.StateDone, StageComplete, true},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			got, ok := StageFromState(tt.state)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestIsTTY(t *testing.T) {
	assert.False(t, IsTTY(nil))
	assert.False(t, IsTTY(&bytes.Buffer{}))

	f, err := os.CreateTemp(t.TempDir(), "out")
	if err == nil {
		defer func() { _ = f.Close() }()
		assert.False(t, IsTTY(f), "regular file is not a terminal")
	}
}

func TestDetectNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	assert.True(t, DetectNoColor())
}

func TestDetectCI(t *testing.T) {
	t.Setenv("CI", "true")
	assert.True(t, DetectCI())
}

func TestNewConfig_Options(t *testing.T) {
	buf := &bytes.Buffer{}
	cfg := NewConfig(buf, WithForcePlain(true), WithNoColor(true), WithDirectory("./text_files"))

	assert.Equal(t, buf, cfg.Output)
	assert.True(t, cfg.ForcePlain)
	assert.True(t, cfg.NoColor)
	assert.Equal(t, "./text_files", cfg.Directory)
}

func TestNewRenderer_NonTTY_UsesPlain(t *testing.T) {
	r := NewRenderer(NewConfig(&bytes.Buffer{}))
	_, ok := r.(*PlainRenderer)
	assert.True(t, ok)
}

func TestNewTUIRenderer_NonTTY_Fails(t *testing.T) {
	r, err := NewTUIRenderer(NewConfig(&bytes.Buffer{}))
	assert.Error(t, err)
	assert.Nil(t, r)
}

func TestCoordinatorHooks_DriveRenderer(t *testing.T) {
	// Given: a coordinator wired to a plain renderer
	buf := &bytes.Buffer{}
	r := NewPlainRenderer(NewConfig(buf))

	dir := t.TempDir()
	path := dir + "/a.txt"
	assert.NoError(t, os.WriteFile(path, []byte("Python"), 0o644))

	units := map[search.Strategy]search.Unit{
		search.StrategyShared: search.NewSharedUnit(search.NewFileScanner()),
	}
	c := search.NewCoordinator(units, CoordinatorHooks(r)...)

	// When: a search runs
	_, err := c.Run(t.Context(), []string{path}, search.NewKeywords("Python"), search.StrategyShared)

	// Then: every stage and the chunk count were reported
	assert.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "[SPLIT] Partitioning")
	assert.Contains(t, out, "[SCAN] 1/1 chunks")
	assert.Contains(t, out, "[MERGE] Aggregating")
}

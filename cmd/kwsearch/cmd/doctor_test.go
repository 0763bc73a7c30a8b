package cmd

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoctorCmd_Healthy(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(childEnv, "1")
	dir := writeCorpus(t)

	out, _, err := executeCmd(t, "doctor", "--dir", dir)

	require.NoError(t, err)
	assert.Contains(t, out, "kwsearch System Check")
	assert.Contains(t, out, "[PASS] config")
	assert.Contains(t, out, "[PASS] directory: "+dir+": 3 files")
	assert.Contains(t, out, "[PASS] isolated_worker")
	assert.NotContains(t, out, "Status: FAILED")
}

func TestDoctorCmd_JSON(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(childEnv, "1")
	dir := writeCorpus(t)

	out, _, err := executeCmd(t, "doctor", "--json", "--dir", dir)
	require.NoError(t, err)

	var report struct {
		Status string `json:"status"`
		Checks []struct {
			Name     string `json:"name"`
			Status   string `json:"status"`
			Required bool   `json:"required"`
		} `json:"checks"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))

	assert.NotEqual(t, "failed", report.Status)
	require.NotEmpty(t, report.Checks)
	assert.Equal(t, "config", report.Checks[0].Name)
	assert.Equal(t, "pass", report.Checks[0].Status)
	assert.True(t, report.Checks[0].Required)
}

func TestDoctorCmd_MissingDirectory(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(childEnv, "1")

	out, _, err := executeCmd(t, "doctor", "--dir", "/does/not/exist")

	require.Error(t, err)
	assert.Equal(t, "system check failed", err.Error())
	assert.Contains(t, out, "[FAIL] directory")
	assert.Contains(t, out, "Status: FAILED")
}

func TestDoctorCmd_InvalidConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(childEnv, "1")
	isolateConfig(t)
	t.Setenv("KWSEARCH_STRATEGY", "fork")

	out, _, err := runRoot(t, "doctor")

	require.Error(t, err)
	assert.Contains(t, out, "[FAIL] config")
	assert.NotContains(t, out, "] directory")
}

package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/kwsearch/configs"
	"github.com/Aman-CERP/kwsearch/internal/config"
)

func TestConfigInit_CreatesProjectConfig(t *testing.T) {
	// Given: a directory without config
	dir := t.TempDir()

	// When: running config init
	out, _, err := executeCmd(t, "config", "init", dir)
	require.NoError(t, err)

	// Then: the template is written and loads cleanly
	path := filepath.Join(dir, config.ProjectConfigName)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, configs.ProjectConfigTemplate, string(data))
	assert.Contains(t, out, "Created "+path)

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"Python", "error", "process"}, cfg.Search.Keywords)
	assert.Equal(t, "shared", cfg.Search.Strategy)
}

func TestConfigInit_KeepsExistingWithoutForce(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, config.ProjectConfigName)
	require.NoError(t, os.WriteFile(path, []byte("search:\n  strategy: isolated\n"), 0o644))

	out, _, err := executeCmd(t, "config", "init", dir)
	require.NoError(t, err)

	assert.Contains(t, out, "already exists")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "search:\n  strategy: isolated\n", string(data))
}

func TestConfigInit_ForceBacksUp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, config.ProjectConfigName)
	require.NoError(t, os.WriteFile(path, []byte("search:\n  strategy: isolated\n"), 0o644))

	out, _, err := executeCmd(t, "config", "init", "--force", dir)
	require.NoError(t, err)

	assert.Contains(t, out, "Backed up to")
	backups, err := config.ListBackups(path)
	require.NoError(t, err)
	require.Len(t, backups, 1)

	old, err := os.ReadFile(backups[0])
	require.NoError(t, err)
	assert.Equal(t, "search:\n  strategy: isolated\n", string(old))
}

func TestConfigInit_User(t *testing.T) {
	isolateConfig(t)
	xdg := t.TempDir()

	var out syncBuffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"config", "init", "--user"})
	t.Setenv("XDG_CONFIG_HOME", xdg)
	require.NoError(t, root.Execute())

	data, err := os.ReadFile(filepath.Join(xdg, "kwsearch", "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, configs.UserConfigTemplate, string(data))
}

func TestConfigShow_JSONReflectsProjectFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.ProjectConfigName),
		[]byte("search:\n  max_workers: 7\n  keywords: [alpha]\n"), 0o644))

	out, _, err := executeCmd(t, "config", "show", "--json", dir)
	require.NoError(t, err)

	var cfg config.Config
	require.NoError(t, json.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, 7, cfg.Search.MaxWorkers)
	assert.Equal(t, []string{"alpha"}, cfg.Search.Keywords)
	assert.Equal(t, []string{".txt"}, cfg.Paths.Extensions)
}

func TestConfigShow_YAML(t *testing.T) {
	out, _, err := executeCmd(t, "config", "show", t.TempDir())
	require.NoError(t, err)

	assert.Contains(t, out, "max_workers: 4")
	assert.Contains(t, out, "strategy: shared")
}

func TestConfigShow_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.ProjectConfigName),
		[]byte("search:\n  strategy: threads\n"), 0o644))

	_, _, err := executeCmd(t, "config", "show", dir)
	assert.Error(t, err)
}

func TestConfigPath(t *testing.T) {
	out, _, err := executeCmd(t, "config", "path")
	require.NoError(t, err)

	assert.Contains(t, out, "user:")
	assert.Contains(t, out, filepath.Join("kwsearch", "config.yaml"))
	assert.Contains(t, out, "project:")
}

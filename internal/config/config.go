package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	kwerrors "github.com/Aman-CERP/kwsearch/internal/errors"
	"github.com/Aman-CERP/kwsearch/internal/logging"
)

const (
	// ProjectConfigName is the project-level config file, looked up in the working directory.
	ProjectConfigName = ".kwsearch.yaml"

	// DefaultMaxWorkers caps the number of concurrent workers per run.
	DefaultMaxWorkers = 4
)

// ProjectConfigNames are the accepted project config file names, in lookup order.
var ProjectConfigNames = []string{ProjectConfigName, ".kwsearch.yml"}

// Config represents the complete kwsearch configuration.
type Config struct {
	Version int           `yaml:"version" json:"version"`
	Search  SearchConfig  `yaml:"search" json:"search"`
	Paths   PathsConfig   `yaml:"paths" json:"paths"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
	Watch   WatchConfig   `yaml:"watch" json:"watch"`
}

// SearchConfig configures what to search for and how to run it.
type SearchConfig struct {
	// Keywords are matched as case-sensitive substrings.
	Keywords []string `yaml:"keywords" json:"keywords"`

	// MaxWorkers is the upper bound on workers; a run uses min(MaxWorkers, files).
	MaxWorkers int `yaml:"max_workers" json:"max_workers"`

	// Strategy is "shared" (goroutines) or "isolated" (child processes).
	Strategy string `yaml:"strategy" json:"strategy"`
}

// PathsConfig configures which files are searched.
type PathsConfig struct {
	Directory        string   `yaml:"directory" json:"directory"`
	Extensions       []string `yaml:"extensions" json:"extensions"`
	Exclude          []string `yaml:"exclude" json:"exclude"`
	RespectGitignore bool     `yaml:"respect_gitignore" json:"respect_gitignore"`
	// MaxFileSize skips larger files when listing. 0 disables the cap.
	MaxFileSize int64 `yaml:"max_file_size" json:"max_file_size"`
}

// LoggingConfig configures log level and rotation.
type LoggingConfig struct {
	Level     string `yaml:"level" json:"level"`
	MaxSizeMB int    `yaml:"max_size_mb" json:"max_size_mb"`
	MaxFiles  int    `yaml:"max_files" json:"max_files"`
}

// WatchConfig configures `kwsearch watch`.
type WatchConfig struct {
	Debounce string `yaml:"debounce" json:"debounce"`
}

// defaultExcludePatterns are always excluded.
var defaultExcludePatterns = []string{
	"**/.git/**",
	"**/node_modules/**",
	"**/vendor/**",
	"**/__pycache__/**",
}

var validStrategies = map[string]bool{
	"shared":   true,
	"thread":   true,
	"isolated": true,
	"process":  true,
}

// NewConfig creates a new Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Search: SearchConfig{
			Keywords:   []string{"Python", "error", "process"},
			MaxWorkers: DefaultMaxWorkers,
			Strategy:   "shared",
		},
		Paths: PathsConfig{
			Directory:   "./text_files",
			Extensions:  []string{".txt"},
			Exclude:     append([]string(nil), defaultExcludePatterns...),
		},
		Logging: LoggingConfig{
			Level:     "info",
			MaxSizeMB: 10,
			MaxFiles:  5,
		},
		Watch: WatchConfig{
			Debounce: "300ms",
		},
	}
}

// GetUserConfigPath returns the user configuration file path:
//   - $XDG_CONFIG_HOME/kwsearch/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/kwsearch/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "kwsearch", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "kwsearch", "config.yaml")
	}
	return filepath.Join(home, ".config", "kwsearch", "config.yaml")
}

// Load loads configuration for the given working directory.
// Precedence, lowest first:
//  1. Hardcoded defaults
//  2. User config (~/.config/kwsearch/config.yaml)
//  3. Project config (.kwsearch.yaml or .kwsearch.yml in dir)
//  4. Environment variables (KWSEARCH_*)
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userPath := GetUserConfigPath(); fileExists(userPath) {
		if err := cfg.loadYAML(userPath); err != nil {
			return nil, err
		}
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ProjectConfigPath returns the project config file in dir, or "" if none exists.
func ProjectConfigPath(dir string) string {
	for _, name := range ProjectConfigNames {
		p := filepath.Join(dir, name)
		if fileExists(p) {
			return p
		}
	}
	return ""
}

func (c *Config) loadFromFile(dir string) error {
	if p := ProjectConfigPath(dir); p != "" {
		return c.loadYAML(p)
	}
	return nil
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return kwerrors.New(kwerrors.ErrCodeConfigNotFound, "failed to read config file "+path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return kwerrors.ConfigError("failed to parse config file "+path, err).
			WithSuggestion("check the YAML syntax, or regenerate it with `kwsearch config init --force`")
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	// Search
	if len(other.Search.Keywords) > 0 {
		c.Search.Keywords = other.Search.Keywords
	}
	if other.Search.MaxWorkers != 0 {
		c.Search.MaxWorkers = other.Search.MaxWorkers
	}
	if other.Search.Strategy != "" {
		c.Search.Strategy = other.Search.Strategy
	}

	// Paths
	if other.Paths.Directory != "" {
		c.Paths.Directory = other.Paths.Directory
	}
	if len(other.Paths.Extensions) > 0 {
		c.Paths.Extensions = other.Paths.Extensions
	}
	if len(other.Paths.Exclude) > 0 {
		// extends the defaults
		c.Paths.Exclude = append(c.Paths.Exclude, other.Paths.Exclude...)
	}
	if other.Paths.RespectGitignore {
		c.Paths.RespectGitignore = true
	}
	if other.Paths.MaxFileSize != 0 {
		c.Paths.MaxFileSize = other.Paths.MaxFileSize
	}

	// Logging
	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Logging.MaxSizeMB != 0 {
		c.Logging.MaxSizeMB = other.Logging.MaxSizeMB
	}
	if other.Logging.MaxFiles != 0 {
		c.Logging.MaxFiles = other.Logging.MaxFiles
	}

	// Watch
	if other.Watch.Debounce != "" {
		c.Watch.Debounce = other.Watch.Debounce
	}
}

// applyEnvOverrides applies KWSEARCH_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("KWSEARCH_KEYWORDS"); v != "" {
		c.Search.Keywords = SplitList(v)
	}
	if v := os.Getenv("KWSEARCH_MAX_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Search.MaxWorkers = n
		}
	}
	if v := os.Getenv("KWSEARCH_STRATEGY"); v != "" {
		c.Search.Strategy = v
	}
	if v := os.Getenv("KWSEARCH_DIRECTORY"); v != "" {
		c.Paths.Directory = v
	}
	if v := os.Getenv("KWSEARCH_EXTENSIONS"); v != "" {
		c.Paths.Extensions = SplitList(v)
	}
	if v := os.Getenv("KWSEARCH_RESPECT_GITIGNORE"); v != "" {
		c.Paths.RespectGitignore = strings.ToLower(v) == "true" || v == "1"
	}
	if v := os.Getenv("KWSEARCH_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// SplitList splits a comma-separated list, trimming blanks and dropping empties.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.Search.MaxWorkers < 1 {
		return kwerrors.ConfigError(
			fmt.Sprintf("search.max_workers must be at least 1, got %d", c.Search.MaxWorkers), nil).
			WithDetail("field", "search.max_workers")
	}

	for i, kw := range c.Search.Keywords {
		if kw == "" {
			return kwerrors.ConfigError(fmt.Sprintf("search.keywords[%d] is empty", i), nil).
				WithDetail("field", "search.keywords").
				WithSuggestion("remove the empty keyword; it would match every readable file")
		}
	}

	if !validStrategies[strings.ToLower(c.Search.Strategy)] {
		return kwerrors.New(kwerrors.ErrCodeInvalidStrategy,
			fmt.Sprintf("search.strategy must be 'shared' or 'isolated', got %q", c.Search.Strategy), nil).
			WithDetail("field", "search.strategy")
	}

	for _, ext := range c.Paths.Extensions {
		if strings.TrimSpace(ext) == "" {
			return kwerrors.ConfigError("paths.extensions must not contain empty entries", nil).
				WithDetail("field", "paths.extensions")
		}
	}

	if c.Paths.MaxFileSize < 0 {
		return kwerrors.ConfigError(
			fmt.Sprintf("paths.max_file_size must be non-negative, got %d", c.Paths.MaxFileSize), nil)
	}

	if !logging.ValidLevel(c.Logging.Level) {
		return kwerrors.ConfigError(
			fmt.Sprintf("logging.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Logging.Level), nil)
	}

	if _, err := time.ParseDuration(c.Watch.Debounce); err != nil {
		return kwerrors.ConfigError("watch.debounce must be a duration like 300ms", err)
	}

	return nil
}

// DebounceDuration returns the parsed watch debounce, or 300ms if unparseable.
func (c *Config) DebounceDuration() time.Duration {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil || d <= 0 {
		return 300 * time.Millisecond
	}
	return d
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// JSON returns the configuration as indented JSON.
func (c *Config) JSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

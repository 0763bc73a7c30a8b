package logging

import (
	"os"
	"path/filepath"
)

// DefaultLogDir returns ~/.kwsearch/logs, or a temp-dir fallback when the
// home directory is unknown.
func DefaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".kwsearch", "logs")
	}
	return filepath.Join(home, ".kwsearch", "logs")
}

// DefaultLogPath returns the default log file path.
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), "kwsearch.log")
}

// EnsureLogDir creates the log directory if it doesn't exist.
func EnsureLogDir() error {
	return os.MkdirAll(DefaultLogDir(), 0o755)
}

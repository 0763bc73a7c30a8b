// Package scanner lists the files a search run should read.
// It walks a directory, keeps files with a configured extension, and
// honors exclusion patterns, .gitignore rules, and an optional size cap.
// File contents are never inspected; every listed file reaches the search.
package scanner

// ListOptions configures a directory listing.
type ListOptions struct {
	// RootDir is the directory to walk. Empty means ".".
	RootDir string

	// Extensions keeps files whose name ends with one of these suffixes
	// (e.g. ".txt"). Empty keeps every file.
	Extensions []string

	// ExcludePatterns skip matching files and directories.
	ExcludePatterns []string

	// RespectGitignore enables .gitignore parsing.
	RespectGitignore bool

	// MaxFileSize skips larger files in bytes. 0 or negative disables the cap.
	MaxFileSize int64

	// OnSkip is called for each file that matched the extension filter but
	// was left out by the size cap.
	OnSkip func(path string, err error)

	// FollowSymlinks includes symlinked files (default: false).
	FollowSymlinks bool
}

// defaultExcludeDirs are never walked.
var defaultExcludeDirs = []string{
	"**/.git/**",
	"**/.hg/**",
	"**/.svn/**",
}

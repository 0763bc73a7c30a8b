package scanner

import (
	"path/filepath"
	"strings"
)

// matchDirPattern reports whether a directory path matches an exclusion pattern.
//
//	**/name/**  any path component equal to name
//	dir/**      dir itself and everything below it
//	other       exact path or path prefix
func matchDirPattern(relPath, pattern string) bool {
	pattern = filepath.FromSlash(pattern)
	sep := string(filepath.Separator)

	if strings.HasPrefix(pattern, "**"+sep) {
		name := strings.TrimSuffix(strings.TrimPrefix(pattern, "**"+sep), sep+"**")
		for _, part := range strings.Split(relPath, sep) {
			if ok, _ := filepath.Match(name, part); ok {
				return true
			}
		}
		return false
	}

	prefix := strings.TrimSuffix(pattern, sep+"**")
	return relPath == prefix || strings.HasPrefix(relPath, prefix+sep)
}

// matchFilePattern reports whether a file matches an exclusion pattern.
// Patterns without a separator match the base name; others match the
// path relative to the listing root.
func matchFilePattern(relPath, pattern string) bool {
	pattern = filepath.FromSlash(pattern)
	sep := string(filepath.Separator)
	base := filepath.Base(relPath)

	switch {
	case strings.HasPrefix(pattern, "**"+sep):
		rest := strings.TrimPrefix(pattern, "**"+sep)
		if strings.HasSuffix(rest, sep+"**") {
			return matchDirPattern(filepath.Dir(relPath), pattern)
		}
		ok, _ := filepath.Match(rest, base)
		return ok

	case strings.HasSuffix(pattern, sep+"**"):
		return matchDirPattern(filepath.Dir(relPath), pattern)

	case strings.Contains(pattern, sep):
		ok, _ := filepath.Match(pattern, relPath)
		return ok

	default:
		ok, _ := filepath.Match(pattern, base)
		return ok
	}
}

// HasExtension reports whether name ends with one of exts. An empty list
// accepts every name.
func HasExtension(name string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}
	for _, ext := range exts {
		if ext == "*" || strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

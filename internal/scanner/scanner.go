package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	lru "github.com/hashicorp/golang-lru/v2"

	kwerrors "github.com/Aman-CERP/kwsearch/internal/errors"
)

// gitignoreCacheSize bounds the number of cached matchers (one per root).
const gitignoreCacheSize = 64

// Scanner lists searchable files under a directory.
type Scanner struct {
	// gitignoreCache holds the compiled .gitignore tree per absolute root,
	// so repeated listings (watch mode) skip re-reading it.
	gitignoreCache *lru.Cache[string, gitignore.Matcher]
	logger         *slog.Logger
}

// New creates a new Scanner instance.
func New(logger *slog.Logger) (*Scanner, error) {
	cache, err := lru.New[string, gitignore.Matcher](gitignoreCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create gitignore cache: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{
		gitignoreCache: cache,
		logger:         logger,
	}, nil
}

// List walks opts.RootDir and returns matching file paths in lexical order.
// Paths are RootDir joined with the path relative to it.
func (s *Scanner) List(ctx context.Context, opts *ListOptions) ([]string, error) {
	if opts == nil {
		opts = &ListOptions{}
	}

	rootDir := opts.RootDir
	if rootDir == "" {
		rootDir = "."
	}

	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, kwerrors.New(kwerrors.ErrCodeDirectoryNotFound, "invalid directory "+rootDir, err)
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, kwerrors.New(kwerrors.ErrCodeDirectoryNotFound, "directory not found: "+rootDir, err).
			WithSuggestion("pass an existing directory with --dir or set paths.directory")
	}
	if !info.IsDir() {
		return nil, kwerrors.New(kwerrors.ErrCodeDirectoryNotFound, "not a directory: "+rootDir, nil)
	}

	var ignore gitignore.Matcher
	if opts.RespectGitignore {
		ignore = s.gitignoreMatcher(absRoot)
	}

	var files []string
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			s.logger.Debug("list_skip_unreadable", slog.String("path", path), slog.String("error", err.Error()))
			return nil
		}

		relPath, err := filepath.Rel(absRoot, path)
		if err != nil || relPath == "." {
			return nil
		}

		if d.IsDir() {
			if s.excludeDir(relPath, opts, ignore) {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 && !opts.FollowSymlinks {
			return nil
		}
		if !d.Type().IsRegular() && d.Type()&fs.ModeSymlink == 0 {
			return nil
		}

		if !HasExtension(d.Name(), opts.Extensions) {
			return nil
		}
		if s.excludeFile(relPath, opts, ignore) {
			return nil
		}

		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			return nil
		}
		if opts.MaxFileSize > 0 && info.Size() > opts.MaxFileSize {
			skipped := filepath.Join(rootDir, relPath)
			skipErr := kwerrors.FileAccessError(skipped,
				fmt.Errorf("size %d exceeds max_file_size %d", info.Size(), opts.MaxFileSize)).
				WithSuggestion("raise or unset paths.max_file_size")
			s.logger.Warn("list_skip_large",
				slog.String("path", skipped),
				slog.Int64("size", info.Size()),
				slog.Int64("max_file_size", opts.MaxFileSize))
			if opts.OnSkip != nil {
				opts.OnSkip(skipped, skipErr)
			}
			return nil
		}

		files = append(files, relPath)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	for i, rel := range files {
		files[i] = filepath.Join(rootDir, rel)
	}

	s.logger.Debug("list_completed",
		slog.String("root", rootDir),
		slog.Int("files", len(files)))

	return files, nil
}

// InvalidateGitignore drops the cached matcher for rootDir, or all matchers
// when rootDir is empty.
func (s *Scanner) InvalidateGitignore(rootDir string) {
	if rootDir == "" {
		s.gitignoreCache.Purge()
		return
	}
	if absRoot, err := filepath.Abs(rootDir); err == nil {
		s.gitignoreCache.Remove(absRoot)
	}
}

func (s *Scanner) excludeDir(relPath string, opts *ListOptions, ignore gitignore.Matcher) bool {
	for _, pattern := range defaultExcludeDirs {
		if matchDirPattern(relPath, pattern) {
			return true
		}
	}
	for _, pattern := range opts.ExcludePatterns {
		if matchDirPattern(relPath, pattern) {
			return true
		}
	}
	return ignore != nil && ignore.Match(splitPath(relPath), true)
}

func (s *Scanner) excludeFile(relPath string, opts *ListOptions, ignore gitignore.Matcher) bool {
	for _, pattern := range opts.ExcludePatterns {
		if matchFilePattern(relPath, pattern) {
			return true
		}
	}
	return ignore != nil && ignore.Match(splitPath(relPath), false)
}

// gitignoreMatcher returns the matcher for every .gitignore under absRoot.
func (s *Scanner) gitignoreMatcher(absRoot string) gitignore.Matcher {
	if m, ok := s.gitignoreCache.Get(absRoot); ok {
		return m
	}

	patterns, err := gitignore.ReadPatterns(osfs.New(absRoot), nil)
	if err != nil {
		s.logger.Warn("gitignore_read_failed",
			slog.String("root", absRoot),
			slog.String("error", err.Error()))
	}

	m := gitignore.NewMatcher(patterns)
	s.gitignoreCache.Add(absRoot, m)
	return m
}

func splitPath(relPath string) []string {
	return strings.Split(filepath.ToSlash(relPath), "/")
}

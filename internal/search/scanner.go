package search

import (
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"

	kwerrors "github.com/Aman-CERP/kwsearch/internal/errors"
)

// nativeFS is a billy.Filesystem that resolves paths like the os package,
// relative to the working directory.
type nativeFS struct {
	osfs.ChrootOS
}

func (n *nativeFS) Chroot(path string) (billy.Filesystem, error) {
	return osfs.New(path), nil
}

func (n *nativeFS) Root() string {
	return "/"
}

// NativeFS returns the filesystem used when none is configured.
func NativeFS() billy.Filesystem {
	return &nativeFS{}
}

// FileScanner reports which keywords occur in a single file.
type FileScanner struct {
	fs      billy.Filesystem
	logger  *slog.Logger
	onError func(path string, err error)
}

// ScannerOption configures a FileScanner.
type ScannerOption func(*FileScanner)

// WithFilesystem reads files from fs instead of the native filesystem.
func WithFilesystem(fs billy.Filesystem) ScannerOption {
	return func(s *FileScanner) {
		s.fs = fs
	}
}

// WithScanLogger sets the logger that receives file access warnings.
func WithScanLogger(logger *slog.Logger) ScannerOption {
	return func(s *FileScanner) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithErrorHook registers fn to be called for every file that cannot be read.
func WithErrorHook(fn func(path string, err error)) ScannerOption {
	return func(s *FileScanner) {
		s.onError = fn
	}
}

// NewFileScanner creates a FileScanner over the native filesystem.
func NewFileScanner(opts ...ScannerOption) *FileScanner {
	s := &FileScanner{
		fs:     NativeFS(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan reads path fully and tests each keyword for substring containment.
// Read and decode failures are logged and yield a result with no matches.
func (s *FileScanner) Scan(path string, keywords Keywords) PartialResult {
	result := NewPartialResult(keywords)

	content, err := s.read(path)
	if err != nil {
		s.logger.Warn("file_access_failed", kwerrors.FormatForLog(err)...)
		if s.onError != nil {
			s.onError(path, err)
		}
		return result
	}

	for _, kw := range keywords {
		if strings.Contains(content, kw) {
			result[kw] = []string{path}
		}
	}

	return result
}

func (s *FileScanner) read(path string) (string, error) {
	data, err := util.ReadFile(s.fs, path)
	if err != nil {
		return "", kwerrors.FileAccessError(path, err)
	}
	if !utf8.Valid(data) {
		return "", kwerrors.FileAccessError(path, errInvalidUTF8).
			WithSuggestion("only UTF-8 text files can be searched")
	}
	return string(data), nil
}

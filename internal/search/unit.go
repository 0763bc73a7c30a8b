package search

import "context"

// Unit scans one chunk and delivers exactly one PartialResult on out.
// A Unit that returns an error has delivered nothing.
type Unit interface {
	Run(ctx context.Context, id int, chunk []string, keywords Keywords, out chan<- PartialResult) error
}

// ScanChunk scans each file in chunk order and concatenates per-keyword
// matches. It is the scan loop behind every Unit.
func ScanChunk(scanner *FileScanner, chunk []string, keywords Keywords) PartialResult {
	merged := NewPartialResult(keywords)
	for _, path := range chunk {
		for kw, paths := range scanner.Scan(path, keywords) {
			merged[kw] = append(merged[kw], paths...)
		}
	}
	return merged
}

// SharedUnit scans in the calling goroutine.
type SharedUnit struct {
	Scanner *FileScanner
}

// NewSharedUnit creates a SharedUnit. A nil scanner means NewFileScanner().
func NewSharedUnit(scanner *FileScanner) *SharedUnit {
	if scanner == nil {
		scanner = NewFileScanner()
	}
	return &SharedUnit{Scanner: scanner}
}

// Run implements Unit. It never fails.
func (u *SharedUnit) Run(_ context.Context, _ int, chunk []string, keywords Keywords, out chan<- PartialResult) error {
	out <- ScanChunk(u.Scanner, chunk, keywords)
	return nil
}

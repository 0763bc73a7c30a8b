// Package search implements keyword-presence search over a list of files.
//
// A run partitions the file list into contiguous chunks, hands each chunk to
// a worker Unit, and merges the units' partial results into a Result that
// maps every keyword to the files containing it.
//
// Two Unit implementations share the same scan loop (ScanChunk):
//   - SharedUnit runs in a goroutine of the calling process.
//   - worker.IsolatedUnit runs in a child process and talks JSON over pipes.
//
// Matching is case-sensitive substring containment on UTF-8 text. A file
// that cannot be read contributes no matches and does not fail the run.
package search

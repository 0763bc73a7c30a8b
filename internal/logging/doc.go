// Package logging provides structured JSON logging with size-based rotation
// for kwsearch.
//
// With --debug, logs are written to ~/.kwsearch/logs/kwsearch.log. Isolated
// worker processes append to the same file as their parent, so rotation is
// guarded by a lock file next to the log.
//
// Without --debug, only warnings and errors reach stderr.
package logging

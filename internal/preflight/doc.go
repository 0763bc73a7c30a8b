// Package preflight checks that kwsearch can run a search before it starts
// one.
//
// The checks cover:
//   - configuration validity
//   - the search directory (exists, readable, has matching files)
//   - isolated workers (the binary can be re-executed and answers a scan)
//   - the file descriptor limit, scaled to search.max_workers
//   - the log directory is writable
//
// Use the Checker type to run all validations:
//
//	checker := preflight.New(preflight.WithOutput(os.Stdout))
//	results := checker.RunAll(ctx, cfg)
//	if checker.HasCriticalFailures(results) {
//	    // Handle failures
//	}
package preflight

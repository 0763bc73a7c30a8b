// Package watcher reports changes under a search root so watch mode can
// re-run a search.
//
// FSWatcher adds every directory below the root to an fsnotify watcher,
// drops paths excluded by .gitignore and by extra ignore patterns, and
// passes the rest through a Debouncer that coalesces bursts into batches.
// Edits to a .gitignore file or to the project config arrive as their own
// operations so callers can reload before searching again.
//
//	w, err := watcher.New(watcher.Options{DebounceWindow: 300 * time.Millisecond})
//	if err != nil {
//	    return err
//	}
//	defer w.Stop()
//
//	go func() { _ = w.Start(ctx, root) }()
//	for batch := range w.Events() {
//	    rerun(batch)
//	}
package watcher

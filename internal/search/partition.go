package search

// DefaultMaxWorkers is the worker cap used when none is configured.
const DefaultMaxWorkers = 4

// WorkerCount returns min(maxWorkers, files), with maxWorkers <= 0 meaning
// DefaultMaxWorkers.
func WorkerCount(files, maxWorkers int) int {
	if maxWorkers <= 0 {
		maxWorkers = DefaultMaxWorkers
	}
	return min(maxWorkers, files)
}

// Partition splits files into WorkerCount contiguous chunks. The first n-1
// chunks hold len(files)/n files each and the last takes the remainder.
// An empty list yields no chunks.
func Partition(files []string, maxWorkers int) [][]string {
	n := WorkerCount(len(files), maxWorkers)
	if n == 0 {
		return nil
	}

	size := len(files) / n
	chunks := make([][]string, n)
	for i := 0; i < n; i++ {
		start := i * size
		end := start + size
		if i == n-1 {
			end = len(files)
		}
		// capped so appends cannot spill into the next chunk
		chunks[i] = files[start:end:end]
	}
	return chunks
}

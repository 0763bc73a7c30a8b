package preflight

import (
	"fmt"
	"syscall"
)

// MinFileDescriptors is the floor for the file descriptor limit.
const MinFileDescriptors = 256

// fdsPerWorker covers an isolated worker's pipes plus the file it reads.
const fdsPerWorker = 8

// RequiredFileDescriptors returns the limit needed to run maxWorkers
// workers at once.
func RequiredFileDescriptors(maxWorkers int) uint64 {
	need := uint64(64 + fdsPerWorker*max(maxWorkers, 0))
	return max(need, MinFileDescriptors)
}

// CheckFileDescriptors checks the soft RLIMIT_NOFILE against maxWorkers.
func (c *Checker) CheckFileDescriptors(maxWorkers int) CheckResult {
	result := CheckResult{
		Name:     "file_descriptors",
		Required: true,
	}

	var rLimit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("failed to check file descriptor limit: %v", err)
		return result
	}

	need := RequiredFileDescriptors(maxWorkers)
	result.Message = fmt.Sprintf("%d (need %d for %d workers)", rLimit.Cur, need, maxWorkers)

	if rLimit.Cur < need {
		result.Status = StatusFail
		result.Details = fmt.Sprintf("Run 'ulimit -n %d' or lower search.max_workers", need)
		return result
	}

	result.Status = StatusPass
	return result
}

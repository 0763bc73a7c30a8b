package ui

import (
	"sync"
	"time"
)

// ProgressTracker holds progress state across stages. It is safe for
// concurrent use; unit-done hooks call it from several goroutines.
type ProgressTracker struct {
	mu         sync.RWMutex
	stage      Stage
	current    int
	total      int
	message    string
	startTime  time.Time
	stageStart time.Time
	stageTimes map[Stage]time.Duration
	errors     []ErrorEvent
	warnings   []ErrorEvent
}

// ProgressStats is a snapshot of a ProgressTracker.
type ProgressStats struct {
	Stage      Stage
	Current    int
	Total      int
	Progress   float64
	Message    string
	Elapsed    time.Duration
	ErrorCount int
	WarnCount  int
}

// NewProgressTracker creates a tracker in StageListing.
func NewProgressTracker() *ProgressTracker {
	now := time.Now()
	return &ProgressTracker{
		stage:      StageListing,
		startTime:  now,
		stageStart: now,
		stageTimes: make(map[Stage]time.Duration),
	}
}

// SetStage moves to stage and resets the counters. Moving to the current
// stage only updates total.
func (p *ProgressTracker) SetStage(stage Stage, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if stage == p.stage {
		if total > 0 {
			p.total = total
		}
		return
	}

	now := time.Now()
	p.stageTimes[p.stage] += now.Sub(p.stageStart)
	p.stage = stage
	p.stageStart = now
	p.current = 0
	p.total = total
	p.message = ""
}

// Update records progress in the current stage. Progress never moves
// backwards, since hooks may report out of order.
func (p *ProgressTracker) Update(current int, message string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if current > p.current {
		p.current = current
	}
	if message != "" {
		p.message = message
	}
}

// AddError records an error or warning.
func (p *ProgressTracker) AddError(event ErrorEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if event.IsWarn {
		p.warnings = append(p.warnings, event)
	} else {
		p.errors = append(p.errors, event)
	}
}

// Stats returns a snapshot.
func (p *ProgressTracker) Stats() ProgressStats {
	p.mu.RLock()
	defer p.mu.RUnlock()

	progress := 0.0
	if p.total > 0 {
		progress = float64(p.current) / float64(p.total)
		if progress > 1.0 {
			progress = 1.0
		}
	}

	return ProgressStats{
		Stage:      p.stage,
		Current:    p.current,
		Total:      p.total,
		Progress:   progress,
		Message:    p.message,
		Elapsed:    time.Since(p.startTime),
		ErrorCount: len(p.errors),
		WarnCount:  len(p.warnings),
	}
}

// StageDuration returns the time spent in a finished stage.
func (p *ProgressTracker) StageDuration(stage Stage) time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.stageTimes[stage]
}

// Warnings returns the recorded warnings.
func (p *ProgressTracker) Warnings() []ErrorEvent {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make([]ErrorEvent, len(p.warnings))
	copy(result, p.warnings)
	return result
}

// Errors returns the recorded errors.
func (p *ProgressTracker) Errors() []ErrorEvent {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make([]ErrorEvent, len(p.errors))
	copy(result, p.errors)
	return result
}

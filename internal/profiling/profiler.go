// Package profiling writes CPU, heap and execution-trace profiles for a
// single command run, so the two search strategies can be compared.
package profiling

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
)

// Options names the profile files to write. Empty paths are skipped.
type Options struct {
	CPU   string
	Heap  string
	Trace string
}

// Enabled reports whether any profile was requested.
func (o Options) Enabled() bool {
	return o.CPU != "" || o.Heap != "" || o.Trace != ""
}

// Profiler manages the profiles of one run.
type Profiler struct {
	opts      Options
	cpuFile   *os.File
	traceFile *os.File
	started   bool
}

// New creates a Profiler for opts.
func New(opts Options) *Profiler {
	return &Profiler{opts: opts}
}

// Start begins CPU profiling and tracing. On error nothing is left running.
func (p *Profiler) Start() error {
	if p.started {
		return errors.New("profiler already started")
	}

	if p.opts.CPU != "" {
		f, err := os.Create(p.opts.CPU)
		if err != nil {
			return fmt.Errorf("failed to create CPU profile file: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			return fmt.Errorf("failed to start CPU profile: %w", err)
		}
		p.cpuFile = f
	}

	if p.opts.Trace != "" {
		f, err := os.Create(p.opts.Trace)
		if err != nil {
			p.stopCPU()
			return fmt.Errorf("failed to create trace file: %w", err)
		}
		if err := trace.Start(f); err != nil {
			_ = f.Close()
			p.stopCPU()
			return fmt.Errorf("failed to start trace: %w", err)
		}
		p.traceFile = f
	}

	p.started = true
	return nil
}

// Stop ends CPU profiling and tracing, then writes the heap profile.
// Safe to call when Start was never called.
func (p *Profiler) Stop() error {
	if !p.started {
		return nil
	}
	p.started = false

	p.stopCPU()
	if p.traceFile != nil {
		trace.Stop()
		_ = p.traceFile.Close()
		p.traceFile = nil
	}

	if p.opts.Heap != "" {
		return WriteHeap(p.opts.Heap)
	}
	return nil
}

func (p *Profiler) stopCPU() {
	if p.cpuFile != nil {
		pprof.StopCPUProfile()
		_ = p.cpuFile.Close()
		p.cpuFile = nil
	}
}

// WriteHeap writes a heap profile to path after a GC.
func WriteHeap(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create heap profile file: %w", err)
	}
	defer func() { _ = f.Close() }()

	runtime.GC()

	if err := pprof.WriteHeapProfile(f); err != nil {
		return fmt.Errorf("failed to write heap profile: %w", err)
	}
	return nil
}

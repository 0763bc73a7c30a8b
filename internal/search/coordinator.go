package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	kwerrors "github.com/Aman-CERP/kwsearch/internal/errors"
)

// Strategy selects how worker units execute.
type Strategy string

const (
	// StrategyShared runs units as goroutines in this process.
	StrategyShared Strategy = "shared"
	// StrategyIsolated runs each unit in its own child process.
	StrategyIsolated Strategy = "isolated"
)

// ParseStrategy accepts "shared"/"thread" and "isolated"/"process".
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "shared", "thread", "threads":
		return StrategyShared, nil
	case "isolated", "process", "processes":
		return StrategyIsolated, nil
	}
	return "", kwerrors.New(kwerrors.ErrCodeInvalidStrategy,
		fmt.Sprintf("unknown strategy %q", s), nil).
		WithSuggestion("use 'shared' or 'isolated'")
}

// State is a phase of a coordinator run.
type State int

const (
	StateIdle State = iota
	StatePartitioning
	StateDispatching
	StateAwaitingCompletion
	StateAggregating
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePartitioning:
		return "partitioning"
	case StateDispatching:
		return "dispatching"
	case StateAwaitingCompletion:
		return "awaiting_completion"
	case StateAggregating:
		return "aggregating"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Report describes a completed run.
type Report struct {
	RunID    string        `json:"run_id"`
	Strategy Strategy      `json:"strategy"`
	Workers  int           `json:"workers"`
	Files    int           `json:"files"`
	Result   *Result       `json:"results"`
	Duration time.Duration `json:"-"`
}

// Coordinator partitions a file list, runs one unit per chunk, and
// aggregates their partial results.
type Coordinator struct {
	units      map[Strategy]Unit
	maxWorkers int
	logger     *slog.Logger
	onState    func(State)
	onUnitDone func(done, total int)
	onPartial  func(received, expected int)
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithMaxWorkers caps the number of units per run.
func WithMaxWorkers(n int) CoordinatorOption {
	return func(c *Coordinator) {
		c.maxWorkers = n
	}
}

// WithLogger sets the coordinator's logger.
func WithLogger(logger *slog.Logger) CoordinatorOption {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithStateHook is called on every state transition.
func WithStateHook(fn func(State)) CoordinatorOption {
	return func(c *Coordinator) {
		c.onState = fn
	}
}

// WithUnitDoneHook is called as each unit finishes, from the unit's goroutine.
func WithUnitDoneHook(fn func(done, total int)) CoordinatorOption {
	return func(c *Coordinator) {
		c.onUnitDone = fn
	}
}

// WithPartialHook is called as each partial result is aggregated.
func WithPartialHook(fn func(received, expected int)) CoordinatorOption {
	return func(c *Coordinator) {
		c.onPartial = fn
	}
}

// NewCoordinator creates a Coordinator that runs strategy s with units[s].
func NewCoordinator(units map[Strategy]Unit, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		units:      units,
		maxWorkers: DefaultMaxWorkers,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run searches files for keywords using strategy. It waits for every unit
// before aggregating. If any unit fails to start, Run returns that error
// and no report.
func (c *Coordinator) Run(ctx context.Context, files []string, keywords Keywords, strategy Strategy) (*Report, error) {
	start := time.Now()
	c.transition(StateIdle)

	unit, ok := c.units[strategy]
	if !ok {
		return nil, kwerrors.New(kwerrors.ErrCodeInvalidStrategy,
			fmt.Sprintf("no worker unit for strategy %q", strategy), nil)
	}

	runID := uuid.NewString()
	ctx = ContextWithRunID(ctx, runID)
	logger := c.logger.With(
		slog.String("run_id", runID),
		slog.String("strategy", string(strategy)))

	c.transition(StatePartitioning)
	chunks := Partition(files, c.maxWorkers)
	logger.Info("search_started",
		slog.Int("files", len(files)),
		slog.Int("keywords", len(keywords)),
		slog.Int("workers", len(chunks)))

	c.transition(StateDispatching)
	out := make(chan PartialResult, len(chunks))
	var started atomic.Int64
	var spawnMu sync.Mutex
	var spawnErr error

	// Not errgroup.WithContext: one failed unit must not cancel the others.
	var g errgroup.Group
	for id, chunk := range chunks {
		g.Go(func() error {
			err := unit.Run(ctx, id, chunk, keywords, out)
			if err != nil {
				logger.Error("worker_failed",
					append([]any{slog.Int("worker_id", id)}, kwerrors.FormatForLog(err)...)...)
				spawnMu.Lock()
				if spawnErr == nil {
					spawnErr = err
				}
				spawnMu.Unlock()
				return nil
			}
			n := started.Add(1)
			if c.onUnitDone != nil {
				c.onUnitDone(int(n), len(chunks))
			}
			logger.Debug("worker_finished",
				slog.Int("worker_id", id),
				slog.Int("files", len(chunk)))
			return nil
		})
	}

	c.transition(StateAwaitingCompletion)
	_ = g.Wait()

	if spawnErr != nil {
		return nil, spawnErr
	}

	c.transition(StateAggregating)
	result := NewAggregator(keywords, c.onPartial).Collect(out, int(started.Load()))

	c.transition(StateDone)
	report := &Report{
		RunID:    runID,
		Strategy: strategy,
		Workers:  len(chunks),
		Files:    len(files),
		Result:   result,
		Duration: time.Since(start),
	}

	logger.Info("search_completed",
		slog.Int("workers", report.Workers),
		slog.Int("matches", result.Total()),
		slog.Duration("duration", report.Duration))

	return report, nil
}

type runIDKey struct{}

// ContextWithRunID returns ctx carrying the run ID.
func ContextWithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

// RunIDFromContext returns the run ID stored by the coordinator, or "".
func RunIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}

func (c *Coordinator) transition(s State) {
	c.logger.Debug("coordinator_state", slog.String("state", s.String()))
	if c.onState != nil {
		c.onState(s)
	}
}

package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"

	kwerrors "github.com/Aman-CERP/kwsearch/internal/errors"
	"github.com/Aman-CERP/kwsearch/internal/search"
)

// Subcommand is the argument that starts the child side of the protocol.
const Subcommand = "worker"

// IsolatedUnit runs each chunk in a fresh child process.
type IsolatedUnit struct {
	command    string
	args       []string
	env        []string
	stderr     io.Writer
	logger     *slog.Logger
	onFileErrs func(n int)
}

// Option configures an IsolatedUnit.
type Option func(*IsolatedUnit)

// WithCommand sets the executable and its arguments.
// The default is the running binary with the "worker" subcommand.
func WithCommand(command string, args ...string) Option {
	return func(u *IsolatedUnit) {
		u.command = command
		u.args = args
	}
}

// WithExtraArgs appends arguments to the child command line.
func WithExtraArgs(args ...string) Option {
	return func(u *IsolatedUnit) {
		u.args = append(u.args, args...)
	}
}

// WithEnv adds KEY=VALUE entries to the child environment.
func WithEnv(env ...string) Option {
	return func(u *IsolatedUnit) {
		u.env = append(u.env, env...)
	}
}

// WithStderr redirects child stderr. The default is os.Stderr.
func WithStderr(w io.Writer) Option {
	return func(u *IsolatedUnit) {
		u.stderr = w
	}
}

// WithLogger sets the parent-side logger.
func WithLogger(logger *slog.Logger) Option {
	return func(u *IsolatedUnit) {
		if logger != nil {
			u.logger = logger
		}
	}
}

// WithFileErrorHook receives each child's count of unreadable files.
func WithFileErrorHook(fn func(n int)) Option {
	return func(u *IsolatedUnit) {
		u.onFileErrs = fn
	}
}

// NewIsolatedUnit creates an IsolatedUnit that re-executes the current binary.
func NewIsolatedUnit(opts ...Option) (*IsolatedUnit, error) {
	u := &IsolatedUnit{
		stderr: os.Stderr,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(u)
	}

	if u.command == "" {
		exe, err := os.Executable()
		if err != nil {
			return nil, kwerrors.New(kwerrors.ErrCodeWorkerSpawn, "cannot locate kwsearch executable", err)
		}
		u.command = exe
		u.args = append([]string{Subcommand}, u.args...)
	}

	return u, nil
}

// Run implements search.Unit. It sends on out only after a complete,
// successful exchange with the child.
func (u *IsolatedUnit) Run(ctx context.Context, id int, chunk []string, keywords search.Keywords, out chan<- search.PartialResult) error {
	cmd := exec.CommandContext(ctx, u.command, u.args...)
	cmd.Env = append(os.Environ(), u.env...)
	cmd.Stderr = u.stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return kwerrors.WorkerSpawnError(id, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return kwerrors.WorkerSpawnError(id, err)
	}

	if err := cmd.Start(); err != nil {
		return kwerrors.WorkerSpawnError(id, err).
			WithDetail("command", u.command).
			WithSuggestion("check that the kwsearch binary is executable and system process limits are not exhausted")
	}

	u.logger.Debug("worker_spawned",
		slog.Int("worker_id", id),
		slog.Int("pid", cmd.Process.Pid),
		slog.Int("files", len(chunk)))

	resp, exchangeErr := u.exchange(stdin, stdout, search.RunIDFromContext(ctx), id, chunk, keywords)
	waitErr := cmd.Wait()

	if exchangeErr != nil {
		if waitErr != nil {
			exchangeErr = fmt.Errorf("%w (child exited: %v)", exchangeErr, waitErr)
		}
		return kwerrors.WorkerProtocolError(id, exchangeErr)
	}
	if waitErr != nil {
		return kwerrors.WorkerProtocolError(id, waitErr)
	}

	if u.onFileErrs != nil && resp.FileErrors > 0 {
		u.onFileErrs(resp.FileErrors)
	}

	partial, err := resolve(resp.Hits, chunk, keywords)
	if err != nil {
		return kwerrors.WorkerProtocolError(id, err)
	}
	out <- partial
	return nil
}

func (u *IsolatedUnit) exchange(stdin io.WriteCloser, stdout io.Reader, runID string, id int, chunk []string, keywords search.Keywords) (*ScanResult, error) {
	req := NewScanRequest(fmt.Sprintf("req-%d", id), ScanParams{
		RunID:    runID,
		WorkerID: id,
		Chunk:    ToBytes(chunk),
		Keywords: ToBytes(keywords),
	})

	encErr := json.NewEncoder(stdin).Encode(req)
	closeErr := stdin.Close()
	if encErr != nil {
		return nil, fmt.Errorf("failed to send request: %w", encErr)
	}
	if closeErr != nil {
		return nil, fmt.Errorf("failed to close request stream: %w", closeErr)
	}

	var resp Response
	if err := json.NewDecoder(stdout).Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to receive response: %w", err)
	}
	// drain so Wait does not race a blocked writer
	_, _ = io.Copy(io.Discard, stdout)

	if resp.Error != nil {
		return nil, resp.Error
	}
	if resp.Result == nil {
		return nil, fmt.Errorf("response %s has no result", resp.ID)
	}
	return resp.Result, nil
}

// resolve maps the child's hit indexes onto the parent's own path strings,
// so paths come back byte-for-byte as they were sent.
func resolve(hits [][]int, chunk []string, keywords search.Keywords) (search.PartialResult, error) {
	if len(hits) != len(keywords) {
		return nil, fmt.Errorf("response has %d hit lists for %d keywords", len(hits), len(keywords))
	}
	pr := search.NewPartialResult(keywords)
	for k, kw := range keywords {
		if len(hits[k]) == 0 {
			continue
		}
		paths := make([]string, 0, len(hits[k]))
		for _, i := range hits[k] {
			if i < 0 || i >= len(chunk) {
				return nil, fmt.Errorf("hit index %d outside chunk of %d files", i, len(chunk))
			}
			paths = append(paths, chunk[i])
		}
		pr[kw] = paths
	}
	return pr, nil
}

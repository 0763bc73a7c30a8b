package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/go-git/go-billy/v5"

	"github.com/Aman-CERP/kwsearch/internal/search"
)

// ServeOptions configures the child side of the protocol.
type ServeOptions struct {
	Logger *slog.Logger
	// Filesystem overrides the native filesystem, for tests.
	Filesystem billy.Filesystem
}

// Serve reads one request from r, scans the chunk and writes one response
// to w. It returns an error only when the response cannot be written.
func Serve(ctx context.Context, r io.Reader, w io.Writer, opts ServeOptions) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	encoder := json.NewEncoder(w)

	var req Request
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		logger.Error("worker_request_invalid", slog.String("error", err.Error()))
		return encode(encoder, NewErrorResponse("", ErrCodeParseError, "failed to parse request"))
	}

	resp := handle(ctx, req, logger, opts.Filesystem)
	return encode(encoder, resp)
}

func handle(_ context.Context, req Request, logger *slog.Logger, fs billy.Filesystem) Response {
	if req.JSONRPC != ProtocolVersion {
		return NewErrorResponse(req.ID, ErrCodeInvalidRequest,
			fmt.Sprintf("unsupported jsonrpc version %q", req.JSONRPC))
	}
	if req.Method != MethodScan {
		return NewErrorResponse(req.ID, ErrCodeMethodNotFound,
			fmt.Sprintf("method not found: %s", req.Method))
	}
	if err := req.Params.Validate(); err != nil {
		return NewErrorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}

	p := req.Params
	logger = logger.With(
		slog.String("run_id", p.RunID),
		slog.Int("worker_id", p.WorkerID))

	var fileErrors atomic.Int64
	scanOpts := []search.ScannerOption{
		search.WithScanLogger(logger),
		search.WithErrorHook(func(string, error) { fileErrors.Add(1) }),
	}
	if fs != nil {
		scanOpts = append(scanOpts, search.WithFilesystem(fs))
	}

	// keyword order must match the request so Hits lines up with it
	chunk := FromBytes(p.Chunk)
	keywords := search.Keywords(FromBytes(p.Keywords))
	partial := search.ScanChunk(search.NewFileScanner(scanOpts...), chunk, keywords)

	logger.Debug("worker_chunk_scanned",
		slog.Int("files", len(chunk)),
		slog.Int64("file_errors", fileErrors.Load()))

	return NewSuccessResponse(req.ID, &ScanResult{
		Hits:       hitIndexes(chunk, keywords, partial),
		FileErrors: int(fileErrors.Load()),
	})
}

// hitIndexes turns each keyword's matched paths back into chunk indexes.
// ScanChunk keeps chunk order, so each list is a subsequence of chunk.
func hitIndexes(chunk []string, keywords search.Keywords, partial search.PartialResult) [][]int {
	hits := make([][]int, len(keywords))
	for k, kw := range keywords {
		matched := partial[kw]
		idx := make([]int, 0, len(matched))
		j := 0
		for i, path := range chunk {
			if j < len(matched) && matched[j] == path {
				idx = append(idx, i)
				j++
			}
		}
		hits[k] = idx
	}
	return hits
}

func encode(enc *json.Encoder, resp Response) error {
	if err := enc.Encode(resp); err != nil {
		return fmt.Errorf("failed to send response: %w", err)
	}
	return nil
}

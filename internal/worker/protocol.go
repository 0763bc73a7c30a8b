// Package worker runs search units in child processes.
//
// The parent starts `kwsearch worker`, writes one JSON-RPC 2.0 request on the
// child's stdin and reads one response from its stdout. Stdout carries only
// the protocol; the child logs to stderr.
//
// Paths and keywords travel as raw bytes (base64 in JSON) since file names
// need not be valid UTF-8. The child answers with indexes into the chunk,
// and the parent maps them back to its own path strings.
package worker

import "fmt"

// ProtocolVersion is the JSON-RPC version string on every message.
const ProtocolVersion = "2.0"

// MethodScan asks the child to scan a chunk of files.
const MethodScan = "scan"

// Standard JSON-RPC 2.0 error codes.
const (
	ErrCodeParseError     = -32700
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
)

// Request is sent from parent to child.
type Request struct {
	JSONRPC string     `json:"jsonrpc"`
	Method  string     `json:"method"`
	Params  ScanParams `json:"params"`
	ID      string     `json:"id"`
}

// ScanParams is one worker's assignment. Everything is passed by value.
type ScanParams struct {
	RunID    string   `json:"run_id,omitempty"`
	WorkerID int      `json:"worker_id"`
	Chunk    [][]byte `json:"chunk_paths"`
	Keywords [][]byte `json:"keywords"`
}

// Validate checks the assignment is well formed. An empty chunk or keyword
// list is valid.
func (p *ScanParams) Validate() error {
	if p.WorkerID < 0 {
		return fmt.Errorf("worker_id must be non-negative, got %d", p.WorkerID)
	}
	for i, path := range p.Chunk {
		if len(path) == 0 {
			return fmt.Errorf("chunk_paths[%d] is empty", i)
		}
	}
	return nil
}

// Response is sent from child to parent.
type Response struct {
	JSONRPC string      `json:"jsonrpc"`
	Result  *ScanResult `json:"result,omitempty"`
	Error   *Error      `json:"error,omitempty"`
	ID      string      `json:"id"`
}

// ScanResult is the partial result of one chunk. Hits[k] lists, in chunk
// order, the indexes of the files that contain the k-th request keyword.
type ScanResult struct {
	Hits [][]int `json:"hits"`
	// FileErrors counts files in the chunk that could not be read.
	FileErrors int `json:"file_errors"`
}

// Error represents a JSON-RPC 2.0 error.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("worker error %d: %s", e.Code, e.Message)
}

// ToBytes converts strings to their exact byte form for the wire.
func ToBytes(ss []string) [][]byte {
	out := make([][]byte, len(ss))
	for i, s := range ss {
		out[i] = []byte(s)
	}
	return out
}

// FromBytes is the inverse of ToBytes.
func FromBytes(bs [][]byte) []string {
	out := make([]string, len(bs))
	for i, b := range bs {
		out[i] = string(b)
	}
	return out
}

// NewScanRequest creates a scan request.
func NewScanRequest(id string, params ScanParams) Request {
	return Request{
		JSONRPC: ProtocolVersion,
		Method:  MethodScan,
		Params:  params,
		ID:      id,
	}
}

// NewSuccessResponse creates a successful response.
func NewSuccessResponse(id string, result *ScanResult) Response {
	return Response{
		JSONRPC: ProtocolVersion,
		Result:  result,
		ID:      id,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(id string, code int, message string) Response {
	return Response{
		JSONRPC: ProtocolVersion,
		Error: &Error{
			Code:    code,
			Message: message,
		},
		ID: id,
	}
}

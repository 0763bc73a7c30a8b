// Package mcp exposes keyword search to AI clients over the Model Context
// Protocol.
package mcp

import (
	"context"
	"errors"
	"fmt"

	kwerrors "github.com/Aman-CERP/kwsearch/internal/errors"
)

// Custom MCP error codes.
const (
	// ErrCodeDirectoryNotFound indicates the search directory does not exist.
	ErrCodeDirectoryNotFound = -32001

	// ErrCodeWorkerFailed indicates an isolated worker could not run.
	ErrCodeWorkerFailed = -32002

	// ErrCodeTimeout indicates the request timed out or was cancelled.
	ErrCodeTimeout = -32003

	// Standard JSON-RPC error codes.
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
)

// ErrToolNotFound indicates the requested tool does not exist.
var ErrToolNotFound = errors.New("tool not found")

// MCPError is an MCP protocol error with code and message.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// MapError converts internal errors to MCP errors.
func MapError(err error) *MCPError {
	if err == nil {
		return nil
	}

	var mcpErr *MCPError
	if errors.As(err, &mcpErr) {
		return mcpErr
	}

	var kwErr *kwerrors.KWError
	if errors.As(err, &kwErr) {
		return mapKWError(kwErr)
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request timed out."}
	case errors.Is(err, context.Canceled):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request was canceled."}
	case errors.Is(err, ErrToolNotFound):
		return &MCPError{Code: ErrCodeMethodNotFound, Message: "Tool not found."}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: "Internal server error."}
	}
}

// NewInvalidParamsError creates an error for invalid parameters.
func NewInvalidParamsError(msg string) *MCPError {
	return &MCPError{Code: ErrCodeInvalidParams, Message: msg}
}

// NewMethodNotFoundError creates an error for an unknown tool.
func NewMethodNotFoundError(name string) *MCPError {
	return &MCPError{Code: ErrCodeMethodNotFound, Message: fmt.Sprintf("Tool '%s' not found.", name)}
}

func mapKWError(e *kwerrors.KWError) *MCPError {
	message := e.Message
	if e.Suggestion != "" {
		message = fmt.Sprintf("%s. %s", e.Message, e.Suggestion)
	}

	switch {
	case e.Code == kwerrors.ErrCodeDirectoryNotFound:
		return &MCPError{Code: ErrCodeDirectoryNotFound, Message: message}
	case e.Category == kwerrors.CategoryValidation, e.Category == kwerrors.CategoryConfig:
		return &MCPError{Code: ErrCodeInvalidParams, Message: message}
	case e.Category == kwerrors.CategoryWorker:
		return &MCPError{Code: ErrCodeWorkerFailed, Message: message}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: message}
	}
}

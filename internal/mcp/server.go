package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Aman-CERP/kwsearch/internal/config"
	"github.com/Aman-CERP/kwsearch/internal/runner"
	"github.com/Aman-CERP/kwsearch/internal/search"
	"github.com/Aman-CERP/kwsearch/pkg/version"
)

// ServerName is reported to clients during initialization.
const ServerName = "kwsearch"

// maxWorkersLimit caps max_workers from clients.
const maxWorkersLimit = 64

// Server is the MCP server for kwsearch.
type Server struct {
	mcp    *mcp.Server
	runner *runner.Runner
	config *config.Config
	logger *slog.Logger
}

// NewServer creates a server that runs searches with r. cfg supplies the
// defaults for omitted tool arguments.
func NewServer(r *runner.Runner, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if r == nil {
		return nil, errors.New("runner is required")
	}
	if cfg == nil {
		cfg = config.NewConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		runner: r,
		config: cfg,
		logger: logger,
	}

	s.mcp = mcp.NewServer(&mcp.Implementation{
		Name:    ServerName,
		Version: version.Version,
	}, nil)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        toolKeywordSearch,
		Description: keywordSearchDescription,
	}, s.mcpKeywordSearchHandler)
	s.logger.Debug("mcp_tool_registered", slog.String("name", toolKeywordSearch))

	return s, nil
}

// MCPServer returns the underlying SDK server.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// ListTools returns the registered tools.
func (s *Server) ListTools() []ToolInfo {
	return []ToolInfo{{Name: toolKeywordSearch, Description: keywordSearchDescription}}
}

// CallTool invokes a tool by name without going through a transport.
func (s *Server) CallTool(ctx context.Context, name string, input KeywordSearchInput) (*KeywordSearchOutput, error) {
	if name != toolKeywordSearch {
		return nil, NewMethodNotFoundError(name)
	}
	return s.keywordSearch(ctx, input)
}

// Serve runs the server on stdin/stdout until ctx is cancelled or the
// client disconnects.
func (s *Server) Serve(ctx context.Context) error {
	return s.ServeTransport(ctx, &mcp.StdioTransport{})
}

// ServeTransport runs the server on t.
func (s *Server) ServeTransport(ctx context.Context, t mcp.Transport) error {
	s.logger.Info("mcp_server_starting", slog.String("version", version.Version))

	err := s.mcp.Run(ctx, t)
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("mcp_server_stopped", slog.String("error", err.Error()))
		return err
	}
	s.logger.Info("mcp_server_stopped")
	return nil
}

func (s *Server) mcpKeywordSearchHandler(ctx context.Context, _ *mcp.CallToolRequest, input KeywordSearchInput) (
	*mcp.CallToolResult,
	KeywordSearchOutput,
	error,
) {
	out, err := s.keywordSearch(ctx, input)
	if err != nil {
		return nil, KeywordSearchOutput{}, err
	}
	return nil, *out, nil
}

func (s *Server) keywordSearch(ctx context.Context, input KeywordSearchInput) (*KeywordSearchOutput, error) {
	requestID := uuid.NewString()[:8]
	logger := s.logger.With(slog.String("request_id", requestID))

	cfg, err := s.runConfig(input)
	if err != nil {
		return nil, err
	}

	logger.Info("keyword_search_started",
		slog.Int("keywords", len(cfg.Keywords)),
		slog.String("directory", cfg.Directory),
		slog.String("strategy", cfg.Strategy))

	res, err := s.runner.Run(ctx, cfg)
	if err != nil {
		logger.Error("keyword_search_failed", slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	out := toOutput(res)
	logger.Info("keyword_search_completed",
		slog.Int("files", out.Files),
		slog.Float64("duration_ms", out.DurationMS))
	return out, nil
}

// runConfig fills omitted input from the server config and validates it.
func (s *Server) runConfig(input KeywordSearchInput) (runner.RunConfig, error) {
	cfg := runner.FromConfig(s.config)

	for i, kw := range input.Keywords {
		if kw == "" {
			return cfg, NewInvalidParamsError(fmt.Sprintf("keywords[%d] is empty", i))
		}
	}
	keywords := search.NewKeywords(input.Keywords...)
	if len(keywords) == 0 {
		return cfg, NewInvalidParamsError("keywords must contain at least one non-empty string")
	}
	cfg.Keywords = keywords

	if d := strings.TrimSpace(input.Directory); d != "" {
		cfg.Directory = d
	}
	if len(input.Extensions) > 0 {
		cfg.Extensions = input.Extensions
	}
	if input.Strategy != "" {
		if _, err := search.ParseStrategy(input.Strategy); err != nil {
			return cfg, MapError(err)
		}
		cfg.Strategy = input.Strategy
	}
	switch {
	case input.MaxWorkers < 0:
		return cfg, NewInvalidParamsError("max_workers must be positive")
	case input.MaxWorkers > maxWorkersLimit:
		return cfg, NewInvalidParamsError(fmt.Sprintf("max_workers must be at most %d", maxWorkersLimit))
	case input.MaxWorkers > 0:
		cfg.MaxWorkers = input.MaxWorkers
	}

	return cfg, nil
}

func toOutput(res *runner.RunResult) *KeywordSearchOutput {
	rep := res.Report
	return &KeywordSearchOutput{
		Keywords:   rep.Result.Keywords,
		Results:    rep.Result.Matches,
		Strategy:   string(rep.Strategy),
		Workers:    rep.Workers,
		Files:      rep.Files,
		Warnings:   res.Warnings,
		DurationMS: float64(rep.Duration.Microseconds()) / 1000,
	}
}

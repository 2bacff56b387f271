// Package mcp provides Model Context Protocol server functionality.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/fundsight/fundsight/domain/query"
	"github.com/fundsight/fundsight/internal/log"
)

// Answerer answers questions over ingested fund reports for MCP tools.
type Answerer interface {
	Process(ctx context.Context, question string, fundID *int64) (query.Response, error)
}

// MetricsLookup computes fund performance metrics for MCP tools.
type MetricsLookup interface {
	CalculateAll(ctx context.Context, fundID int64) (map[string]float64, error)
}

// Server wraps the MCP server with fundsight-specific tools.
type Server struct {
	mcpServer *server.MCPServer
	answerer  Answerer
	metrics   MetricsLookup
	logger    *log.Logger
}

// NewServer creates a new MCP server with the given dependencies.
func NewServer(answerer Answerer, metrics MetricsLookup, version string, logger *log.Logger) *Server {
	s := &Server{
		answerer: answerer,
		metrics:  metrics,
		logger:   logger,
	}

	mcpServer := server.NewMCPServer(
		"fundsight",
		version,
		server.WithToolCapabilities(true),
	)

	s.registerTools(mcpServer)

	s.mcpServer = mcpServer
	return s
}

// registerTools registers all fundsight tools with the MCP server.
func (s *Server) registerTools(mcpServer *server.MCPServer) {
	askTool := mcp.NewTool("ask",
		mcp.WithDescription("Ask a question about ingested private equity fund reports"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The question to answer"),
		),
		mcp.WithNumber("fund_id",
			mcp.Description("Restrict the answer to one fund"),
		),
	)

	mcpServer.AddTool(askTool, s.handleAsk)

	metricsTool := mcp.NewTool("fund_metrics",
		mcp.WithDescription("Compute DPI, TVPI, and IRR for a fund from its ledger"),
		mcp.WithNumber("fund_id",
			mcp.Required(),
			mcp.Description("The numeric ID of the fund"),
		),
	)

	mcpServer.AddTool(metricsTool, s.handleFundMetrics)
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query is required"), nil
	}

	var fundID *int64
	if raw := request.GetInt("fund_id", 0); raw != 0 {
		id := int64(raw)
		fundID = &id
	}

	resp, err := s.answerer.Process(ctx, question, fundID)
	if err != nil {
		s.logger.Error("ask failed", "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("ask failed: %v", err)), nil
	}

	type askResult struct {
		Answer  string             `json:"answer"`
		Intent  string             `json:"intent"`
		Sources []query.Source     `json:"sources"`
		Metrics map[string]float64 `json:"metrics,omitempty"`
	}

	jsonBytes, err := json.Marshal(askResult{
		Answer:  resp.Answer(),
		Intent:  string(resp.Intent()),
		Sources: resp.Sources(),
		Metrics: resp.Metrics(),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}

	return mcp.NewToolResultText(string(jsonBytes)), nil
}

// handleFundMetrics handles the fund_metrics tool invocation.
func (s *Server) handleFundMetrics(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fundID := request.GetInt("fund_id", 0)
	if fundID <= 0 {
		return mcp.NewToolResultError("fund_id is required"), nil
	}

	metrics, err := s.metrics.CalculateAll(ctx, int64(fundID))
	if err != nil {
		s.logger.Error("metrics failed", "fund_id", fundID, "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("failed to calculate metrics: %v", err)), nil
	}

	jsonBytes, err := json.Marshal(metrics)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}

	return mcp.NewToolResultText(string(jsonBytes)), nil
}

// MCPServer returns the underlying MCP server for stdio serving.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio runs the MCP server on stdio.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

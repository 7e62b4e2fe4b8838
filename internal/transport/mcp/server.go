// Package mcp exposes the query facade and catalog over the Model Context
// Protocol: tools, the operations guidance resource and the table analysis prompt.
package mcp

import (
	"context"
	"fmt"
	"net/http"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

// Config names the server in the protocol handshake.
type Config struct {
	Name    string
	Version string
}

// Server owns the protocol server and its registered capabilities.
type Server struct {
	srv     *sdk.Server
	query   QueryService
	catalog CatalogService
	logger  *zap.Logger
}

// NewServer registers every tool, the guidance resource and the analysis prompt.
func NewServer(cfg Config, q QueryService, c CatalogService, logger *zap.Logger) *Server {
	s := &Server{
		srv:     sdk.NewServer(&sdk.Implementation{Name: cfg.Name, Version: cfg.Version}, nil),
		query:   q,
		catalog: c,
		logger:  logger,
	}

	tools := s.registerTools()
	s.registerResources()
	s.registerPrompts()

	logger.Info("MCP capabilities registered",
		zap.Int("tools", tools),
		zap.Strings("resources", []string{GuidanceURI}),
		zap.Strings("prompts", []string{PromptTableAnalysis}),
	)
	return s
}

// RunStdio serves a single session over stdin/stdout until ctx is done or
// the client disconnects.
func (s *Server) RunStdio(ctx context.Context) error {
	if err := s.srv.Run(ctx, &sdk.StdioTransport{}); err != nil {
		return fmt.Errorf("stdio transport: %w", err)
	}
	return nil
}

// Connect serves one session over t. Used by in-process clients.
func (s *Server) Connect(ctx context.Context, t sdk.Transport) (*sdk.ServerSession, error) {
	ss, err := s.srv.Connect(ctx, t, nil)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	return ss, nil
}

// Handler returns the streamable HTTP handler, mounted at /mcp.
func (s *Server) Handler() http.Handler {
	return sdk.NewStreamableHTTPHandler(func(*http.Request) *sdk.Server { return s.srv }, nil)
}

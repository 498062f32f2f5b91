// Package mcp exposes the persona's interoception state, candidate
// scoring, and outbox as a Model Context Protocol server so an
// out-of-process LLM-tool runtime can inspect and nudge a running
// instance (spec.md §6.6).
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/quietsignal/persona-core/internal/domain/decision"
	"github.com/quietsignal/persona-core/internal/domain/signal"
	"github.com/quietsignal/persona-core/internal/port/store"
)

// Deps wires the state this server reads and mutates. All fields are
// required; Server panics on first use of a nil dependency rather than
// silently no-opping, since a misconfigured MCP surface is a bootstrap
// bug, not a runtime condition.
type Deps struct {
	InteroceptionStore store.InteroceptionStore
	AgentStateStore    store.AgentStateStore
	OutboxStore        store.OutboxStore
	SignalConfigs      []signal.Config
	Weights            decision.Weights
}

// Server hosts the MCP tool and resource registrations over HTTP.
type Server struct {
	addr      string
	deps      Deps
	mcpServer *mcpserver.MCPServer
	http      *mcpserver.StreamableHTTPServer
	rng       *rand.Rand
}

// NewServer builds an MCP server bound to addr, registering every
// tool and resource in spec.md §6.6.
func NewServer(addr string, deps Deps) *Server {
	mcpSrv := mcpserver.NewMCPServer("persona-core", "1.0.0",
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(true, true),
	)

	s := &Server{
		addr:      addr,
		deps:      deps,
		mcpServer: mcpSrv,
		rng:       rand.New(rand.NewSource(1)),
	}
	s.registerTools()
	s.registerResources()
	s.http = mcpserver.NewStreamableHTTPServer(mcpSrv)
	return s
}

// Start begins serving MCP requests over HTTP. It blocks until the
// server stops or returns an error.
func (s *Server) Start() error {
	slog.Info("mcp server starting", "addr", s.addr)
	if err := s.http.Start(s.addr); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}

// Stop shuts the MCP HTTP server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	if err := s.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("mcp server shutdown: %w", err)
	}
	return nil
}
